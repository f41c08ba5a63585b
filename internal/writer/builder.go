// internal/writer/builder.go
package writer

import (
	"time"

	"github.com/pkg/errors"

	cfg "github.com/tamzrod/uhf-inventory/internal/config"
	wmodbus "github.com/tamzrod/uhf-inventory/internal/writer/modbus"
)

// BuildStatusPlan converts the status section into a StatusPlan.
// A nil section yields a nil plan (export disabled).
func BuildStatusPlan(s *cfg.StatusConfig) (*StatusPlan, error) {
	if s == nil {
		return nil, nil
	}
	if s.Endpoint == "" {
		return nil, errors.New("writer: status.endpoint required")
	}

	return &StatusPlan{
		Endpoint:   s.Endpoint,
		UnitID:     uint16(s.UnitID),
		BaseSlot:   s.Slot,
		DeviceName: s.DeviceName,
	}, nil
}

// Build creates the status writer and its Modbus TCP client.
// It returns (nil, no-op closer, nil) when status export is disabled.
func Build(s *cfg.StatusConfig) (StatusWriter, func() error, error) {
	noop := func() error { return nil }

	plan, err := BuildStatusPlan(s)
	if err != nil {
		return nil, nil, err
	}
	if plan == nil {
		return nil, noop, nil
	}

	c, err := wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: plan.Endpoint,
		Timeout:  time.Duration(s.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "writer: connect %s", plan.Endpoint)
	}

	sw, _ := NewStatusWriter(plan, c)
	return sw, c.Close, nil
}
