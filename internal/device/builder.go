// internal/device/builder.go
package device

import (
	"time"

	"github.com/sirupsen/logrus"

	cfg "github.com/tamzrod/uhf-inventory/internal/config"
	"github.com/tamzrod/uhf-inventory/internal/protocol"
	"github.com/tamzrod/uhf-inventory/internal/reader"
	"github.com/tamzrod/uhf-inventory/internal/transport"
)

// Build constructs a disconnected Device from validated, normalized config.
// The returned closer disconnects.
func Build(c *cfg.Config, log logrus.FieldLogger) (*Device, func() error, error) {
	variant, err := VariantByName(c.Reader.Variant)
	if err != nil {
		return nil, nil, err
	}
	dec, err := protocol.DecoderByName(c.Reader.Decoder)
	if err != nil {
		return nil, nil, err
	}

	tr := transport.NewSerial(transport.SerialConfig{
		ReadSlice: time.Duration(c.Serial.ReadSliceMs) * time.Millisecond,
	}, log)

	d, err := New(tr, Config{
		Variant: variant,
		Decoder: dec,
		Log:     log,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := d.SetParameter(ParameterFromConfig(c.Reader)); err != nil {
		return nil, nil, err
	}

	return d, d.Disconnect, nil
}

// ParameterFromConfig overlays the reader section onto the defaults.
// Normalize must have run.
func ParameterFromConfig(r cfg.ReaderConfig) reader.Parameter {
	p := reader.DefaultParameter()
	if r.Address != nil {
		p.Address = *r.Address
	}
	if r.ScanTime != 0 {
		p.ScanTime = r.ScanTime
	}
	p.Session = r.Session
	if r.QValue != nil {
		p.QValue = *r.QValue
	}
	p.TidPtr = r.TidPtr
	p.TidLen = r.TidLen
	if r.Antenna != nil {
		p.Antenna = *r.Antenna
	}
	if r.IntervalMs != nil {
		p.Interval = *r.IntervalMs
	}
	return p
}

// Bootstrap connects, applies the one-shot reader settings and optionally
// starts inventory. ONE attempt; the caller decides what failure means.
func Bootstrap(d *Device, c *cfg.Config) (reader.Info, error) {
	info, err := d.Connect(c.Serial.Device, c.Serial.Baud)
	if err != nil {
		return reader.Info{}, err
	}

	if c.Reader.RfPower != nil {
		if err := d.SetRfPower(*c.Reader.RfPower); err != nil {
			return info, err
		}
	}
	if c.Reader.Antenna != nil {
		if err := d.SetAntenna(*c.Reader.Antenna); err != nil {
			return info, err
		}
	}
	if c.Inventory.Autostart {
		if err := d.StartInventory(); err != nil {
			return info, err
		}
	}
	return info, nil
}
