// internal/config/validate.go
package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

var supportedBauds = map[int]bool{
	9600:   true,
	19200:  true,
	38400:  true,
	57600:  true,
	115200: true,
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// ------------------------------------------------------------
	// SERIAL
	// ------------------------------------------------------------

	if cfg.Serial.Device == "" {
		return fmt.Errorf("serial.device is required")
	}
	if cfg.Serial.Baud != 0 && !supportedBauds[cfg.Serial.Baud] {
		return fmt.Errorf("serial.baud %d is not supported by the reader", cfg.Serial.Baud)
	}
	if cfg.Serial.ReadSliceMs < 0 {
		return fmt.Errorf("serial.read_slice_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// READER
	// ------------------------------------------------------------

	r := cfg.Reader
	switch r.Variant {
	case "", "rr", "gx":
	default:
		return fmt.Errorf("reader.variant %q unknown (want rr or gx)", r.Variant)
	}
	switch r.Decoder {
	case "", "reader18", "count":
	default:
		return fmt.Errorf("reader.decoder %q unknown (want reader18 or count)", r.Decoder)
	}
	if r.Session > 3 {
		return fmt.Errorf("reader.session %d out of range 0-3", r.Session)
	}
	if r.QValue != nil && *r.QValue > 15 {
		return fmt.Errorf("reader.q_value %d out of range 0-15", *r.QValue)
	}
	if r.IntervalMs != nil && *r.IntervalMs < 0 {
		return fmt.Errorf("reader.interval_ms must be >= 0")
	}
	if r.RfPower != nil && *r.RfPower > 30 {
		return fmt.Errorf("reader.rf_power %d out of range 0-30", *r.RfPower)
	}
	if r.Antenna != nil && *r.Antenna == 0 {
		return fmt.Errorf("reader.antenna mask must not be 0")
	}

	// ------------------------------------------------------------
	// STATUS BLOCK (OPT-IN)
	// ------------------------------------------------------------

	if s := cfg.Status; s != nil {
		if s.Endpoint == "" {
			return fmt.Errorf("status.endpoint is required when status is set")
		}
		for i := 0; i < len(s.DeviceName); i++ {
			if s.DeviceName[i] > 0x7F {
				return fmt.Errorf("status.device_name must contain ASCII characters only")
			}
		}
		if s.TimeoutMs < 0 {
			return fmt.Errorf("status.timeout_ms must be >= 0")
		}
	}

	// ------------------------------------------------------------
	// LOG
	// ------------------------------------------------------------

	if cfg.Log.Level != "" {
		if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
			return fmt.Errorf("log.level: %v", err)
		}
	}
	switch cfg.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format %q unknown (want text or json)", cfg.Log.Format)
	}

	return nil
}
