// internal/config/normalize.go
package config

const (
	DefaultBaud      = 115200
	DefaultVariant   = "rr"
	DefaultDecoder   = "reader18"
	DefaultAddress   = 0xFF
	DefaultScanTime  = 20
	DefaultQValue    = 4
	DefaultInterval  = 20
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	statusTimeoutMs  = 1000
	deviceNameMax    = 16
)

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = DefaultBaud
	}

	r := &cfg.Reader
	if r.Variant == "" {
		r.Variant = DefaultVariant
	}
	if r.Decoder == "" {
		r.Decoder = DefaultDecoder
	}
	if r.Address == nil {
		v := uint8(DefaultAddress)
		r.Address = &v
	}
	if r.ScanTime == 0 {
		r.ScanTime = DefaultScanTime
	}
	if r.QValue == nil {
		v := uint8(DefaultQValue)
		r.QValue = &v
	}
	if r.IntervalMs == nil {
		v := DefaultInterval
		r.IntervalMs = &v
	}

	// ------------------------------------------------------------
	// DEVICE STATUS BLOCK NORMALIZATION (OPT-IN)
	// ------------------------------------------------------------

	if s := cfg.Status; s != nil {
		// ASCII already validated; truncate to the register budget.
		if len(s.DeviceName) > deviceNameMax {
			s.DeviceName = s.DeviceName[:deviceNameMax]
		}
		if s.TimeoutMs == 0 {
			s.TimeoutMs = statusTimeoutMs
		}
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
