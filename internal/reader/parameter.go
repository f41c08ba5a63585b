// internal/reader/parameter.go
package reader

import "time"

// Parameter is the inventory configuration owned by a reader session.
type Parameter struct {
	Address  byte `json:"address"`
	ScanTime byte `json:"scan_time"` // 100 ms units
	Session  byte `json:"session"`
	QValue   byte `json:"q_value"`
	TidPtr   byte `json:"tid_ptr"`
	TidLen   byte `json:"tid_len"`
	Antenna  byte `json:"antenna"`
	Interval int  `json:"interval_ms"`
}

// DefaultParameter returns the power-on defaults.
func DefaultParameter() Parameter {
	return Parameter{
		Address:  0xFF,
		ScanTime: 20,
		Session:  0,
		QValue:   4,
		TidPtr:   0,
		TidLen:   0,
		Antenna:  0x80,
		Interval: 20,
	}
}

// Validate checks ranges the reader would reject or misread.
func (p Parameter) Validate() error {
	if p.Session > 3 {
		return invalid("session %d out of range 0-3", p.Session)
	}
	if p.QValue > 15 {
		return invalid("q value %d out of range 0-15", p.QValue)
	}
	if p.ScanTime == 0 {
		return invalid("scan time must be > 0")
	}
	if p.Interval < 0 {
		return invalid("interval must be >= 0")
	}
	return nil
}

// ScanBudget is the reader-side inventory time for one round.
func (p Parameter) ScanBudget() time.Duration {
	return time.Duration(p.ScanTime) * 100 * time.Millisecond
}

// PollInterval is the pause between inventory rounds.
func (p Parameter) PollInterval() time.Duration {
	return time.Duration(p.Interval) * time.Millisecond
}
