// internal/config/validate_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// helper to build a minimal valid config quickly
func minimal() *Config {
	return &Config{
		Serial: SerialConfig{Device: "/dev/ttyUSB0"},
	}
}

func u8(v uint8) *uint8 { return &v }

// ---- tests ----

func TestValidate_Minimal(t *testing.T) {
	if err := Validate(minimal()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Failures(t *testing.T) {
	cases := map[string]func(c *Config){
		"missing device":  func(c *Config) { c.Serial.Device = "" },
		"odd baud":        func(c *Config) { c.Serial.Baud = 14400 },
		"unknown variant": func(c *Config) { c.Reader.Variant = "zz" },
		"unknown decoder": func(c *Config) { c.Reader.Decoder = "vendor" },
		"session":         func(c *Config) { c.Reader.Session = 4 },
		"q value":         func(c *Config) { c.Reader.QValue = u8(16) },
		"antenna zero":    func(c *Config) { c.Reader.Antenna = u8(0) },
		"rf power":        func(c *Config) { c.Reader.RfPower = u8(31) },
		"status endpoint": func(c *Config) { c.Status = &StatusConfig{} },
		"non ascii name": func(c *Config) {
			c.Status = &StatusConfig{Endpoint: "127.0.0.1:502", DeviceName: "lector-ñ"}
		},
		"log level":  func(c *Config) { c.Log.Level = "loud" },
		"log format": func(c *Config) { c.Log.Format = "xml" },
	}

	for name, mutate := range cases {
		cfg := minimal()
		mutate(cfg)
		if err := Validate(cfg); err == nil {
			t.Fatalf("%s: expected error, got nil", name)
		}
	}
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := minimal()
	cfg.Status = &StatusConfig{Endpoint: "127.0.0.1:502", DeviceName: "DOCK-DOOR-READER-07"}

	require.NoError(t, Validate(cfg))
	Normalize(cfg)

	assert.Equal(t, 115200, cfg.Serial.Baud)
	assert.Equal(t, "rr", cfg.Reader.Variant)
	assert.Equal(t, "reader18", cfg.Reader.Decoder)
	assert.Equal(t, uint8(0xFF), *cfg.Reader.Address)
	assert.Equal(t, uint8(20), cfg.Reader.ScanTime)
	assert.Equal(t, uint8(4), *cfg.Reader.QValue)
	assert.Equal(t, 20, *cfg.Reader.IntervalMs)
	assert.Equal(t, "DOCK-DOOR-READER", cfg.Status.DeviceName)
	assert.Equal(t, 1000, cfg.Status.TimeoutMs)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestNormalize_KeepsExplicitZeroes(t *testing.T) {
	cfg := minimal()
	zero := 0
	cfg.Reader.Address = u8(0)
	cfg.Reader.QValue = u8(0)
	cfg.Reader.IntervalMs = &zero

	Normalize(cfg)

	assert.Equal(t, uint8(0), *cfg.Reader.Address)
	assert.Equal(t, uint8(0), *cfg.Reader.QValue)
	assert.Equal(t, 0, *cfg.Reader.IntervalMs)
}

func TestParse_YAML(t *testing.T) {
	src := []byte(`
serial:
  device: /dev/ttyS1
  baud: 57600
reader:
  variant: rr
  session: 2
  q_value: 6
  rf_power: 26
inventory:
  autostart: true
status:
  endpoint: 10.0.0.5:502
  unit_id: 3
  slot: 2
  device_name: GATE-A
http:
  listen: ":8080"
log:
  level: debug
  format: json
`)

	cfg, err := Parse(src)
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "/dev/ttyS1", cfg.Serial.Device)
	assert.Equal(t, uint8(2), cfg.Reader.Session)
	assert.Equal(t, uint8(6), *cfg.Reader.QValue)
	assert.Equal(t, uint8(26), *cfg.Reader.RfPower)
	assert.True(t, cfg.Inventory.Autostart)
	require.NotNil(t, cfg.Status)
	assert.Equal(t, uint16(2), cfg.Status.Slot)
	assert.Equal(t, ":8080", cfg.HTTP.Listen)
}

func TestParse_UnknownKeyRejected(t *testing.T) {
	_, err := Parse([]byte("serial:\n  port: /dev/ttyS0\n"))
	assert.Error(t, err)
}
