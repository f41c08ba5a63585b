// internal/config/config.go
package config

type Config struct {
	Serial    SerialConfig    `yaml:"serial"`
	Reader    ReaderConfig    `yaml:"reader"`
	Inventory InventoryConfig `yaml:"inventory"`
	Status    *StatusConfig   `yaml:"status"`
	HTTP      HTTPConfig      `yaml:"http"`
	Log       LogConfig       `yaml:"log"`
}

// ---- SERIAL ----

type SerialConfig struct {
	Device      string `yaml:"device"`
	Baud        int    `yaml:"baud"`
	ReadSliceMs int    `yaml:"read_slice_ms"`
}

// ---- READER ----

type ReaderConfig struct {
	// Hardware family, chosen once at connect: "rr" or "gx".
	Variant string `yaml:"variant"`

	// Inventory reply layout: "reader18" or "count".
	Decoder string `yaml:"decoder"`

	Address    *uint8 `yaml:"address"`
	ScanTime   uint8  `yaml:"scan_time"`
	Session    uint8  `yaml:"session"`
	QValue     *uint8 `yaml:"q_value"`
	TidPtr     uint8  `yaml:"tid_ptr"`
	TidLen     uint8  `yaml:"tid_len"`
	IntervalMs *int   `yaml:"interval_ms"`

	// Applied once after connect when set.
	RfPower *uint8 `yaml:"rf_power"`
	Antenna *uint8 `yaml:"antenna"`
}

// ---- INVENTORY ----

type InventoryConfig struct {
	Autostart bool `yaml:"autostart"`
}

// ---- STATUS BLOCK (optional, opt-in) ----

type StatusConfig struct {
	Endpoint   string `yaml:"endpoint"`
	UnitID     uint8  `yaml:"unit_id"`
	Slot       uint16 `yaml:"slot"`
	DeviceName string `yaml:"device_name"`
	TimeoutMs  int    `yaml:"timeout_ms"`
}

// ---- HTTP ----

type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// ---- LOG ----

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}
