// internal/protocol/codes.go
package protocol

// Command codes. On-wire values, never renumber.
const (
	CmdInventory          byte = 0x01
	CmdReadData           byte = 0x02
	CmdWriteData          byte = 0x03
	CmdWriteEPC           byte = 0x04
	CmdKillTag            byte = 0x05
	CmdLock               byte = 0x06
	CmdGetReaderInfo      byte = 0x21
	CmdSetRegion          byte = 0x22
	CmdSetAddress         byte = 0x24
	CmdSetScanTime        byte = 0x25
	CmdSetBaudRate        byte = 0x28
	CmdSetRfPower         byte = 0x2F
	CmdRfOutput           byte = 0x30
	CmdSetAntennaMux      byte = 0x3F
	CmdBeepNotification   byte = 0x40
	CmdSetCheckAntenna    byte = 0x66
	CmdSetPowerMode       byte = 0x6B
	CmdSetReadParameter   byte = 0x75
	CmdSetWorkMode        byte = 0x76
	CmdGetReadParameter   byte = 0x77
	CmdConfigDRM          byte = 0x90
	CmdMeasureReturnLoss  byte = 0x91
	CmdMeasureTemperature byte = 0x92
)

// Response status codes.
const (
	StatusSuccess        byte = 0x00
	StatusInventoryDone  byte = 0x01
	StatusScanOverflow   byte = 0x02
	StatusMoreData       byte = 0x03
	StatusBufferFull     byte = 0x04
	StatusNoTag          byte = 0xFB
	StatusTagError       byte = 0xFC
	StatusGenericError   byte = 0xFE
	BroadcastAddress     byte = 0xFF
	errorSentinelCommand byte = 0x00
)

var commandNames = map[byte]string{
	CmdInventory:          "inventory",
	CmdReadData:           "read-data",
	CmdWriteData:          "write-data",
	CmdWriteEPC:           "write-epc",
	CmdKillTag:            "kill",
	CmdLock:               "lock",
	CmdGetReaderInfo:      "reader-info",
	CmdSetRegion:          "set-region",
	CmdSetAddress:         "set-address",
	CmdSetScanTime:        "set-scan-time",
	CmdSetBaudRate:        "set-baud-rate",
	CmdSetRfPower:         "set-rf-power",
	CmdRfOutput:           "rf-output",
	CmdSetAntennaMux:      "set-antenna",
	CmdBeepNotification:   "beep",
	CmdSetCheckAntenna:    "check-antenna",
	CmdSetPowerMode:       "power-mode",
	CmdSetReadParameter:   "set-read-parameter",
	CmdSetWorkMode:        "work-mode",
	CmdGetReadParameter:   "get-read-parameter",
	CmdConfigDRM:          "drm",
	CmdMeasureReturnLoss:  "return-loss",
	CmdMeasureTemperature: "temperature",
}

// CommandName returns a short label for logs.
func CommandName(cmd byte) string {
	if n, ok := commandNames[cmd]; ok {
		return n
	}
	return "unknown"
}
