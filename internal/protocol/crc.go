// internal/protocol/crc.go
package protocol

import "github.com/sigurn/crc16"

// CRC-16/MCRF4XX: reflected poly 0x8408, seed 0xFFFF, no final xor.
var crcTable = crc16.MakeTable(crc16.CRC16_MCRF4XX)

// Checksum computes the frame CRC over data.
func Checksum(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}
