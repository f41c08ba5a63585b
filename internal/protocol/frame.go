// internal/protocol/frame.go
package protocol

import "github.com/pkg/errors"

// Frame layout: [len][addr][cmd][payload...][crc-lo][crc-hi].
// len counts every byte after itself, so a frame is len+1 bytes long.
const (
	// MinFrameSize is the smallest valid frame (empty payload).
	MinFrameSize = 5

	// MaxPayload keeps len within one byte.
	MaxPayload = 0xFF - 4
)

var (
	ErrPayloadTooLong = errors.New("protocol: payload too long")
	ErrFrameTooShort  = errors.New("protocol: frame too short")
	ErrFrameCorrupt   = errors.New("protocol: frame corrupt")
)

// Frame is one decoded frame, command or response.
type Frame struct {
	Length  byte
	Address byte
	Command byte
	Payload []byte
}

// Encode builds one wire frame. The CRC is appended low byte first.
func Encode(addr, cmd byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, errors.Wrapf(ErrPayloadTooLong, "%d bytes", len(payload))
	}

	length := len(payload) + 4
	out := make([]byte, 0, length+1)
	out = append(out, byte(length), addr, cmd)
	out = append(out, payload...)

	crc := Checksum(out)
	out = append(out, byte(crc), byte(crc>>8))
	return out, nil
}

// Decode validates a single complete frame.
// raw must hold exactly len+1 bytes.
func Decode(raw []byte) (Frame, error) {
	if len(raw) < MinFrameSize {
		return Frame{}, ErrFrameTooShort
	}

	length := int(raw[0])
	if length < 4 || length+1 != len(raw) {
		return Frame{}, errors.Wrapf(ErrFrameCorrupt, "length byte %d for %d bytes", length, len(raw))
	}
	if !ValidCRC(raw) {
		return Frame{}, errors.Wrap(ErrFrameCorrupt, "crc mismatch")
	}

	payload := make([]byte, length-4)
	copy(payload, raw[3:length-1])

	return Frame{
		Length:  raw[0],
		Address: raw[1],
		Command: raw[2],
		Payload: payload,
	}, nil
}

// ValidCRC reports whether the trailing two bytes match the CRC of the rest.
// raw is assumed to be exactly one frame.
func ValidCRC(raw []byte) bool {
	if len(raw) < 3 {
		return false
	}
	n := len(raw) - 2
	crc := Checksum(raw[:n])
	return raw[n] == byte(crc) && raw[n+1] == byte(crc>>8)
}

// IsErrorSentinel reports whether the frame starting at buf[i] carries the
// generic reader error marker (0x00, 0xFE) at offsets 2 and 3.
func IsErrorSentinel(buf []byte, i int) bool {
	if i < 0 || i+3 >= len(buf) {
		return false
	}
	return buf[i+2] == errorSentinelCommand && buf[i+3] == StatusGenericError
}
