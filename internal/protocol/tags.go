// internal/protocol/tags.go
package protocol

import "github.com/pkg/errors"

// Tag is one tag observation as reported by an inventory reply.
type Tag struct {
	Antenna int
	EPC     []byte
	RSSI    int
}

// TagDecoder turns one inventory reply into tags.
// Firmware families differ in layout, so this is pluggable.
type TagDecoder interface {
	Name() string
	DecodeTags(res Response) (count int, tags []Tag, err error)
}

// Reader18Decoder decodes the common layout:
// AntMask(1), TagNum(1), then TagNum x [EpcLen(1), EPC(n), RSSI(1)].
type Reader18Decoder struct{}

func (Reader18Decoder) Name() string { return "reader18" }

func (Reader18Decoder) DecodeTags(res Response) (int, []Tag, error) {
	if res.Command != CmdInventory {
		return 0, nil, errors.Errorf("protocol: not an inventory frame (cmd=0x%02X)", res.Command)
	}
	if len(res.Data) < 2 {
		return 0, nil, nil
	}

	num := int(res.Data[1])
	if num == 0 {
		return 0, nil, nil
	}

	ant := AntennaID(res.Data[0])
	cursor := 2
	tags := make([]Tag, 0, num)

	for i := 0; i < num; i++ {
		if cursor >= len(res.Data) {
			return num, tags, errors.Errorf("protocol: inventory truncated at tag %d", i)
		}
		n := int(res.Data[cursor])
		cursor++
		if n == 0 || cursor+n > len(res.Data) {
			return num, tags, errors.Errorf("protocol: invalid epc length at tag %d", i)
		}

		epc := make([]byte, n)
		copy(epc, res.Data[cursor:cursor+n])
		cursor += n

		if cursor >= len(res.Data) {
			return num, tags, errors.Errorf("protocol: missing rssi at tag %d", i)
		}
		rssi := int(res.Data[cursor])
		cursor++

		tags = append(tags, Tag{Antenna: ant, EPC: epc, RSSI: rssi})
	}
	return num, tags, nil
}

// CountDecoder only reports the tag count byte. Used for firmware whose
// per-tag layout is unknown.
type CountDecoder struct{}

func (CountDecoder) Name() string { return "count" }

func (CountDecoder) DecodeTags(res Response) (int, []Tag, error) {
	if len(res.Data) < 2 {
		return 0, nil, nil
	}
	return int(res.Data[1]), nil, nil
}

// DecoderByName resolves a configured decoder. Empty means reader18.
func DecoderByName(name string) (TagDecoder, error) {
	switch name {
	case "", "reader18":
		return Reader18Decoder{}, nil
	case "count":
		return CountDecoder{}, nil
	default:
		return nil, errors.Errorf("protocol: unknown tag decoder %q", name)
	}
}

// AntennaID maps a single-bit antenna mask to a 1-based port number.
func AntennaID(mask byte) int {
	for i := 0; i < 8; i++ {
		if mask == 1<<uint(i) {
			return i + 1
		}
	}
	return int(mask) + 1
}
