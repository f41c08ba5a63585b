// internal/protocol/frame_test.go
package protocol

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_GoldenFrames(t *testing.T) {
	cases := []struct {
		name    string
		addr    byte
		cmd     byte
		payload []byte
		want    []byte
	}{
		{"reader info", 0x00, CmdGetReaderInfo, nil, []byte{0x04, 0x00, 0x21, 0xD9, 0x6A}},
		{"inventory bare", 0x00, CmdInventory, nil, []byte{0x04, 0x00, 0x01, 0xDB, 0x4B}},
		{"broadcast", 0xFF, CmdInventory, nil, []byte{0x04, 0xFF, 0x01, 0x1B, 0xB4}},
		{"single inventory", 0x00, 0x0F, nil, []byte{0x04, 0x00, 0x0F, 0xA5, 0xA2}},
		{"tid window", 0x00, CmdInventory, []byte{0x00, 0x01}, []byte{0x06, 0x00, 0x01, 0x00, 0x01, 0x45, 0x40}},
		{"inventory g2", 0x00, CmdInventory, []byte{0x04, 0x01, 0x00, 0x80, 0x0A},
			[]byte{0x09, 0x00, 0x01, 0x04, 0x01, 0x00, 0x80, 0x0A, 0x99, 0xC6}},
		{"inventory g2 tid", 0x00, CmdInventory, []byte{0x04, 0x01, 0x00, 0x06, 0x00, 0x80, 0x0A},
			[]byte{0x0B, 0x00, 0x01, 0x04, 0x01, 0x00, 0x06, 0x00, 0x80, 0x0A, 0x29, 0x03}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Encode(tc.addr, tc.cmd, tc.payload)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEncodeDecode_RoundTripAllLengths(t *testing.T) {
	for n := 1; n <= 250; n++ {
		payload := make([]byte, n)
		for i := range payload {
			payload[i] = byte(i*7 + n)
		}

		raw, err := Encode(0x01, CmdReadData, payload)
		if err != nil {
			t.Fatalf("len=%d encode err=%v", n, err)
		}
		if len(raw) != n+5 {
			t.Fatalf("len=%d: frame size %d", n, len(raw))
		}

		f, err := Decode(raw)
		if err != nil {
			t.Fatalf("len=%d decode err=%v", n, err)
		}
		if f.Address != 0x01 || f.Command != CmdReadData || !bytes.Equal(f.Payload, payload) {
			t.Fatalf("len=%d: round trip mismatch", n)
		}
	}
}

func TestDecode_SingleBitFlipRejected(t *testing.T) {
	raw, err := Encode(0x00, CmdSetRfPower, []byte{0x1E, 0x02, 0x33})
	require.NoError(t, err)

	for i := range raw {
		for bit := 0; bit < 8; bit++ {
			bad := append([]byte(nil), raw...)
			bad[i] ^= 1 << uint(bit)

			_, err := Decode(bad)
			if !errors.Is(err, ErrFrameCorrupt) {
				t.Fatalf("byte %d bit %d: expected corrupt, got %v", i, bit, err)
			}
		}
	}
}

func TestDecode_TooShort(t *testing.T) {
	_, err := Decode([]byte{0x04, 0x00, 0x21, 0xD9})
	assert.True(t, errors.Is(err, ErrFrameTooShort))
}

func TestDecode_LengthMismatch(t *testing.T) {
	raw, _ := Encode(0x00, CmdGetReaderInfo, nil)
	_, err := Decode(append(raw, 0x00))
	assert.True(t, errors.Is(err, ErrFrameCorrupt))
}

func TestEncode_PayloadTooLong(t *testing.T) {
	_, err := Encode(0x00, CmdWriteData, make([]byte, MaxPayload+1))
	assert.True(t, errors.Is(err, ErrPayloadTooLong))

	_, err = Encode(0x00, CmdWriteData, make([]byte, MaxPayload))
	assert.NoError(t, err)
}

func TestParseResponse_SplitsStatus(t *testing.T) {
	raw, _ := Encode(0x00, CmdMeasureTemperature, []byte{0x00, 0x01, 0x19})

	res, err := ParseResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, CmdMeasureTemperature, res.Command)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, []byte{0x01, 0x19}, res.Data)
	assert.False(t, res.Generic())
}

func TestIsErrorSentinel(t *testing.T) {
	raw, _ := Encode(0x00, 0x00, []byte{StatusGenericError})
	assert.True(t, IsErrorSentinel(raw, 0))
	assert.False(t, IsErrorSentinel(raw, 3))

	res, err := ParseResponse(raw)
	require.NoError(t, err)
	assert.True(t, res.Generic())
}
