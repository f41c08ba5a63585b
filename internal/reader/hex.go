// internal/reader/hex.go
package reader

import (
	"encoding/hex"
	"strings"
)

// decodeWords parses a hex string that must cover whole 16-bit words.
// Any length that is not a multiple of four hex digits, odd lengths
// included, is rejected.
func decodeWords(field, s string, allowEmpty bool) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		if allowEmpty {
			return nil, nil
		}
		return nil, invalid("%s is empty", field)
	}
	if len(s)%4 != 0 {
		return nil, invalid("%s %q is not word aligned", field, s)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, invalid("%s %q is not hex", field, s)
	}
	return b, nil
}

// decodePassword parses an access or kill password: exactly 8 hex digits.
// Unless required, empty means the all-zero password.
func decodePassword(s string, required bool) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" && !required {
		return make([]byte, 4), nil
	}
	if len(s) != 8 {
		return nil, invalid("password must be 8 hex digits")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, invalid("password is not hex")
	}
	return b, nil
}

// EncodeHex renders bytes the way tag identifiers are displayed.
func EncodeHex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}
