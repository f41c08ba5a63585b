// internal/device/variant.go
package device

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrUnsupportedVariant is returned by Connect for hardware families this
// build cannot drive.
var ErrUnsupportedVariant = errors.New("device: unsupported reader variant")

// gxTypeCode is the reader-type byte reported by GX hardware.
const gxTypeCode = 32

// Variant is a reader hardware family.
type Variant struct {
	Name      string
	TypeCode  byte
	Supported bool
}

var (
	// VariantRR is the Reader18 command set.
	VariantRR = Variant{Name: "rr", Supported: true}

	// VariantGX speaks a different command set and is not driven here.
	VariantGX = Variant{Name: "gx", TypeCode: gxTypeCode}
)

// VariantByName maps a configured name onto a Variant. Empty means rr.
func VariantByName(name string) (Variant, error) {
	switch strings.ToLower(name) {
	case "", VariantRR.Name:
		return VariantRR, nil
	case VariantGX.Name:
		return VariantGX, nil
	}
	return Variant{}, errors.Errorf("device: unknown variant %q", name)
}

// VariantForType classifies the reader-type byte from reader info.
func VariantForType(code byte) Variant {
	if code == gxTypeCode {
		return VariantGX
	}
	return VariantRR
}
