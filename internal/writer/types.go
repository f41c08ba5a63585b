// internal/writer/types.go
package writer

import "github.com/tamzrod/uhf-inventory/internal/status"

// StatusPlan is the fully-built status destination for one reader.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint16
	BaseSlot   uint16
	DeviceName string
}

// StatusWriter is the delivery-only contract for reader status.
// It receives a snapshot and writes it verbatim.
// No logic, no interpretation.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// endpointClient is the exact contract the status writer uses.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}
