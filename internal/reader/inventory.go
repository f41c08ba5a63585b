// internal/reader/inventory.go
package reader

import (
	"github.com/tamzrod/uhf-inventory/internal/protocol"
)

// InventoryAntenna is the antenna byte sent with every inventory command.
const InventoryAntenna byte = 0x80

// InventoryRequest is one inventory round's air parameters.
type InventoryRequest struct {
	QValue   byte
	Session  byte
	TidPtr   byte
	TidLen   byte
	Target   byte
	Antenna  byte
	ScanTime byte
}

// InventoryResult is the merged outcome of one round.
type InventoryResult struct {
	Status byte
	Count  int
	Tags   []protocol.Tag
	Frames int
}

// NewInventoryRequest builds a round request from p.
func NewInventoryRequest(p Parameter, target byte) InventoryRequest {
	return InventoryRequest{
		QValue:   p.QValue,
		Session:  p.Session,
		TidPtr:   p.TidPtr,
		TidLen:   p.TidLen,
		Target:   target,
		Antenna:  InventoryAntenna,
		ScanTime: p.ScanTime,
	}
}

// InventoryPayload lays out the 0x01 payload. The TID window is only
// present when TidLen is non-zero.
func InventoryPayload(q InventoryRequest) []byte {
	if q.TidLen == 0 {
		return []byte{q.QValue, q.Session, q.Target, q.Antenna, q.ScanTime}
	}
	return []byte{q.QValue, q.Session, q.TidPtr, q.TidLen, q.Target, q.Antenna, q.ScanTime}
}

func inventoryOK(status byte) bool {
	switch status {
	case protocol.StatusInventoryDone,
		protocol.StatusScanOverflow,
		protocol.StatusMoreData,
		protocol.StatusBufferFull,
		protocol.StatusNoTag:
		return true
	}
	return false
}

// Inventory runs one inventory round and collects every reply frame.
// A round with no tags is not an error.
func (r *Reader) Inventory(q InventoryRequest) (InventoryResult, error) {
	if q.Session > 3 {
		return InventoryResult{}, invalid("session %d out of range 0-3", q.Session)
	}

	timeout := Parameter{ScanTime: q.ScanTime}.ScanBudget() + inventorySlack
	more := func(res protocol.Response) bool { return res.Status == protocol.StatusMoreData }

	frames, err := r.exchangeSeries(r.address(), protocol.CmdInventory, InventoryPayload(q), timeout, more)
	if err != nil {
		return InventoryResult{}, err
	}

	var out InventoryResult
	for _, f := range frames {
		out.Frames++
		out.Status = f.Status

		if f.Generic() {
			return out, &StatusError{Command: protocol.CmdInventory, Status: protocol.StatusGenericError}
		}
		if !inventoryOK(f.Status) {
			return out, &StatusError{Command: protocol.CmdInventory, Status: f.Status}
		}
		if f.Status == protocol.StatusNoTag {
			continue
		}

		n, tags, err := r.dec.DecodeTags(f)
		if err != nil {
			r.log.WithError(err).WithField("decoder", r.dec.Name()).Warn("inventory frame partially decoded")
		}
		out.Count += n
		out.Tags = append(out.Tags, tags...)
	}
	return out, nil
}
