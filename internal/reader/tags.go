// internal/reader/tags.go
package reader

import (
	"github.com/pkg/errors"

	"github.com/tamzrod/uhf-inventory/internal/protocol"
)

// Gen2 memory banks.
const (
	MemReserved byte = 0x00
	MemEPC      byte = 0x01
	MemTID      byte = 0x02
	MemUser     byte = 0x03
)

const (
	maskMode    byte = 0xFF // ENum value selecting a TID mask instead of an EPC
	maxMaskBits      = 0xFF
	maxReadNum       = 120
	maxEPCWords      = 31
)

// ReadRequest addresses a word range in one memory bank.
type ReadRequest struct {
	Mem      byte
	WordPtr  byte
	Num      byte // words
	Password string
}

// WriteRequest addresses the start word of a write.
type WriteRequest struct {
	Mem      byte
	WordPtr  byte
	Password string
}

// tidMask builds the mask tail selecting a tag by TID prefix:
// [MaskMem=TID][MaskAdr 0x0000][MaskLen bits][MaskData].
func tidMask(tid []byte) ([]byte, error) {
	bits := len(tid) * 8
	if bits > maxMaskBits {
		return nil, invalid("tid mask of %d bits exceeds %d", bits, maxMaskBits)
	}
	out := []byte{MemTID, 0x00, 0x00, byte(bits)}
	return append(out, tid...), nil
}

func (rq ReadRequest) check() error {
	if rq.Mem > MemUser {
		return invalid("memory bank %d out of range", rq.Mem)
	}
	if rq.Num == 0 || rq.Num > maxReadNum {
		return invalid("word count %d out of range 1-%d", rq.Num, maxReadNum)
	}
	return nil
}

// ReadByEPC reads Num words from the tag whose EPC matches epc.
func (r *Reader) ReadByEPC(epc string, rq ReadRequest) ([]byte, error) {
	id, err := decodeWords("epc", epc, true)
	if err != nil {
		return nil, err
	}
	if err := rq.check(); err != nil {
		return nil, err
	}
	pwd, err := decodePassword(rq.Password, false)
	if err != nil {
		return nil, err
	}

	payload := []byte{byte(len(id) / 2)}
	payload = append(payload, id...)
	payload = append(payload, rq.Mem, rq.WordPtr, rq.Num)
	payload = append(payload, pwd...)

	return r.readData(payload, rq.Num)
}

// ReadByTID reads Num words from the tag whose TID starts with tid.
func (r *Reader) ReadByTID(tid string, rq ReadRequest) ([]byte, error) {
	id, err := decodeWords("tid", tid, false)
	if err != nil {
		return nil, err
	}
	if err := rq.check(); err != nil {
		return nil, err
	}
	pwd, err := decodePassword(rq.Password, false)
	if err != nil {
		return nil, err
	}
	mask, err := tidMask(id)
	if err != nil {
		return nil, err
	}

	payload := []byte{maskMode, rq.Mem, rq.WordPtr, rq.Num}
	payload = append(payload, pwd...)
	payload = append(payload, mask...)

	return r.readData(payload, rq.Num)
}

func (r *Reader) readData(payload []byte, num byte) ([]byte, error) {
	d, err := r.call(protocol.CmdReadData, payload, timeoutTagAccess)
	if err != nil {
		return nil, err
	}
	want := int(num) * 2
	if len(d) < want {
		return nil, errors.Wrapf(protocol.ErrFrameCorrupt, "read: %d of %d data bytes", len(d), want)
	}
	return append([]byte(nil), d[:want]...), nil
}

// WriteByEPC writes data (hex, whole words) to the tag whose EPC matches epc.
func (r *Reader) WriteByEPC(epc string, rq WriteRequest, data string) error {
	id, err := decodeWords("epc", epc, true)
	if err != nil {
		return err
	}
	words, err := decodeWords("data", data, false)
	if err != nil {
		return err
	}
	if rq.Mem > MemUser {
		return invalid("memory bank %d out of range", rq.Mem)
	}
	pwd, err := decodePassword(rq.Password, false)
	if err != nil {
		return err
	}

	payload := []byte{byte(len(words) / 2), byte(len(id) / 2)}
	payload = append(payload, id...)
	payload = append(payload, rq.Mem, rq.WordPtr)
	payload = append(payload, words...)
	payload = append(payload, pwd...)

	_, err = r.call(protocol.CmdWriteData, payload, timeoutTagAccess)
	return err
}

// WriteByTID writes data to the tag whose TID starts with tid.
func (r *Reader) WriteByTID(tid string, rq WriteRequest, data string) error {
	id, err := decodeWords("tid", tid, false)
	if err != nil {
		return err
	}
	words, err := decodeWords("data", data, false)
	if err != nil {
		return err
	}
	if rq.Mem > MemUser {
		return invalid("memory bank %d out of range", rq.Mem)
	}
	pwd, err := decodePassword(rq.Password, false)
	if err != nil {
		return err
	}

	return r.writeMasked(id, rq.Mem, rq.WordPtr, words, pwd)
}

// WriteEPCByTID replaces the EPC of the tag whose TID starts with tid.
// The PC word is rewritten with the new length so readers report the
// right number of EPC words.
func (r *Reader) WriteEPCByTID(tid, epc, password string) error {
	id, err := decodeWords("tid", tid, false)
	if err != nil {
		return err
	}
	newEPC, err := decodeWords("epc", epc, false)
	if err != nil {
		return err
	}
	n := len(newEPC) / 2
	if n > maxEPCWords {
		return invalid("epc of %d words exceeds %d", n, maxEPCWords)
	}
	pwd, err := decodePassword(password, false)
	if err != nil {
		return err
	}

	pc := PCWord(n)
	data := append([]byte{byte(pc >> 8), byte(pc)}, newEPC...)

	// PC sits at EPC bank word 1, the EPC follows it.
	return r.writeMasked(id, MemEPC, 0x01, data, pwd)
}

// PCWord returns the protocol-control word for an EPC of words length.
func PCWord(words int) uint16 {
	return uint16(words) * 0x0800
}

func (r *Reader) writeMasked(tid []byte, mem, ptr byte, data, pwd []byte) error {
	mask, err := tidMask(tid)
	if err != nil {
		return err
	}

	payload := []byte{byte(len(data) / 2), maskMode, mem, ptr}
	payload = append(payload, data...)
	payload = append(payload, pwd...)
	payload = append(payload, mask...)

	_, err = r.call(protocol.CmdWriteData, payload, timeoutTagAccess)
	return err
}

// Lock sets protection for one memory area of the tag with epc.
// sel picks the area (0 kill pwd, 1 access pwd, 2 EPC, 3 TID, 4 user);
// protect picks the mode (0 writable .. 3 permanently locked).
func (r *Reader) Lock(epc string, sel, protect byte, password string) error {
	id, err := decodeWords("epc", epc, true)
	if err != nil {
		return err
	}
	pwd, err := decodePassword(password, true)
	if err != nil {
		return err
	}
	if sel > 4 {
		return invalid("lock area %d out of range", sel)
	}
	if protect > 3 {
		return invalid("lock mode %d out of range", protect)
	}

	payload := []byte{byte(len(id) / 2)}
	payload = append(payload, id...)
	payload = append(payload, sel, protect)
	payload = append(payload, pwd...)

	_, err = r.call(protocol.CmdLock, payload, timeoutTagControl)
	return err
}

// Kill permanently disables the tag with epc.
func (r *Reader) Kill(epc, password string) error {
	id, err := decodeWords("epc", epc, true)
	if err != nil {
		return err
	}
	pwd, err := decodePassword(password, true)
	if err != nil {
		return err
	}

	payload := []byte{byte(len(id) / 2)}
	payload = append(payload, id...)
	payload = append(payload, pwd...)

	_, err = r.call(protocol.CmdKillTag, payload, timeoutTagControl)
	return err
}
