// internal/reader/errors.go
package reader

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/tamzrod/uhf-inventory/internal/protocol"
)

// Reserved status values reported for failures that never reached the reader.
const (
	CodeInvalidArgument uint16 = 0xFF
	CodeResponseTimeout uint16 = 0x30
)

type codedError struct {
	msg  string
	code uint16
}

func (e *codedError) Error() string { return e.msg }
func (e *codedError) Code() uint16  { return e.code }

var (
	// ErrInvalidArgument is returned for malformed input. No bytes are sent.
	ErrInvalidArgument error = &codedError{msg: "reader: invalid argument", code: CodeInvalidArgument}

	// ErrResponseTimeout is returned when no matching reply arrived in time.
	ErrResponseTimeout error = &codedError{msg: "reader: response timeout", code: CodeResponseTimeout}
)

func invalid(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}

// StatusError is a non-zero status byte returned by the reader.
// TagError carries the tag's own error code when Status is 0xFC.
type StatusError struct {
	Command  byte
	Status   byte
	TagError byte
}

func (e *StatusError) Error() string {
	if e.Status == protocol.StatusTagError {
		return fmt.Sprintf("reader: %s failed with tag error 0x%02X",
			protocol.CommandName(e.Command), e.TagError)
	}
	return fmt.Sprintf("reader: %s returned status 0x%02X",
		protocol.CommandName(e.Command), e.Status)
}

// Code exposes the raw status for status export.
func (e *StatusError) Code() uint16 { return uint16(e.Status) }

// StatusCode maps err onto the single-byte status space used by the reader
// firmware: 0 on success, the reader's status verbatim, 0x30 for timeouts
// and link failures, 0xFF for rejected input.
func StatusCode(err error) byte {
	if err == nil {
		return 0
	}

	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	if errors.Is(err, ErrInvalidArgument) {
		return byte(CodeInvalidArgument)
	}
	return byte(CodeResponseTimeout)
}
