// internal/transport/transport.go
package transport

import (
	"time"

	"github.com/pkg/errors"
)

// ErrIO marks a failure of the underlying byte stream.
// It is fatal for the connection.
var ErrIO = errors.New("transport: io failure")

// ErrClosed is returned when the transport is used before Open or after Close.
var ErrClosed = errors.New("transport: not open")

// Transport is a raw bidirectional byte stream to one reader.
type Transport interface {
	Open(path string, baud int) error
	Close() error

	// Send writes b completely or fails with ErrIO.
	Send(b []byte) error

	// Poll returns whatever bytes arrive within timeout.
	// An empty result is not an error. A single blocking read may run
	// past timeout by at most the transport's read slice.
	Poll(timeout time.Duration) ([]byte, error)
}
