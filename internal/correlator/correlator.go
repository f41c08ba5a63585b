// internal/correlator/correlator.go
package correlator

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/tamzrod/uhf-inventory/internal/protocol"
)

// ErrTimeout is returned when no matching frame arrived in time.
var ErrTimeout = errors.New("correlator: response timeout")

const (
	// DefaultPollSlice bounds one Poll call so the deadline stays accurate.
	DefaultPollSlice = 20 * time.Millisecond

	// MaxBuffered caps the carry-over buffer. Oldest bytes are dropped first.
	MaxBuffered = 4096
)

// Poller is the receive half of a transport.
type Poller interface {
	Poll(timeout time.Duration) ([]byte, error)
}

// Correlator matches incoming bytes to the command a caller is waiting on.
// Bytes that follow a matched frame are kept for the next call.
type Correlator struct {
	p     Poller
	slice time.Duration

	mu  sync.Mutex
	buf []byte
}

// New creates a correlator reading from p.
func New(p Poller) *Correlator {
	return &Correlator{p: p, slice: DefaultPollSlice}
}

// Reset drops all buffered bytes.
func (c *Correlator) Reset() {
	c.mu.Lock()
	c.buf = nil
	c.mu.Unlock()
}

// Buffered returns a copy of the carry-over bytes.
func (c *Correlator) Buffered() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.buf...)
}

// Await returns the first CRC-valid frame whose command equals expected,
// or the reader's generic error frame. Transport errors are returned as-is.
// Each poll asks for at most one slice, so Await returns no later than
// timeout plus one transport read slice.
func (c *Correlator) Await(expected byte, timeout time.Duration) (protocol.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.await(expected, time.Now().Add(timeout))
}

// AwaitSeries collects consecutive frames for one command while more
// reports that another frame follows. Frames gathered before a timeout are
// returned together with the error.
func (c *Correlator) AwaitSeries(expected byte, timeout time.Duration, more func(protocol.Response) bool) ([]protocol.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline := time.Now().Add(timeout)
	var out []protocol.Response

	for {
		res, err := c.await(expected, deadline)
		if err != nil {
			return out, err
		}
		out = append(out, res)
		if res.Generic() || !more(res) {
			return out, nil
		}
	}
}

func (c *Correlator) await(expected byte, deadline time.Time) (protocol.Response, error) {
	for {
		if res, ok := c.scan(expected); ok {
			return res, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return protocol.Response{}, ErrTimeout
		}
		if remaining > c.slice {
			remaining = c.slice
		}

		b, err := c.p.Poll(remaining)
		if err != nil {
			return protocol.Response{}, err
		}
		c.push(b)
	}
}

// scan walks the buffer for a plausible frame start and validates it.
// An incomplete plausible frame does not stop the walk, but the bytes from
// the first one onward are kept so a later poll can complete it. Everything
// before that point is discarded.
func (c *Correlator) scan(expected byte) (protocol.Response, bool) {
	buf := c.buf
	keep := -1
	i := 0

	for ; len(buf)-i > 4; i++ {
		n := int(buf[i])
		if n < 4 || (buf[i+2] != expected && !protocol.IsErrorSentinel(buf, i)) {
			continue
		}

		if len(buf)-i < n+1 {
			if keep < 0 {
				keep = i
			}
			continue
		}

		raw := buf[i : i+n+1]
		if !protocol.ValidCRC(raw) {
			continue
		}
		res, err := protocol.ParseResponse(raw)
		if err != nil {
			continue
		}
		c.buf = append([]byte(nil), buf[i+n+1:]...)
		return res, true
	}

	if keep >= 0 {
		i = keep
	}
	c.buf = buf[i:]
	return protocol.Response{}, false
}

func (c *Correlator) push(b []byte) {
	if len(b) == 0 {
		return
	}
	c.buf = append(c.buf, b...)
	if over := len(c.buf) - MaxBuffered; over > 0 {
		c.buf = append([]byte(nil), c.buf[over:]...)
	}
}
