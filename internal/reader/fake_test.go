// internal/reader/fake_test.go
package reader

import (
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/uhf-inventory/internal/protocol"
)

// fakeTransport records sent frames and answers through reply.
type fakeTransport struct {
	mu      sync.Mutex
	sent    [][]byte
	pending []byte
	reply   func(cmd []byte) [][]byte
	sendErr error
}

func (f *fakeTransport) Open(string, int) error { return nil }
func (f *fakeTransport) Close() error           { return nil }

func (f *fakeTransport) Send(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, append([]byte(nil), b...))
	if f.reply != nil {
		for _, r := range f.reply(b) {
			f.pending = append(f.pending, r...)
		}
	}
	return nil
}

func (f *fakeTransport) Poll(timeout time.Duration) ([]byte, error) {
	f.mu.Lock()
	if len(f.pending) > 0 {
		out := f.pending
		f.pending = nil
		f.mu.Unlock()
		return out, nil
	}
	f.mu.Unlock()

	time.Sleep(timeout)
	return nil, nil
}

func (f *fakeTransport) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeTransport) lastSent() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

func mustEncode(addr, cmd byte, payload ...byte) []byte {
	raw, err := protocol.Encode(addr, cmd, payload)
	if err != nil {
		panic(err)
	}
	return raw
}

// statusReply answers every command with its own code and the given status.
func statusReply(status byte, data ...byte) func([]byte) [][]byte {
	return func(cmd []byte) [][]byte {
		return [][]byte{mustEncode(cmd[1], cmd[2], append([]byte{status}, data...)...)}
	}
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestReader(tr *fakeTransport) *Reader {
	return New(tr, Options{Log: quietLogger()})
}
