// internal/transport/serial.go
package transport

import (
	"encoding/hex"
	"io"
	"sync"
	"time"

	"github.com/goburrow/serial"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultReadSlice bounds a single blocking read on the port.
const DefaultReadSlice = 20 * time.Millisecond

// Opener opens a serial port. Replaced in tests.
type Opener func(c *serial.Config) (io.ReadWriteCloser, error)

// SerialConfig holds the line settings that are not per-connect.
type SerialConfig struct {
	DataBits  int
	StopBits  int
	Parity    string
	ReadSlice time.Duration
}

// Serial is a Transport over a local serial port (8N1 by default).
type Serial struct {
	cfg  SerialConfig
	open Opener
	log  logrus.FieldLogger

	mu   sync.Mutex
	port io.ReadWriteCloser
	buf  []byte
}

// NewSerial builds a closed serial transport.
func NewSerial(cfg SerialConfig, log logrus.FieldLogger) *Serial {
	if cfg.DataBits == 0 {
		cfg.DataBits = 8
	}
	if cfg.StopBits == 0 {
		cfg.StopBits = 1
	}
	if cfg.Parity == "" {
		cfg.Parity = "N"
	}
	if cfg.ReadSlice <= 0 {
		cfg.ReadSlice = DefaultReadSlice
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Serial{
		cfg: cfg,
		open: func(c *serial.Config) (io.ReadWriteCloser, error) {
			return serial.Open(c)
		},
		log: log.WithField("component", "transport"),
		buf: make([]byte, 512),
	}
}

// WithOpener swaps the port opener.
func (s *Serial) WithOpener(o Opener) *Serial {
	s.open = o
	return s
}

func (s *Serial) Open(path string, baud int) error {
	if path == "" {
		return errors.New("transport: device path required")
	}
	if baud <= 0 {
		return errors.Errorf("transport: invalid baud rate %d", baud)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port != nil {
		_ = s.port.Close()
		s.port = nil
	}

	p, err := s.open(&serial.Config{
		Address:  path,
		BaudRate: baud,
		DataBits: s.cfg.DataBits,
		StopBits: s.cfg.StopBits,
		Parity:   s.cfg.Parity,
		Timeout:  s.cfg.ReadSlice,
	})
	if err != nil {
		return errors.Wrapf(ErrIO, "open %s: %v", path, err)
	}

	s.port = p
	s.log.WithFields(logrus.Fields{"path": path, "baud": baud}).Info("serial port opened")
	return nil
}

func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	if err != nil {
		return errors.Wrapf(ErrIO, "close: %v", err)
	}
	return nil
}

func (s *Serial) Send(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return ErrClosed
	}

	n, err := s.port.Write(b)
	if err != nil {
		return errors.Wrapf(ErrIO, "write: %v", err)
	}
	if n != len(b) {
		return errors.Wrapf(ErrIO, "short write %d/%d", n, len(b))
	}

	s.log.WithField("tx", hex.EncodeToString(b)).Debug("frame sent")
	return nil
}

// Poll reads until data arrives or timeout elapses. The port's read timeout
// is fixed at ReadSlice when it opens, so Poll returns no later than
// timeout + ReadSlice, and a timeout shorter than ReadSlice still waits one
// full read.
func (s *Serial) Poll(timeout time.Duration) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return nil, ErrClosed
	}

	deadline := time.Now().Add(timeout)
	for {
		n, err := s.port.Read(s.buf)
		if n > 0 {
			out := append([]byte(nil), s.buf[:n]...)
			s.log.WithField("rx", hex.EncodeToString(out)).Debug("bytes received")
			return out, nil
		}
		if err != nil && err != serial.ErrTimeout {
			return nil, errors.Wrapf(ErrIO, "read: %v", err)
		}
		if !time.Now().Before(deadline) {
			return nil, nil
		}
	}
}
