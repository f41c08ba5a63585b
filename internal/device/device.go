// internal/device/device.go
package device

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/uhf-inventory/internal/inventory"
	"github.com/tamzrod/uhf-inventory/internal/protocol"
	"github.com/tamzrod/uhf-inventory/internal/reader"
	"github.com/tamzrod/uhf-inventory/internal/transport"
)

var (
	// ErrNotConnected is returned by every reader operation while disconnected.
	ErrNotConnected = errors.New("device: not connected")

	// ErrScanning is returned for operations that cannot run during inventory.
	ErrScanning = errors.New("device: inventory running")
)

// DefaultSettleDelay is the pause between opening the port and the first probe.
const DefaultSettleDelay = 100 * time.Millisecond

// Config fixes the per-device wiring. Path and baud come with Connect.
type Config struct {
	Variant     Variant
	Decoder     protocol.TagDecoder
	SettleDelay time.Duration
	Log         logrus.FieldLogger
}

// Device is the reader-control facade:
// Transport -> Correlator -> Reader -> Engine.
type Device struct {
	cfg Config
	tr  transport.Transport
	rd  *reader.Reader
	eng *inventory.Engine
	log logrus.FieldLogger

	// lifecycle (Connect / Disconnect / SetBaudRate)
	mu   sync.Mutex
	path string
	baud int
	info reader.Info

	connected atomic.Bool

	hmu      sync.RWMutex
	onFinish func(error)
}

// New wires a disconnected device over tr.
func New(tr transport.Transport, cfg Config) (*Device, error) {
	if tr == nil {
		return nil, errors.New("device: transport is nil")
	}
	if cfg.Variant.Name == "" {
		cfg.Variant = VariantRR
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}

	rd := reader.New(tr, reader.Options{Decoder: cfg.Decoder, Log: cfg.Log})
	d := &Device{
		cfg: cfg,
		tr:  tr,
		rd:  rd,
		eng: inventory.New(rd, cfg.Log),
		log: cfg.Log.WithField("component", "device"),
	}
	d.eng.OnFinish(d.scanFinished)
	return d, nil
}

// ------------------------------------------------------------
// lifecycle
// ------------------------------------------------------------

// Connect opens the port and probes the reader. The port is closed again
// when the probe fails or reports a variant this build cannot drive.
// An existing connection is torn down first.
func (d *Device) Connect(path string, baud int) (reader.Info, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.cfg.Variant.Supported {
		return reader.Info{}, errors.Wrapf(ErrUnsupportedVariant, "%s", d.cfg.Variant.Name)
	}

	if d.connected.Load() {
		d.teardown()
	}

	if err := d.tr.Open(path, baud); err != nil {
		return reader.Info{}, err
	}
	d.rd.ResetBuffer()

	if d.cfg.SettleDelay > 0 {
		time.Sleep(d.cfg.SettleDelay)
	}

	info, err := d.rd.ReaderInfo()
	if err != nil {
		_ = d.tr.Close()
		return reader.Info{}, errors.Wrap(err, "device: probe")
	}

	if v := VariantForType(info.ReaderType); !v.Supported {
		_ = d.tr.Close()
		return reader.Info{}, errors.Wrapf(ErrUnsupportedVariant, "reader type %d (%s)", info.ReaderType, v.Name)
	}

	d.path, d.baud, d.info = path, baud, info
	d.connected.Store(true)

	d.log.WithFields(logrus.Fields{
		"path":    path,
		"baud":    baud,
		"version": info.VersionString(),
		"address": info.Address,
	}).Info("reader connected")
	return info, nil
}

// Disconnect stops any scan, clears the logs and closes the port.
// It always runs to completion, connected or not.
func (d *Device) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.teardown()
}

// teardown is the shared cleanup. Caller holds d.mu.
func (d *Device) teardown() error {
	was := d.connected.Swap(false)

	d.eng.Stop()
	d.eng.Reset()
	d.rd.ResetBuffer()
	err := d.tr.Close()

	if was {
		d.log.Info("reader disconnected")
	}
	return err
}

// linkLost runs disconnect cleanup after a fatal transport error.
// It does not take d.mu so it is safe from engine callbacks.
func (d *Device) linkLost(cause error) {
	if !d.connected.CompareAndSwap(true, false) {
		return
	}
	d.log.WithError(cause).Error("reader link lost")

	d.eng.Stop()
	d.eng.Reset()
	d.rd.ResetBuffer()
	_ = d.tr.Close()
}

// Connected reports whether the last Connect succeeded and the link is up.
func (d *Device) Connected() bool { return d.connected.Load() }

// Info returns the identity captured at Connect.
func (d *Device) Info() reader.Info {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.info
}

// Variant returns the configured hardware family.
func (d *Device) Variant() Variant { return d.cfg.Variant }

func (d *Device) session() error {
	if !d.connected.Load() {
		return ErrNotConnected
	}
	return nil
}

// check triggers cleanup when err says the link is dead.
func (d *Device) check(err error) error {
	if err != nil && (errors.Is(err, transport.ErrIO) || errors.Is(err, transport.ErrClosed)) {
		d.linkLost(err)
	}
	return err
}

// ------------------------------------------------------------
// callbacks
// ------------------------------------------------------------

// OnTag registers the per-tag callback. It runs on the scan goroutine.
func (d *Device) OnTag(fn func(inventory.Observation)) { d.eng.OnTag(fn) }

// OnRound registers the per-round callback.
func (d *Device) OnRound(fn func(inventory.RoundResult)) { d.eng.OnRound(fn) }

// OnFeedback registers the audible-feedback sink.
func (d *Device) OnFeedback(fn func(on bool)) { d.eng.OnFeedback(fn) }

// OnScanFinished registers the scan-finished callback. err is set when the
// scan ended on a link failure; the device is already disconnected then.
func (d *Device) OnScanFinished(fn func(err error)) {
	d.hmu.Lock()
	d.onFinish = fn
	d.hmu.Unlock()
}

func (d *Device) scanFinished(err error) {
	if err != nil {
		d.linkLost(err)
	}

	d.hmu.RLock()
	fn := d.onFinish
	d.hmu.RUnlock()
	if fn != nil {
		fn(err)
	}
}
