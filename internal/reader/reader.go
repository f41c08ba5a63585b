// internal/reader/reader.go
package reader

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/uhf-inventory/internal/correlator"
	"github.com/tamzrod/uhf-inventory/internal/protocol"
	"github.com/tamzrod/uhf-inventory/internal/transport"
)

// Per-command reply timeouts.
const (
	timeoutInfo        = 1000 * time.Millisecond
	timeoutSetting     = 500 * time.Millisecond
	timeoutSlowSetting = 1000 * time.Millisecond
	timeoutBeep        = 400 * time.Millisecond
	timeoutMeasure     = 600 * time.Millisecond
	timeoutGetParam    = 300 * time.Millisecond
	timeoutTagAccess   = 2000 * time.Millisecond
	timeoutTagControl  = 1000 * time.Millisecond
	inventorySlack     = 1000 * time.Millisecond
)

// Options tune a Reader.
type Options struct {
	Decoder protocol.TagDecoder
	Log     logrus.FieldLogger
}

// Reader is one command session with a reader over a transport.
// Exactly one exchange is on the wire at a time.
type Reader struct {
	tr   transport.Transport
	corr *correlator.Correlator
	dec  protocol.TagDecoder
	log  logrus.FieldLogger

	xmu sync.Mutex // encode -> send -> await

	pmu   sync.RWMutex
	param Parameter
}

// New creates a reader bound to tr. The transport is opened by the caller.
func New(tr transport.Transport, opts Options) *Reader {
	if opts.Decoder == nil {
		opts.Decoder = protocol.Reader18Decoder{}
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	return &Reader{
		tr:    tr,
		corr:  correlator.New(tr),
		dec:   opts.Decoder,
		log:   opts.Log.WithField("component", "reader"),
		param: DefaultParameter(),
	}
}

// Parameter returns a copy of the current inventory parameters.
func (r *Reader) Parameter() Parameter {
	r.pmu.RLock()
	defer r.pmu.RUnlock()
	return r.param
}

// SetParameter replaces the inventory parameters after validation.
func (r *Reader) SetParameter(p Parameter) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.pmu.Lock()
	r.param = p
	r.pmu.Unlock()
	return nil
}

func (r *Reader) updateParameter(fn func(p *Parameter)) {
	r.pmu.Lock()
	fn(&r.param)
	r.pmu.Unlock()
}

func (r *Reader) address() byte {
	r.pmu.RLock()
	defer r.pmu.RUnlock()
	return r.param.Address
}

// Decoder returns the configured inventory tag decoder.
func (r *Reader) Decoder() protocol.TagDecoder { return r.dec }

// ResetBuffer drops bytes carried over from earlier exchanges.
func (r *Reader) ResetBuffer() {
	r.xmu.Lock()
	r.corr.Reset()
	r.xmu.Unlock()
}

// ------------------------------------------------------------
// exchange
// ------------------------------------------------------------

// exchange sends one command and waits for its reply.
// Reader status is not interpreted here.
func (r *Reader) exchange(addr, cmd byte, payload []byte, timeout time.Duration) (protocol.Response, error) {
	raw, err := protocol.Encode(addr, cmd, payload)
	if err != nil {
		return protocol.Response{}, errors.Wrap(ErrInvalidArgument, err.Error())
	}

	r.xmu.Lock()
	defer r.xmu.Unlock()

	if err := r.tr.Send(raw); err != nil {
		return protocol.Response{}, err
	}

	res, err := r.corr.Await(cmd, timeout)
	if err != nil {
		return protocol.Response{}, r.mapAwaitErr(cmd, err)
	}
	return res, nil
}

// exchangeSeries is exchange for replies that span several frames.
func (r *Reader) exchangeSeries(addr, cmd byte, payload []byte, timeout time.Duration, more func(protocol.Response) bool) ([]protocol.Response, error) {
	raw, err := protocol.Encode(addr, cmd, payload)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidArgument, err.Error())
	}

	r.xmu.Lock()
	defer r.xmu.Unlock()

	if err := r.tr.Send(raw); err != nil {
		return nil, err
	}

	frames, err := r.corr.AwaitSeries(cmd, timeout, more)
	if err != nil {
		return frames, r.mapAwaitErr(cmd, err)
	}
	return frames, nil
}

func (r *Reader) mapAwaitErr(cmd byte, err error) error {
	if errors.Is(err, correlator.ErrTimeout) {
		r.log.WithField("cmd", protocol.CommandName(cmd)).Debug("reply timed out")
		return errors.Wrapf(ErrResponseTimeout, "%s", protocol.CommandName(cmd))
	}
	return err
}

// call is exchange plus status check: anything but 0x00 is an error.
func (r *Reader) call(cmd byte, payload []byte, timeout time.Duration) ([]byte, error) {
	res, err := r.exchange(r.address(), cmd, payload, timeout)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(cmd, res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func checkStatus(cmd byte, res protocol.Response) error {
	if res.Generic() {
		return &StatusError{Command: cmd, Status: protocol.StatusGenericError}
	}
	if res.Status == protocol.StatusSuccess {
		return nil
	}

	se := &StatusError{Command: cmd, Status: res.Status}
	if res.Status == protocol.StatusTagError && len(res.Data) > 0 {
		se.TagError = res.Data[0]
	}
	return se
}
