// internal/device/device_test.go
package device

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/tamzrod/uhf-inventory/internal/config"
	"github.com/tamzrod/uhf-inventory/internal/inventory"
	"github.com/tamzrod/uhf-inventory/internal/protocol"
	"github.com/tamzrod/uhf-inventory/internal/reader"
	"github.com/tamzrod/uhf-inventory/internal/transport"
)

// ------------------------------------------------------------
// fake transport
// ------------------------------------------------------------

type fakeTransport struct {
	mu      sync.Mutex
	open    bool
	opens   []int
	closes  int
	sent    [][]byte
	pending []byte
	reply   func(cmd []byte) [][]byte
	sendErr error
	openErr error
}

func (f *fakeTransport) Open(_ string, baud int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	f.open = true
	f.opens = append(f.opens, baud)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	f.closes++
	return nil
}

func (f *fakeTransport) Send(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return transport.ErrClosed
	}
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
	if !f.open {
		f.mu.Unlock()
		return nil, transport.ErrClosed
	}
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

func (f *fakeTransport) isOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeTransport) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeTransport) setSendErr(err error) {
	f.mu.Lock()
	f.sendErr = err
	f.mu.Unlock()
}

func frame(addr, cmd byte, payload ...byte) []byte {
	raw, err := protocol.Encode(addr, cmd, payload)
	if err != nil {
		panic(err)
	}
	return raw
}

// readerType 0x0F is an RR-family reader.
func infoData(readerType byte) []byte {
	return []byte{0x02, 0x0A, readerType, 0x4C, 0x4E, 0x80, 0x1E, 0x0A, 0x01, 0x00}
}

// script answers reader info, inventory and plain settings.
func script(readerType byte, tags bool) func([]byte) [][]byte {
	return func(cmd []byte) [][]byte {
		switch cmd[2] {
		case protocol.CmdGetReaderInfo:
			return [][]byte{frame(0x00, cmd[2], append([]byte{protocol.StatusSuccess}, infoData(readerType)...)...)}
		case protocol.CmdInventory:
			if tags {
				return [][]byte{frame(0x00, cmd[2], protocol.StatusInventoryDone, 0x80, 0x01, 0x02, 0xE2, 0x00, 0x40)}
			}
			return [][]byte{frame(0x00, cmd[2], protocol.StatusNoTag)}
		default:
			return [][]byte{frame(0x00, cmd[2], protocol.StatusSuccess)}
		}
	}
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestDevice(t *testing.T, tr *fakeTransport, v Variant) *Device {
	t.Helper()
	d, err := New(tr, Config{Variant: v, SettleDelay: time.Millisecond, Log: quietLogger()})
	require.NoError(t, err)
	return d
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached")
}

// ------------------------------------------------------------
// tests
// ------------------------------------------------------------

func TestConnect_ProbesReader(t *testing.T) {
	tr := &fakeTransport{reply: script(0x0F, false)}
	d := newTestDevice(t, tr, VariantRR)

	info, err := d.Connect("/dev/ttyUSB0", 57600)
	require.NoError(t, err)

	assert.True(t, d.Connected())
	assert.Equal(t, "2.10", info.VersionString())
	assert.Equal(t, byte(0x00), d.Parameter().Address)
	assert.Equal(t, []int{57600}, tr.opens)
	assert.Equal(t, info, d.Info())
}

func TestConnect_ProbeFailureClosesPort(t *testing.T) {
	tr := &fakeTransport{reply: func(cmd []byte) [][]byte {
		return [][]byte{frame(0x00, cmd[2], protocol.StatusGenericError)}
	}}
	d := newTestDevice(t, tr, VariantRR)

	_, err := d.Connect("/dev/ttyUSB0", 115200)
	require.Error(t, err)

	var se *reader.StatusError
	assert.True(t, errors.As(err, &se))
	assert.False(t, d.Connected())
	assert.False(t, tr.isOpen())
}

func TestConnect_OpenFailure(t *testing.T) {
	tr := &fakeTransport{openErr: errors.Wrap(transport.ErrIO, "no such device")}
	d := newTestDevice(t, tr, VariantRR)

	_, err := d.Connect("/dev/missing", 115200)
	assert.True(t, errors.Is(err, transport.ErrIO))
	assert.False(t, d.Connected())
}

func TestConnect_UnsupportedVariant(t *testing.T) {
	tr := &fakeTransport{reply: script(0x0F, false)}
	d := newTestDevice(t, tr, VariantGX)

	_, err := d.Connect("/dev/ttyUSB0", 115200)
	assert.True(t, errors.Is(err, ErrUnsupportedVariant))
	assert.Empty(t, tr.opens)
}

func TestConnect_ProbedGXIsRejected(t *testing.T) {
	tr := &fakeTransport{reply: script(gxTypeCode, false)}
	d := newTestDevice(t, tr, VariantRR)

	_, err := d.Connect("/dev/ttyUSB0", 115200)
	assert.True(t, errors.Is(err, ErrUnsupportedVariant))
	assert.False(t, tr.isOpen())
	assert.False(t, d.Connected())
}

func TestOperations_RequireConnection(t *testing.T) {
	tr := &fakeTransport{reply: script(0x0F, false)}
	d := newTestDevice(t, tr, VariantRR)

	assert.Equal(t, ErrNotConnected, d.SetRfPower(30))
	assert.Equal(t, ErrNotConnected, d.StartInventory())
	_, err := d.ReadByEPC("E200", reader.ReadRequest{Mem: reader.MemEPC, Num: 1})
	assert.Equal(t, ErrNotConnected, err)
	_, err = d.MeasureTemperature()
	assert.Equal(t, ErrNotConnected, err)

	assert.Equal(t, 0, tr.sentCount())
	assert.Equal(t, inventory.Idle, d.InventoryState())
}

func TestDisconnect_StopsScanAndClearsLogs(t *testing.T) {
	tr := &fakeTransport{reply: script(0x0F, true)}
	d := newTestDevice(t, tr, VariantRR)

	_, err := d.Connect("/dev/ttyUSB0", 115200)
	require.NoError(t, err)

	p := d.Parameter()
	p.Interval = 1
	require.NoError(t, d.SetParameter(p))

	require.NoError(t, d.StartInventory())
	waitFor(t, func() bool { return len(d.Rounds()) > 0 })
	assert.Equal(t, 1, d.TagCount())

	require.NoError(t, d.Disconnect())

	assert.Equal(t, inventory.Idle, d.InventoryState())
	assert.False(t, d.Feedback())
	assert.Empty(t, d.Tags())
	assert.Empty(t, d.Rounds())
	assert.Empty(t, d.Observations())
	assert.False(t, tr.isOpen())
	assert.False(t, d.Connected())
}

func TestDisconnect_WhenIdle(t *testing.T) {
	tr := &fakeTransport{}
	d := newTestDevice(t, tr, VariantRR)

	assert.NoError(t, d.Disconnect())
	assert.NoError(t, d.Disconnect())
}

func TestLinkFailure_DisconnectsOnCommand(t *testing.T) {
	tr := &fakeTransport{reply: script(0x0F, false)}
	d := newTestDevice(t, tr, VariantRR)

	_, err := d.Connect("/dev/ttyUSB0", 115200)
	require.NoError(t, err)

	tr.setSendErr(errors.Wrap(transport.ErrIO, "unplugged"))
	err = d.SetRfPower(20)

	assert.True(t, errors.Is(err, transport.ErrIO))
	assert.False(t, d.Connected())
	assert.False(t, tr.isOpen())
	assert.Equal(t, ErrNotConnected, d.SetRfPower(20))
}

func TestLinkFailure_EndsScan(t *testing.T) {
	tr := &fakeTransport{reply: script(0x0F, true)}
	d := newTestDevice(t, tr, VariantRR)

	finished := make(chan error, 1)
	d.OnScanFinished(func(err error) { finished <- err })

	_, err := d.Connect("/dev/ttyUSB0", 115200)
	require.NoError(t, err)

	p := d.Parameter()
	p.Interval = 1
	require.NoError(t, d.SetParameter(p))
	require.NoError(t, d.StartInventory())

	waitFor(t, func() bool { return len(d.Rounds()) > 0 })
	tr.setSendErr(errors.Wrap(transport.ErrIO, "unplugged"))

	select {
	case err := <-finished:
		assert.True(t, errors.Is(err, transport.ErrIO))
	case <-time.After(3 * time.Second):
		t.Fatal("scan did not finish")
	}

	assert.False(t, d.Connected())
	assert.Equal(t, inventory.Idle, d.InventoryState())
	assert.False(t, tr.isOpen())
}

func TestCallbacks_Forwarded(t *testing.T) {
	tr := &fakeTransport{reply: script(0x0F, true)}
	d := newTestDevice(t, tr, VariantRR)

	var (
		mu       sync.Mutex
		tags     []string
		rounds   int
		feedback []bool
	)
	d.OnTag(func(o inventory.Observation) {
		mu.Lock()
		tags = append(tags, o.EPC)
		mu.Unlock()
	})
	d.OnRound(func(inventory.RoundResult) {
		mu.Lock()
		rounds++
		mu.Unlock()
	})
	d.OnFeedback(func(on bool) {
		mu.Lock()
		feedback = append(feedback, on)
		mu.Unlock()
	})

	_, err := d.Connect("/dev/ttyUSB0", 115200)
	require.NoError(t, err)
	require.NoError(t, d.StartInventory())
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return rounds > 0
	})
	d.StopInventory()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, tags)
	assert.Equal(t, "E200", tags[0])
	assert.Equal(t, []bool{true, false}, feedback)
}

func TestSetBaudRate_ReopensPort(t *testing.T) {
	tr := &fakeTransport{reply: script(0x0F, false)}
	d := newTestDevice(t, tr, VariantRR)

	_, err := d.Connect("/dev/ttyUSB0", 57600)
	require.NoError(t, err)

	require.NoError(t, d.SetBaudRate(115200))
	assert.Equal(t, []int{57600, 115200}, tr.opens)
	assert.True(t, d.Connected())

	err = d.SetBaudRate(4800)
	assert.True(t, errors.Is(err, reader.ErrInvalidArgument))
}

func TestVariantForType(t *testing.T) {
	assert.Equal(t, VariantGX, VariantForType(32))
	assert.Equal(t, VariantRR, VariantForType(0x0F))

	v, err := VariantByName("GX")
	require.NoError(t, err)
	assert.False(t, v.Supported)

	_, err = VariantByName("zz")
	assert.Error(t, err)
}

func TestBuild_FromConfig(t *testing.T) {
	q := uint8(7)
	c := &cfg.Config{
		Serial: cfg.SerialConfig{Device: "/dev/ttyUSB0"},
		Reader: cfg.ReaderConfig{Session: 2, QValue: &q, Decoder: "count"},
	}
	require.NoError(t, cfg.Validate(c))
	cfg.Normalize(c)

	d, closer, err := Build(c, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, closer)

	p := d.Parameter()
	assert.Equal(t, byte(2), p.Session)
	assert.Equal(t, byte(7), p.QValue)
	assert.Equal(t, byte(0xFF), p.Address)
	assert.Equal(t, 20, p.Interval)
	assert.False(t, d.Connected())
	assert.NoError(t, closer())
}

// inFlightTransport counts frames sent but not yet answered.
type inFlightTransport struct {
	*fakeTransport

	mu       sync.Mutex
	inFlight int
	max      int
}

func (c *inFlightTransport) Send(b []byte) error {
	c.mu.Lock()
	c.inFlight++
	if c.inFlight > c.max {
		c.max = c.inFlight
	}
	c.mu.Unlock()

	err := c.fakeTransport.Send(b)
	if err != nil {
		c.mu.Lock()
		c.inFlight--
		c.mu.Unlock()
	}
	return err
}

func (c *inFlightTransport) Poll(timeout time.Duration) ([]byte, error) {
	b, err := c.fakeTransport.Poll(timeout)
	if len(b) > 0 {
		c.mu.Lock()
		c.inFlight--
		c.mu.Unlock()
	}
	return b, err
}

func (c *inFlightTransport) maxInFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.max
}

func TestCommandsNeverOverlapScan(t *testing.T) {
	tr := &inFlightTransport{fakeTransport: &fakeTransport{reply: script(0x0F, true)}}
	d, err := New(tr, Config{Variant: VariantRR, SettleDelay: time.Millisecond, Log: quietLogger()})
	require.NoError(t, err)

	_, err = d.Connect("/dev/ttyUSB0", 115200)
	require.NoError(t, err)

	p := d.Parameter()
	p.Interval = 0
	require.NoError(t, d.SetParameter(p))
	require.NoError(t, d.StartInventory())

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				assert.NoError(t, d.SetRfPower(26))
			}
		}()
	}
	wg.Wait()
	waitFor(t, func() bool { return len(d.Rounds()) > 0 })

	d.StopInventory()
	assert.Equal(t, 1, tr.maxInFlight())
	require.NoError(t, d.Disconnect())
}

func TestSetBaudRate_RefusedWhileScanning(t *testing.T) {
	tr := &fakeTransport{reply: script(0x0F, false)}
	d := newTestDevice(t, tr, VariantRR)

	_, err := d.Connect("/dev/ttyUSB0", 57600)
	require.NoError(t, err)
	require.NoError(t, d.StartInventory())

	assert.Equal(t, ErrScanning, d.SetBaudRate(115200))
	assert.Equal(t, []int{57600}, tr.opens)

	require.NoError(t, d.Disconnect())
}

func TestStartInventory_WaitsForPortReopen(t *testing.T) {
	tr := &fakeTransport{reply: script(0x0F, false)}
	d := newTestDevice(t, tr, VariantRR)

	_, err := d.Connect("/dev/ttyUSB0", 57600)
	require.NoError(t, err)

	// Hold the lifecycle guard the way SetBaudRate does during a reopen.
	d.mu.Lock()
	started := make(chan error, 1)
	go func() { started <- d.StartInventory() }()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, inventory.Idle, d.InventoryState())
	d.mu.Unlock()

	require.NoError(t, <-started)
	assert.Equal(t, inventory.Scanning, d.InventoryState())
	require.NoError(t, d.Disconnect())
}
