// internal/inventory/engine.go
package inventory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/uhf-inventory/internal/reader"
)

// ErrAlreadyRunning is returned by Start while a scan is active.
var ErrAlreadyRunning = errors.New("inventory: already running")

// emptyRoundsBeforeFlip is how many consecutive empty rounds a persistent
// session tolerates before the A/B target is flipped.
const emptyRoundsBeforeFlip = 7

// Inventorier is the part of the reader the engine drives.
type Inventorier interface {
	Parameter() reader.Parameter
	Inventory(q reader.InventoryRequest) (reader.InventoryResult, error)
}

// Engine runs continuous inventory rounds on its own goroutine.
// Stop is observed between rounds, never mid-round.
type Engine struct {
	inv Inventorier
	log logrus.FieldLogger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// session heuristic, touched by the loop only
	smu    sync.Mutex
	noCard int
	target byte
	round  int

	feedback atomic.Bool

	hmu        sync.RWMutex
	onTag      func(Observation)
	onRound    func(RoundResult)
	onFinish   func(error)
	onFeedback func(bool)

	data *store
}

// New creates an idle engine.
func New(inv Inventorier, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		inv:  inv,
		log:  log.WithField("component", "inventory"),
		data: newStore(),
	}
}

// ------------------------------------------------------------
// callbacks
// ------------------------------------------------------------

// OnTag registers the per-tag callback. It runs on the scan goroutine and
// must return quickly.
func (e *Engine) OnTag(fn func(Observation)) {
	e.hmu.Lock()
	e.onTag = fn
	e.hmu.Unlock()
}

// OnRound registers the per-round callback.
func (e *Engine) OnRound(fn func(RoundResult)) {
	e.hmu.Lock()
	e.onRound = fn
	e.hmu.Unlock()
}

// OnFinish registers the scan-finished callback. err is nil after Stop and
// set when the loop ended on a link failure.
func (e *Engine) OnFinish(fn func(err error)) {
	e.hmu.Lock()
	e.onFinish = fn
	e.hmu.Unlock()
}

// OnFeedback registers the audible-feedback sink, called on every change.
func (e *Engine) OnFeedback(fn func(on bool)) {
	e.hmu.Lock()
	e.onFeedback = fn
	e.hmu.Unlock()
}

// ------------------------------------------------------------
// lifecycle
// ------------------------------------------------------------

// Start begins scanning. It never starts a second loop.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.done != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.cancel = cancel
	e.done = done

	e.smu.Lock()
	e.noCard = 0
	e.target = 0
	e.smu.Unlock()

	go e.run(ctx, done)
	return nil
}

// Stop ends scanning after the current round and waits for the loop to
// exit. Safe to call when idle. Must not be called from a callback.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// State reports whether a loop is active.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done != nil {
		return Scanning
	}
	return Idle
}

// Feedback reports the audible-feedback flag.
func (e *Engine) Feedback() bool { return e.feedback.Load() }

func (e *Engine) setFeedback(on bool) {
	if e.feedback.Swap(on) == on {
		return
	}
	e.hmu.RLock()
	fn := e.onFeedback
	e.hmu.RUnlock()
	if fn != nil {
		fn(on)
	}
}

// SessionState returns the empty-round counter and current target flag.
func (e *Engine) SessionState() (noCard int, target byte) {
	e.smu.Lock()
	defer e.smu.Unlock()
	return e.noCard, e.target
}

// ------------------------------------------------------------
// accessors
// ------------------------------------------------------------

// Observations returns a copy of the observation log.
func (e *Engine) Observations() []Observation { return e.data.snapshotObservations() }

// Tags returns the unique tag table in first-seen order.
func (e *Engine) Tags() []TagRecord { return e.data.snapshotTags() }

// TagCount is the unique tag table size.
func (e *Engine) TagCount() int { return e.data.tagCount() }

// Rounds returns a copy of the round log.
func (e *Engine) Rounds() []RoundResult { return e.data.snapshotRounds() }

// Reset clears all logs and the session heuristic.
func (e *Engine) Reset() {
	e.data.reset()
	e.smu.Lock()
	e.noCard, e.target, e.round = 0, 0, 0
	e.smu.Unlock()
}
