// cmd/uhfreader/tracker.go
package main

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/uhf-inventory/internal/inventory"
	"github.com/tamzrod/uhf-inventory/internal/status"
	"github.com/tamzrod/uhf-inventory/internal/writer"
)

// staleAfter is how long a scanning reader may go without a completed round.
const staleAfter = 10 * time.Second

// counters is the part of the device the tracker reads on each event.
type counters interface {
	TagCount() int
	Feedback() bool
	InventoryState() inventory.State
}

type event struct {
	round    *inventory.RoundResult
	finished bool
	up       bool
	err      error
}

// tracker owns the status snapshot. Events arrive from device callbacks;
// seconds_in_error ticks at 1 Hz. Every change is pushed to the status
// writer when export is enabled.
type tracker struct {
	dev counters
	sw  writer.StatusWriter
	log logrus.FieldLogger

	events chan event
	done   chan struct{}

	mu        sync.Mutex
	snap      status.Snapshot
	lastRound time.Time
}

func newTracker(dev counters, sw writer.StatusWriter, log logrus.FieldLogger) *tracker {
	return &tracker{
		dev:    dev,
		sw:     sw,
		log:    log.WithField("component", "status"),
		events: make(chan event, 64),
		done:   make(chan struct{}),
		snap:   status.Snapshot{Health: status.HealthUnknown},
	}
}

// ------------------------------------------------------------
// event sources
// ------------------------------------------------------------

func (t *tracker) round(rr inventory.RoundResult) { t.push(event{round: &rr}) }

func (t *tracker) finished(err error) { t.push(event{finished: true, err: err}) }

func (t *tracker) connected() { t.push(event{up: true}) }

// push never blocks the scan loop once the tracker has stopped.
func (t *tracker) push(ev event) {
	select {
	case t.events <- ev:
	case <-t.done:
	}
}

// Snapshot returns the current status.
func (t *tracker) Snapshot() status.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

// ------------------------------------------------------------
// orchestration
// ------------------------------------------------------------

func (t *tracker) run(ctx context.Context) {
	defer close(t.done)

	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	// Full block write on start (identity re-assert) if enabled.
	t.deliver(t.Snapshot())

	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-t.events:
			if snap, changed := t.apply(ev); changed {
				t.deliver(snap)
			}

		case now := <-secTicker.C:
			if snap, changed := t.tick(now); changed {
				t.deliver(snap)
			}
		}
	}
}

// apply folds one event into the snapshot.
func (t *tracker) apply(ev event) (status.Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	before := t.snap
	s := &t.snap

	switch {
	case ev.up:
		t.ok()

	case ev.round != nil:
		rr := ev.round
		t.lastRound = rr.At.Add(rr.Elapsed)
		s.Rounds++
		s.LastRoundCount = uint32(rr.Count)
		s.LastRoundStatus = uint16(rr.Status)

		if rr.Err == nil {
			t.ok()
		} else {
			t.fail(rr.Err)
		}

	case ev.finished:
		if ev.err != nil {
			// Link lost: the device has already disconnected.
			t.fail(ev.err)
			s.Rounds = 0
		}
	}

	if ev.finished {
		s.Scanning = false
	} else if ev.round == nil {
		t.observeScan(time.Now())
	} else {
		s.Scanning = t.dev.InventoryState() == inventory.Scanning
	}
	s.Feedback = t.dev.Feedback()
	s.UniqueTags = uint32(t.dev.TagCount())

	return *s, *s != before
}

// ok is a recovery: health back to OK, error timer reset.
// The last error code is kept for diagnosis.
func (t *tracker) ok() {
	t.snap.Health = status.HealthOK
	t.snap.SecondsInError = 0
}

func (t *tracker) fail(err error) {
	t.snap.Health = status.HealthError
	t.snap.LastErrorCode = errorCode(err)
}

// tick advances seconds_in_error and detects a stalled scan.
func (t *tracker) tick(now time.Time) (status.Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := &t.snap
	changed := t.observeScan(now)

	switch s.Health {
	case status.HealthError, status.HealthStale:
		s.SecondsInError++
		return *s, true
	case status.HealthOK:
		if s.Scanning && now.Sub(t.lastRound) > staleAfter {
			s.Health = status.HealthStale
			return *s, true
		}
	}
	return *s, changed
}

// observeScan syncs the scanning flag with the device. A scan that just
// started counts as a fresh round so a first round that never completes
// still goes stale. Caller holds t.mu.
func (t *tracker) observeScan(now time.Time) bool {
	scanning := t.dev.InventoryState() == inventory.Scanning
	if scanning == t.snap.Scanning {
		return false
	}
	t.snap.Scanning = scanning
	if scanning {
		t.lastRound = now
	}
	return true
}

func (t *tracker) deliver(s status.Snapshot) {
	if t.sw == nil {
		return
	}
	if err := t.sw.WriteStatus(s); err != nil {
		t.log.WithError(err).Warn("status write failed")
	}
}

// errorCode extracts a best-effort uint16 code from an error without assuming concrete types.
// If the error does not expose a code, returns 1 (generic error).
func errorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	type coder interface{ Code() uint16 }

	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}

	return 1
}
