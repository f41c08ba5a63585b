// internal/inventory/runner.go
package inventory

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/uhf-inventory/internal/reader"
	"github.com/tamzrod/uhf-inventory/internal/transport"
)

// run is the scan loop. One goroutine per Start. No overlap. No retries.
func (e *Engine) run(ctx context.Context, done chan struct{}) {
	started := time.Now()
	e.log.Info("inventory started")

	var exitErr error
	for ctx.Err() == nil {
		rr := e.roundOnce(started)

		if fatal(rr.Err) {
			exitErr = rr.Err
			e.log.WithError(rr.Err).Error("inventory stopped on link failure")
			break
		}

		interval := e.inv.Parameter().PollInterval()
		select {
		case <-ctx.Done():
		case <-time.After(interval):
		}
	}

	e.setFeedback(false)

	e.mu.Lock()
	if e.done == done {
		e.cancel = nil
		e.done = nil
	}
	e.mu.Unlock()

	e.hmu.RLock()
	finish := e.onFinish
	e.hmu.RUnlock()
	if finish != nil {
		finish(exitErr)
	}

	close(done)
	e.log.WithField("rounds", len(e.Rounds())).Info("inventory finished")
}

func fatal(err error) bool {
	return errors.Is(err, transport.ErrIO) || errors.Is(err, transport.ErrClosed)
}

// roundOnce performs exactly one inventory round and logs its result.
func (e *Engine) roundOnce(started time.Time) RoundResult {
	p := e.inv.Parameter()

	e.smu.Lock()
	if p.Session <= 1 {
		e.noCard = 0
		e.target = 0
	}
	e.round++
	round := e.round
	target := e.target
	e.smu.Unlock()

	before := e.data.tagCount()
	began := time.Now()
	res, err := e.inv.Inventory(reader.NewInventoryRequest(p, target))
	elapsed := time.Since(began)

	if res.Count == 0 {
		e.setFeedback(false)
		if p.Session > 1 {
			e.smu.Lock()
			e.noCard++
			if e.noCard > emptyRoundsBeforeFlip {
				e.target = 1 - e.target
				e.noCard = 0
				e.log.WithField("target", e.target).Debug("target flipped")
			}
			e.smu.Unlock()
		}
	} else {
		e.smu.Lock()
		e.noCard = 0
		e.smu.Unlock()
		e.setFeedback(true)
	}

	obs := e.data.addTags(round, began, res.Tags)

	ms := elapsed.Milliseconds()
	if ms <= 0 {
		ms = 1
	}

	rr := RoundResult{
		Round:      round,
		Count:      res.Count,
		Elapsed:    elapsed,
		Throughput: int(int64(res.Count) * 1000 / ms),
		NewTags:    e.data.tagCount() - before,
		Total:      time.Since(started),
		Status:     res.Status,
		Target:     target,
		At:         began,
		Err:        err,
	}
	if err != nil {
		rr.Status = reader.StatusCode(err)
		e.log.WithFields(logrus.Fields{"round": round, "status": rr.Status}).WithError(err).Warn("inventory round failed")
	}
	e.data.addRound(rr)

	e.hmu.RLock()
	onTag, onRound := e.onTag, e.onRound
	e.hmu.RUnlock()

	if onTag != nil {
		for _, o := range obs {
			onTag(o)
		}
	}
	if onRound != nil {
		onRound(rr)
	}
	return rr
}
