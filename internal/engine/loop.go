package engine

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/draftbid/internal/auction"
	"github.com/mmynk/draftbid/internal/events"
	"github.com/mmynk/draftbid/internal/models"
)

// Run restores deadline timers for rounds that were active before a restart,
// then ticks and sweeps until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Restore(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	// Rounds that expired or failed to settle while the process was down.
	if err := e.Sweep(ctx); err != nil {
		e.log.Error("initial sweep failed", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.every(ctx, e.tickInterval, e.Tick)
	})
	g.Go(func() error {
		return e.every(ctx, e.sweepInterval, e.Sweep)
	})
	err := g.Wait()
	e.stopTimers()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (e *Engine) every(ctx context.Context, interval time.Duration, fn func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				e.log.Error("periodic task failed", "error", err)
			}
		}
	}
}

// Restore schedules deadline timers for every active round in the store.
func (e *Engine) Restore(ctx context.Context) error {
	rounds, err := e.store.ListActiveRounds(ctx)
	if err != nil {
		return err
	}
	for _, r := range rounds {
		e.scheduleDeadline(r)
	}
	if len(rounds) > 0 {
		e.log.Info("restored round deadlines", "rounds", len(rounds))
	}
	return nil
}

// Tick publishes the remaining time of every active round. It never closes
// anything.
func (e *Engine) Tick(ctx context.Context) error {
	rounds, err := e.store.ListActiveRounds(ctx)
	if err != nil {
		return err
	}
	now := e.clock.Now()
	for _, r := range rounds {
		e.publish(r.RoomID, events.TimerTick, events.TimerTickPayload{
			RoundID:   r.ID,
			ItemID:    r.ItemID,
			EndTime:   r.EndTime,
			Remaining: auction.RemainingSeconds(r.EndTime, now),
		})
	}
	return nil
}

// Sweep is the recovery pass. It closes active rounds whose deadline has
// passed and retries settlement of rounds that closed but never settled.
// A closed round is only retried once it has been closed for a full sweep
// interval, so a settlement still running elsewhere is left alone.
func (e *Engine) Sweep(ctx context.Context) error {
	now := e.clock.Now()
	var errs []error

	expired, err := e.store.ListExpiredRounds(ctx, now)
	if err != nil {
		return err
	}
	for _, r := range expired {
		proceeded, err := e.RequestClose(ctx, r.ID, models.StaleSweepRecovery)
		if proceeded {
			e.metrics.SweepRecoveries.WithLabelValues("closed").Inc()
			e.log.Warn("sweep closed an expired round",
				"room_id", r.RoomID,
				"round_id", r.ID,
				"late_by", now.Sub(r.EndTime),
			)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	unsettled, err := e.store.ListUnsettledRounds(ctx)
	if err != nil {
		return errors.Join(append(errs, err)...)
	}
	for _, r := range unsettled {
		if e.isSettling(r.ID) || now.Sub(r.ClosedAt) < e.sweepInterval {
			continue
		}
		if _, err := e.Settle(ctx, r.ID); err != nil {
			if !errors.Is(err, ErrSettling) {
				errs = append(errs, err)
			}
			continue
		}
		e.metrics.SweepRecoveries.WithLabelValues("settled").Inc()
		e.log.Warn("sweep settled a stranded round",
			"room_id", r.RoomID,
			"round_id", r.ID,
		)
	}
	return errors.Join(errs...)
}

// scheduleDeadline arms the deadline-elapsed close for r.
func (e *Engine) scheduleDeadline(r *models.Round) {
	roundID := r.ID
	d := auction.Remaining(r.EndTime, e.clock.Now())

	e.mu.Lock()
	defer e.mu.Unlock()
	if old, ok := e.timers[roundID]; ok {
		old.Stop()
	}
	dl := &deadline{}
	dl.Timer = e.clock.AfterFunc(d, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timerCallbackTimeout)
		defer cancel()
		if _, err := e.RequestClose(ctx, roundID, models.DeadlineElapsed); err != nil {
			e.log.Error("deadline close failed",
				"round_id", roundID,
				"error", err,
			)
		}
		e.forgetDeadline(roundID, dl)
	})
	e.timers[roundID] = dl
}

// deadline is the handle kept in e.timers. Its identity lets a fired callback
// remove its own entry without touching a timer armed after it.
type deadline struct {
	Timer
}

func (e *Engine) forgetDeadline(roundID string, dl *deadline) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cur, ok := e.timers[roundID]; ok && cur == Timer(dl) {
		delete(e.timers, roundID)
	}
}

func (e *Engine) cancelDeadline(roundID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.timers[roundID]; ok {
		t.Stop()
		delete(e.timers, roundID)
	}
}

func (e *Engine) stopTimers() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, t := range e.timers {
		t.Stop()
		delete(e.timers, id)
	}
}
