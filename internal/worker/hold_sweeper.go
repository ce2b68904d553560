// Package worker contains background tasks that run alongside the HTTP
// server.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/bus-seat-reservation/internal/pkg/logger"
)

// Sweeper is the piece of the booking core that expires overdue holds.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// HoldSweeper periodically transitions past-expiry holds to EXPIRED.
// Availability checks already treat expiry as effective at read time;
// the sweeper bounds how long stale ACTIVE rows linger in the store.
type HoldSweeper struct {
	sweeper  Sweeper
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewHoldSweeper returns a sweeper ticking at the given interval.
func NewHoldSweeper(s Sweeper, interval time.Duration) *HoldSweeper {
	return &HoldSweeper{
		sweeper:  s,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or ctx is cancelled.
func (w *HoldSweeper) Start(ctx context.Context) {
	logger.Info("hold sweeper started", zap.Duration("interval", w.interval))
	go w.run(ctx)
}

func (w *HoldSweeper) run(ctx context.Context) {
	defer close(w.doneCh)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweepOnce(ctx)
		}
	}
}

func (w *HoldSweeper) sweepOnce(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	n, err := w.sweeper.SweepExpired(sweepCtx)
	if err != nil {
		logger.Error("hold sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info("expired holds swept", zap.Int64("count", n))
	}
}

// Stop terminates the loop and waits for the current sweep to finish.
func (w *HoldSweeper) Stop() {
	close(w.stopCh)
	<-w.doneCh
	logger.Info("hold sweeper stopped")
}
