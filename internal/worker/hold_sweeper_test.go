package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingSweeper struct {
	calls atomic.Int64
}

func (s *countingSweeper) SweepExpired(context.Context) (int64, error) {
	s.calls.Add(1)
	return 1, nil
}

func TestHoldSweeperTicks(t *testing.T) {
	s := &countingSweeper{}
	w := NewHoldSweeper(s, 10*time.Millisecond)
	w.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for s.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()
	assert.GreaterOrEqual(t, s.calls.Load(), int64(3))
}

func TestHoldSweeperStopsOnContextCancel(t *testing.T) {
	s := &countingSweeper{}
	w := NewHoldSweeper(s, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	cancel()

	select {
	case <-w.doneCh:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}
}

func TestHoldSweeperStopWaits(t *testing.T) {
	s := &countingSweeper{}
	w := NewHoldSweeper(s, time.Hour)
	w.Start(context.Background())
	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
