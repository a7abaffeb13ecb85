package tick

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/StoreStation/vibecraft/pkg/game"
)

func TestLoopRunsSystemsInOrderEveryTick(t *testing.T) {
	var calls int32
	var order []int
	sysA := func(_ *game.State) error { order = append(order, 1); atomic.AddInt32(&calls, 1); return nil }
	sysB := func(_ *game.State) error { order = append(order, 2); return nil }

	l := New(nil, 1000, sysA, sysB)
	ctx, cancel := context.WithCancel(context.Background())

	go l.Run(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()
	time.Sleep(5 * time.Millisecond)

	if atomic.LoadInt32(&calls) < 2 {
		t.Fatalf("expected at least 2 ticks to have run, got %d", calls)
	}
	for i := 0; i+1 < len(order); i += 2 {
		if order[i] != 1 || order[i+1] != 2 {
			t.Fatalf("systems ran out of order: %v", order)
		}
	}
}

func TestLoopContinuesPastASystemError(t *testing.T) {
	var failingRuns, followingRuns int32
	failing := func(_ *game.State) error {
		atomic.AddInt32(&failingRuns, 1)
		return errors.New("boom")
	}
	following := func(_ *game.State) error {
		atomic.AddInt32(&followingRuns, 1)
		return nil
	}

	l := New(nil, 1000, failing, following)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	time.Sleep(15 * time.Millisecond)
	cancel()
	time.Sleep(5 * time.Millisecond)

	if atomic.LoadInt32(&failingRuns) == 0 || atomic.LoadInt32(&followingRuns) == 0 {
		t.Fatalf("expected both systems to keep running despite errors: failing=%d following=%d",
			failingRuns, followingRuns)
	}
}

func TestNewDefaultsInvalidRate(t *testing.T) {
	l := New(nil, 0)
	want := time.Second / DefaultRate
	if l.interval != want {
		t.Errorf("interval = %v, want %v", l.interval, want)
	}
}

func TestRunStopsPromptlyOnCancel(t *testing.T) {
	l := New(nil, 1, func(_ *game.State) error { return nil })
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return promptly after cancel")
	}
}
