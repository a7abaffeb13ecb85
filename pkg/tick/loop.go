// Package tick drives the server's single-threaded game loop: a
// fixed-rate driver invoking an ordered list of systems against the
// shared game state. There is no concurrency between systems within
// a tick and no make-up ticks if a tick runs long.
package tick

import (
	"context"
	"log"
	"time"

	"github.com/StoreStation/vibecraft/pkg/game"
)

// System is one step of a tick. An error is logged and does not stop
// the tick or the loop.
type System func(*game.State) error

// DefaultRate is the tick rate used when no override is configured.
const DefaultRate = 20

// Loop runs a fixed-order slice of systems at a configured rate.
type Loop struct {
	state    *game.State
	systems  []System
	interval time.Duration

	// LastTickDuration is the wall-clock time the most recently
	// completed tick body took to run, exposed for diagnostics.
	LastTickDuration time.Duration
}

// New builds a Loop ticking at ratePerSecond (DefaultRate if zero or
// negative), running systems in the order given on every tick.
func New(state *game.State, ratePerSecond int, systems ...System) *Loop {
	if ratePerSecond <= 0 {
		ratePerSecond = DefaultRate
	}
	return &Loop{
		state:    state,
		systems:  systems,
		interval: time.Second / time.Duration(ratePerSecond),
	}
}

// Run ticks until ctx is cancelled, sleeping out the remainder of the
// tick budget when a tick finishes early and proceeding immediately
// (with no make-up tick) when it runs over.
func (l *Loop) Run(ctx context.Context) {
	next := time.Now().Add(l.interval)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		l.tick()

		now := time.Now()
		if remaining := next.Sub(now); remaining > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(remaining):
			}
			next = next.Add(l.interval)
		} else {
			log.Printf("tick: tick took %v, over budget of %v", l.LastTickDuration, l.interval)
			next = now.Add(l.interval)
		}
	}
}

func (l *Loop) tick() {
	start := time.Now()
	for _, sys := range l.systems {
		if err := sys(l.state); err != nil {
			log.Printf("tick: system error: %v", err)
		}
	}
	l.LastTickDuration = time.Since(start)
}
