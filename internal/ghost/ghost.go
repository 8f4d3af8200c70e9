// Package ghost replays a recorded performance as a simulated opponent.
package ghost

import (
	"context"
	"time"

	"github.com/verte-zerg/tuirace/internal/record"
)

// Advance tells the control loop to move the named participant's cursor
// forward by one. Recorded inputs come from a fully validated session, so
// replay never produces a mismatch.
type Advance struct {
	Name string
}

// Ghost schedules the correct inputs of a record against the wall clock.
type Ghost struct {
	name    string
	entries []record.Entry
}

// New creates a ghost replaying the given record under the given name.
func New(name string, rec *record.Record) *Ghost {
	entries := make([]record.Entry, 0, rec.Len())
	for _, e := range rec.Inputs {
		if e.Result.Correct {
			entries = append(entries, e)
		}
	}
	return &Ghost{name: name, entries: entries}
}

// Name returns the ghost's participant name.
func (g *Ghost) Name() string {
	return g.name
}

// Start spawns the replay schedule anchored at the given start instant and
// returns the advance stream. Each sleep is computed against the anchor,
// not the previous emission, so a slow consumer cannot accumulate drift.
// The stream closes after the last entry or when the context is cancelled.
func (g *Ghost) Start(ctx context.Context, start time.Time) <-chan Advance {
	out := make(chan Advance)
	go func() {
		defer close(out)
		for _, e := range g.entries {
			delta := e.Elapsed - time.Since(start)
			if delta > 0 {
				timer := time.NewTimer(delta)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			}
			select {
			case out <- Advance{Name: g.name}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
