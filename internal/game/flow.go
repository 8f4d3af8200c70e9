package game

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/tuirace/internal/event"
	"github.com/verte-zerg/tuirace/internal/ghost"
	"github.com/verte-zerg/tuirace/internal/race"
	"github.com/verte-zerg/tuirace/internal/record"
	"github.com/verte-zerg/tuirace/internal/session"
	"github.com/verte-zerg/tuirace/internal/stats"
)

// DefaultTickInterval is how often the WPM sample fires.
const DefaultTickInterval = time.Second

// LeaveGrace is how long a participant stays subscribed after its race
// ends, so the last broadcast inputs still reach slower peers.
const LeaveGrace = 2 * time.Second

// PracticeOptions configures an offline race against an optional ghost.
type PracticeOptions struct {
	Log          *zap.Logger
	Text         string
	User         string
	GhostName    string
	GhostRecord  *record.Record
	Renderer     Renderer
	Keys         <-chan KeyEvent
	TickInterval time.Duration
}

// RunPractice races the local user against a replayed record, or alone.
func RunPractice(ctx context.Context, opts PracticeOptions) Result {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	start := time.Now()
	pool := race.NewPoolAt(opts.Text, start, opts.User)

	agg := event.NewAggregator[Event](64)
	event.Push(agg, opts.Keys, func(k KeyEvent) Event { return k })
	event.Push(agg, event.Ticker(ctx, opts.TickInterval), func(t time.Time) Event { return TickEvent{At: t} })

	if opts.GhostRecord != nil && opts.GhostRecord.Len() > 0 {
		name := opts.GhostName
		if name == "" {
			name = "ghost"
		}
		pool.Add(name)
		gh := ghost.New(name, opts.GhostRecord)
		event.Push(agg, gh.Start(ctx, start), func(a ghost.Advance) Event { return GhostEvent{Name: a.Name} })
	}

	g := New(Config{
		Log:       opts.Log,
		Pool:      pool,
		LocalName: opts.User,
		Racers:    []string{opts.User},
		Renderer:  opts.Renderer,
		Publisher: NoopPublisher{},
		Tracker:   stats.NewTracker(stats.DefaultWpmWindow),
	})
	return g.Run(ctx, agg.Events())
}

// RaceOptions configures the in-race phase of a networked session, after
// registration has locked and the roster is known.
type RaceOptions struct {
	Log          *zap.Logger
	Client       *session.Client
	Roster       *session.Roster
	User         string
	Text         string
	Start        time.Time
	Events       <-chan session.Event
	Early        []session.Event
	Renderer     Renderer
	Keys         <-chan KeyEvent
	TickInterval time.Duration
}

// RunRace waits for the negotiated start instant and then runs the race
// against the session's locked roster.
func RunRace(ctx context.Context, opts RaceOptions) (Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if err := session.WaitUntil(ctx, opts.Start); err != nil {
		return Result{}, err
	}

	pool := race.NewPoolAt(opts.Text, opts.Start, opts.Roster.Names()...)

	agg := event.NewAggregator[Event](64)
	event.Push(agg, opts.Keys, func(k KeyEvent) Event { return k })
	event.Push(agg, event.Ticker(ctx, opts.TickInterval), func(t time.Time) Event { return TickEvent{At: t} })
	event.Push(agg, opts.Events, func(e session.Event) Event { return SessionEvent{Peer: e.Peer, Cmd: e.Cmd} })
	if len(opts.Early) > 0 {
		early := make(chan session.Event, len(opts.Early))
		for _, e := range opts.Early {
			early <- e
		}
		close(early)
		event.Push(agg, early, func(e session.Event) Event { return SessionEvent{Peer: e.Peer, Cmd: e.Cmd} })
	}

	g := New(Config{
		Log:       opts.Log,
		Pool:      pool,
		Roster:    opts.Roster,
		LocalName: opts.User,
		Racers:    opts.Roster.Names(),
		Renderer:  opts.Renderer,
		Publisher: NewSessionPublisher(opts.Client),
		Tracker:   stats.NewTracker(stats.DefaultWpmWindow),
	})
	return g.Run(ctx, agg.Events()), nil
}

// WaitGrace sleeps the leave grace period, or less if the context dies.
func WaitGrace(ctx context.Context) {
	timer := time.NewTimer(LeaveGrace)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
