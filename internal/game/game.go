package game

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/verte-zerg/tuirace/internal/race"
	"github.com/verte-zerg/tuirace/internal/record"
	"github.com/verte-zerg/tuirace/internal/session"
	"github.com/verte-zerg/tuirace/internal/stats"
)

// Outcome is how a race ended for the local participant.
type Outcome int

// Outcome values.
const (
	// Finished: every racer completed the text or forfeited.
	Finished Outcome = iota
	// Quit: the local participant gave up.
	Quit
	// Aborted: the session ended early or the transport failed.
	Aborted
)

const defaultMaxPendingPerPeer = 16

var errSessionEnded = errors.New("session ended")

// Frame is one rendering snapshot handed to the renderer.
type Frame struct {
	Cursors  map[race.TextCoord]race.CursorMark
	Errors   []int
	LocalPos int
	TextLen  int
	Wpm      float64
	Done     bool
}

// Renderer consumes frames produced by the control loop.
type Renderer interface {
	Render(Frame)
}

// Result is the final state of one race.
type Result struct {
	Outcome   Outcome
	Standings []stats.Standing
	Record    record.Record
	Finished  bool
	Samples   []float64
	Mistakes  map[rune]int
}

// Config wires one race's collaborators into the control loop.
type Config struct {
	Log       *zap.Logger
	Pool      *race.PlayerPool
	Roster    *session.Roster
	LocalName string
	// Racers are the live participants the race waits on; ghosts are not
	// racers and never block completion.
	Racers            []string
	Renderer          Renderer
	Publisher         Publisher
	Tracker           *stats.Tracker
	MaxPendingPerPeer int
}

// Game is the single-writer control loop for one race.
type Game struct {
	log  *zap.Logger
	cfg  Config
	pool *race.PlayerPool

	remaining      map[string]struct{}
	finishOrder    []string
	forfeited      []string
	forfeitRecords map[string]*record.Record
	pending        map[string][]SessionEvent
}

// New creates a game from its configuration.
func New(cfg Config) *Game {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = NoopPublisher{}
	}
	if cfg.Tracker == nil {
		cfg.Tracker = stats.NewTracker(0)
	}
	if cfg.MaxPendingPerPeer <= 0 {
		cfg.MaxPendingPerPeer = defaultMaxPendingPerPeer
	}
	remaining := make(map[string]struct{}, len(cfg.Racers))
	for _, name := range cfg.Racers {
		remaining[name] = struct{}{}
	}
	return &Game{
		log:            cfg.Log,
		cfg:            cfg,
		pool:           cfg.Pool,
		remaining:      remaining,
		forfeitRecords: map[string]*record.Record{},
		pending:        map[string][]SessionEvent{},
	}
}

// Run consumes the aggregated event stream until the race completes, the
// local participant quits, or the session dies. It is the only goroutine
// that touches race state.
func (g *Game) Run(ctx context.Context, events <-chan Event) Result {
	g.render()
	for {
		select {
		case <-ctx.Done():
			return g.result(Aborted)
		case ev, ok := <-events:
			if !ok {
				// All sources gone; for a networked race this means the
				// transport channel failed.
				g.log.Warn("event stream closed before race completion")
				return g.result(Aborted)
			}
			switch e := ev.(type) {
			case KeyEvent:
				if e.Quit {
					if err := g.cfg.Publisher.Forfeit(ctx); err != nil {
						g.log.Warn("failed to broadcast forfeit", zap.Error(err))
					}
					g.forfeitLocal()
					return g.result(Quit)
				}
				if err := g.handleLocalInput(ctx, e.Rune); err != nil {
					g.log.Error("broadcast failed", zap.Error(err))
					return g.result(Aborted)
				}
			case TickEvent:
				if local, ok := g.pool.Player(g.cfg.LocalName); ok {
					g.cfg.Tracker.Sample(local.Record(), local.Elapsed())
				}
			case GhostEvent:
				if _, err := g.pool.Advance(e.Name); err != nil {
					g.log.Debug("ghost advance ignored",
						zap.String("name", e.Name), zap.Error(err))
				}
			case SessionEvent:
				if err := g.handleSession(e); err != nil {
					g.log.Info("session ended by peer", zap.String("peer", e.Peer))
					return g.result(Aborted)
				}
			case NetErrorEvent:
				g.log.Error("transport failure", zap.Error(e.Err))
				return g.result(Aborted)
			}
			g.render()
			if len(g.remaining) == 0 {
				return g.result(Finished)
			}
		}
	}
}

func (g *Game) handleLocalInput(ctx context.Context, ch rune) error {
	out, err := g.pool.ProcessInput(g.cfg.LocalName, ch)
	if err != nil {
		// Input after finishing is just ignored.
		return nil
	}
	if err := g.cfg.Publisher.Input(ctx, ch); err != nil {
		return err
	}
	if out.Progress == race.Finished {
		g.finish(g.cfg.LocalName)
	}
	return nil
}

func (g *Game) handleSession(ev SessionEvent) error {
	if g.cfg.Roster == nil {
		return nil
	}
	switch ev.Cmd.Type {
	case session.CmdPush:
		name, ok := g.cfg.Roster.Lookup(ev.Peer)
		if !ok {
			g.bufferPending(ev)
			return nil
		}
		for _, pend := range g.takePending(ev.Peer) {
			g.applyPush(name, pend)
		}
		g.applyPush(name, ev)
		return nil
	case session.CmdEnd:
		return errSessionEnded
	default:
		// Register and Lock have no meaning after the race started.
		return nil
	}
}

func (g *Game) applyPush(name string, ev SessionEvent) {
	var push session.Push
	if err := ev.Cmd.Body(&push); err != nil {
		g.log.Warn("dropping malformed push",
			zap.String("peer", ev.Peer), zap.Error(err))
		return
	}
	payload, err := session.DecodePayload(push.Payload)
	if err != nil {
		g.log.Warn("dropping malformed race payload",
			zap.String("peer", ev.Peer), zap.Error(err))
		return
	}
	switch payload.Type {
	case session.PayloadInput:
		ch, err := payload.Input()
		if err != nil {
			g.log.Warn("dropping input payload without rune",
				zap.String("peer", ev.Peer), zap.Error(err))
			return
		}
		out, err := g.pool.ProcessInput(name, ch)
		if err != nil {
			g.log.Debug("peer input ignored",
				zap.String("name", name), zap.Error(err))
			return
		}
		if out.Progress == race.Finished {
			g.finish(name)
		}
	case session.PayloadForfeit:
		g.forfeitPeer(ev.Peer, name)
	}
}

// bufferPending holds pushes from peers the roster cannot attribute yet.
// The buffer is bounded so a chatty stranger cannot grow memory.
func (g *Game) bufferPending(ev SessionEvent) {
	if len(g.pending[ev.Peer]) >= g.cfg.MaxPendingPerPeer {
		g.log.Warn("dropping push from unattributed peer, buffer full",
			zap.String("peer", ev.Peer))
		return
	}
	g.pending[ev.Peer] = append(g.pending[ev.Peer], ev)
}

func (g *Game) takePending(peer string) []SessionEvent {
	pend := g.pending[peer]
	delete(g.pending, peer)
	return pend
}

func (g *Game) finish(name string) {
	if _, ok := g.remaining[name]; !ok {
		return
	}
	delete(g.remaining, name)
	g.finishOrder = append(g.finishOrder, name)
}

func (g *Game) forfeitPeer(peer, name string) {
	if g.cfg.Roster != nil {
		g.cfg.Roster.Remove(peer)
	}
	g.forfeit(name)
}

func (g *Game) forfeitLocal() {
	g.forfeit(g.cfg.LocalName)
}

func (g *Game) forfeit(name string) {
	if _, ok := g.remaining[name]; !ok {
		return
	}
	delete(g.remaining, name)
	g.forfeited = append(g.forfeited, name)
	if p, ok := g.pool.Player(name); ok {
		g.forfeitRecords[name] = p.Record()
	}
	g.pool.Remove(name)
}

func (g *Game) render() {
	if g.cfg.Renderer == nil {
		return
	}
	frame := Frame{
		Cursors: g.pool.CursorCoords(),
		TextLen: len([]rune(g.pool.Text())),
		Wpm:     g.cfg.Tracker.Latest(),
	}
	if local, ok := g.pool.Player(g.cfg.LocalName); ok {
		frame.Errors = local.ErrorOffsets()
		frame.LocalPos = local.Cursor()
		frame.Done = local.IsDone()
	}
	g.cfg.Renderer.Render(frame)
}

func (g *Game) result(outcome Outcome) Result {
	res := Result{
		Outcome:  outcome,
		Samples:  g.cfg.Tracker.Samples(),
		Mistakes: map[rune]int{},
	}
	records := map[string]*record.Record{}
	for _, name := range g.finishOrder {
		if p, ok := g.pool.Player(name); ok {
			records[name] = p.Record()
		}
	}
	for name, rec := range g.forfeitRecords {
		records[name] = rec
	}
	if rec, ok := records[g.cfg.LocalName]; ok {
		res.Record = *rec
		res.Mistakes = rec.MistakeStats()
	} else if p, ok := g.pool.Player(g.cfg.LocalName); ok {
		res.Record = *p.Record()
		res.Mistakes = p.Record().MistakeStats()
	}
	for _, name := range g.finishOrder {
		if name == g.cfg.LocalName {
			res.Finished = true
		}
	}
	res.Standings = stats.BuildStandings(g.finishOrder, g.forfeited, records)
	return res
}
