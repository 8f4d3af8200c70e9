// Package game runs the race control loop: it owns all mutable race state
// and consumes the single aggregated event stream, so no state is ever
// touched from more than one goroutine.
package game

import (
	"time"

	"github.com/verte-zerg/tuirace/internal/session"
)

// Event is the closed set of inputs the control loop consumes.
type Event interface {
	isEvent()
}

// KeyEvent is a local key press. Quit marks an abort request.
type KeyEvent struct {
	Rune rune
	Quit bool
}

// TickEvent drives the periodic WPM sample.
type TickEvent struct {
	At time.Time
}

// GhostEvent advances a replayed participant's cursor by one.
type GhostEvent struct {
	Name string
}

// SessionEvent is one decoded command received on the session topic.
type SessionEvent struct {
	Peer string
	Cmd  *session.Command
}

// NetErrorEvent reports a transport failure; the loop aborts the race
// instead of crashing.
type NetErrorEvent struct {
	Err error
}

func (KeyEvent) isEvent()      {}
func (TickEvent) isEvent()     {}
func (GhostEvent) isEvent()    {}
func (SessionEvent) isEvent()  {}
func (NetErrorEvent) isEvent() {}
