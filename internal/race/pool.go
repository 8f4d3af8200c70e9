package race

import (
	"sort"
	"time"

	"github.com/verte-zerg/tuirace/internal/record"
)

// PlayerPool manages the participants of one race, all bound to the same
// immutable target text.
type PlayerPool struct {
	text    []rune
	start   time.Time
	players map[string]*PlayerState
}

// NewPool creates a pool for the given text and adds the named participants.
func NewPool(text string, names ...string) *PlayerPool {
	return NewPoolAt(text, time.Now(), names...)
}

// NewPoolAt creates a pool anchored at an explicit start instant.
func NewPoolAt(text string, start time.Time, names ...string) *PlayerPool {
	pool := &PlayerPool{
		text:    []rune(text),
		start:   start,
		players: map[string]*PlayerState{},
	}
	for _, name := range names {
		pool.Add(name)
	}
	return pool
}

// Add registers a participant. Re-adding an existing name is a no-op.
func (pl *PlayerPool) Add(name string) {
	if _, ok := pl.players[name]; ok {
		return
	}
	pl.players[name] = NewPlayer(name, pl.text, pl.start)
}

// Remove forfeits a participant, excluding it from further processing.
func (pl *PlayerPool) Remove(name string) {
	delete(pl.players, name)
}

// Player looks up a participant by name.
func (pl *PlayerPool) Player(name string) (*PlayerState, bool) {
	p, ok := pl.players[name]
	return p, ok
}

// Names returns the participant names in lexicographic order.
func (pl *PlayerPool) Names() []string {
	names := make([]string, 0, len(pl.players))
	for name := range pl.players {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of participants.
func (pl *PlayerPool) Len() int {
	return len(pl.players)
}

// Text returns the shared target text.
func (pl *PlayerPool) Text() string {
	return string(pl.text)
}

// ProcessInput validates one character for the named participant.
func (pl *PlayerPool) ProcessInput(name string, ch rune) (Outcome, error) {
	p, ok := pl.players[name]
	if !ok {
		return Outcome{}, ErrNotFound
	}
	return p.ProcessInput(ch)
}

// Advance moves the named participant's cursor forward without validation.
func (pl *PlayerPool) Advance(name string) (Progress, error) {
	p, ok := pl.players[name]
	if !ok {
		return Ongoing, ErrNotFound
	}
	return p.Advance()
}

// IsDone reports whether the named participant finished the text.
func (pl *PlayerPool) IsDone(name string) (bool, error) {
	p, ok := pl.players[name]
	if !ok {
		return false, ErrNotFound
	}
	return p.IsDone(), nil
}

// AreAllDone reports whether every participant finished the text.
func (pl *PlayerPool) AreAllDone() bool {
	for _, p := range pl.players {
		if !p.IsDone() {
			return false
		}
	}
	return true
}

// CursorMark is the rendering projection of one cursor position.
type CursorMark struct {
	Name      string
	LastInput record.InputResult
	HasInput  bool
}

// CursorCoords projects every unfinished participant's cursor into a
// (line, column) coordinate. Participants are processed in ascending cursor
// order so line boundaries are scanned once. When two participants share an
// offset, the one whose last input was a mismatch wins the cell, then the
// lexicographically smaller name.
func (pl *PlayerPool) CursorCoords() map[TextCoord]CursorMark {
	type entry struct {
		pos  int
		mark CursorMark
	}
	entries := make([]entry, 0, len(pl.players))
	for name, p := range pl.players {
		if p.IsDone() {
			continue
		}
		last, ok := p.LastInput()
		entries = append(entries, entry{
			pos:  p.Cursor(),
			mark: CursorMark{Name: name, LastInput: last, HasInput: ok},
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].pos != entries[j].pos {
			return entries[i].pos < entries[j].pos
		}
		return entries[i].mark.Name < entries[j].mark.Name
	})

	// Collapse entries sharing an offset before projecting.
	collapsed := entries[:0]
	for _, e := range entries {
		if len(collapsed) > 0 && collapsed[len(collapsed)-1].pos == e.pos {
			prev := &collapsed[len(collapsed)-1]
			if !wins(prev.mark) && wins(e.mark) {
				prev.mark = e.mark
			}
			continue
		}
		collapsed = append(collapsed, e)
	}

	offsets := make([]int, len(collapsed))
	for i, e := range collapsed {
		offsets[i] = e.pos
	}
	coords := lineIndex(pl.text, offsets)

	out := make(map[TextCoord]CursorMark, len(collapsed))
	for i, e := range collapsed {
		out[coords[i]] = e.mark
	}
	return out
}

// wins reports whether a mark takes precedence at a shared offset.
func wins(m CursorMark) bool {
	return m.HasInput && !m.LastInput.Correct
}
