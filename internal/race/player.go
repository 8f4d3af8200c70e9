// Package race implements the typing race state machine: per-participant
// input validation and the pool of participants racing one shared text.
package race

import (
	"errors"
	"fmt"
	"time"

	"github.com/verte-zerg/tuirace/internal/record"
)

var (
	// ErrNotFound reports an unknown participant name.
	ErrNotFound = errors.New("participant not found")
	// ErrAlreadyFinished reports input after the cursor reached the end.
	ErrAlreadyFinished = errors.New("participant already finished")
)

// Progress tells whether a correct input completed the text.
type Progress int

// Progress values.
const (
	Ongoing Progress = iota
	Finished
)

// Outcome is the result of processing one character for one participant.
type Outcome struct {
	Result   record.InputResult
	Progress Progress
}

// PlayerState tracks one participant's cursor into the shared text and
// records every processed input. All mutation goes through ProcessInput
// and Advance.
type PlayerState struct {
	name     string
	text     []rune
	pos      int
	errors   map[int]struct{}
	recorder *record.Recorder
}

// NewPlayer creates a participant bound to the shared text, anchored at the
// given start instant for input recording.
func NewPlayer(name string, text []rune, start time.Time) *PlayerState {
	return &PlayerState{
		name:     name,
		text:     text,
		errors:   map[int]struct{}{},
		recorder: record.NewRecorderAt(start),
	}
}

// Name returns the participant name.
func (p *PlayerState) Name() string {
	return p.name
}

// Cursor returns the count of characters matched so far.
func (p *PlayerState) Cursor() int {
	return p.pos
}

// IsDone reports whether the cursor reached the end of the text.
func (p *PlayerState) IsDone() bool {
	return p.pos == len(p.text)
}

// ProcessInput validates one character against the text at the cursor. On a
// match the cursor advances; on a mismatch the outcome carries the rune the
// text expected. Both are appended to the participant's input record.
func (p *PlayerState) ProcessInput(ch rune) (Outcome, error) {
	if p.pos >= len(p.text) {
		return Outcome{}, ErrAlreadyFinished
	}
	expected := p.text[p.pos]
	var result record.InputResult
	if ch == expected {
		p.pos++
		result = record.Correct()
	} else {
		p.errors[p.pos] = struct{}{}
		result = record.Wrong(expected)
	}
	p.recorder.Push(result)

	progress := Ongoing
	if p.pos == len(p.text) {
		progress = Finished
	}
	return Outcome{Result: result, Progress: progress}, nil
}

// Advance moves the cursor forward by one without validation. It is used to
// replay a known-correct historical performance.
func (p *PlayerState) Advance() (Progress, error) {
	if p.pos >= len(p.text) {
		return Ongoing, ErrAlreadyFinished
	}
	p.pos++
	if p.pos > len(p.text) {
		panic(fmt.Sprintf("race: cursor %d out of bounds for text of length %d", p.pos, len(p.text)))
	}
	if p.pos == len(p.text) {
		return Finished, nil
	}
	return Ongoing, nil
}

// LastInput returns the most recent input result, if any.
func (p *PlayerState) LastInput() (record.InputResult, bool) {
	inputs := p.recorder.Record().Inputs
	if len(inputs) == 0 {
		return record.InputResult{}, false
	}
	return inputs[len(inputs)-1].Result, true
}

// ErrorOffsets returns the cursor offsets where a mismatch occurred.
func (p *PlayerState) ErrorOffsets() []int {
	offsets := make([]int, 0, len(p.errors))
	for off := range p.errors {
		offsets = append(offsets, off)
	}
	return offsets
}

// Record returns the participant's input record.
func (p *PlayerState) Record() *record.Record {
	return p.recorder.Record()
}

// Elapsed returns the time since the participant's local start instant.
func (p *PlayerState) Elapsed() time.Duration {
	return p.recorder.Elapsed()
}
