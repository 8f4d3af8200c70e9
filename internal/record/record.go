// Package record implements the elapsed-input record: an ordered log of
// (time-offset, input result) pairs captured during a race, plus the
// statistics derived from it.
package record

import (
	"sort"
	"time"
)

// InputResult is the outcome of one processed character. On a mismatch,
// Expected holds the rune the text expected at the cursor, not the rune
// that was typed.
type InputResult struct {
	Correct  bool
	Expected rune
}

// Correct returns a correct input result.
func Correct() InputResult {
	return InputResult{Correct: true}
}

// Wrong returns a mismatch result carrying the expected rune.
func Wrong(expected rune) InputResult {
	return InputResult{Correct: false, Expected: expected}
}

// Entry is one recorded input with its offset since the race start.
type Entry struct {
	Elapsed time.Duration
	Result  InputResult
}

// Record is an append-only, ordered sequence of input entries. It is
// immutable once a race ends.
type Record struct {
	Inputs []Entry
}

// Append adds an entry at the given offset since start.
func (r *Record) Append(elapsed time.Duration, result InputResult) {
	r.Inputs = append(r.Inputs, Entry{Elapsed: elapsed, Result: result})
}

// Len returns the number of recorded inputs.
func (r *Record) Len() int {
	return len(r.Inputs)
}

// Duration returns the offset of the last input, or zero for an empty record.
func (r *Record) Duration() time.Duration {
	if len(r.Inputs) == 0 {
		return 0
	}
	return r.Inputs[len(r.Inputs)-1].Elapsed
}

// InputsBetween returns the entries with start <= elapsed < end.
func (r *Record) InputsBetween(start, end time.Duration) []Entry {
	lo := sort.Search(len(r.Inputs), func(i int) bool { return r.Inputs[i].Elapsed >= start })
	hi := sort.Search(len(r.Inputs), func(i int) bool { return r.Inputs[i].Elapsed >= end })
	return r.Inputs[lo:hi]
}

// CountCorrect returns the number of correct inputs.
func (r *Record) CountCorrect() int {
	n := 0
	for _, e := range r.Inputs {
		if e.Result.Correct {
			n++
		}
	}
	return n
}

// CountWrong returns the number of mismatched inputs.
func (r *Record) CountWrong() int {
	return len(r.Inputs) - r.CountCorrect()
}

// WpmAt computes the words-per-minute over the sliding window ending at
// elapsed. A word is the conventional five characters.
func (r *Record) WpmAt(window, elapsed time.Duration) float64 {
	if window <= 0 {
		return 0
	}
	start := elapsed - window
	if start < 0 {
		start = 0
	}
	correct := 0
	for _, e := range r.InputsBetween(start, elapsed) {
		if e.Result.Correct {
			correct++
		}
	}
	cps := float64(correct) / window.Seconds()
	return cps * 60.0 / 5.0
}

// AverageWpm computes the words-per-minute over the whole record.
func (r *Record) AverageWpm() float64 {
	total := r.Duration().Seconds()
	if total <= 0 {
		return 0
	}
	cps := float64(r.CountCorrect()) / total
	return cps * 60.0 / 5.0
}

// TopWpm sweeps the record with the given window and step and returns the
// highest windowed WPM observed.
func (r *Record) TopWpm(window, step time.Duration) float64 {
	if step <= 0 || len(r.Inputs) == 0 {
		return 0
	}
	total := r.Duration()
	best := 0.0
	for at := time.Duration(0); at <= total; at += step {
		if wpm := r.WpmAt(window, at); wpm > best {
			best = wpm
		}
	}
	return best
}

// Precision returns the fraction of correct inputs over all inputs.
func (r *Record) Precision() float64 {
	if len(r.Inputs) == 0 {
		return 0
	}
	return float64(r.CountCorrect()) / float64(len(r.Inputs))
}

// MistakeStats returns, per expected rune, how often it was mistyped.
func (r *Record) MistakeStats() map[rune]int {
	stats := map[rune]int{}
	for _, e := range r.Inputs {
		if !e.Result.Correct {
			stats[e.Result.Expected]++
		}
	}
	return stats
}
