package record

import (
	"math"
	"testing"
	"time"
)

func sampleRecord() *Record {
	r := &Record{}
	r.Append(100*time.Millisecond, Correct())
	r.Append(300*time.Millisecond, Wrong('a'))
	r.Append(600*time.Millisecond, Correct())
	r.Append(900*time.Millisecond, Wrong('a'))
	r.Append(1200*time.Millisecond, Wrong('b'))
	r.Append(2000*time.Millisecond, Correct())
	return r
}

func TestCounts(t *testing.T) {
	r := sampleRecord()
	if got := r.CountCorrect(); got != 3 {
		t.Fatalf("expected 3 correct, got %d", got)
	}
	if got := r.CountWrong(); got != 3 {
		t.Fatalf("expected 3 wrong, got %d", got)
	}
	if got := r.Precision(); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("expected precision 0.5, got %f", got)
	}
	if got := r.Duration(); got != 2000*time.Millisecond {
		t.Fatalf("expected duration 2s, got %v", got)
	}
}

func TestInputsBetween(t *testing.T) {
	r := sampleRecord()
	entries := r.InputsBetween(300*time.Millisecond, 1200*time.Millisecond)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Elapsed != 300*time.Millisecond {
		t.Fatalf("unexpected first entry offset: %v", entries[0].Elapsed)
	}
	if entries[len(entries)-1].Elapsed != 900*time.Millisecond {
		t.Fatalf("unexpected last entry offset: %v", entries[len(entries)-1].Elapsed)
	}
}

func TestWpmAt(t *testing.T) {
	r := sampleRecord()
	// Two correct inputs fall in [0s, 1s).
	got := r.WpmAt(time.Second, time.Second)
	want := 2.0 / 1.0 * 60.0 / 5.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %f WPM, got %f", want, got)
	}
}

func TestAverageWpm(t *testing.T) {
	r := sampleRecord()
	// 3 correct chars over 2 seconds.
	want := 3.0 / 2.0 * 60.0 / 5.0
	if got := r.AverageWpm(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %f WPM, got %f", want, got)
	}
	empty := &Record{}
	if got := empty.AverageWpm(); got != 0 {
		t.Fatalf("expected 0 WPM for empty record, got %f", got)
	}
}

func TestTopWpmAtLeastAverage(t *testing.T) {
	r := sampleRecord()
	top := r.TopWpm(time.Second, 100*time.Millisecond)
	if avg := r.AverageWpm(); top < avg {
		t.Fatalf("top WPM %f below average %f", top, avg)
	}
}

func TestMistakeStats(t *testing.T) {
	r := sampleRecord()
	stats := r.MistakeStats()
	if stats['a'] != 2 || stats['b'] != 1 {
		t.Fatalf("unexpected mistake stats: %v", stats)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 distinct mistakes, got %d", len(stats))
	}
}

func TestRecorderOffsets(t *testing.T) {
	rec := NewRecorderAt(time.Now())
	rec.PushAt(10*time.Millisecond, Correct())
	rec.PushAt(20*time.Millisecond, Wrong('x'))
	r := rec.Record()
	if r.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", r.Len())
	}
	if r.Inputs[0].Elapsed != 10*time.Millisecond || r.Inputs[1].Elapsed != 20*time.Millisecond {
		t.Fatalf("unexpected offsets: %+v", r.Inputs)
	}
	if !r.Inputs[0].Result.Correct || r.Inputs[1].Result.Expected != 'x' {
		t.Fatalf("unexpected results: %+v", r.Inputs)
	}
}
