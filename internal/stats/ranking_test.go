package stats

import (
	"testing"
	"time"

	"github.com/verte-zerg/tuirace/internal/record"
)

func TestBuildStandings(t *testing.T) {
	var fast record.Record
	fast.Append(250*time.Millisecond, record.Correct())
	fast.Append(500*time.Millisecond, record.Correct())

	var slow record.Record
	slow.Append(1*time.Second, record.Correct())
	slow.Append(2*time.Second, record.Wrong('q'))

	standings := BuildStandings(
		[]string{"amy", "bob"},
		[]string{"zed"},
		map[string]*record.Record{"amy": &fast, "bob": &slow},
	)
	if len(standings) != 3 {
		t.Fatalf("expected 3 standings, got %d", len(standings))
	}
	if standings[0].Place != 1 || standings[0].Name != "amy" {
		t.Fatalf("unexpected winner %+v", standings[0])
	}
	if standings[0].Wpm <= standings[1].Wpm {
		t.Fatalf("winner WPM %v not above runner-up %v", standings[0].Wpm, standings[1].Wpm)
	}
	if standings[1].Precision != 0.5 {
		t.Fatalf("precision = %v, want 0.5", standings[1].Precision)
	}
	last := standings[2]
	if !last.Forfeited || last.Place != 0 || last.Name != "zed" {
		t.Fatalf("unexpected forfeit entry %+v", last)
	}
	if last.Wpm != 0 {
		t.Fatalf("forfeit without record should have zero WPM, got %v", last.Wpm)
	}
}
