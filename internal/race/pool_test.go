package race

import (
	"errors"
	"strings"
	"testing"
)

func TestPoolAddIsIdempotent(t *testing.T) {
	pool := NewPool("Hi", "a")
	if _, err := pool.ProcessInput("a", 'H'); err != nil {
		t.Fatalf("process input: %v", err)
	}
	pool.Add("a")
	p, ok := pool.Player("a")
	if !ok {
		t.Fatalf("participant missing after re-add")
	}
	if p.Cursor() != 1 {
		t.Fatalf("re-add reset participant state: cursor %d", p.Cursor())
	}
}

func TestPoolUnknownParticipant(t *testing.T) {
	pool := NewPool("Hi", "a")
	if _, err := pool.ProcessInput("nobody", 'H'); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := pool.Advance("nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := pool.IsDone("nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAreAllDone(t *testing.T) {
	pool := NewPool("Hi", "a", "b")
	for _, ch := range "Hi" {
		if _, err := pool.ProcessInput("a", ch); err != nil {
			t.Fatalf("process input: %v", err)
		}
	}
	if pool.AreAllDone() {
		t.Fatalf("pool done with one participant unfinished")
	}
	for _, ch := range "Hi" {
		if _, err := pool.ProcessInput("b", ch); err != nil {
			t.Fatalf("process input: %v", err)
		}
	}
	if !pool.AreAllDone() {
		t.Fatalf("pool not done with all participants finished")
	}
}

func TestForfeitExcludesFromAreAllDone(t *testing.T) {
	pool := NewPool("Hi", "a", "b")
	for _, ch := range "Hi" {
		if _, err := pool.ProcessInput("a", ch); err != nil {
			t.Fatalf("process input: %v", err)
		}
	}
	pool.Remove("b")
	if !pool.AreAllDone() {
		t.Fatalf("forfeited participant still counted")
	}
	if got := pool.Names(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("unexpected roster after forfeit: %v", got)
	}
}

func TestCursorCoordsProjection(t *testing.T) {
	text := "ab\ncd"
	pool := NewPool(text, "a", "b")
	// Move "b" past the newline: a b \n -> cursor 3 is line 1, col 0.
	for _, ch := range "ab\n" {
		if _, err := pool.ProcessInput("b", ch); err != nil {
			t.Fatalf("process input: %v", err)
		}
	}
	coords := pool.CursorCoords()
	if len(coords) != 2 {
		t.Fatalf("expected 2 coords, got %d", len(coords))
	}
	if mark, ok := coords[TextCoord{Line: 0, Col: 0}]; !ok || mark.Name != "a" {
		t.Fatalf("expected a at (0,0), got %+v", coords)
	}
	if mark, ok := coords[TextCoord{Line: 1, Col: 0}]; !ok || mark.Name != "b" {
		t.Fatalf("expected b at (1,0), got %+v", coords)
	}
}

func TestCursorCoordsConsistentWithNewlineCount(t *testing.T) {
	text := "one\ntwo\nthree"
	pool := NewPool(text, "p")
	target := []rune(text)
	for i, ch := range target[:9] {
		if _, err := pool.ProcessInput("p", ch); err != nil {
			t.Fatalf("process input: %v", err)
		}
		coords := pool.CursorCoords()
		if len(coords) != 1 {
			t.Fatalf("expected 1 coord, got %d", len(coords))
		}
		offset := i + 1
		wantLine := strings.Count(text[:offset], "\n")
		for coord := range coords {
			if coord.Line != wantLine {
				t.Fatalf("offset %d: expected line %d, got %d", offset, wantLine, coord.Line)
			}
		}
	}
}

func TestCursorCoordsTieBreak(t *testing.T) {
	pool := NewPool("Hi", "zed", "amy")
	// Both sit at offset 1; zed's last input was a mismatch.
	if _, err := pool.ProcessInput("amy", 'H'); err != nil {
		t.Fatalf("process input: %v", err)
	}
	if _, err := pool.ProcessInput("zed", 'H'); err != nil {
		t.Fatalf("process input: %v", err)
	}
	if _, err := pool.ProcessInput("zed", 'x'); err != nil {
		t.Fatalf("process input: %v", err)
	}
	coords := pool.CursorCoords()
	mark, ok := coords[TextCoord{Line: 0, Col: 1}]
	if !ok {
		t.Fatalf("missing shared coordinate: %+v", coords)
	}
	if mark.Name != "zed" {
		t.Fatalf("expected mismatch holder zed to win the cell, got %q", mark.Name)
	}

	// With equal outcomes the smaller name wins.
	if _, err := pool.ProcessInput("zed", 'i'); err != nil {
		t.Fatalf("process input: %v", err)
	}
	pool.Add("ann")
	if _, err := pool.ProcessInput("ann", 'H'); err != nil {
		t.Fatalf("process input: %v", err)
	}
	coords = pool.CursorCoords()
	mark, ok = coords[TextCoord{Line: 0, Col: 1}]
	if !ok {
		t.Fatalf("missing shared coordinate: %+v", coords)
	}
	if mark.Name != "amy" {
		t.Fatalf("expected amy to win the cell, got %q", mark.Name)
	}
}

func TestFinishedParticipantsHaveNoCursor(t *testing.T) {
	pool := NewPool("Hi", "a", "b")
	for _, ch := range "Hi" {
		if _, err := pool.ProcessInput("a", ch); err != nil {
			t.Fatalf("process input: %v", err)
		}
	}
	coords := pool.CursorCoords()
	if len(coords) != 1 {
		t.Fatalf("expected only unfinished cursors, got %d", len(coords))
	}
}
