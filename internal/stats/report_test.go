package stats

import (
	"strings"
	"testing"
)

func TestRenderReport(t *testing.T) {
	standings := []Standing{
		{Place: 1, Name: "amy", Wpm: 62.4, TopWpm: 80.1, Precision: 0.97},
		{Name: "zed", Forfeited: true},
	}
	samples := []float64{10, 20, 30}
	mistakes := map[rune]int{'e': 3, ' ': 1}

	var b strings.Builder
	if err := RenderReport(&b, standings, samples, mistakes); err != nil {
		t.Fatalf("render report: %v", err)
	}
	out := b.String()
	for _, want := range []string{"Results", "amy", "62.4", "WPM over time", "Mistakes", "<space>"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "-") {
		t.Fatalf("forfeited racer not marked unplaced:\n%s", out)
	}
}

func TestFormatTableAlignment(t *testing.T) {
	lines := formatTable(
		[]string{"Name", "WPM"},
		[][]string{{"amy", "62.4"}, {"bo", "7.0"}},
		map[int]bool{1: true},
	)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.HasSuffix(lines[2], " 7.0") {
		t.Fatalf("numeric column not right-aligned: %q", lines[2])
	}
}
