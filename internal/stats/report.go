package stats

import (
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/term"

	"github.com/verte-zerg/tuirace/internal/store"
)

const terminalWidthBackup = 80

// RenderReport prints the plain-text post-race report: the final standings,
// the local racer's WPM curve, and the mistake histogram.
func RenderReport(w io.Writer, standings []Standing, samples []float64, mistakes map[rune]int) error {
	if err := renderStandings(w, standings); err != nil {
		return err
	}
	if err := renderWpmCurve(w, samples); err != nil {
		return err
	}
	return renderMistakes(w, mistakes)
}

func renderStandings(w io.Writer, standings []Standing) error {
	if len(standings) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Results"); err != nil {
		return err
	}
	headers := []string{"Place", "Name", "WPM", "Top WPM", "Precision"}
	rows := make([][]string, 0, len(standings))
	for _, s := range standings {
		place := fmt.Sprintf("%d", s.Place)
		if s.Forfeited {
			place = "-"
		}
		rows = append(rows, []string{
			place,
			s.Name,
			fmt.Sprintf("%.1f", s.Wpm),
			fmt.Sprintf("%.1f", s.TopWpm),
			fmt.Sprintf("%.1f%%", s.Precision*100),
		})
	}
	rightAlign := map[int]bool{0: true, 2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func renderWpmCurve(w io.Writer, samples []float64) error {
	if len(samples) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "WPM over time"); err != nil {
		return err
	}
	width := terminalWidth()
	if _, err := fmt.Fprintln(w, Sparkline(Resample(samples, width))); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func renderMistakes(w io.Writer, mistakes map[rune]int) error {
	if len(mistakes) == 0 {
		return nil
	}
	type mistake struct {
		expected rune
		count    int
	}
	sorted := make([]mistake, 0, len(mistakes))
	for ch, n := range mistakes {
		sorted = append(sorted, mistake{expected: ch, count: n})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count == sorted[j].count {
			return sorted[i].expected < sorted[j].expected
		}
		return sorted[i].count > sorted[j].count
	})

	if _, err := fmt.Fprintln(w, "Mistakes"); err != nil {
		return err
	}
	headers := []string{"Char", "Missed"}
	rows := make([][]string, 0, len(sorted))
	for _, m := range sorted {
		label := string(m.expected)
		switch m.expected {
		case ' ':
			label = "<space>"
		case '\n':
			label = "<enter>"
		case '\t':
			label = "<tab>"
		}
		rows = append(rows, []string{label, fmt.Sprintf("%d", m.count)})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderRecords prints stored record summaries.
func RenderRecords(w io.Writer, summaries []store.Summary) error {
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(w, "No records found.")
		return err
	}
	headers := []string{"Text", "User", "Saved", "Finished", "Avg WPM", "Inputs"}
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		finished := "no"
		if s.Finished {
			finished = "yes"
		}
		rows = append(rows, []string{
			s.TextKey,
			s.User,
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
			finished,
			fmt.Sprintf("%.1f", s.AvgWpm),
			fmt.Sprintf("%d", s.Inputs),
		})
	}
	rightAlign := map[int]bool{4: true, 5: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}
