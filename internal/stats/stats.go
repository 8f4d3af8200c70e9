// Package stats contains race statistics accumulation and reporting.
package stats

import (
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/tuirace/internal/record"
)

// DefaultWpmWindow is the sliding window for the live WPM readout.
const DefaultWpmWindow = 4 * time.Second

// DefaultWpmStep is the sweep step for the top-WPM statistic.
const DefaultWpmStep = time.Second

const sparkChars = " .:-=+*#%@"

// Tracker accumulates windowed WPM samples over one race. The control loop
// feeds it once per tick; the samples become the report sparkline.
type Tracker struct {
	window  time.Duration
	samples []float64
}

// NewTracker creates a tracker with the given WPM window.
func NewTracker(window time.Duration) *Tracker {
	if window <= 0 {
		window = DefaultWpmWindow
	}
	return &Tracker{window: window}
}

// Sample appends the windowed WPM at elapsed and returns it.
func (t *Tracker) Sample(rec *record.Record, elapsed time.Duration) float64 {
	wpm := rec.WpmAt(t.window, elapsed)
	t.samples = append(t.samples, wpm)
	return wpm
}

// Latest returns the most recent sample, or zero before the first tick.
func (t *Tracker) Latest() float64 {
	if len(t.samples) == 0 {
		return 0
	}
	return t.samples[len(t.samples)-1]
}

// Samples returns the accumulated WPM samples.
func (t *Tracker) Samples() []float64 {
	return t.samples
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Resample shrinks values to at most width points by bucket averaging.
func Resample(values []float64, width int) []float64 {
	if width <= 0 || len(values) == 0 {
		return nil
	}
	if len(values) <= width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		start := int(float64(i) * float64(len(values)) / float64(width))
		end := int(float64(i+1) * float64(len(values)) / float64(width))
		if end <= start {
			end = start + 1
		}
		if end > len(values) {
			end = len(values)
		}
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}
