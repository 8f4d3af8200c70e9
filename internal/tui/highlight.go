package tui

import "github.com/charmbracelet/lipgloss"

// Highlighter optionally supplies a per-rune foreground color for a text in
// a given syntax. A nil or short result leaves runes unstyled.
type Highlighter interface {
	Highlight(text, syntax string) []lipgloss.Color
}

// NoopHighlighter applies no syntax coloring.
type NoopHighlighter struct{}

// Highlight returns no colors.
func (NoopHighlighter) Highlight(string, string) []lipgloss.Color { return nil }
