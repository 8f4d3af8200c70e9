package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/tuirace/internal/game"
	"github.com/verte-zerg/tuirace/internal/race"
)

// FrameMsg delivers a control-loop snapshot to the view.
type FrameMsg game.Frame

var (
	typedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	recoveredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D98C8C"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))

	localCursorStyle  = pendingStyle.Copy().Underline(true)
	wrongCursorStyle  = lipgloss.NewStyle().Background(lipgloss.Color("#FF4D4F")).Foreground(lipgloss.Color("#1A1A1A"))
	remoteCursorStyle = lipgloss.NewStyle().Background(lipgloss.Color("#3A6EA5")).Foreground(lipgloss.Color("#F0F0F0"))

	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

type raceModel struct {
	text      []rune
	localName string
	hlColors  []lipgloss.Color
	keys      chan<- game.KeyEvent

	frame game.Frame
	bar   progress.Model

	width  int
	height int
}

func newRaceModel(text, syntax, localName string, hl Highlighter, keys chan<- game.KeyEvent) *raceModel {
	if hl == nil {
		hl = NoopHighlighter{}
	}
	return &raceModel{
		text:      []rune(text),
		localName: localName,
		hlColors:  hl.Highlight(text, syntax),
		keys:      keys,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

// Init implements tea.Model.
func (m *raceModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *raceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		barWidth := m.width / 3
		if barWidth < 10 {
			barWidth = 10
		}
		m.bar.Width = barWidth
		return m, nil
	case FrameMsg:
		m.frame = game.Frame(msg)
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.sendKey(game.KeyEvent{Quit: true})
			return m, nil
		case tea.KeyEnter:
			m.sendKey(game.KeyEvent{Rune: '\n'})
			return m, nil
		case tea.KeyTab:
			m.sendKey(game.KeyEvent{Rune: '\t'})
			return m, nil
		case tea.KeySpace:
			m.sendKey(game.KeyEvent{Rune: ' '})
			return m, nil
		case tea.KeyRunes:
			for _, r := range msg.Runes {
				m.sendKey(game.KeyEvent{Rune: r})
			}
			return m, nil
		default:
			return m, nil
		}
	default:
		return m, nil
	}
}

// sendKey forwards a key press without ever blocking the render loop. The
// control loop drains the channel; once it has exited, presses are dropped.
func (m *raceModel) sendKey(k game.KeyEvent) {
	select {
	case m.keys <- k:
	default:
	}
}

// View implements tea.Model.
func (m *raceModel) View() string {
	if len(m.text) == 0 {
		return ""
	}
	styled := m.styledText()
	if m.width == 0 || m.height == 0 {
		return renderStyledRunes(styled)
	}
	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	wrapped := wrapStyledRunes(styled, contentWidth)
	content := lipgloss.NewStyle().Width(contentWidth).Render(wrapped)
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *raceModel) styledText() []styledRune {
	mistyped := make(map[int]struct{}, len(m.frame.Errors))
	for _, off := range m.frame.Errors {
		mistyped[off] = struct{}{}
	}

	out := make([]styledRune, 0, len(m.text))
	line, col := 0, 0
	for i, target := range m.text {
		style := pendingStyle
		if i < m.frame.LocalPos {
			if _, bad := mistyped[i]; bad {
				style = recoveredStyle
			} else {
				style = typedStyle
			}
		} else if i < len(m.hlColors) && m.hlColors[i] != "" {
			style = lipgloss.NewStyle().Foreground(m.hlColors[i])
		}

		mark, marked := m.frame.Cursors[race.TextCoord{Line: line, Col: col}]
		if marked {
			style = cursorStyleFor(mark, m.localName)
		}

		if target == '\n' {
			s := ""
			if marked {
				s = style.Render("⏎")
			}
			out = append(out, styledRune{s: s, isBreak: true})
			line++
			col = 0
			continue
		}
		out = append(out, styledRune{
			s:       style.Render(string(target)),
			width:   runewidth.RuneWidth(target),
			isSpace: target == ' ',
		})
		col++
	}
	return out
}

func cursorStyleFor(mark race.CursorMark, localName string) lipgloss.Style {
	if mark.HasInput && !mark.LastInput.Correct {
		return wrongCursorStyle
	}
	if mark.Name == localName {
		return localCursorStyle
	}
	return remoteCursorStyle
}

func (m *raceModel) renderFooter() string {
	if m.frame.TextLen == 0 {
		return ""
	}
	frac := float64(m.frame.LocalPos) / float64(m.frame.TextLen)
	segments := fmt.Sprintf("%s %3.0f%%  %.1f WPM", m.bar.ViewAs(frac), frac*100, m.frame.Wpm)
	if m.frame.Done {
		segments += "  done, waiting for the race to end"
	}
	return footerStyle.Render(segments)
}

// View couples a running Bubble Tea program to the control loop: frames go
// in through Render, key presses come out of Keys.
type View struct {
	program *tea.Program
	keys    chan game.KeyEvent
}

// NewView creates the race view for a text.
func NewView(text, syntax, localName string, hl Highlighter) *View {
	keys := make(chan game.KeyEvent, 16)
	model := newRaceModel(text, syntax, localName, hl, keys)
	return &View{
		program: tea.NewProgram(model, tea.WithAltScreen()),
		keys:    keys,
	}
}

// Keys returns the local key press stream.
func (v *View) Keys() <-chan game.KeyEvent {
	return v.keys
}

// Render implements game.Renderer.
func (v *View) Render(f game.Frame) {
	v.program.Send(FrameMsg(f))
}

// Run blocks until the program exits.
func (v *View) Run() error {
	if _, err := v.program.Run(); err != nil {
		return fmt.Errorf("failed to run race view: %w", err)
	}
	return nil
}

// Stop asks the program to exit and restores the terminal.
func (v *View) Stop() {
	v.program.Quit()
}
