// Package logview buffers engine output lines and renders them as a
// scrollable overlay. Consecutive repeats of the same line collapse into
// one row with a repeat count, so a chatty engine cannot flush the
// buffer with a single looping message.
package logview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/clinicalq/console/internal/ui/theme"
)

const maxEntries = 200

// Entry is one buffered engine output line.
type Entry struct {
	Time    time.Time
	Stream  string // "out" or "err"
	Message string
	Repeats int // additional consecutive occurrences
}

// Model holds the log buffer and the scroll position.
type Model struct {
	entries []Entry
	offset  int // rows scrolled up from the bottom
	errs    int // total stderr lines seen, including collapsed repeats
}

// New creates an empty log buffer.
func New() Model {
	return Model{}
}

// Add appends one line. A line identical to the previous one bumps its
// repeat count instead of growing the buffer. New output snaps the
// viewport back to the bottom.
func (m *Model) Add(stream, message string) {
	if stream == "err" {
		m.errs++
	}
	m.offset = 0

	if n := len(m.entries); n > 0 {
		last := &m.entries[n-1]
		if last.Stream == stream && last.Message == message {
			last.Repeats++
			last.Time = time.Now()
			return
		}
	}

	m.entries = append(m.entries, Entry{
		Time:    time.Now(),
		Stream:  stream,
		Message: message,
	})
	if len(m.entries) > maxEntries {
		m.entries = m.entries[len(m.entries)-maxEntries:]
	}
}

// Len reports the number of buffered rows (after repeat collapsing).
func (m Model) Len() int { return len(m.entries) }

// Last returns the newest line formatted for a one-row footer, or "".
func (m Model) Last() string {
	if len(m.entries) == 0 {
		return ""
	}
	e := m.entries[len(m.entries)-1]
	if e.Stream == "err" {
		return "stderr: " + e.Message
	}
	return e.Message
}

// ScrollUp moves the viewport toward older rows.
func (m *Model) ScrollUp(n int) {
	m.offset += n
	if max := len(m.entries) - 1; m.offset > max {
		m.offset = max
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// ScrollDown moves the viewport toward the newest row.
func (m *Model) ScrollDown(n int) {
	m.offset -= n
	if m.offset < 0 {
		m.offset = 0
	}
}

// tail returns the rows visible for a viewport of n rows at the current
// scroll offset, plus how many newer rows sit below the viewport.
func (m Model) tail(n int) ([]Entry, int) {
	end := len(m.entries) - m.offset
	if end < 0 {
		end = 0
	}
	start := end - n
	if start < 0 {
		start = 0
	}
	return m.entries[start:end], m.offset
}

// View renders the overlay panel.
func (m Model) View(width, height int) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}
	rows := height - 6
	if rows < 3 {
		rows = 3
	}

	header := fmt.Sprintf(" ENGINE LOG — %d rows", len(m.entries))
	if m.errs > 0 {
		header += fmt.Sprintf(", %d stderr", m.errs)
	}
	title := theme.StyleHeader.Render(header)
	help := theme.StyleDimmed.Render("j/k:scroll  esc:close")

	if len(m.entries) == 0 {
		empty := theme.StyleDimmed.Render("  The engine has not written anything yet.")
		return panel(innerW).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", empty, "", help))
	}

	visible, below := m.tail(rows)
	lines := make([]string, 0, len(visible)+1)
	for _, e := range visible {
		lines = append(lines, renderRow(e, innerW))
	}
	if below > 0 {
		lines = append(lines, theme.StyleDimmed.Render(fmt.Sprintf(" ↓ %d newer", below)))
	}

	return panel(innerW).Render(lipgloss.JoinVertical(lipgloss.Left,
		title, strings.Join(lines, "\n"), help))
}

func renderRow(e Entry, innerW int) string {
	ts := theme.StyleDimmed.Render(e.Time.Format("15:04:05"))
	tag := lipgloss.NewStyle().Foreground(streamColor(e.Stream)).Width(4).Render(e.Stream)

	msg := e.Message
	if budget := innerW - 18; budget > 3 && len(msg) > budget {
		msg = msg[:budget-1] + "…"
	}
	row := fmt.Sprintf("%s %s %s", ts, tag, msg)
	if e.Repeats > 0 {
		row += theme.StyleDimmed.Render(fmt.Sprintf(" ×%d", e.Repeats+1))
	}
	return row
}

func panel(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder)
}

func streamColor(stream string) lipgloss.Color {
	if stream == "err" {
		return theme.ColorDanger
	}
	return theme.ColorDimmed
}
