// Package monitor renders the live recording view: the current epoch
// with its instruction and countdown, and a sparkline per charted band
// built from the live bandpower feed.
package monitor

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/clinicalq/console/internal/ui/theme"
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Epoch is the slice of epoch state the monitor shows.
type Epoch struct {
	Sequence    string
	Index       int
	Total       int
	Label       string
	Instruction string
	Seconds     int
	Remaining   int
	NextLabel   string
}

// Model holds the monitor state.
type Model struct {
	Width int

	epoch     *Epoch
	gate      string
	bands     []string
	locations []string
	series    map[string]map[string][]float64
	failure   string
	phase     string
	lastLine  string
}

// New creates a monitor model for the given charted bands.
func New(bands []string) Model {
	return Model{
		bands:  bands,
		series: make(map[string]map[string][]float64),
		phase:  "idle",
	}
}

// SetPhase records the session phase for the idle/terminal banners.
func (m *Model) SetPhase(phase string) { m.phase = phase }

// SetEpoch replaces the current epoch panel.
func (m *Model) SetEpoch(e Epoch) {
	m.epoch = &e
	m.locations = nil
	m.series = make(map[string]map[string][]float64)
}

// SetRemaining updates the countdown without replacing the epoch.
func (m *Model) SetRemaining(remaining int) {
	if m.epoch != nil {
		m.epoch.Remaining = remaining
	}
}

// SetGate shows or clears the reposition banner.
func (m *Model) SetGate(location string) { m.gate = location }

// SetSeries replaces the sparkline series for one location and band.
// Locations keep their first-seen order across the epoch.
func (m *Model) SetSeries(location, band string, values []float64) {
	if len(values) == 0 {
		return
	}
	if _, seen := m.series[location]; !seen {
		m.locations = append(m.locations, location)
		m.series[location] = make(map[string][]float64)
	}
	m.series[location][band] = values
}

// SetFailure records a failure message for the terminal banner.
func (m *Model) SetFailure(msg string) { m.failure = msg }

// SetLastLog shows the most recent engine log line under the panel.
func (m *Model) SetLastLog(line string) { m.lastLine = line }

// View renders the monitor.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var sections []string
	sections = append(sections, m.renderEpoch(width))
	if m.gate != "" {
		sections = append(sections, m.renderGate(width))
	}
	sections = append(sections, m.renderBands(width))
	if m.lastLine != "" {
		sections = append(sections, theme.StyleDimmed.Render("  "+truncate(m.lastLine, width-4)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderEpoch(width int) string {
	if m.epoch == nil {
		var msg string
		switch m.phase {
		case "failed":
			msg = lipgloss.NewStyle().Foreground(theme.ColorDanger).
				Render("✗ " + m.failure)
		case "complete":
			msg = lipgloss.NewStyle().Foreground(theme.ColorComplete).
				Render("✓ Session complete")
		case "stopped":
			msg = theme.StyleDimmed.Render("■ Session stopped")
		default:
			msg = theme.StyleDimmed.Render("No epoch running — press s to start a session")
		}
		return theme.StyleBorder.Width(width - 2).Padding(0, 1).Render(msg)
	}

	e := m.epoch
	title := theme.StyleHeader.Render(
		fmt.Sprintf("%s  epoch %d/%d  %s", e.Sequence, e.Index, e.Total, e.Label))

	var lines []string
	lines = append(lines, title)
	if e.Instruction != "" {
		lines = append(lines, theme.StyleDimmed.Render(e.Instruction))
	}
	lines = append(lines, renderCountdown(e.Remaining, e.Seconds, width-8))
	if e.NextLabel != "" && e.NextLabel != e.Label {
		lines = append(lines, theme.StyleDimmed.Render("next: "+e.NextLabel))
	}

	return theme.StyleBorder.Width(width - 2).Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderGate(width int) string {
	msg := lipgloss.NewStyle().Foreground(theme.ColorWarning).Bold(true).
		Render(fmt.Sprintf("◌ Move the electrode to %s, then press r", m.gate))
	return lipgloss.NewStyle().
		Width(width - 2).
		Padding(0, 1).
		BorderStyle(lipgloss.ThickBorder()).
		BorderForeground(theme.ColorWarning).
		Render(msg)
}

func (m Model) renderBands(width int) string {
	sparkWidth := width - 28
	if sparkWidth < 10 {
		sparkWidth = 10
	}

	lines := []string{theme.StyleHeader.Render("  Live bandpower")}
	any := false
	for _, loc := range m.locations {
		for _, band := range m.bands {
			values := m.series[loc][band]
			if len(values) == 0 {
				continue
			}
			any = true
			latest := values[len(values)-1]
			spark := lipgloss.NewStyle().Foreground(theme.BandColor(band)).
				Render(sparkline(values, sparkWidth))
			lines = append(lines, fmt.Sprintf("  %-4s %-8s %s %8.2f", loc, band, spark, latest))
		}
	}
	if !any {
		lines = append(lines, theme.StyleDimmed.Render("  waiting for samples"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderCountdown draws the remaining-seconds bar for the epoch.
func renderCountdown(remaining, total, barWidth int) string {
	if total <= 0 {
		total = 1
	}
	if barWidth < 8 {
		barWidth = 8
	}
	pct := float64(remaining) / float64(total)
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}

	fillWidth := barWidth - 6
	if fillWidth < 3 {
		fillWidth = 3
	}
	filled := int(pct * float64(fillWidth))
	if filled > fillWidth {
		filled = fillWidth
	}

	color := theme.ColorHealthy
	if remaining <= 3 {
		color = theme.ColorWarning
	}
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	bar += lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(strings.Repeat("░", fillWidth-filled))
	return bar + fmt.Sprintf(" %3ds", remaining)
}

// sparkline maps a series onto block characters, keeping the newest
// width samples.
func sparkline(values []float64, width int) string {
	if len(values) > width {
		values = values[len(values)-width:]
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(sparkRunes)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkRunes) {
			idx = len(sparkRunes) - 1
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}

func truncate(s string, maxLen int) string {
	if maxLen <= 1 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen-1] + "…"
}
