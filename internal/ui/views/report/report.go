// Package report renders the normalized assessment: a metric table with
// a cycling status filter, summary counts, and the follow-up probes.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/clinicalq/console/internal/metrics"
	"github.com/clinicalq/console/internal/ui/theme"
)

// Model holds the report view state.
type Model struct {
	Width  int
	Height int

	source  string
	records []metrics.Record
	summary metrics.Summary
	filter  metrics.FilterMode
	loaded  bool
}

// New creates an empty report model.
func New() Model {
	return Model{filter: metrics.FilterAll}
}

// SetReport installs a normalized result set.
func (m *Model) SetReport(source string, records []metrics.Record, summary metrics.Summary) {
	m.source = source
	m.records = records
	m.summary = summary
	m.loaded = true
}

// CycleFilter advances the status filter.
func (m *Model) CycleFilter() {
	m.filter = m.filter.Next()
}

// Loaded reports whether a result set is present.
func (m Model) Loaded() bool { return m.loaded }

// View renders the report.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	if !m.loaded {
		return theme.StyleDimmed.Render("  No results yet — finish a session or import an artifact")
	}

	sections := []string{
		m.renderSummary(width),
		m.renderTable(width),
	}
	if len(m.summary.Probes) > 0 {
		sections = append(sections, m.renderProbes(width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderSummary(width int) string {
	statStyle := lipgloss.NewStyle().Padding(0, 1)
	stats := []string{
		statStyle.Foreground(theme.ColorInRange).Render(
			fmt.Sprintf("In range: %d", m.summary.InRange)),
		statStyle.Foreground(theme.ColorOutOfRange).Render(
			fmt.Sprintf("Out of range: %d", m.summary.OutOfRange)),
		statStyle.Foreground(theme.ColorMissing).Render(
			fmt.Sprintf("Missing: %d", m.summary.Missing)),
		statStyle.Foreground(theme.ColorBright).Render(
			fmt.Sprintf("Filter: %s", m.filter)),
		theme.StyleDimmed.Padding(0, 1).Render(m.source),
	}

	content := strings.Join(stats, lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | "))
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}

func (m Model) renderTable(width int) string {
	rows := metrics.Filter(m.records, m.filter)

	// Column widths (fixed layout).
	colLoc := 6
	colName := 28
	colValue := 10
	colRange := 16
	colStatus := 14

	dimStyle := lipgloss.NewStyle().Foreground(theme.ColorDimmed)

	tableHeader := fmt.Sprintf("  %-*s %-*s %*s %-*s %-*s",
		colLoc, "Site",
		colName, "Metric",
		colValue, "Value",
		colRange, "Range",
		colStatus, "Status",
	)
	lines := []string{
		dimStyle.Render(tableHeader),
		dimStyle.Render("  " + strings.Repeat("─", min(width-4, colLoc+colName+colValue+colRange+colStatus+4))),
	}

	if len(rows) == 0 {
		lines = append(lines, theme.StyleDimmed.Render("  no metrics match this filter"))
	}

	for _, rec := range rows {
		name := rec.Name
		if len(name) > colName-1 {
			name = name[:colName-2] + "…"
		}

		statusStr := lipgloss.NewStyle().
			Foreground(theme.StatusColor(string(rec.Status))).
			Width(colStatus).Render(string(rec.Status))

		line := fmt.Sprintf("  %-*s %-*s %*s %-*s %s",
			colLoc, rec.Location,
			colName, name,
			colValue, formatValue(rec.Value),
			colRange, truncate(rec.NormalRange, colRange),
			statusStr,
		)
		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderProbes(width int) string {
	lines := []string{theme.StyleHeader.Render("  Follow-up questions")}
	for _, q := range m.summary.Probes {
		lines = append(lines, "  • "+truncate(q, width-6))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func formatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "—"
	}
	return fmt.Sprintf("%.2f", v)
}

func truncate(s string, maxLen int) string {
	if maxLen <= 1 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen-1] + "…"
}
