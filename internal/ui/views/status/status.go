// Package status renders the session status bar for the clinicalq
// console.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/clinicalq/console/internal/ui/theme"
)

// Model holds the status bar state.
type Model struct {
	Phase      string
	SessionID  string
	Gate       string
	EngineUp   bool
	CPUPercent float64
	RSSBytes   uint64
	Width      int
}

// New creates a status bar model.
func New() Model {
	return Model{Phase: "idle"}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	phaseStr := lipgloss.NewStyle().Foreground(theme.PhaseColor(m.Phase)).
		Render(theme.PhaseGlyph(m.Phase) + " " + m.Phase)

	parts := []string{phaseStr}

	if m.SessionID != "" {
		id := m.SessionID
		if len(id) > 8 {
			id = id[:8]
		}
		parts = append(parts, theme.StyleDimmed.Render("session "+id))
	}

	if m.Gate != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.ColorWarning).
			Render(fmt.Sprintf("reposition: press r when %s is placed", m.Gate)))
	}

	if m.EngineUp {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render(
			fmt.Sprintf("engine %.0f%% cpu %s", m.CPUPercent, formatBytes(m.RSSBytes))))
	} else {
		parts = append(parts, theme.StyleDimmed.Render("engine —"))
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := strings.Join(parts, sep)

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}

func formatBytes(n uint64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1fGiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.0fMiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.0fKiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
