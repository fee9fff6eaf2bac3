// Package theme provides the Lip Gloss color palette and reusable styles
// for the clinicalq console. It is a leaf package with no internal
// imports to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Band colors, one per charted band.
var (
	ColorDelta  = lipgloss.Color("#a855f7")
	ColorTheta  = lipgloss.Color("#3b82f6")
	ColorAlpha  = lipgloss.Color("#22c55e")
	ColorBeta   = lipgloss.Color("#d97706")
	ColorHiBeta = lipgloss.Color("#dc2626")
)

// Phase colors.
var (
	ColorIdle          = lipgloss.Color("#4b5563")
	ColorSequencing    = lipgloss.Color("#7c3aed")
	ColorEpoch         = lipgloss.Color("#2563eb")
	ColorRepositioning = lipgloss.Color("#d97706")
	ColorComplete      = lipgloss.Color("#16a34a")
	ColorStopped       = lipgloss.Color("#854d0e")
	ColorFailed        = lipgloss.Color("#dc2626")
)

// Metric status colors.
var (
	ColorInRange    = lipgloss.Color("#22c55e")
	ColorOutOfRange = lipgloss.Color("#dc2626")
	ColorMissing    = lipgloss.Color("#6b7280")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// BandColor returns the color for a charted band name.
func BandColor(band string) lipgloss.Color {
	switch band {
	case "delta":
		return ColorDelta
	case "theta":
		return ColorTheta
	case "alpha":
		return ColorAlpha
	case "beta":
		return ColorBeta
	case "hibeta":
		return ColorHiBeta
	default:
		return ColorDimmed
	}
}

// PhaseColor returns the color for a session phase name.
func PhaseColor(phase string) lipgloss.Color {
	switch phase {
	case "idle":
		return ColorIdle
	case "sequencing":
		return ColorSequencing
	case "epoch":
		return ColorEpoch
	case "repositioning":
		return ColorRepositioning
	case "complete":
		return ColorComplete
	case "stopped":
		return ColorStopped
	case "failed":
		return ColorFailed
	default:
		return ColorDimmed
	}
}

// StatusColor returns the color for a metric status flag.
func StatusColor(status string) lipgloss.Color {
	switch status {
	case "IN_RANGE":
		return ColorInRange
	case "OUT_OF_RANGE":
		return ColorOutOfRange
	default:
		return ColorMissing
	}
}

// PhaseGlyph returns a glyph for a session phase name.
func PhaseGlyph(phase string) string {
	switch phase {
	case "sequencing":
		return "◎"
	case "epoch":
		return "●"
	case "repositioning":
		return "◌"
	case "complete":
		return "✓"
	case "stopped":
		return "■"
	case "failed":
		return "✗"
	default:
		return "○"
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)
)
