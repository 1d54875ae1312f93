package ui

import (
	"github.com/charmbracelet/lipgloss"

	"levelbar.klederson.com/internal/meter"
)

// Matrix color palette
var (
	ColorMatrixGreen  = lipgloss.Color("#00FF41")
	ColorGreen        = lipgloss.Color("#00CC33")
	ColorMidGreen     = lipgloss.Color("#008F11")
	ColorDimGreen     = lipgloss.Color("#004A0A")
	ColorBlack        = lipgloss.Color("#000000")
	ColorBorderBright = lipgloss.Color("#00FF41")
	ColorBorderNorm   = lipgloss.Color("#00AA22")
	ColorError        = lipgloss.Color("#FF3300")
	ColorWarning      = lipgloss.Color("#FFAA00")
)

// Level zone colors, low to clip.
var (
	ColorZoneLow      = lipgloss.Color("#008F11")
	ColorZoneModerate = lipgloss.Color("#00FF41")
	ColorZoneElevated = lipgloss.Color("#CCFF00")
	ColorZoneHigh     = lipgloss.Color("#FFAA00")
	ColorZoneClip     = lipgloss.Color("#FF3300")
)

// Pre-built styles
var (
	StyleMenuBar = lipgloss.NewStyle().
			Background(lipgloss.Color("#002200")).
			Foreground(ColorMatrixGreen).
			Bold(true).
			Padding(0, 1)

	StyleMenuKey = lipgloss.NewStyle().
			Foreground(ColorMatrixGreen).
			Bold(true)

	StyleMenuLabel = lipgloss.NewStyle().
			Foreground(ColorGreen)

	StyleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("#002200")).
			Foreground(ColorGreen).
			Padding(0, 1)

	StyleStatusRunning = lipgloss.NewStyle().
				Foreground(ColorMatrixGreen).
				Bold(true)

	StyleStatusStopped = lipgloss.NewStyle().
				Foreground(ColorWarning).
				Bold(true)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StylePanelBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorderNorm)

	StylePanelActive = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorderBright)

	StylePanelTitle = lipgloss.NewStyle().
			Foreground(ColorMatrixGreen).
			Bold(true).
			Padding(0, 1)

	StyleSeparator = lipgloss.NewStyle().
			Foreground(ColorMidGreen)

	StyleBarEmpty = lipgloss.NewStyle().
			Foreground(ColorDimGreen)

	StylePeakMarker = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true)

	StyleLabel = lipgloss.NewStyle().
			Foreground(ColorMidGreen)

	StyleValue = lipgloss.NewStyle().
			Foreground(ColorMatrixGreen).
			Bold(true)

	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorDimGreen)

	// Selected channel label: black text on bright green
	StyleSelected = lipgloss.NewStyle().
			Foreground(ColorBlack).
			Background(ColorMatrixGreen).
			Bold(true)
)

// ZoneColor returns the display color of a level zone.
func ZoneColor(z meter.Zone) lipgloss.Color {
	switch z {
	case meter.ZoneLow:
		return ColorZoneLow
	case meter.ZoneModerate:
		return ColorZoneModerate
	case meter.ZoneElevated:
		return ColorZoneElevated
	case meter.ZoneHigh:
		return ColorZoneHigh
	default:
		return ColorZoneClip
	}
}

// ZoneStyle returns a foreground style for the zone of level.
func ZoneStyle(level float64) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ZoneColor(meter.ZoneFor(level)))
}
