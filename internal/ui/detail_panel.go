package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"levelbar.klederson.com/internal/meter"
)

// DetailInfo is the selected channel as the detail panel shows it.
type DetailInfo struct {
	Bar     meter.LevelBar
	MinDb   float64
	MaxDb   float64
	History []float64
	Now     time.Time
}

// RenderDetailPanel renders the selected channel's values, a horizontal level
// bar and its level history.
func RenderDetailPanel(d *DetailInfo, width, height int) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}

	title := StylePanelTitle.Render("CHANNEL DETAIL")
	sep := StyleSeparator.Render(strings.Repeat("-", innerW))
	lines := []string{title, sep, ""}

	if d == nil {
		lines = append(lines, StyleHelp.Render("  No channel selected"))
	} else {
		lines = append(lines, renderDetailFields(d, innerW)...)
	}

	for len(lines) < height-2 {
		lines = append(lines, "")
	}
	if len(lines) > height-2 && height > 2 {
		lines = lines[:height-2]
	}

	return StylePanelActive.Width(width - 2).Height(height - 2).Render(strings.Join(lines, "\n"))
}

func renderDetailFields(d *DetailInfo, innerW int) []string {
	b := d.Bar
	zone := meter.ZoneFor(b.Level)
	zoneSty := lipgloss.NewStyle().Foreground(ZoneColor(zone)).Bold(true)

	fields := []struct{ label, value string }{
		{"Name", b.Name},
		{"Id", fmt.Sprintf("%d", b.ID)},
		{"Raw", fmt.Sprintf("%.5f", b.Raw)},
		{"Level", fmt.Sprintf("%.3f", b.Level)},
		{"dB", fmt.Sprintf("%.1f dB", b.Db(d.MinDb, d.MaxDb))},
		{"Peak", fmt.Sprintf("%.3f", b.Peak)},
		{"Hold", formatHold(b, d.Now)},
	}

	var lines []string
	for _, f := range fields {
		label := StyleLabel.Render(fmt.Sprintf("  %-8s", f.label))
		lines = append(lines, label+StyleValue.Render(f.value))
	}
	lines = append(lines, StyleLabel.Render(fmt.Sprintf("  %-8s", "Zone"))+zoneSty.Render(strings.ToUpper(zone.String())))
	lines = append(lines, "")

	barWidth := innerW - 12
	if barWidth < 10 {
		barWidth = 10
	}
	lines = append(lines, StyleLabel.Render("  Level ")+renderLevelBar(b.Level, b.Peak, barWidth))
	lines = append(lines, "")

	if len(d.History) > 0 {
		sparkW := innerW - 4
		if sparkW < 10 {
			sparkW = 10
		}
		lines = append(lines, StyleLabel.Render("  Level History:"))
		lines = append(lines, "  "+lipgloss.NewStyle().Foreground(ColorGreen).Render(renderSparkline(d.History, sparkW)))
	}
	return lines
}

// renderLevelBar draws a horizontal bar with the peak marked by '|'.
func renderLevelBar(level, peak float64, width int) string {
	filled := FilledRows(level, width)
	peakAt := -1
	if peak > 0 {
		peakAt = int(math.Round(peak*float64(width))) - 1
		if peakAt >= width {
			peakAt = width - 1
		}
	}

	var sb strings.Builder
	sb.WriteString(StyleHelp.Render("["))
	for i := 0; i < width; i++ {
		switch {
		case i == peakAt:
			sb.WriteString(StylePeakMarker.Render("|"))
		case i < filled:
			sb.WriteString(ZoneStyle(float64(i+1) / float64(width)).Render("="))
		default:
			sb.WriteString(StyleBarEmpty.Render("-"))
		}
	}
	sb.WriteString(StyleHelp.Render("]"))
	return sb.String()
}

func renderSparkline(values []float64, width int) string {
	if len(values) == 0 {
		return ""
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	// Take last `width` values
	start := 0
	if len(values) > width {
		start = len(values) - width
	}

	var sb strings.Builder
	for _, v := range values[start:] {
		idx := int(math.Round(v * float64(len(chars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(chars) {
			idx = len(chars) - 1
		}
		sb.WriteRune(chars[idx])
	}

	return sb.String()
}

func formatHold(b meter.LevelBar, now time.Time) string {
	if !b.Holding() {
		return "-"
	}
	d := now.Sub(b.PeakSetAt)
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
