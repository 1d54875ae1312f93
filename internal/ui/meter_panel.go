package ui

import (
	"fmt"
	"math"
	"strings"

	"levelbar.klederson.com/internal/config"
	"levelbar.klederson.com/internal/meter"
)

const (
	barCell  = "██"
	peakCell = "▀▀"
	emptyRow = "··"
	barCols  = 3 // two cell columns plus a gap
)

// BarView is one channel as the meter panel draws it.
type BarView struct {
	ID     int
	Height float64 // animated display height in [0, 1]
	Level  float64
	Peak   float64
}

// RenderMeterPanel renders the vertical level bars with peak markers. Bars
// scroll horizontally so the selected channel is always visible.
func RenderMeterPanel(bars []BarView, width, height, selected int) string {
	innerW := width - 4
	if innerW < barCols {
		innerW = barCols
	}

	title := StylePanelTitle.Render(fmt.Sprintf("LEVELS [%d]", len(bars)))
	separator := StyleSeparator.Render(strings.Repeat("-", innerW))
	headerLines := []string{title, separator}

	innerH := height - 2
	barH := innerH - len(headerLines) - 1
	if barH < config.MeterMinHeight {
		barH = config.MeterMinHeight
		innerH = barH + len(headerLines) + 1
	}

	var body []string
	if len(bars) == 0 {
		body = append(body, "")
		body = append(body, StyleHelp.Render(" No channels..."))
		body = append(body, StyleHelp.Render(" Press C to connect"))
	} else {
		start, end := VisibleRange(len(bars), innerW/barCols, selected)
		visible := bars[start:end]
		for row := 0; row < barH; row++ {
			body = append(body, renderBarRow(visible, row, barH))
		}
		body = append(body, renderLabelRow(visible, selected-start))
	}

	all := make([]string, 0, innerH)
	all = append(all, headerLines...)
	all = append(all, body...)
	for len(all) < innerH {
		all = append(all, "")
	}
	if len(all) > innerH {
		all = all[:innerH]
	}

	rendered := StylePanelBorder.Width(width - 2).Height(innerH).Render(strings.Join(all, "\n"))

	// lipgloss Height() only sets a minimum; it won't truncate overflow.
	outLines := strings.Split(rendered, "\n")
	if len(outLines) > height {
		outLines = outLines[:height]
	}
	for len(outLines) < height {
		outLines = append(outLines, "")
	}
	return strings.Join(outLines, "\n")
}

// VisibleRange returns the [start, end) window of n bars that fits in fit
// columns and contains selected.
func VisibleRange(n, fit, selected int) (int, int) {
	if fit < 1 {
		fit = 1
	}
	if n <= fit {
		return 0, n
	}
	start := 0
	if selected >= fit {
		start = selected - fit + 1
	}
	if start > n-fit {
		start = n - fit
	}
	return start, start + fit
}

// FilledRows returns how many of height rows a bar of the given display
// height fills.
func FilledRows(h float64, height int) int {
	rows := int(math.Round(h * float64(height)))
	if rows < 0 {
		return 0
	}
	if rows > height {
		return height
	}
	return rows
}

func renderBarRow(bars []BarView, row, height int) string {
	// Rows fill bottom-up; the row level picks the zone color so each bar
	// shows a gradient.
	rowLevel := float64(height-row) / float64(height)
	fill := ZoneStyle(rowLevel)

	var sb strings.Builder
	for _, b := range bars {
		filled := row >= height-FilledRows(b.Height, height)
		isPeak := b.Peak > 0 && row == meter.PeakRow(b.Peak, height)

		switch {
		case isPeak:
			sb.WriteString(StylePeakMarker.Render(peakCell))
		case filled:
			sb.WriteString(fill.Render(barCell))
		default:
			sb.WriteString(StyleBarEmpty.Render(emptyRow))
		}
		sb.WriteByte(' ')
	}
	return sb.String()
}

func renderLabelRow(bars []BarView, selected int) string {
	var sb strings.Builder
	for i, b := range bars {
		label := fmt.Sprintf("%02d", (b.ID+1)%100)
		if i == selected {
			sb.WriteString(StyleSelected.Render(label))
		} else {
			sb.WriteString(StyleLabel.Render(label))
		}
		sb.WriteByte(' ')
	}
	return sb.String()
}
