package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"levelbar.klederson.com/internal/meter"
)

// StatusInfo is what the bottom bar reports about the running feed.
type StatusInfo struct {
	Running  bool
	Channels int
	Bounds   meter.Bounds
	Cursor   int
	Blocks   int
	Interval time.Duration
	Session  string
	Err      error
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, s StatusInfo) string {
	status := ""
	if s.Running {
		status = StyleStatusRunning.Render("[RUNNING]")
	} else {
		status = StyleStatusStopped.Render("[STOPPED]")
	}

	session := s.Session
	if len(session) > 8 {
		session = session[:8]
	}
	if session == "" {
		session = "-"
	}

	info := fmt.Sprintf(" Channels: %d  Bounds: %.4f..%.4f  Block: %d/%d  Tick: %s  Session: %s",
		s.Channels, s.Bounds.Min, s.Bounds.Max, s.Cursor, s.Blocks, s.Interval, session)

	content := status + StyleStatusBar.Foreground(ColorGreen).Render(info)
	if s.Err != nil {
		content += "  " + StyleError.Render(s.Err.Error())
	}

	gap := width - StyleStatusBar.GetHorizontalPadding() - lipgloss.Width(content)
	if gap < 0 {
		gap = 0
	}

	return StyleStatusBar.Width(width).Render(content + strings.Repeat(" ", gap))
}
