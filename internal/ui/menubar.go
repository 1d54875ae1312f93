package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"levelbar.klederson.com/internal/config"
)

// RenderMenuBar renders the top menu bar.
func RenderMenuBar(width int, connected bool, channels int) string {
	title := fmt.Sprintf(" %s v%s ", config.AppName, config.AppVersion)

	keys := []struct{ key, label string }{
		{"C", "onnect"},
		{"D", "isconnect"},
		{"←→", " select"},
		{"Q", "uit"},
	}

	menu := ""
	for _, k := range keys {
		menu += "  " + StyleMenuKey.Render("["+k.key+"]") + StyleMenuLabel.Render(k.label)
	}

	status := ""
	if connected {
		status = StyleStatusRunning.Render("CONNECTED")
	} else {
		status = StyleStatusStopped.Render("DISCONNECTED")
	}

	channelInfo := StyleMenuLabel.Render(fmt.Sprintf("Channels: %d", channels))

	left := StyleMenuKey.Render(title) + menu
	right := status + "  " + channelInfo + " "

	gap := width - StyleMenuBar.GetHorizontalPadding() - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	return StyleMenuBar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}
