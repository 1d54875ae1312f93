package ui

import "github.com/charmbracelet/lipgloss"

// ComposeLayout joins the meter panel and channel detail horizontally,
// with menu bar on top and status bar on bottom.
func ComposeLayout(menuBar, meterPanel, detailPanel, statusBar string) string {
	middle := lipgloss.JoinHorizontal(lipgloss.Top, meterPanel, detailPanel)
	return lipgloss.JoinVertical(lipgloss.Left, menuBar, middle, statusBar)
}
