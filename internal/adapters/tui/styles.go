package tui

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/bake/internal/ui/style"
)

var (
	colorIris  = lipgloss.Color("#5D3FD3")
	colorWhite = lipgloss.Color("#FFFFFF")

	listStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(style.Slate).
			MarginRight(1).
			PaddingRight(1)

	logStyle = lipgloss.NewStyle().
			PaddingLeft(1)

	taskPendingStyle = lipgloss.NewStyle().Foreground(style.Slate)
	taskRunningStyle = lipgloss.NewStyle().Foreground(colorIris).Bold(true)
	taskDoneStyle    = lipgloss.NewStyle().Foreground(style.Green)
	taskErrorStyle   = lipgloss.NewStyle().Foreground(style.Red)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Background(colorIris).
			Foreground(colorWhite)
)
