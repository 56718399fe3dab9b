package tui

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/tend/internal/ui/style"
)

var (
	ruleWatchingStyle = lipgloss.NewStyle().
				Foreground(style.Muted)

	ruleRunningStyle = lipgloss.NewStyle().
				Foreground(style.Accent).
				Bold(true)

	ruleRestartingStyle = lipgloss.NewStyle().
				Foreground(style.Yellow)

	ruleDoneStyle = lipgloss.NewStyle().
			Foreground(style.Green)

	ruleErrorStyle = lipgloss.NewStyle().
			Foreground(style.Red)

	selectedStyle = lipgloss.NewStyle().
			Foreground(style.Accent).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(style.Muted).
			Faint(true)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Background(style.Accent).
			Foreground(style.White)

	listStyle = lipgloss.NewStyle().
			PaddingRight(2)

	logStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(style.Muted).
			PaddingLeft(1)
)
