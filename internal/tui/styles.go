package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("#00ff9f")
	dimColor     = lipgloss.Color("#6e7681")
	errorColor   = lipgloss.Color("#ff5f87")
	tutorColor   = lipgloss.Color("#87afff")
)

type styles struct {
	Title   lipgloss.Style
	Status  lipgloss.Style
	User    lipgloss.Style
	Tutor   lipgloss.Style
	Partial lipgloss.Style
	Error   lipgloss.Style
	Help    lipgloss.Style
	Border  lipgloss.Style
}

func newStyles() styles {
	return styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Padding(0, 1),
		Status:  lipgloss.NewStyle().Foreground(dimColor),
		User:    lipgloss.NewStyle().Bold(true).Foreground(primaryColor),
		Tutor:   lipgloss.NewStyle().Bold(true).Foreground(tutorColor),
		Partial: lipgloss.NewStyle().Italic(true).Foreground(dimColor),
		Error:   lipgloss.NewStyle().Foreground(errorColor),
		Help:    lipgloss.NewStyle().Foreground(dimColor),
		Border:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(primaryColor),
	}
}
