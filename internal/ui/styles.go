package ui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the TUI renderer.
type Styles struct {
	Title   lipgloss.Style
	Stage   lipgloss.Style
	Counter lipgloss.Style
	Summary lipgloss.Style
}

// DefaultStyles returns the colored style set.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		Stage:   lipgloss.NewStyle().Foreground(lipgloss.Color("86")),
		Counter: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		Summary: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
	}
}

// NoColorStyles returns an uncolored style set for NO_COLOR.
func NoColorStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{Title: plain.Bold(true), Stage: plain, Counter: plain, Summary: plain.Bold(true)}
}
