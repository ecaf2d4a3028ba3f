package theme

import "github.com/charmbracelet/lipgloss"

// Main UI styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Padding(1, 0)

	NormalStyle = lipgloss.NewStyle().
			Foreground(ColorNormal)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(1, 0)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight).
			Bold(true)
)

// PR table cell styles
var (
	ApprovedStyle = lipgloss.NewStyle().
			Foreground(ColorApproved)

	DraftStyle = lipgloss.NewStyle().
			Foreground(ColorDraft)

	PendingStyle = lipgloss.NewStyle().
			Foreground(ColorPending)
)
