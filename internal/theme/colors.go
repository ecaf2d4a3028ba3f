package theme

import "github.com/charmbracelet/lipgloss"

// Color is an alias for lipgloss.Color for convenience
type Color = lipgloss.Color

// Brand colors
const (
	ColorPrimary   Color = "99" // Purple - app name, titles
	ColorSecondary Color = "86" // Cyan - subtitles
)

// UI semantic colors
const (
	ColorError     Color = "196" // Bright red
	ColorHighlight Color = "255" // White - emphasis
	ColorMuted     Color = "241" // Gray - secondary text
	ColorNormal    Color = "250" // Default text
)

// PR table accents
const (
	ColorApproved Color = "46"  // Green - approvals reached
	ColorDraft    Color = "241" // Gray - draft marker
	ColorPending  Color = "226" // Yellow - approvals pending
	ColorSpinner  Color = "205" // Pink
)
