package ui

import "fmt"

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
)

// formatTimeAgo converts an age in seconds to a short human-readable string
func formatTimeAgo(seconds int64) string {
	if seconds < secondsPerMinute {
		return fmt.Sprintf("%ds ago", seconds)
	}
	if seconds < secondsPerHour {
		return fmt.Sprintf("%dm ago", seconds/secondsPerMinute)
	}
	if seconds < secondsPerDay {
		return fmt.Sprintf("%dh ago", seconds/secondsPerHour)
	}
	return fmt.Sprintf("%dd ago", seconds/secondsPerDay)
}
