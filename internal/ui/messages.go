package ui

import "github.com/renato0307/prtrack/internal/services"

// RefreshEventMsg carries a background refresh outcome into the update loop
type RefreshEventMsg struct {
	Event services.RefreshEvent
}

// clearNoticeMsg clears the transient status notice after a delay
type clearNoticeMsg struct{}
