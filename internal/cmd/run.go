package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/renato0307/prtrack/internal/logging"
	"github.com/renato0307/prtrack/internal/services"
	"github.com/renato0307/prtrack/internal/ui"
)

// RunCmd starts the TUI application
type RunCmd struct{}

// Run executes the TUI
func (r *RunCmd) Run(cli *CLI) error {
	logging.Logger.Info("Starting prtrack TUI")

	// Refresh outcomes are produced on background goroutines; a buffered
	// channel plus a forwarding goroutine turns them into tea messages.
	events := make(chan services.RefreshEvent, 16)
	refresher := cli.Container.NewRefreshService(func(ev services.RefreshEvent) {
		events <- ev
	})

	model := ui.NewModel(cli.Container.Config, cli.Container.Cache, refresher)
	p := tea.NewProgram(model, tea.WithAltScreen())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			p.Send(ui.RefreshEventMsg{Event: ev})
		}
	}()

	_, runErr := p.Run()

	// Let in-flight refreshes finish their cache writes before closing the
	// event channel they notify on.
	refresher.Wait()
	close(events)
	<-done

	if runErr != nil {
		logging.Logger.Error("TUI program error", "error", runErr)
		return fmt.Errorf("error running program: %w", runErr)
	}

	logging.Logger.Info("TUI program exited normally")
	return nil
}
