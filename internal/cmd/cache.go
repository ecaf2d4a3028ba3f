package cmd

import (
	"context"
	"fmt"

	"github.com/renato0307/prtrack/internal/config"
	"github.com/renato0307/prtrack/internal/logging"
)

// CacheCmd inspects and maintains the local PR cache
type CacheCmd struct {
	Cleanup CacheCleanupCmd `cmd:"cleanup" help:"Delete cached PRs older than a cutoff"`
	Stats   CacheStatsCmd   `cmd:"stats" help:"Show cache statistics" default:"1"`
}

// CacheStatsCmd shows cache statistics
type CacheStatsCmd struct{}

// Run executes the stats command
func (c *CacheStatsCmd) Run(cli *CLI) error {
	stats, err := cli.Container.Cache.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}

	fmt.Printf("Cache file:        %s\n", config.GetDBPath())
	fmt.Printf("Cached PRs:        %d\n", stats.TotalPRs)
	fmt.Printf("Repositories:      %d\n", stats.Repositories)
	fmt.Printf("Approximate size:  %d bytes\n", stats.ApproximateSizeBytes)
	return nil
}

// CacheCleanupCmd deletes cached PRs not refreshed within the cutoff window
type CacheCleanupCmd struct {
	MaxAgeDays int `help:"Delete rows older than this many days" default:"30"`
}

// Run executes the cleanup command
func (c *CacheCleanupCmd) Run(cli *CLI) error {
	if c.MaxAgeDays < 1 {
		return fmt.Errorf("--max-age-days must be at least 1")
	}

	if err := cli.Container.Cache.CleanupOld(context.Background(), c.MaxAgeDays); err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	logging.Logger.Info("Cache cleanup complete", "max_age_days", c.MaxAgeDays)
	fmt.Printf("Removed cached PRs older than %d days\n", c.MaxAgeDays)
	return nil
}
