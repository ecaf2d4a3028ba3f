package cmd

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/renato0307/prtrack/internal/config"
	"github.com/renato0307/prtrack/internal/logging"
)

// CLI represents the command-line interface structure
type CLI struct {
	Version     kong.VersionFlag `help:"Show version information"`
	Debug       bool             `help:"Enable debug logging to file" short:"d"`
	DebugFile   string           `help:"Custom path for debug log file (disables automatic cleanup)"`
	MaxLogFiles int              `help:"Maximum number of log files to keep (0 = unlimited)" default:"1000"`

	Run      RunCmd      `cmd:"" help:"Start the prtrack TUI (default)" default:"1"`
	Repos    ReposCmd    `cmd:"repos" help:"Manage tracked repositories"`
	Accounts AccountsCmd `cmd:"accounts" help:"Manage tracked GitHub accounts"`
	Export   ExportCmd   `cmd:"export" help:"Export cached pull requests to a markdown file"`
	Cache    CacheCmd    `cmd:"cache" help:"Inspect and maintain the local PR cache"`
	Token    TokenCmd    `cmd:"token" help:"Manage the GitHub API token"`

	// Internal fields (not flags)
	Container *Container `kong:"-"`
}

// AfterApply initializes logging after CLI parsing and applies config values
func (c *CLI) AfterApply() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Precedence: CLI flags > env vars > config.json > defaults.
	// Only apply config values when the flag sits at its default and the
	// matching env var is not set.
	if c.MaxLogFiles == 1000 {
		if _, hasEnv := os.LookupEnv("PRTRACK_MAX_LOG_FILES"); !hasEnv {
			if cfg.MaxLogFiles != nil {
				c.MaxLogFiles = *cfg.MaxLogFiles
			}
		}
	}
	if !c.Debug {
		if _, hasEnv := os.LookupEnv("PRTRACK_DEBUG"); !hasEnv {
			if cfg.Debug != nil && *cfg.Debug {
				c.Debug = true
			}
		}
	}

	logFilePath, err := logging.Initialize(c.Debug, c.DebugFile, c.MaxLogFiles)
	if err != nil {
		return err
	}

	// Export AFTER initialization so child processes inherit the debug
	// settings and append to the same log file.
	if c.Debug || c.DebugFile != "" {
		os.Setenv("PRTRACK_DEBUG", "1")
		if logFilePath != "" {
			os.Setenv("PRTRACK_DEBUG_FILE", logFilePath)
		}
	}
	if c.MaxLogFiles != 1000 {
		os.Setenv("PRTRACK_MAX_LOG_FILES", fmt.Sprintf("%d", c.MaxLogFiles))
	}

	// Create container AFTER logging is initialized so the GORM logger has
	// a usable logging.Logger from the first query on.
	container, err := NewContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	c.Container = container

	return nil
}

// Close closes all resources held by the CLI
func (c *CLI) Close() error {
	if c.Container != nil {
		return c.Container.Close()
	}
	return nil
}
