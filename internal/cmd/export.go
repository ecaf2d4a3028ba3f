package cmd

import (
	"context"
	"fmt"

	"github.com/renato0307/prtrack/internal/domain"
	"github.com/renato0307/prtrack/internal/logging"
	"github.com/renato0307/prtrack/internal/services"
)

// ExportCmd writes cached pull requests to a markdown file. It never hits
// the network; run the TUI (or wait for a refresh) to update the cache first.
type ExportCmd struct {
	Account string `help:"Export only PRs for this account" short:"a"`
	Outfile string `arg:"" help:"Destination markdown file"`
	Repo    string `help:"Export only PRs for this repository (owner/name)" short:"r"`
}

// Run executes the export command
func (e *ExportCmd) Run(cli *CLI) error {
	if e.Repo != "" && e.Account != "" {
		return fmt.Errorf("--repo and --account are mutually exclusive")
	}

	ctx := context.Background()
	cfg := cli.Container.Config
	cache := cli.Container.Cache

	var prs []domain.PullRequest
	var err error
	switch {
	case e.Repo != "":
		prs, err = cache.GetByRepo(ctx, e.Repo)
	case e.Account != "":
		prs, err = cache.GetByAccount(ctx, e.Account)
	default:
		prs, err = services.CollectTracked(ctx, cache, cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	if err := services.WriteMarkdown(prs, e.Outfile); err != nil {
		return err
	}

	logging.Logger.Info("Exported PRs", "count", len(prs), "outfile", e.Outfile)
	fmt.Printf("Exported %d PRs to %s\n", len(prs), e.Outfile)
	return nil
}
