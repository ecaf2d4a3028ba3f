package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/renato0307/prtrack/internal/config"
	"github.com/renato0307/prtrack/internal/logging"
)

// ReposCmd manages tracked repositories
type ReposCmd struct {
	Add    ReposAddCmd    `cmd:"add" help:"Track a repository"`
	List   ReposListCmd   `cmd:"list" help:"List tracked repositories" default:"1"`
	Remove ReposRemoveCmd `cmd:"remove" aliases:"rm" help:"Stop tracking a repository"`
}

// ReposAddCmd tracks a new repository
type ReposAddCmd struct {
	Name  string   `arg:"" optional:"" help:"Repository in owner/name form"`
	Users []string `help:"Restrict tracked authors/assignees for this repository" short:"u"`
}

// Run executes the add command
func (r *ReposAddCmd) Run(cli *CLI) error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("Repository").
				Description("owner/name, e.g. charmbracelet/bubbletea").
				Value(&name).
				Validate(validateRepoName),
		))
		if err := form.Run(); err != nil {
			return err
		}
	}
	if err := validateRepoName(name); err != nil {
		return err
	}

	cfg := cli.Container.Config
	if _, tracked := cfg.Repo(name); tracked {
		return fmt.Errorf("repository %q is already tracked", name)
	}

	cfg.Repositories = append(cfg.Repositories, config.RepoConfig{Name: name, Users: r.Users})
	if err := config.Save(cfg); err != nil {
		return err
	}

	logging.Logger.Info("Repository added", "repo", name, "users", r.Users)
	fmt.Printf("Now tracking %s\n", name)
	return nil
}

// ReposListCmd lists tracked repositories
type ReposListCmd struct{}

// Run executes the list command
func (r *ReposListCmd) Run(cli *CLI) error {
	cfg := cli.Container.Config
	if len(cfg.Repositories) == 0 {
		fmt.Println("No repositories tracked. Use 'prtrack repos add <owner/name>'.")
		return nil
	}
	for _, rc := range cfg.Repositories {
		if len(rc.Users) > 0 {
			fmt.Printf("%s (users: %s)\n", rc.Name, strings.Join(rc.Users, ", "))
		} else {
			fmt.Println(rc.Name)
		}
	}
	return nil
}

// ReposRemoveCmd stops tracking a repository and drops its cached rows
type ReposRemoveCmd struct {
	Force bool   `help:"Skip confirmation" short:"f"`
	Name  string `arg:"" help:"Repository in owner/name form"`
}

// Run executes the remove command
func (r *ReposRemoveCmd) Run(cli *CLI) error {
	cfg := cli.Container.Config
	if _, tracked := cfg.Repo(r.Name); !tracked {
		return fmt.Errorf("repository %q is not tracked", r.Name)
	}

	if !r.Force {
		confirmed := false
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Stop tracking %s?", r.Name)).
				Description("Cached pull requests for this repository will be deleted.").
				Value(&confirmed).
				Affirmative("Remove").
				Negative("Keep"),
		))
		if err := form.Run(); err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Cancelled")
			return nil
		}
	}

	kept := cfg.Repositories[:0]
	for _, rc := range cfg.Repositories {
		if rc.Name != r.Name {
			kept = append(kept, rc)
		}
	}
	cfg.Repositories = kept
	if err := config.Save(cfg); err != nil {
		return err
	}

	if err := cli.Container.Cache.DeleteByRepo(context.Background(), r.Name); err != nil {
		return fmt.Errorf("failed to drop cached PRs: %w", err)
	}

	logging.Logger.Info("Repository removed", "repo", r.Name)
	fmt.Printf("Stopped tracking %s\n", r.Name)
	return nil
}

// validateRepoName checks the owner/name form
func validateRepoName(name string) error {
	owner, repo, ok := strings.Cut(strings.TrimSpace(name), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return fmt.Errorf("repository must be in owner/name form")
	}
	return nil
}
