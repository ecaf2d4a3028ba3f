package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/renato0307/prtrack/internal/config"
	"github.com/renato0307/prtrack/internal/logging"
)

// AccountsCmd manages tracked GitHub accounts
type AccountsCmd struct {
	Add    AccountsAddCmd    `cmd:"add" help:"Track a GitHub account"`
	List   AccountsListCmd   `cmd:"list" help:"List tracked accounts" default:"1"`
	Remove AccountsRemoveCmd `cmd:"remove" aliases:"rm" help:"Stop tracking a GitHub account"`
}

// AccountsAddCmd tracks an account, globally or for one repository
type AccountsAddCmd struct {
	Login string `arg:"" optional:"" help:"GitHub login"`
	Repo  string `help:"Track only for this repository (owner/name)" short:"r"`
}

// Run executes the add command
func (a *AccountsAddCmd) Run(cli *CLI) error {
	login := strings.TrimSpace(a.Login)
	if login == "" {
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("GitHub login").
				Value(&login).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("login cannot be empty")
					}
					return nil
				}),
		))
		if err := form.Run(); err != nil {
			return err
		}
		login = strings.TrimSpace(login)
	}

	cfg := cli.Container.Config
	if a.Repo == "" {
		if slices.Contains(cfg.GlobalUsers, login) {
			return fmt.Errorf("account %q is already tracked", login)
		}
		cfg.GlobalUsers = append(cfg.GlobalUsers, login)
	} else {
		idx := repoIndex(cfg, a.Repo)
		if idx < 0 {
			return fmt.Errorf("repository %q is not tracked", a.Repo)
		}
		if slices.Contains(cfg.Repositories[idx].Users, login) {
			return fmt.Errorf("account %q is already tracked for %s", login, a.Repo)
		}
		cfg.Repositories[idx].Users = append(cfg.Repositories[idx].Users, login)
	}

	if err := config.Save(cfg); err != nil {
		return err
	}

	logging.Logger.Info("Account added", "login", login, "repo", a.Repo)
	fmt.Printf("Now tracking @%s\n", login)
	return nil
}

// AccountsListCmd lists tracked accounts
type AccountsListCmd struct{}

// Run executes the list command
func (a *AccountsListCmd) Run(cli *CLI) error {
	cfg := cli.Container.Config
	if len(cfg.GlobalUsers) == 0 && !anyRepoUsers(cfg) {
		fmt.Println("No accounts tracked. Use 'prtrack accounts add <login>'.")
		return nil
	}
	for _, u := range cfg.GlobalUsers {
		fmt.Printf("@%s\n", u)
	}
	for _, rc := range cfg.Repositories {
		for _, u := range rc.Users {
			fmt.Printf("@%s (%s only)\n", u, rc.Name)
		}
	}
	return nil
}

// AccountsRemoveCmd stops tracking an account and drops its cached rows
type AccountsRemoveCmd struct {
	Force bool   `help:"Skip confirmation" short:"f"`
	Login string `arg:"" help:"GitHub login"`
	Repo  string `help:"Remove only from this repository (owner/name)" short:"r"`
}

// Run executes the remove command
func (a *AccountsRemoveCmd) Run(cli *CLI) error {
	cfg := cli.Container.Config

	if !a.Force {
		confirmed := false
		scope := "all repositories"
		if a.Repo != "" {
			scope = a.Repo
		}
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Stop tracking @%s in %s?", a.Login, scope)).
				Description("Cached pull requests authored by this account will be deleted.").
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

	removed := false
	if a.Repo == "" {
		if i := slices.Index(cfg.GlobalUsers, a.Login); i >= 0 {
			cfg.GlobalUsers = slices.Delete(cfg.GlobalUsers, i, i+1)
			removed = true
		}
		// A global remove also clears per-repo entries for the login
		for idx := range cfg.Repositories {
			if i := slices.Index(cfg.Repositories[idx].Users, a.Login); i >= 0 {
				cfg.Repositories[idx].Users = slices.Delete(cfg.Repositories[idx].Users, i, i+1)
				removed = true
			}
		}
	} else {
		idx := repoIndex(cfg, a.Repo)
		if idx < 0 {
			return fmt.Errorf("repository %q is not tracked", a.Repo)
		}
		if i := slices.Index(cfg.Repositories[idx].Users, a.Login); i >= 0 {
			cfg.Repositories[idx].Users = slices.Delete(cfg.Repositories[idx].Users, i, i+1)
			removed = true
		}
	}
	if !removed {
		return fmt.Errorf("account %q is not tracked", a.Login)
	}

	if err := config.Save(cfg); err != nil {
		return err
	}

	if err := cli.Container.Cache.DeleteByAccount(context.Background(), a.Login, a.Repo); err != nil {
		return fmt.Errorf("failed to drop cached PRs: %w", err)
	}

	logging.Logger.Info("Account removed", "login", a.Login, "repo", a.Repo)
	fmt.Printf("Stopped tracking @%s\n", a.Login)
	return nil
}

func repoIndex(cfg *config.Config, name string) int {
	for i, rc := range cfg.Repositories {
		if rc.Name == name {
			return i
		}
	}
	return -1
}

func anyRepoUsers(cfg *config.Config) bool {
	for _, rc := range cfg.Repositories {
		if len(rc.Users) > 0 {
			return true
		}
	}
	return false
}
