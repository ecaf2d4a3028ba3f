package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/renato0307/prtrack/internal/config"
	"github.com/renato0307/prtrack/internal/logging"
)

// TokenCmd manages the GitHub API token
type TokenCmd struct {
	Clear TokenClearCmd `cmd:"clear" help:"Remove the stored token"`
	Set   TokenSetCmd   `cmd:"set" help:"Store a GitHub API token" default:"1"`
}

// TokenSetCmd stores a GitHub API token in config.json
type TokenSetCmd struct {
	Token string `arg:"" optional:"" help:"Personal access token (prompted when omitted)"`
}

// Run executes the set command
func (t *TokenSetCmd) Run(cli *CLI) error {
	token := strings.TrimSpace(t.Token)
	if token == "" {
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("GitHub token").
				EchoMode(huh.EchoModePassword).
				Value(&token).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("token cannot be empty")
					}
					return nil
				}),
		))
		if err := form.Run(); err != nil {
			return err
		}
		token = strings.TrimSpace(token)
	}

	cfg := cli.Container.Config
	cfg.AuthToken = token
	if err := config.Save(cfg); err != nil {
		return err
	}

	logging.Logger.Info("Auth token updated")
	fmt.Println("Token saved")
	return nil
}

// TokenClearCmd removes the stored token
type TokenClearCmd struct{}

// Run executes the clear command
func (t *TokenClearCmd) Run(cli *CLI) error {
	cfg := cli.Container.Config
	if cfg.AuthToken == "" {
		fmt.Println("No token stored")
		return nil
	}

	cfg.AuthToken = ""
	if err := config.Save(cfg); err != nil {
		return err
	}

	logging.Logger.Info("Auth token cleared")
	fmt.Println("Token removed")
	return nil
}
