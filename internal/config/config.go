package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Defaults applied when the config file omits a value
const (
	DefaultStalenessThresholdSeconds = 300
	DefaultPageSize                  = 10
)

// RepoConfig is one tracked repository. Users, when set, restricts tracked
// authors/assignees for this repository; when nil the global list applies.
type RepoConfig struct {
	Name  string   `json:"name"`
	Users []string `json:"users,omitempty"`
}

// Config represents the structure of config.json
type Config struct {
	AuthToken                 string       `json:"auth_token,omitempty"`
	Debug                     *bool        `json:"debug,omitempty"`
	GlobalUsers               []string     `json:"global_users"`
	MaxLogFiles               *int         `json:"max_log_files,omitempty"`
	PageSize                  int          `json:"pr_page_size,omitempty"`
	Repositories              []RepoConfig `json:"repositories"`
	StalenessThresholdSeconds int          `json:"staleness_threshold_seconds,omitempty"`
}

// StalenessThreshold returns the configured threshold in seconds, falling
// back to the default when unset.
func (c *Config) StalenessThreshold() int {
	if c.StalenessThresholdSeconds <= 0 {
		return DefaultStalenessThresholdSeconds
	}
	return c.StalenessThresholdSeconds
}

// PRPageSize returns the configured page size, falling back to the default
// when unset.
func (c *Config) PRPageSize() int {
	if c.PageSize <= 0 {
		return DefaultPageSize
	}
	return c.PageSize
}

// Repo returns the RepoConfig for a repository name, if tracked.
func (c *Config) Repo(name string) (RepoConfig, bool) {
	for _, rc := range c.Repositories {
		if rc.Name == name {
			return rc, true
		}
	}
	return RepoConfig{}, false
}

// Load reads the configuration, creating an empty default file when missing.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := &Config{GlobalUsers: []string{}, Repositories: []RepoConfig{}}
			if err := Save(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config.json: %w", err)
	}
	return &cfg, nil
}

// Save persists the configuration as indented JSON.
func Save(cfg *Config) error {
	path := GetConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
