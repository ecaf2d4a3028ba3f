package config

import (
	"os"
	"path/filepath"
	"strings"
)

// GetConfigDir returns the prtrack configuration directory.
// Precedence: $PRTRACK_CONFIG_DIR, then $XDG_CONFIG_HOME/prtrack,
// then ~/.config/prtrack.
func GetConfigDir() string {
	if dir := os.Getenv("PRTRACK_CONFIG_DIR"); dir != "" {
		return ExpandPath(dir)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "prtrack")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".prtrack" // Fallback to a relative directory
	}
	return filepath.Join(homeDir, ".config", "prtrack")
}

// GetConfigPath returns the path to config.json
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.json")
}

// GetDBPath returns the path to the pull request cache database
func GetDBPath() string {
	return filepath.Join(GetConfigDir(), "cache.sqlite3")
}

// ExpandPath expands a leading ~ to the user's home directory
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}
