package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PRTRACK_CONFIG_DIR", dir)
	return dir
}

func TestLoadCreatesDefaultConfig(t *testing.T) {
	dir := setupConfigDir(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Repositories)
	assert.Empty(t, cfg.GlobalUsers)

	_, err = os.Stat(filepath.Join(dir, "config.json"))
	assert.NoError(t, err, "default config file written")
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	setupConfigDir(t)

	debug := true
	cfg := &Config{
		AuthToken:   "tok",
		Debug:       &debug,
		GlobalUsers: []string{"alice"},
		PageSize:    25,
		Repositories: []RepoConfig{
			{Name: "acme/api", Users: []string{"bob"}},
			{Name: "acme/web"},
		},
		StalenessThresholdSeconds: 60,
	}
	require.NoError(t, Save(cfg))

	got, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	dir := setupConfigDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{nope"), 0600))

	_, err := Load()
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, DefaultStalenessThresholdSeconds, cfg.StalenessThreshold())
	assert.Equal(t, DefaultPageSize, cfg.PRPageSize())

	cfg.StalenessThresholdSeconds = 60
	cfg.PageSize = 5
	assert.Equal(t, 60, cfg.StalenessThreshold())
	assert.Equal(t, 5, cfg.PRPageSize())
}

func TestRepoLookup(t *testing.T) {
	cfg := &Config{Repositories: []RepoConfig{{Name: "acme/api", Users: []string{"alice"}}}}

	rc, ok := cfg.Repo("acme/api")
	assert.True(t, ok)
	assert.Equal(t, []string{"alice"}, rc.Users)

	_, ok = cfg.Repo("acme/missing")
	assert.False(t, ok)
}
