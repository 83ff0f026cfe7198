package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "litho.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "site:\n  title: Test Site\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "site", cfg.Site.Dir)
	assert.Equal(t, "dist", cfg.Output.Dir)
	assert.Equal(t, "client", cfg.Output.ClientSubdir)
	assert.Equal(t, 0, cfg.Prerender.Parallel)
	assert.Equal(t, ".litho/history.db", cfg.History.Path)
	assert.Equal(t, "litho.runs", cfg.Daemon.NATSSubject)
	assert.Equal(t, time.Hour, cfg.DaemonInterval())
	assert.True(t, cfg.HistoryEnabled())
	assert.True(t, cfg.GitInfoEnabled())
	assert.True(t, cfg.LinkCheckEnabled())
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("LITHO_TEST_BASE", "https://docs.example.org")
	path := writeConfig(t, "site:\n  base_url: ${LITHO_TEST_BASE}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://docs.example.org", cfg.Site.BaseURL)
}

func TestLoad_ExplicitToggles(t *testing.T) {
	path := writeConfig(t, `
history:
  enabled: false
git_info:
  enabled: false
link_check:
  enabled: true
prerender:
  parallel: 4
  partial: true
  no_extra_dir: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.HistoryEnabled())
	assert.False(t, cfg.GitInfoEnabled())
	assert.True(t, cfg.LinkCheckEnabled())
	assert.Equal(t, 4, cfg.Prerender.Parallel)
	assert.True(t, cfg.Prerender.Partial)
	assert.True(t, cfg.Prerender.NoExtraDir)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "negative parallel",
			mutate:  func(c *Config) { c.Prerender.Parallel = -1 },
			wantErr: "invalid configuration",
		},
		{
			name:    "bad interval",
			mutate:  func(c *Config) { c.Daemon.Interval = "soon" },
			wantErr: "invalid configuration",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "chatty" },
			wantErr: "invalid configuration",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.wantErr)
		})
	}
}

func TestInit_RefusesOverwriteWithoutForce(t *testing.T) {
	path := writeConfig(t, "site: {}\n")

	err := Init(path, false)
	require.Error(t, err)

	require.NoError(t, Init(path, true))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "My Site", cfg.Site.Title)
}

func TestLogLevel_Mapping(t *testing.T) {
	cfg := Default()
	for level, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		cfg.Logging.Level = level
		assert.Equal(t, want, cfg.LogLevel(), level)
	}
}
