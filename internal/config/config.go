// Package config loads and validates litho.yaml.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	lerrors "git.home.luguber.info/inful/litho/internal/errors"
)

// DefaultPath is the configuration file looked up when no override is given.
const DefaultPath = "litho.yaml"

// StateDir receives run reports and, by default, the history database.
const StateDir = ".litho"

// Config represents the application configuration
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Output    OutputConfig    `yaml:"output"`
	Prerender PrerenderConfig `yaml:"prerender"`
	History   HistoryConfig   `yaml:"history"`
	Daemon    DaemonConfig    `yaml:"daemon"`
	GitInfo   GitInfoConfig   `yaml:"git_info"`
	LinkCheck LinkCheckConfig `yaml:"link_check"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SiteConfig describes the page sources and site identity
type SiteConfig struct {
	Dir     string `yaml:"dir"`
	BaseURL string `yaml:"base_url,omitempty"`
	Title   string `yaml:"title,omitempty"`
}

// OutputConfig describes where rendered documents land
type OutputConfig struct {
	Dir          string `yaml:"dir"`
	ClientSubdir string `yaml:"client_subdir"`
}

// PrerenderConfig tunes the prerender pipeline
type PrerenderConfig struct {
	// Parallel is the concurrency ceiling for fan-out phases; 0 selects the
	// host CPU count.
	Parallel int `yaml:"parallel"`
	// Partial suppresses missing-coverage warnings for runs that are
	// expected to render only part of the inventory.
	Partial bool `yaml:"partial"`
	// NoExtraDir writes <url>.html instead of <url>/index.html.
	NoExtraDir bool `yaml:"no_extra_dir"`
}

// HistoryConfig controls the SQLite run history store
type HistoryConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Path    string `yaml:"path"`
}

// DaemonConfig controls the periodic re-render daemon
type DaemonConfig struct {
	Interval    string `yaml:"interval"`
	Listen      string `yaml:"listen"`
	NATSUrl     string `yaml:"nats_url,omitempty"`
	NATSSubject string `yaml:"nats_subject"`
}

// GitInfoConfig controls per-page git metadata collection
type GitInfoConfig struct {
	Enabled *bool `yaml:"enabled,omitempty"`
}

// LinkCheckConfig controls post-render internal link verification
type LinkCheckConfig struct {
	Enabled *bool `yaml:"enabled,omitempty"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env if present; existing process env always wins.
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded environment variables from .env")
	}

	if configPath == "" {
		configPath = DefaultPath
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, lerrors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, lerrors.Wrap(err, lerrors.CategoryConfig, lerrors.SeverityFatal, "failed to read config file")
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, lerrors.Wrap(err, lerrors.CategoryConfig, lerrors.SeverityFatal, "failed to unmarshal config")
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default returns a configuration with every default applied, used when no
// config file exists and the caller runs purely programmatically.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Site.Dir == "" {
		c.Site.Dir = "site"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "dist"
	}
	if c.Output.ClientSubdir == "" {
		c.Output.ClientSubdir = "client"
	}
	if c.History.Path == "" {
		c.History.Path = filepath.Join(StateDir, "history.db")
	}
	if c.Daemon.Interval == "" {
		c.Daemon.Interval = "1h"
	}
	if c.Daemon.Listen == "" {
		c.Daemon.Listen = ":9173"
	}
	if c.Daemon.NATSSubject == "" {
		c.Daemon.NATSSubject = "litho.runs"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration for contradictions before a run starts.
func (c *Config) Validate() error {
	if c.Prerender.Parallel < 0 {
		return lerrors.ConfigInvalid("prerender.parallel", "must be >= 0 (0 selects the CPU count)")
	}
	if c.Site.Dir == "" {
		return lerrors.ConfigInvalid("site.dir", "must not be empty")
	}
	if c.Output.Dir == "" {
		return lerrors.ConfigInvalid("output.dir", "must not be empty")
	}
	if _, err := time.ParseDuration(c.Daemon.Interval); err != nil {
		return lerrors.ConfigInvalid("daemon.interval", fmt.Sprintf("not a duration: %v", err))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return lerrors.ConfigInvalid("logging.level", "must be one of debug, info, warn, error")
	}
	return nil
}

// HistoryEnabled reports whether run history should be recorded (default on).
func (c *Config) HistoryEnabled() bool {
	return c.History.Enabled == nil || *c.History.Enabled
}

// GitInfoEnabled reports whether git metadata is collected (default on).
func (c *Config) GitInfoEnabled() bool {
	return c.GitInfo.Enabled == nil || *c.GitInfo.Enabled
}

// LinkCheckEnabled reports whether rendered output is link-checked (default on).
func (c *Config) LinkCheckEnabled() bool {
	return c.LinkCheck.Enabled == nil || *c.LinkCheck.Enabled
}

// DaemonInterval returns the parsed re-render cadence.
func (c *Config) DaemonInterval() time.Duration {
	d, err := time.ParseDuration(c.Daemon.Interval)
	if err != nil {
		return time.Hour
	}
	return d
}

// LogLevel maps the configured level to slog.
func (c *Config) LogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
