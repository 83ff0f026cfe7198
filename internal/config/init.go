package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if configPath == "" {
		configPath = DefaultPath
	}
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Site: SiteConfig{
			Dir:     "site",
			Title:   "My Site",
			BaseURL: "https://example.com",
		},
		Output: OutputConfig{
			Dir:          "dist",
			ClientSubdir: "client",
		},
		Prerender: PrerenderConfig{
			Parallel: 0,
		},
		History: HistoryConfig{
			Path: ".litho/history.db",
		},
		Daemon: DaemonConfig{
			Interval: "1h",
			Listen:   ":9173",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
