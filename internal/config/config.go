// Package config loads application configuration and resolves
// provider credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/hackwatch/hackwatch/internal/temporal"
)

// Config holds all configuration settings.
type Config struct {
	// Hackathon window every commit is classified against.
	Window temporal.Window `mapstructure:"hackathon_window"`

	// Fetch settings.
	Fetch FetchConfig `mapstructure:"fetch"`

	// Commit cache settings.
	Cache CacheConfig `mapstructure:"cache"`

	// Report output settings.
	Report ReportConfig `mapstructure:"report"`

	// Logging settings.
	Log LogConfig `mapstructure:"log"`
}

type FetchConfig struct {
	// Strategy selects the history fetcher: "api" or "clone".
	Strategy string `mapstructure:"strategy"`
	// Fanout bounds how many repositories are ingested concurrently.
	Fanout int `mapstructure:"fanout"`
	// DetailWorkers bounds concurrent per-commit detail requests
	// within one page of API results.
	DetailWorkers int `mapstructure:"detail_workers"`
	// RateLimit is the per-second budget for provider API calls.
	RateLimit float64 `mapstructure:"rate_limit"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Path    string        `mapstructure:"path"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	JSONFormat bool   `mapstructure:"json"`
}

// Default returns the default configuration. The window is left empty
// on purpose: there is no sensible default hackathon, so Validate
// rejects a config that never set one.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Fetch: FetchConfig{
			Strategy:      "api",
			Fanout:        4,
			DetailWorkers: 8,
			RateLimit:     5,
		},
		Cache: CacheConfig{
			Path: filepath.Join(homeDir, ".hackwatch", "commits.db"),
			TTL:  24 * time.Hour,
		},
		Report: ReportConfig{
			OutputDir: "reports",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the given YAML file (or the standard
// search locations when path is empty), layered under HACKWATCH_*
// environment overrides. .env files are loaded first so tokens can
// live next to the checkout.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("fetch", cfg.Fetch)
	v.SetDefault("cache", cfg.Cache)
	v.SetDefault("report", cfg.Report)
	v.SetDefault("log", cfg.Log)

	v.SetEnvPrefix("HACKWATCH")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("hackwatch")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".hackwatch"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if path != "" {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate checks the parts of the config that cannot fail lazily.
func (c *Config) Validate() error {
	if c.Window.Start == "" || c.Window.End == "" || c.Window.Timezone == "" {
		return fmt.Errorf("hackathon_window requires start_datetime, end_datetime and timezone")
	}
	if _, _, err := temporal.ParseWindow(c.Window); err != nil {
		return err
	}
	switch c.Fetch.Strategy {
	case "api", "clone":
	default:
		return fmt.Errorf("unknown fetch strategy %q (expected \"api\" or \"clone\")", c.Fetch.Strategy)
	}
	if c.Fetch.Fanout < 1 {
		return fmt.Errorf("fetch fanout must be at least 1")
	}
	if c.Fetch.DetailWorkers < 1 {
		return fmt.Errorf("fetch detail_workers must be at least 1")
	}
	return nil
}

// loadEnvFiles loads .env files in order of precedence. Missing files
// are fine; an explicit config file remains the source of truth for
// everything except secrets.
func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}

	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".hackwatch", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		_ = godotenv.Load(homeEnvFile)
	}
}
