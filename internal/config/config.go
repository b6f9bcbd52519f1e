// Package config loads server settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	ListenAddr       string        `yaml:"listen_addr"`
	DBPath           string        `yaml:"db_path"`
	RoundDuration    time.Duration `yaml:"round_duration"`
	TickInterval     time.Duration `yaml:"tick_interval"`
	SweepInterval    time.Duration `yaml:"sweep_interval"`
	DefaultBudget    int           `yaml:"default_budget"`
	ReserveOpenSlots bool          `yaml:"reserve_open_slots"`
	EventBuffer      int           `yaml:"event_buffer"`
	Log              LogConfig     `yaml:"log"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		ListenAddr:    ":8080",
		DBPath:        "./data/draftbid.db",
		RoundDuration: 30 * time.Second,
		TickInterval:  time.Second,
		SweepInterval: 2 * time.Second,
		DefaultBudget: 500,
		EventBuffer:   64,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path (when non-empty) over the defaults, then applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := getenv("DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch {
	case c.ListenAddr == "":
		return errors.New("listen_addr is required")
	case c.DBPath == "":
		return errors.New("db_path is required")
	case c.RoundDuration <= 0:
		return fmt.Errorf("round_duration must be positive, got %s", c.RoundDuration)
	case c.TickInterval <= 0:
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	case c.SweepInterval <= 0:
		return fmt.Errorf("sweep_interval must be positive, got %s", c.SweepInterval)
	case c.DefaultBudget <= 0:
		return fmt.Errorf("default_budget must be positive, got %d", c.DefaultBudget)
	case c.EventBuffer <= 0:
		return fmt.Errorf("event_buffer must be positive, got %d", c.EventBuffer)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
