package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/balance-strategy/internal/strategy"
)

// Config holds the settings shared by every balance subcommand.
type Config struct {
	Build   BuildConfig   `yaml:"build"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
}

// BuildConfig controls table synthesis.
type BuildConfig struct {
	Population int `yaml:"population"`
	// Workers bounds concurrent signature evaluation; 0 uses GOMAXPROCS.
	Workers int `yaml:"workers"`
	// MaxSteps rejects tables predicting more weighings; 0 disables the check.
	MaxSteps int `yaml:"max_steps"`
}

// StoreConfig locates the table database and the JSON export.
type StoreConfig struct {
	DBPath     string `yaml:"db_path"`
	ExportPath string `yaml:"export_path"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Build: BuildConfig{
			Population: 12,
			Workers:    0,
			MaxSteps:   0,
		},
		Store: StoreConfig{
			DBPath:     "balance.db",
			ExportPath: "",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults. Environment variables override both.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if path := os.Getenv("BALANCE_DB"); path != "" {
		c.Store.DBPath = path
	}
	if level := os.Getenv("BALANCE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if err := envInt("BALANCE_POPULATION", &c.Build.Population); err != nil {
		return err
	}
	if err := envInt("BALANCE_WORKERS", &c.Build.Workers); err != nil {
		return err
	}
	return nil
}

func envInt(key string, dst *int) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = v
	return nil
}

// Validate checks ranges.
func (c *Config) Validate() error {
	if c.Build.Population < 2 || c.Build.Population > strategy.MaxPopulation {
		return fmt.Errorf("build.population must be in [2, %d], got %d", strategy.MaxPopulation, c.Build.Population)
	}
	if c.Build.Workers < 0 {
		return fmt.Errorf("build.workers must be >= 0, got %d", c.Build.Workers)
	}
	if c.Build.MaxSteps < 0 {
		return fmt.Errorf("build.max_steps must be >= 0, got %d", c.Build.MaxSteps)
	}
	if c.Store.DBPath == "" {
		return fmt.Errorf("store.db_path is required")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses Logging.Level.
func (c *Config) LogLevel() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("logging.level: %w", err)
	}
	return lvl, nil
}
