package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/cashflow/internal/database"
	"github.com/cleared-dev/cashflow/internal/logger"
)

// FileName is the config file looked up in a project directory.
const FileName = "cashflow.yaml"

// Environment overrides.
const (
	EnvDBDriver       = "CASHFLOW_DB_DRIVER"
	EnvDBDSN          = "CASHFLOW_DB_DSN"
	EnvLogLevel       = "CASHFLOW_LOG_LEVEL"
	EnvEngineTimeout  = "CASHFLOW_ENGINE_TIMEOUT"
	EnvMaxConcurrency = "CASHFLOW_MAX_CONCURRENCY"
)

// Config represents the top-level cashflow.yaml configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Engine   EngineConfig   `yaml:"engine"`
}

// DatabaseConfig selects the store the engine reads from.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"` // "sqlite" or "pgx"
	DSN             string        `yaml:"dsn"`    // file path for sqlite, relative to the config file
	MaxOpenConns    int           `yaml:"max_open_conns,omitempty"`
	MaxIdleConns    int           `yaml:"max_idle_conns,omitempty"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime,omitempty"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// EngineConfig bounds each cash-flow computation.
type EngineConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	MaxConcurrency int           `yaml:"max_concurrency"`
}

// Load reads a cashflow.yaml file from disk. A .env file next to it is
// loaded into the environment first; variables already set win. Environment
// overrides are applied last, and a relative sqlite path is resolved against
// the config file's directory.
func Load(path string) (*Config, error) {
	dir := filepath.Dir(path)
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = database.DriverSQLite
	}
	if cfg.Database.Driver == database.DriverSQLite && cfg.Database.DSN != "" && !filepath.IsAbs(cfg.Database.DSN) {
		cfg.Database.DSN = filepath.Join(dir, cfg.Database.DSN)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: database.DriverSQLite,
			DSN:    "cashflow.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Engine: EngineConfig{
			Timeout:        30 * time.Second,
			MaxConcurrency: 6,
		},
	}
}

// ApplyEnv overrides fields from CASHFLOW_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvDBDriver); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv(EnvDBDSN); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvEngineTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvEngineTimeout, err)
		}
		c.Engine.Timeout = d
	}
	if v := os.Getenv(EnvMaxConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvMaxConcurrency, err)
		}
		c.Engine.MaxConcurrency = n
	}
	return nil
}

// DB converts the database section for database.New.
func (c *Config) DB() database.Config {
	return database.Config{
		Driver:          c.Database.Driver,
		DSN:             c.Database.DSN,
		Name:            "cashflow",
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
	}
}

// Logger converts the log section for logger.New.
func (c *Config) Logger() logger.Config {
	return logger.Config{Level: c.Log.Level, Pretty: c.Log.Pretty}
}
