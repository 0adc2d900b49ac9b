// Package config loads the engine configuration from environment
// variables, an optional .env file, and an optional YAML config file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	Analysis AnalysisConfig `yaml:"analysis" json:"analysis"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string `yaml:"host" json:"host"`
	Port         int    `yaml:"port" json:"port"`
	ReadTimeout  int    `yaml:"read_timeout_seconds" json:"read_timeout_seconds"`
	WriteTimeout int    `yaml:"write_timeout_seconds" json:"write_timeout_seconds"`
}

// StorageConfig represents result-store and event-source configuration
type StorageConfig struct {
	SQLitePath string         `yaml:"sqlite_path" json:"sqlite_path"`
	Postgres   PostgresConfig `yaml:"postgres" json:"postgres"`
	Redis      RedisConfig    `yaml:"redis" json:"redis"`
}

// PostgresConfig points at the upstream event database
type PostgresConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	DSN     string `yaml:"-" json:"-"` // never serialize credentials
}

// RedisConfig configures the optional latest-result cache
type RedisConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	Addr       string `yaml:"addr" json:"addr"`
	Password   string `yaml:"-" json:"-"` // never serialize credentials
	DB         int    `yaml:"db" json:"db"`
	TTLMinutes int    `yaml:"ttl_minutes" json:"ttl_minutes"`
}

// AnalysisConfig tunes the pattern-analysis engine
type AnalysisConfig struct {
	ClusterSeed       int64 `yaml:"cluster_seed" json:"cluster_seed"`
	ClusterK          int   `yaml:"cluster_k" json:"cluster_k"`
	PredictionHorizon int   `yaml:"prediction_horizon_days" json:"prediction_horizon_days"`
	Workers           int   `yaml:"workers" json:"workers"`
	WindowDays        int   `yaml:"window_days" json:"window_days"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "localhost",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Storage: StorageConfig{
			SQLitePath: "insights.db",
			Redis: RedisConfig{
				Addr:       "localhost:6379",
				TTLMinutes: 15,
			},
		},
		Analysis: AnalysisConfig{
			ClusterSeed:       1,
			ClusterK:          3,
			PredictionHorizon: 7,
			Workers:           1,
			WindowDays:        90,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from defaults, an optional YAML file
// named by INSIGHTS_CONFIG_FILE, and environment variables, in that
// order of increasing precedence.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := DefaultConfig()

	if path := os.Getenv("INSIGHTS_CONFIG_FILE"); path != "" {
		if err := loadFromFile(config, path); err != nil {
			return nil, err
		}
	}

	loadFromEnv(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func loadFromFile(config *Config, path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path is operator-supplied config
	if err != nil {
		return fmt.Errorf("error reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return nil
}

func loadFromEnv(config *Config) {
	setString(&config.Server.Host, "INSIGHTS_HOST")
	setInt(&config.Server.Port, "INSIGHTS_PORT")
	setInt(&config.Server.ReadTimeout, "INSIGHTS_READ_TIMEOUT")
	setInt(&config.Server.WriteTimeout, "INSIGHTS_WRITE_TIMEOUT")

	setString(&config.Storage.SQLitePath, "INSIGHTS_SQLITE_PATH")
	setBool(&config.Storage.Postgres.Enabled, "INSIGHTS_POSTGRES_ENABLED")
	setString(&config.Storage.Postgres.DSN, "INSIGHTS_POSTGRES_DSN")
	setBool(&config.Storage.Redis.Enabled, "INSIGHTS_REDIS_ENABLED")
	setString(&config.Storage.Redis.Addr, "INSIGHTS_REDIS_ADDR")
	setString(&config.Storage.Redis.Password, "INSIGHTS_REDIS_PASSWORD")
	setInt(&config.Storage.Redis.DB, "INSIGHTS_REDIS_DB")
	setInt(&config.Storage.Redis.TTLMinutes, "INSIGHTS_REDIS_TTL_MINUTES")

	setInt64(&config.Analysis.ClusterSeed, "INSIGHTS_CLUSTER_SEED")
	setInt(&config.Analysis.ClusterK, "INSIGHTS_CLUSTER_K")
	setInt(&config.Analysis.PredictionHorizon, "INSIGHTS_PREDICTION_HORIZON")
	setInt(&config.Analysis.Workers, "INSIGHTS_WORKERS")
	setInt(&config.Analysis.WindowDays, "INSIGHTS_WINDOW_DAYS")

	setString(&config.Logging.Level, "INSIGHTS_LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "true" || v == "1"
	}
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Storage.SQLitePath == "" {
		return fmt.Errorf("sqlite path must not be empty")
	}
	if c.Storage.Postgres.Enabled && c.Storage.Postgres.DSN == "" {
		return fmt.Errorf("postgres enabled but INSIGHTS_POSTGRES_DSN not set")
	}
	if c.Analysis.ClusterSeed == 0 {
		return fmt.Errorf("cluster seed must be non-zero; clustering has no implicit seed")
	}
	if c.Analysis.ClusterK < 2 {
		return fmt.Errorf("cluster k must be at least 2, got %d", c.Analysis.ClusterK)
	}
	if c.Analysis.PredictionHorizon < 1 {
		return fmt.Errorf("prediction horizon must be at least 1 day")
	}
	if c.Analysis.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.Analysis.WindowDays < 1 {
		return fmt.Errorf("analysis window must be at least 1 day")
	}
	return nil
}
