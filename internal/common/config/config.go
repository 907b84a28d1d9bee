// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Insights InsightsConfig `mapstructure:"insights"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ScoringConfig tunes the prediction cache and the forecast batch.
type ScoringConfig struct {
	// StalenessTTL is how long a cached prediction stays fresh absent a
	// newer match analysis.
	StalenessTTL time.Duration `mapstructure:"staleness_ttl"`
	// LockTTL bounds how long a crashed recompute can hold the
	// per-interview advisory lock.
	LockTTL             time.Duration `mapstructure:"lock_ttl"`
	LockRetries         int           `mapstructure:"lock_retries"`
	LockRetryDelay      time.Duration `mapstructure:"lock_retry_delay"`
	ForecastConcurrency int           `mapstructure:"forecast_concurrency"`
}

// InsightsConfig configures the optional AI enrichment. An empty APIKey
// disables it entirely; the engine then runs with the no-op generator.
type InsightsConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float32       `mapstructure:"temperature"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	MetricsAddress string `mapstructure:"metrics_address"`
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "forecast-service"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 20
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}
	if cfg.Scoring.StalenessTTL == 0 {
		cfg.Scoring.StalenessTTL = 6 * time.Hour
	}
	if cfg.Scoring.LockTTL == 0 {
		cfg.Scoring.LockTTL = 30 * time.Second
	}
	if cfg.Scoring.LockRetries == 0 {
		cfg.Scoring.LockRetries = 5
	}
	if cfg.Scoring.LockRetryDelay == 0 {
		cfg.Scoring.LockRetryDelay = 200 * time.Millisecond
	}
	if cfg.Scoring.ForecastConcurrency == 0 {
		cfg.Scoring.ForecastConcurrency = 4
	}
	if cfg.Insights.Model == "" {
		cfg.Insights.Model = "gemini-2.5-flash"
	}
	if cfg.Insights.Timeout == 0 {
		cfg.Insights.Timeout = 20 * time.Second
	}
	if cfg.Insights.Temperature == 0 {
		cfg.Insights.Temperature = 0.4
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Server.MetricsAddress == "" {
		cfg.Server.MetricsAddress = ":9102"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Scoring.StalenessTTL < 0 {
		return fmt.Errorf("scoring.staleness_ttl must not be negative")
	}
	return nil
}
