// Package config loads application configuration from a YAML file and
// environment variables via viper.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
}

// AppConfig holds application-wide settings.
type AppConfig struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Address            string   `mapstructure:"address"`
	AllowedOrigins     []string `mapstructure:"allowed_origins"`
	RateLimitPerMinute int      `mapstructure:"rate_limit_per_minute"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// FetchConfig holds ingestion pipeline settings.
type FetchConfig struct {
	UserAgent       string  `mapstructure:"user_agent"`
	IntervalMinutes int     `mapstructure:"interval_minutes"`
	AllowedList     string  `mapstructure:"allowed_list"`
	BlockedList     string  `mapstructure:"blocked_list"`
	DedupeThreshold float64 `mapstructure:"dedupe_threshold"`
}

// SetDefaults registers default values on the given viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "dev")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.debug", false)

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:8080"})
	v.SetDefault("server.rate_limit_per_minute", 30)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "aggregator")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "news")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("fetch.user_agent", "NewsAggregator/1.0 (+https://nordnytt.example)")
	v.SetDefault("fetch.interval_minutes", 5)
	v.SetDefault("fetch.allowed_list", "allowed_domains.json")
	v.SetDefault("fetch.blocked_list", "blocked_domains.json")
	v.SetDefault("fetch.dedupe_threshold", 0.85)
}

// Load unmarshals the configuration from the given viper instance.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
