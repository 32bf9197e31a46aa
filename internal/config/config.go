// Package config loads service settings from an optional TOML file, a
// .env file and the process environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// ErrInvalidConfig is returned for unreadable files or bad values
var ErrInvalidConfig = errors.New("config: invalid configuration")

// envFiles are tried in order; the first one that exists is loaded
var envFiles = []string{".env", "../.env", "../../.env"}

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Planner  PlannerConfig  `toml:"planner"`
	Logs     LogsConfig     `toml:"logs"`
	Metrics  MetricsConfig  `toml:"metrics"`
}

type ServerConfig struct {
	Port    string `toml:"port"`
	GinMode string `toml:"gin_mode"`
}

// DatabaseConfig selects postgres when URL is set and sqlite at Path otherwise
type DatabaseConfig struct {
	URL  string `toml:"url"`
	Path string `toml:"path"`
}

type AuthConfig struct {
	JWTSecret        string `toml:"jwt_secret"`
	APIMasterSecret  string `toml:"api_master_secret"`
	AdminUsername    string `toml:"admin_username"`
	AdminPassword    string `toml:"admin_password"`
	TokenTTLHours    int    `toml:"token_ttl_hours"`
	BcryptCost       int    `toml:"bcrypt_cost"`
	DefaultRateLimit int    `toml:"default_rate_limit"`
}

type PlannerConfig struct {
	Seed             int64 `toml:"seed"`
	TimeLimitSeconds int   `toml:"time_limit_seconds"`
}

// TimeLimit is the accepted solver time limit
func (p PlannerConfig) TimeLimit() time.Duration {
	return time.Duration(p.TimeLimitSeconds) * time.Second
}

type LogsConfig struct {
	Level string `toml:"level"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8000"},
		Database: DatabaseConfig{Path: "planner.db"},
		Auth: AuthConfig{
			AdminUsername:    "admin",
			AdminPassword:    "admin123",
			TokenTTLHours:    24,
			BcryptCost:       14,
			DefaultRateLimit: 10000,
		},
		Planner: PlannerConfig{Seed: 42, TimeLimitSeconds: 300},
		Logs:    LogsConfig{Level: "info"},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics", ServiceName: "trip_planner"},
	}
}

// Load builds the configuration. path may be empty or point to a missing
// file, in which case only defaults and the environment apply.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
			}
		}
	}

	LoadDotEnv()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads the first .env found in the working directory or its
// parents. Variables already set in the environment win.
func LoadDotEnv() {
	for _, p := range envFiles {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Server.Port)
	str("GIN_MODE", &c.Server.GinMode)
	str("DATABASE_URL", &c.Database.URL)
	str("DATA_PATH", &c.Database.Path)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("API_MASTER_SECRET", &c.Auth.APIMasterSecret)
	str("ADMIN_USERNAME", &c.Auth.AdminUsername)
	str("ADMIN_PASSWORD", &c.Auth.AdminPassword)
	str("LOG_LEVEL", &c.Logs.Level)

	if v := os.Getenv("PLANNER_SEED"); v != "" {
		seed, err := cast.ToInt64E(v)
		if err != nil {
			return fmt.Errorf("%w: PLANNER_SEED: %v", ErrInvalidConfig, err)
		}
		c.Planner.Seed = seed
	}
	if v := os.Getenv("PLANNER_TIME_LIMIT"); v != "" {
		secs, err := cast.ToIntE(v)
		if err != nil || secs <= 0 {
			return fmt.Errorf("%w: PLANNER_TIME_LIMIT must be a positive number of seconds", ErrInvalidConfig)
		}
		c.Planner.TimeLimitSeconds = secs
	}
	return nil
}
