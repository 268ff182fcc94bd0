// Package config loads server settings from a TOML file, a .env file and the
// environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const minSecretLength = 32

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Auth    AuthConfig    `toml:"auth"`
	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`
}

type ServerConfig struct {
	Addr        string   `toml:"addr" env:"EASYPLIT_ADDR"`
	StaticPath  string   `toml:"static_path" env:"STATIC_PATH"`
	CORSOrigins []string `toml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
}

type StorageConfig struct {
	DBPath string `toml:"db_path" env:"DB_PATH"`
}

type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret" env:"JWT_SECRET"`
	// TokenTTL is a Go duration string such as "24h".
	TokenTTL   string `toml:"token_ttl" env:"TOKEN_TTL"`
	BcryptCost int    `toml:"bcrypt_cost" env:"BCRYPT_COST"`
}

type LogConfig struct {
	Level string `toml:"level" env:"LOG_LEVEL"`
}

type MetricsConfig struct {
	Enabled bool `toml:"enabled" env:"METRICS_ENABLED"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:        ":8080",
			StaticPath:  "./frontend/static",
			CORSOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			DBPath: "./data/easyplit.db",
		},
		Auth: AuthConfig{
			TokenTTL: "24h",
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Load builds the configuration. path may be empty; a missing .env file is
// not an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// applyEnv overrides fields whose environment variable is set.
func (c *Config) applyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env config: %w", err)
	}
	c.Server.CORSOrigins = trimList(c.Server.CORSOrigins)
	return nil
}

// Validate reports the first setting the server cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Storage.DBPath) == "" {
		return errors.New("storage.db_path is required")
	}
	if len(c.Auth.JWTSecret) < minSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d characters", minSecretLength)
	}
	ttl, err := c.TokenTTL()
	if err != nil {
		return err
	}
	if ttl <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %s", ttl)
	}
	return nil
}

// TokenTTL parses Auth.TokenTTL.
func (c Config) TokenTTL() (time.Duration, error) {
	ttl, err := time.ParseDuration(c.Auth.TokenTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid auth.token_ttl %q: %w", c.Auth.TokenTTL, err)
	}
	return ttl, nil
}

func trimList(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
