// Package config loads server configuration from environment variables and
// an optional .env file, with development-friendly defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string   `mapstructure:"PORT"`
	Env             string   `mapstructure:"ENV"`
	DBPath          string   `mapstructure:"DB_PATH"`
	JWTSecret       string   `mapstructure:"JWT_SECRET"`
	TokenTTLMinutes int      `mapstructure:"TOKEN_TTL_MINUTES"`
	CORSOrigins     []string `mapstructure:"CORS_ORIGINS"`
	LogLevel        string   `mapstructure:"LOG_LEVEL"`
	SweepInterval   int      `mapstructure:"SWEEP_INTERVAL_MINUTES"`
	SweepWindowDays int      `mapstructure:"SWEEP_WINDOW_DAYS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_PATH", "./data/medgas.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL_MINUTES", 480)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SWEEP_INTERVAL_MINUTES", 60)
	v.SetDefault("SWEEP_WINDOW_DAYS", 30)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DB_PATH")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("TOKEN_TTL_MINUTES")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("SWEEP_INTERVAL_MINUTES")
	v.BindEnv("SWEEP_WINDOW_DAYS")

	// Try reading .env, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run. Production refuses
// to start without a signing secret; development falls back to a fixed one.
func (c *Config) Validate() error {
	if c.JWTSecret == "" && !c.IsDev() {
		return fmt.Errorf("JWT_SECRET is required when ENV=%q", c.Env)
	}
	if c.TokenTTLMinutes <= 0 {
		return fmt.Errorf("TOKEN_TTL_MINUTES must be positive, got %d", c.TokenTTLMinutes)
	}
	if c.SweepIntervalOff() {
		return nil
	}
	if c.SweepWindowDays <= 0 {
		return fmt.Errorf("SWEEP_WINDOW_DAYS must be positive, got %d", c.SweepWindowDays)
	}
	return nil
}

// SweepIntervalOff reports whether the missing-report sweeper is disabled.
func (c *Config) SweepIntervalOff() bool {
	return c.SweepInterval <= 0
}

// EffectiveJWTSecret returns the configured secret, or the development
// fallback when running in dev mode without one.
func (c *Config) EffectiveJWTSecret() string {
	if c.JWTSecret != "" {
		return c.JWTSecret
	}
	return "medgas-dev-secret-do-not-use-in-production"
}
