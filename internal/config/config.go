// Package config provides configuration loading for the pricing engine and CLI.
package config

import (
	"os"

	"github.com/rs/zerolog/log"
)

// Config holds the runtime configuration for the pricer and its CLI.
type Config struct {
	Env         string
	DefaultZone string
	LogLevel    string
	MoneyScale  int32
}

// Load reads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		Env:         getEnv("ENV", "development"),
		DefaultZone: getEnv("TARIFF_ZONE", "Europe/Amsterdam"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		MoneyScale:  parseScale(getEnv("MONEY_SCALE", "2")),
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func parseScale(s string) int32 {
	switch s {
	case "2":
		return 2
	case "4":
		return 4
	default:
		log.Warn().Str("value", s).Msg("invalid MONEY_SCALE, using default 2")
		return 2
	}
}
