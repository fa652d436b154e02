package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

type AppConfig struct {
	Port string

	DatabaseURL string `validate:"required"`
	RedisURL    string

	WeatherAPIKey string
	APINinjasKey  string `validate:"required"`

	// Outbound HTTP client timeout; ProviderTimeout additionally bounds each
	// individual call inside a fan-out.
	HTTPTimeout     time.Duration
	ProviderTimeout time.Duration

	// Fast-tier TTLs, which double as durable-tier freshness windows.
	CacheTTLCurrent  time.Duration
	CacheTTLForecast time.Duration
	CacheTTLHistory  time.Duration
	GeocodingTTL     time.Duration

	// Retention sweeper.
	SweepInterval time.Duration
	RetentionDays int
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		Port:          getenvDefault("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		WeatherAPIKey: os.Getenv("WEATHERAPI_API_KEY"),
		APINinjasKey:  os.Getenv("API_NINJAS_KEY"),
		RetentionDays: getenvInt("RETENTION_DAYS", 30),
	}

	durations := []struct {
		dst *time.Duration
		key string
		def string
	}{
		{&cfg.HTTPTimeout, "HTTP_TIMEOUT", "15s"},
		{&cfg.ProviderTimeout, "PROVIDER_TIMEOUT", "10s"},
		{&cfg.CacheTTLCurrent, "CACHE_TTL_CURRENT", "10m"},
		{&cfg.CacheTTLForecast, "CACHE_TTL_FORECAST", "1h"},
		{&cfg.CacheTTLHistory, "CACHE_TTL_HISTORY", "24h"},
		{&cfg.GeocodingTTL, "GEOCODING_TTL", "24h"},
		{&cfg.SweepInterval, "SWEEP_INTERVAL", "24h"},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getenvDefault(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Retention converts the configured retention window to a duration.
func (c *AppConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
