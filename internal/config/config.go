// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Config holds every setting the service reads at startup.
type Config struct {
	Port     string
	MongoURI string
	MongoDB  string

	Auth AuthConfig
	MQTT MQTTConfig
	Tick TickConfig

	LogLevel  string
	LogFormat string

	AdminUsername string
	AdminPassword string
}

// AuthConfig configures JWT issuing.
type AuthConfig struct {
	JWTSecret string
	TokenExp  time.Duration
}

// MQTTConfig configures event publishing. An empty Broker disables MQTT.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	TopicPrefix string
}

// Enabled reports whether a broker is configured.
func (c MQTTConfig) Enabled() bool {
	return c.Broker != ""
}

// TickConfig configures the scheduled re-evaluation.
type TickConfig struct {
	Cron        string
	Timezone    string
	Concurrency int
}

// Location resolves the configured timezone.
func (c TickConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

const defaultJWTSecret = "default-secret-key-change-in-production"

// Load reads a .env file when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		MongoURI: getEnv("MONGO_URI", ""),
		MongoDB:  getEnv("MONGO_DB", "fleet"),
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", defaultJWTSecret),
		},
		MQTT: MQTTConfig{
			Broker:      getEnv("MQTT_BROKER", ""),
			ClientID:    getEnv("MQTT_CLIENT_ID", "fleet-maintenance"),
			TopicPrefix: getEnv("MQTT_TOPIC_PREFIX", "fleet/maintenance"),
		},
		Tick: TickConfig{
			Cron:     getEnv("TICK_CRON", "0 2 * * *"),
			Timezone: getEnv("TICK_TIMEZONE", "UTC"),
		},
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}

	exp, err := time.ParseDuration(getEnv("JWT_EXPIRY", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRY: %w", err)
	}
	cfg.Auth.TokenExp = exp

	concurrency, err := strconv.Atoi(getEnv("TICK_CONCURRENCY", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid TICK_CONCURRENCY: %w", err)
	}
	cfg.Tick.Concurrency = concurrency

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT must not be empty")
	}
	if c.Auth.TokenExp <= 0 {
		return errors.New("JWT_EXPIRY must be positive")
	}
	if _, err := cron.ParseStandard(c.Tick.Cron); err != nil {
		return fmt.Errorf("invalid TICK_CRON %q: %w", c.Tick.Cron, err)
	}
	if _, err := c.Tick.Location(); err != nil {
		return fmt.Errorf("invalid TICK_TIMEZONE %q: %w", c.Tick.Timezone, err)
	}
	if c.Tick.Concurrency <= 0 {
		return errors.New("TICK_CONCURRENCY must be positive")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid LOG_FORMAT %q: want text or json", c.LogFormat)
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	return nil
}

// ConfigureLogging applies the log level and format to the standard logrus logger.
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

// UsesDefaultSecret reports whether JWT_SECRET was left unset.
func (c *Config) UsesDefaultSecret() bool {
	return c.Auth.JWTSecret == defaultJWTSecret
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
