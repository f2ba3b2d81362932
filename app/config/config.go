package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// AppConfig holds all application configuration, loaded from the environment
// (a .env file is read by main before Load is called).
type AppConfig struct {
	Database DatabaseConfig
	Server   ServerConfig
	Webhook  WebhookConfig
	System   SystemConfig
}

// DatabaseConfig holds remote store connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string
}

// ServerConfig holds change feed server settings
type ServerConfig struct {
	WSPort     int
	EnableMDNS bool
}

// WebhookConfig holds outbound new-order webhook settings
type WebhookConfig struct {
	URL     string
	Enabled bool
	Timeout time.Duration
}

// SystemConfig holds local paths and remote call bounds. The source system
// had no explicit timeouts; these defaults are the chosen bounds.
type SystemConfig struct {
	DataDir        string
	DialTimeout    time.Duration // change feed connect
	RefreshTimeout time.Duration // full collection refresh
}

// Load builds the configuration from environment variables with development
// defaults.
func Load() *AppConfig {
	cfg := &AppConfig{
		Database: DatabaseConfig{
			Host:     envString("DB_HOST", "localhost"),
			Port:     envInt("DB_PORT", 5432),
			Database: envString("DB_NAME", "kopipos"),
			Username: envString("DB_USER", "postgres"),
			Password: envString("DB_PASSWORD", "postgres"),
			SSLMode:  envString("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			WSPort:     envInt("WS_PORT", 8080),
			EnableMDNS: envBool("ENABLE_MDNS", true),
		},
		Webhook: WebhookConfig{
			URL:     envString("WEBHOOK_URL", ""),
			Enabled: envBool("WEBHOOK_ENABLED", false),
			Timeout: envDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		},
		System: SystemConfig{
			DataDir:        envString("DATA_DIR", "./data"),
			DialTimeout:    envDuration("FEED_DIAL_TIMEOUT", 10*time.Second),
			RefreshTimeout: envDuration("REFRESH_TIMEOUT", 15*time.Second),
		},
	}

	if cfg.Webhook.Enabled && cfg.Webhook.URL == "" {
		log.Printf("Webhook enabled but WEBHOOK_URL is empty, disabling webhook")
		cfg.Webhook.Enabled = false
	}

	return cfg
}

// DSN constructs the postgres connection string.
// Priority: DATABASE_URL > individual DB_* variables.
func (c *AppConfig) DSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.Username,
		c.Database.Password, c.Database.Database, c.Database.SSLMode)
}

// LocalDBPath returns the path of the offline mirror database.
func (c *AppConfig) LocalDBPath() string {
	return c.System.DataDir + "/local.db"
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %v", key, v, fallback)
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %v", key, v, fallback)
		return fallback
	}
	return d
}
