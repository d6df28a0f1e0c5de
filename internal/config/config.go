package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Shopify     ShopifyConfig
	Auth        AuthConfig
	Sync        SyncConfig
	LogLevel    string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ShopifyConfig carries the admin API version and outbound courtesy limits.
// Store credentials live on groups, not here; this service talks to many shops.
type ShopifyConfig struct {
	APIVersion  string
	StoreRPS    float64 // per-store requests per second during fan-out
	MaxInFlight int     // concurrent uploads per dispatch invocation
}

type AuthConfig struct {
	JWTSecret  string
	SessionTTL time.Duration
	BcryptCost int
}

type SyncConfig struct {
	PollInterval time.Duration
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SHOPIFY_API_VERSION", "2024-01")
	viper.SetDefault("SHOPIFY_STORE_RPS", "2")
	viper.SetDefault("SHOPIFY_MAX_IN_FLIGHT", "4")
	viper.SetDefault("SESSION_TTL_HOURS", "720")
	viper.SetDefault("SYNC_POLL_INTERVAL_SECONDS", "60")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "storesync"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Shopify: ShopifyConfig{
			APIVersion:  getEnvOrViper("SHOPIFY_API_VERSION", "2024-01"),
			StoreRPS:    viper.GetFloat64("SHOPIFY_STORE_RPS"),
			MaxInFlight: viper.GetInt("SHOPIFY_MAX_IN_FLIGHT"),
		},
		Auth: AuthConfig{
			JWTSecret:  strings.TrimSpace(getEnvOrViper("JWT_SECRET", "")),
			SessionTTL: time.Duration(viper.GetInt("SESSION_TTL_HOURS")) * time.Hour,
			BcryptCost: 10,
		},
		Sync: SyncConfig{
			PollInterval: time.Duration(viper.GetInt("SYNC_POLL_INTERVAL_SECONDS")) * time.Second,
		},
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Shopify.StoreRPS <= 0 {
		return nil, fmt.Errorf("SHOPIFY_STORE_RPS must be positive")
	}
	if cfg.Shopify.MaxInFlight < 1 {
		return nil, fmt.Errorf("SHOPIFY_MAX_IN_FLIGHT must be at least 1")
	}
	if cfg.Sync.PollInterval < time.Second {
		return nil, fmt.Errorf("SYNC_POLL_INTERVAL_SECONDS must be at least 1")
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
