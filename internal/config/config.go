package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ahmethakanbesel/apor-sync/internal/category"
	"github.com/ahmethakanbesel/apor-sync/internal/feed"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	DBDriver     string
	DBPath       string
	DatabaseURL  string
	FeedBaseURL  string
	FetchTimeout time.Duration
	MaxFeedBytes int64
	Categories   []category.Category
	LogLevel     slog.Level
	LogFormat    string
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DB_PATH", "apor.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("FEED_BASE_URL", feed.DefaultBaseURL)
	v.SetDefault("FETCH_TIMEOUT", "30s")
	v.SetDefault("MAX_FEED_BYTES", 10<<20)
	v.SetDefault("CATEGORIES", "fixed,adjustable")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DBDriver:     strings.ToLower(v.GetString("DB_DRIVER")),
		DBPath:       v.GetString("DB_PATH"),
		DatabaseURL:  v.GetString("DATABASE_URL"),
		FeedBaseURL:  v.GetString("FEED_BASE_URL"),
		MaxFeedBytes: v.GetInt64("MAX_FEED_BYTES"),
		LogFormat:    strings.ToLower(v.GetString("LOG_FORMAT")),
	}

	switch cfg.DBDriver {
	case DriverSQLite:
		if cfg.DBPath == "" {
			return nil, fmt.Errorf("DB_PATH must be set for the sqlite driver")
		}
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL must be set for the postgres driver")
		}
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER %q: must be %s or %s", cfg.DBDriver, DriverSQLite, DriverPostgres)
	}

	timeout, err := time.ParseDuration(v.GetString("FETCH_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_TIMEOUT: %w", err)
	}
	cfg.FetchTimeout = timeout

	cats, err := category.ParseList(v.GetString("CATEGORIES"))
	if err != nil {
		return nil, fmt.Errorf("invalid CATEGORIES: %w", err)
	}
	cfg.Categories = cats

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("LOG_LEVEL"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: must be text or json", cfg.LogFormat)
	}

	return cfg, nil
}
