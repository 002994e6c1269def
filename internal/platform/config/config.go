// Package config loads application configuration from .env, environment variables and defaults.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	App   AppConfig   `mapstructure:"app"`
	DB    DBConfig    `mapstructure:"db"`
	Redis RedisConfig `mapstructure:"redis"`
	FMP   FMPConfig   `mapstructure:"fmp"`
	Sync  SyncConfig  `mapstructure:"sync"`
}

type AppConfig struct {
	Port            string        `mapstructure:"port"`
	CORS            bool          `mapstructure:"cors"` // ブラウザからSSEを購読する場合に有効化
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DBConfig struct {
	Driver        string `mapstructure:"driver"` // "sqlite" or "postgres"
	Path          string `mapstructure:"path"`   // sqlite file
	Host          string `mapstructure:"host"`
	Port          string `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Name          string `mapstructure:"name"`
	RunMigrations bool   `mapstructure:"run_migrations"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type FMPConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	ChunkSize int           `mapstructure:"chunk_size"`
	RateLimit int           `mapstructure:"rate_limit"` // calls per minute, 0 = unlimited
}

type SyncConfig struct {
	PriceInterval  time.Duration `mapstructure:"price_interval"`
	ListInterval   time.Duration `mapstructure:"list_interval"`
	FavoritesOnly  bool          `mapstructure:"favorites_only"`
	WriteQueueSize int           `mapstructure:"write_queue_size"`
	QueuePolicy    string        `mapstructure:"queue_policy"`
}

var keys = []string{
	"app.port", "app.cors", "app.shutdown_timeout",
	"db.driver", "db.path", "db.host", "db.port", "db.user", "db.password", "db.name", "db.run_migrations",
	"redis.enabled", "redis.addr", "redis.password", "redis.db", "redis.ttl",
	"fmp.api_key", "fmp.base_url", "fmp.timeout", "fmp.chunk_size", "fmp.rate_limit",
	"sync.price_interval", "sync.list_interval", "sync.favorites_only", "sync.write_queue_size", "sync.queue_policy",
}

// Load reads configuration from a .env file (if present), environment
// variables and defaults. Keys map to upper-case env names with "_"
// separators, e.g. "sync.price_interval" -> SYNC_PRICE_INTERVAL.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info(".env not found; using system environment variables")
	}
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("app.port", ":8080")
	v.SetDefault("app.cors", false)
	v.SetDefault("app.shutdown_timeout", 10*time.Second)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "./stocks.db")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.run_migrations", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 5*time.Minute)

	v.SetDefault("fmp.base_url", "https://financialmodelingprep.com")
	v.SetDefault("fmp.timeout", 10*time.Second)
	v.SetDefault("fmp.chunk_size", 50)
	v.SetDefault("fmp.rate_limit", 250)

	v.SetDefault("sync.price_interval", 15*time.Second)
	v.SetDefault("sync.list_interval", time.Hour)
	v.SetDefault("sync.favorites_only", true)
	v.SetDefault("sync.write_queue_size", 64)
	v.SetDefault("sync.queue_policy", "reject-new")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			slog.Warn("could not bind env var", "key", key, "error", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	switch cfg.DB.Driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DB.Driver)
	}
	if cfg.Sync.PriceInterval <= 0 {
		return nil, fmt.Errorf("sync.price_interval must be positive, got %v", cfg.Sync.PriceInterval)
	}
	return &cfg, nil
}
