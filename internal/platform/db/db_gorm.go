// Package db opens the gorm connection backing the persistent stock store.
package db

import (
	"fmt"
	"log/slog"
	"time"

	stockadapters "stock_watch/internal/feature/stocks/adapters"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	connectTimeout = 60 * time.Second
	retryInterval  = 3 * time.Second
)

// Config holds the database connection settings.
type Config struct {
	Driver        string // "sqlite" or "postgres"
	Path          string // sqlite database file
	Host          string
	Port          string
	User          string
	Password      string
	Name          string
	RunMigrations bool
}

// Opener opens a gorm connection for a DSN.
type Opener func(dsn string) (*gorm.DB, error)

// BuildDSN はドライバに応じた接続文字列を生成します。
func BuildDSN(cfg Config) string {
	if cfg.Driver == "postgres" {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port)
	}
	if cfg.Path == "" {
		return "file::memory:"
	}
	return cfg.Path
}

// OpenerFor returns the gorm opener for the configured driver.
func OpenerFor(driver string) (Opener, error) {
	switch driver {
	case "postgres":
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), &gorm.Config{})
		}, nil
	case "sqlite", "":
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
		}, nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

// ConnectWithRetry は接続に成功するかtimeoutを超えるまで3秒間隔でリトライします。
func ConnectWithRetry(dsn string, timeout time.Duration, opener Opener) (*gorm.DB, error) {
	return connectWithRetry(dsn, timeout, retryInterval, opener)
}

func connectWithRetry(dsn string, timeout, interval time.Duration, opener Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("db connect failed after %v: %w", timeout, err)
		}
		slog.Warn("db connect failed, retrying", "error", err)
		time.Sleep(interval)
	}
}

// Open connects to the configured database and migrates the stocks table when enabled.
// Failure here is the only unrecoverable condition of the service.
func Open(cfg Config) (*gorm.DB, error) {
	opener, err := OpenerFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := ConnectWithRetry(BuildDSN(cfg), connectTimeout, opener)
	if err != nil {
		return nil, err
	}

	if cfg.Driver != "postgres" {
		// sqlite は単一ライターのため接続を1本に絞る
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if cfg.RunMigrations {
		if err := db.AutoMigrate(&stockadapters.StockModel{}); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}
	slog.Info("database ready", "driver", cfg.Driver)
	return db, nil
}
