package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	redisv9 "github.com/redis/go-redis/v9"

	"stock_watch/internal/app/di"
	"stock_watch/internal/app/router"
	stockhandler "stock_watch/internal/feature/stocks/transport/handler"
	"stock_watch/internal/feature/stocks/usecase"
	"stock_watch/internal/platform/config"
	infradb "stock_watch/internal/platform/db"
	"stock_watch/internal/platform/http/handler"
	infraredis "stock_watch/internal/platform/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// db
	db, err := infradb.Open(infradb.Config{
		Driver:        cfg.DB.Driver,
		Path:          cfg.DB.Path,
		Host:          cfg.DB.Host,
		Port:          cfg.DB.Port,
		User:          cfg.DB.User,
		Password:      cfg.DB.Password,
		Name:          cfg.DB.Name,
		RunMigrations: cfg.DB.RunMigrations,
	})
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}

	// Redis
	var rdb *redisv9.Client
	if cfg.Redis.Enabled {
		tmp, err := infraredis.NewRedisClient(ctx, infraredis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			slog.Warn("Redis unavailable. Running without snapshot cache.", "error", err)
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close Redis client", "error", err)
				}
			}()
		}
	}

	// Repository
	repo := di.NewStockRepository(db, rdb, cfg.Redis.TTL)
	writer, err := di.NewAsyncStore(repo, cfg.Sync)
	if err != nil {
		log.Fatalf("invalid write queue config: %v", err)
	}
	writer.Start()

	// Usecase
	cache := usecase.NewMemoryCache()
	rec := usecase.NewReconciler(cache, repo, writer, usecase.NewNotifier(0))
	// 読み込み失敗時は空のキャッシュで起動を続ける
	_ = rec.Seed(ctx)

	market := di.NewMarket(cfg.FMP)
	sched := usecase.NewScheduler(market, rec, usecase.SchedulerConfig{
		PriceInterval: cfg.Sync.PriceInterval,
		ListInterval:  cfg.Sync.ListInterval,
		FavoritesOnly: cfg.Sync.FavoritesOnly,
	})
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		_ = sched.Run(ctx)
	}()

	// Handler
	healthH := handler.NewHealthHandler(cache, writer)
	stockH := stockhandler.NewStockHandler(rec, sched, rec.Notifier())

	// ルータ生成
	r := router.NewRouter(healthH, stockH, router.Options{CORS: cfg.App.CORS})
	srv := &http.Server{
		Addr:    cfg.App.Port,
		Handler: r,
		// シグナル受信時にSSEストリームも閉じる
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		slog.Info("http server listening", "addr", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}
	<-schedDone

	// キューに残った書き込みを反映してから終了する
	if err := writer.Close(shutdownCtx); err != nil {
		slog.Error("write queue did not drain", "pending", writer.Pending(), "error", err)
	}
}
