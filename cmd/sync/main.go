package main

import (
	"context"
	"log"
	"time"

	"stock_watch/internal/app/di"
	"stock_watch/internal/feature/stocks/usecase"
	"stock_watch/internal/platform/config"
	infradb "stock_watch/internal/platform/db"
)

// 一回だけ銘柄一覧と価格を取得してDBに保存する
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

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
		log.Fatal("failed to open store:", err)
	}

	repo := di.NewStockRepository(db, nil, 0)
	writer, err := di.NewAsyncStore(repo, cfg.Sync)
	if err != nil {
		log.Fatal(err)
	}
	writer.Start()

	rec := usecase.NewReconciler(usecase.NewMemoryCache(), repo, writer, nil)
	sched := usecase.NewScheduler(di.NewMarket(cfg.FMP), rec, usecase.SchedulerConfig{
		FavoritesOnly: cfg.Sync.FavoritesOnly,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := rec.Seed(ctx); err != nil {
		log.Println("[WARN] starting from an empty cache:", err)
	}
	if err := sched.RefreshList(ctx); err != nil {
		log.Fatal(err)
	}
	if err := sched.RefreshPrices(ctx); err != nil {
		log.Println("[WARN] price refresh failed:", err)
	}

	if err := writer.Close(ctx); err != nil {
		log.Fatal("write queue did not drain:", err)
	}
	log.Printf("sync ok: %d stocks", len(rec.Snapshot()))
}
