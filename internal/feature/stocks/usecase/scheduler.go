package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stock_watch/internal/feature/stocks/domain/entity"
)

const (
	// DefaultPriceInterval はお気に入り銘柄の価格を再取得する間隔です。
	DefaultPriceInterval = 15 * time.Second
	// DefaultListInterval は銘柄一覧を再取得する間隔です。
	DefaultListInterval = time.Hour
)

// SchedulerConfig controls the periodic fetch cycles.
type SchedulerConfig struct {
	PriceInterval time.Duration // price tick cycle
	ListInterval  time.Duration // full list cycle; negative disables it
	FavoritesOnly bool          // refresh prices for favorites only
}

// Scheduler drives periodic fetches and feeds the results to the Reconciler.
type Scheduler struct {
	fetcher MarketFetcher
	rec     *Reconciler
	cfg     SchedulerConfig
}

// NewScheduler creates a Scheduler. Zero intervals fall back to the defaults.
func NewScheduler(fetcher MarketFetcher, rec *Reconciler, cfg SchedulerConfig) *Scheduler {
	if cfg.PriceInterval <= 0 {
		cfg.PriceInterval = DefaultPriceInterval
	}
	if cfg.ListInterval == 0 {
		cfg.ListInterval = DefaultListInterval
	}
	return &Scheduler{fetcher: fetcher, rec: rec, cfg: cfg}
}

// Run performs an initial full list refresh and then ticks until ctx is cancelled.
// Cancelling ctx stops the cycles; queued store writes are not affected.
func (s *Scheduler) Run(ctx context.Context) error {
	// failures are reported to subscribers by the refresh itself
	if s.cfg.ListInterval > 0 {
		s.RefreshList(ctx)
	}
	s.RefreshPrices(ctx)

	priceTicker := time.NewTicker(s.cfg.PriceInterval)
	defer priceTicker.Stop()

	var listC <-chan time.Time
	if s.cfg.ListInterval > 0 {
		listTicker := time.NewTicker(s.cfg.ListInterval)
		defer listTicker.Stop()
		listC = listTicker.C
	}

	slog.Info("scheduler started", "price_interval", s.cfg.PriceInterval, "list_interval", s.cfg.ListInterval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return nil
		case <-listC:
			s.RefreshList(ctx)
		case <-priceTicker.C:
			s.RefreshPrices(ctx)
		}
	}
}

// RefreshList fetches the full stock list and replaces the cache with it.
func (s *Scheduler) RefreshList(ctx context.Context) error {
	entries, err := s.fetcher.FetchStockList(ctx)
	if err != nil {
		err = fmt.Errorf("fetch stock list: %w", err)
		s.rec.ReportFailure(err)
		return err
	}
	s.rec.ApplyStockList(entries)
	return nil
}

// RefreshPrices fetches prices for the tracked symbols and merges them.
func (s *Scheduler) RefreshPrices(ctx context.Context) error {
	symbols := s.trackedSymbols()
	if len(symbols) == 0 {
		return nil
	}
	ticks, err := s.fetcher.FetchPrices(ctx, symbols)
	if err != nil {
		err = fmt.Errorf("fetch prices: %w", err)
		s.rec.ReportFailure(err)
		return err
	}
	s.rec.ApplyPrices(ticks)
	return nil
}

// RequestProfiles fetches profiles for the given symbols, typically the rows
// currently visible to a user. Symbols that are unknown or already carry
// profile data are skipped. It returns the number of profiles applied.
func (s *Scheduler) RequestProfiles(ctx context.Context, symbols []string) (int, error) {
	profiles := make([]entity.Profile, 0, len(symbols))
	var errs []error
	seen := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}

		cached, err := s.rec.Find(sym)
		if err != nil || cached.HasProfileData {
			continue
		}
		p, err := s.fetcher.FetchProfile(ctx, sym)
		if err != nil {
			// 1銘柄の失敗で他の銘柄の取得は止めない
			slog.Error("failed to fetch profile", "symbol", sym, "error", err)
			errs = append(errs, fmt.Errorf("fetch profile %s: %w", sym, err))
			continue
		}
		p.Symbol = sym
		profiles = append(profiles, p)
	}

	applied := 0
	if len(profiles) > 0 {
		applied = len(s.rec.ApplyProfiles(profiles))
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		s.rec.ReportFailure(err)
		return applied, err
	}
	return applied, nil
}

func (s *Scheduler) trackedSymbols() []string {
	var stocks []entity.Stock
	if s.cfg.FavoritesOnly {
		stocks = s.rec.Favorites()
	} else {
		stocks = s.rec.Snapshot()
	}
	out := make([]string, 0, len(stocks))
	for _, st := range stocks {
		out = append(out, st.Symbol)
	}
	return out
}
