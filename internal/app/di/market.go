// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"stock_watch/internal/platform/config"
	"stock_watch/internal/platform/externalapi/fmp"
	infrahttp "stock_watch/internal/platform/http"
	"stock_watch/internal/shared/ratelimiter"
)

// NewMarket creates a fully configured FMP client with HTTP client and rate limiter.
func NewMarket(cfg config.FMPConfig) *fmp.Client {
	fcfg := fmp.Config{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		ChunkSize: cfg.ChunkSize,
	}
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	limiter := ratelimiter.NewRateLimiter(cfg.RateLimit, time.Minute)
	return fmp.NewClient(fcfg, httpClient, limiter)
}
