// Package ratelimiter throttles calls to external APIs.
package ratelimiter

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	// WaitIfNeeded は呼び出し枠が空くまで待機します。ctxがキャンセルされた場合はエラーを返します。
	WaitIfNeeded(ctx context.Context) error
}

// RateLimiter は interval あたり limit 回までの呼び出しを許可します。
// 最初の limit 回はバーストとして即座に通し、以降は均等な間隔に平準化します。
// スケジューラとHTTPハンドラーから同時に呼ばれても安全です。
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。
// limitが0以下の場合は制限しません。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 || interval <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	every := interval / time.Duration(limit)
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(every), limit)}
}

// WaitIfNeeded はレートリミットの上限に達しているかを確認し、必要であれば待機します。
func (rl *RateLimiter) WaitIfNeeded(ctx context.Context) error {
	r := rl.limiter.Reserve()
	if !r.OK() {
		return rl.limiter.Wait(ctx)
	}
	delay := r.Delay()
	if delay == 0 {
		return nil
	}
	slog.Info("rate limit reached, waiting", "wait", delay)
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}
