package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_BurstUnderLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(3, time.Minute)

	start := time.Now()
	for range 3 {
		require.NoError(t, rl.WaitIfNeeded(context.Background()))
	}

	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

// TestRateLimiter_OverLimit は上限を超えた呼び出しで待機することを検証します。
func TestRateLimiter_OverLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(2, 100*time.Millisecond)

	start := time.Now()
	for range 3 {
		require.NoError(t, rl.WaitIfNeeded(context.Background()))
	}

	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

// TestRateLimiter_ContextCancel は待機中にキャンセルされた場合エラーを返すことを検証します。
func TestRateLimiter_ContextCancel(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, time.Hour)
	require.NoError(t, rl.WaitIfNeeded(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := rl.WaitIfNeeded(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiter_Unlimited(t *testing.T) {
	t.Parallel()

	for _, limit := range []int{0, -1} {
		rl := NewRateLimiter(limit, time.Minute)

		start := time.Now()
		for range 100 {
			require.NoError(t, rl.WaitIfNeeded(context.Background()))
		}

		assert.Less(t, time.Since(start), 100*time.Millisecond)
	}
}
