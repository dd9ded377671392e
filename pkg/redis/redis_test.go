package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradingquiz/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")

	cfg := LoginRateLimit("alice")
	for i := 0; i < cfg.Limit*2; i++ {
		allowed, remaining, err := limiter.Allow(context.Background(), cfg)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, cfg.Limit, remaining)
	}
	assert.NoError(t, limiter.Wait(context.Background(), CoinGeckoRateLimit))
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	ctx := context.Background()

	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, "key", "value", time.Minute))
	assert.NoError(t, cache.Delete(ctx, "key"))
	assert.NoError(t, cache.DeletePattern(ctx, LeaderboardPattern))
}

func TestCache_GetOrSetDisabledCallsLoader(t *testing.T) {
	cache := NewCache(Disabled(), "test")

	calls := 0
	var got []int
	err := cache.GetOrSet(context.Background(), "k", &got, time.Minute, func() (interface{}, error) {
		calls++
		return []int{1, 2, 3}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"LeaderboardKey", LeaderboardKey(100), "leaderboard:top:100"},
		{"PriceHistoryKey", PriceHistoryKey("bitcoin", 180), "history:bitcoin:180"},
		{"LoginRateLimit", LoginRateLimit("Alice").Key, "login:alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}

	assert.Equal(t, time.Hour, PriceHistoryTTL)
}

// Integration test; requires a running Redis at REDIS_HOST.
func TestRateLimiter_Integration(t *testing.T) {
	if testing.Short() || os.Getenv("REDIS_HOST") == "" {
		t.Skip("REDIS_HOST not set, skipping integration test")
	}

	cfg, err := config.Load()
	if err != nil {
		cfg = &config.Config{}
		cfg.Redis.Host = os.Getenv("REDIS_HOST")
		cfg.Redis.Port = "6379"
	}
	cfg.Redis.Enabled = true

	client, err := New(cfg)
	require.NoError(t, err)
	defer client.Close()

	limiter := NewRateLimiter(client, "test-"+time.Now().Format("150405.000000"))
	rl := RateLimitConfig{Key: "burst", Limit: 3, Window: time.Minute}

	for i := 0; i < 3; i++ {
		allowed, _, err := limiter.Allow(context.Background(), rl)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, remaining, err := limiter.Allow(context.Background(), rl)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
}
