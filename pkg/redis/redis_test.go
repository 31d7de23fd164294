package redis

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/edupulse/backend/pkg/config"
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
	cfg := ActivityRateLimit("S001", 30, time.Minute)

	allowed, remaining, err := limiter.Allow(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, cfg.Limit, remaining)
}

func TestWindowMember_UniqueWithinMillisecond(t *testing.T) {
	a, b := windowMember(1700000000000), windowMember(1700000000000)
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "1700000000000-"), a)
}

func TestLock_Disabled(t *testing.T) {
	lock := NewLock(disabledClient(t), "test")
	ctx := context.Background()

	first, ok, err := lock.Acquire(ctx, "rescore", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, first)

	// nothing to contend with, a second caller also gets through
	_, ok, err = lock.Acquire(ctx, "rescore", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, lock.Release(ctx, "rescore", first))
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, "key", "value", TTLShort))
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCache_GetOrSetComputesOnMiss(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")

	calls := 0
	var got map[string]int
	err := cache.GetOrSet(context.Background(), DashboardStatsKey(), &got, TTLShort, func() (interface{}, error) {
		calls++
		return map[string]int{"red": 3}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, got["red"])
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"DashboardStatsKey", DashboardStatsKey(), "dashboard:stats"},
		{"RiskDistributionKey", RiskDistributionKey(), "dashboard:risk-distribution"},
		{"ClusterOverviewKey", ClusterOverviewKey(), "clusters:overview"},
		{"CounselorSummaryKey", CounselorSummaryKey(), "counselors:summary"},
		{"ActivityRateLimit", ActivityRateLimit("S001", 1, time.Second).Key, "activity:S001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}

func TestDashboardKeys(t *testing.T) {
	assert.Len(t, DashboardKeys(), 4)
	assert.Contains(t, DashboardKeys(), DashboardStatsKey())
}

func TestRateLimiter_Live(t *testing.T) {
	if os.Getenv("REDIS_ENABLED") != "true" {
		t.Skip("REDIS_ENABLED not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	client, err := New(cfg)
	require.NoError(t, err)
	defer client.Close()

	limiter := NewRateLimiter(client, "edupulse-test")
	rl := ActivityRateLimit("live-"+time.Now().Format("150405.000"), 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, _, err := limiter.Allow(ctx, rl)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, remaining, err := limiter.Allow(ctx, rl)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Zero(t, remaining)
}

func TestLock_Live(t *testing.T) {
	if os.Getenv("REDIS_ENABLED") != "true" {
		t.Skip("REDIS_ENABLED not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	client, err := New(cfg)
	require.NoError(t, err)
	defer client.Close()

	lock := NewLock(client, "edupulse-test")
	name := "live-" + time.Now().Format("150405.000")
	ctx := context.Background()

	token, ok, err := lock.Acquire(ctx, name, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = lock.Acquire(ctx, name, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held lock must refuse a second owner")

	// a stale token does not free someone else's lock
	require.NoError(t, lock.Release(ctx, name, "not-the-owner"))
	_, ok, err = lock.Acquire(ctx, name, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lock.Release(ctx, name, token))
	again, ok, err := lock.Acquire(ctx, name, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "released lock can be taken again")
	require.NoError(t, lock.Release(ctx, name, again))
}
