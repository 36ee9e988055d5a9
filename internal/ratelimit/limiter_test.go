package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnlimitedNeverBlocks(t *testing.T) {
	l := NewLimiter(Config{})
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(context.Background(), 50000))
	}
	stats := l.Stats()
	assert.Equal(t, int64(100), stats.TotalRequests)
	assert.Zero(t, stats.BlockedRequests)
}

func TestRequestLimitBlocksUntilContextEnds(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 1, BurstSize: 1})
	require.NoError(t, l.Wait(context.Background(), 0))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
	assert.Equal(t, int64(1), l.Stats().BlockedRequests)
}

func TestTokenEstimateClampedToBurst(t *testing.T) {
	l := NewLimiter(Config{TokensPerMinute: 1000})
	// 10x the burst still runs once instead of failing outright.
	require.NoError(t, l.Wait(context.Background(), 10000))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, 100))
}

func TestRecordUsageAndEstimate(t *testing.T) {
	l := NewLimiter(Config{})
	l.RecordUsage(10, 40)
	l.RecordUsage(0, 2)
	assert.Equal(t, int64(42), l.Stats().TotalTokens)
	assert.Equal(t, int64(3), EstimateTokens("abcdefghijkl"))
}

func TestRecordUsageChargesOverage(t *testing.T) {
	// 10 tokens per second, burst 60
	l := NewLimiter(Config{TokensPerMinute: 600})
	require.NoError(t, l.Wait(context.Background(), 10))

	// 50 tokens remain; the request really used 600.
	l.RecordUsage(10, 600)
	assert.Equal(t, int64(600), l.Stats().TotalTokens)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, 1), "bucket is in debt for about a minute")
}

func TestRecordUsageUnderEstimateChargesNothing(t *testing.T) {
	l := NewLimiter(Config{TokensPerMinute: 600})
	require.NoError(t, l.Wait(context.Background(), 30))
	l.RecordUsage(30, 5)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.NoError(t, l.Wait(ctx, 30))
}
