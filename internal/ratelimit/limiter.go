// Package ratelimit throttles model requests by request count and
// estimated token volume.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter provides rate limiting for model API requests.
type Limiter struct {
	requests *rate.Limiter
	tokens   *rate.Limiter
	tokenCap int

	mu              sync.Mutex
	totalRequests   int64
	blockedRequests int64
	totalTokens     int64
}

// Config holds rate limiter configuration. Zero limits disable that axis.
type Config struct {
	RequestsPerMinute int
	TokensPerMinute   int64
	BurstSize         int
}

// NewLimiter creates a rate limiter with the given configuration.
func NewLimiter(cfg Config) *Limiter {
	burst := cfg.BurstSize
	if burst < 1 {
		burst = 1
	}
	l := &Limiter{
		requests: rate.NewLimiter(rate.Inf, burst),
		tokens:   rate.NewLimiter(rate.Inf, 1),
	}
	if cfg.RequestsPerMinute > 0 {
		l.requests.SetLimit(rate.Limit(float64(cfg.RequestsPerMinute) / 60.0))
	}
	if cfg.TokensPerMinute > 0 {
		// Allow 10% of the minute budget in one burst.
		l.tokenCap = int(cfg.TokensPerMinute / 10)
		if l.tokenCap < 1 {
			l.tokenCap = 1
		}
		l.tokens = rate.NewLimiter(rate.Limit(float64(cfg.TokensPerMinute)/60.0), l.tokenCap)
	}
	return l
}

// Wait blocks until a request slot and token capacity are available or ctx
// ends. Estimates above the burst are clamped so a huge prompt still runs.
func (l *Limiter) Wait(ctx context.Context, estimatedTokens int64) error {
	l.mu.Lock()
	l.totalRequests++
	l.mu.Unlock()

	if !l.requests.Allow() {
		l.recordBlocked()
		if err := l.requests.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	n := l.charged(estimatedTokens)
	if n == 0 {
		return nil
	}
	if !l.tokens.AllowN(time.Now(), n) {
		l.recordBlocked()
		if err := l.tokens.WaitN(ctx, n); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}
	return nil
}

// charged is the number of tokens Wait takes from the bucket for an
// estimate.
func (l *Limiter) charged(estimatedTokens int64) int {
	if estimatedTokens <= 0 || l.tokenCap == 0 {
		return 0
	}
	if estimatedTokens > int64(l.tokenCap) {
		return l.tokenCap
	}
	return int(estimatedTokens)
}

// RecordUsage records actual token usage after a request completes. Tokens
// used beyond what Wait charged for the estimate are taken from the bucket
// now, which delays the requests that follow.
func (l *Limiter) RecordUsage(estimatedTokens, actualTokens int64) {
	l.mu.Lock()
	l.totalTokens += actualTokens
	l.mu.Unlock()

	if l.tokenCap == 0 {
		return
	}
	now := time.Now()
	// ReserveN refuses more than the burst at once
	for over := actualTokens - int64(l.charged(estimatedTokens)); over > 0; over -= int64(l.tokenCap) {
		n := l.tokenCap
		if over < int64(n) {
			n = int(over)
		}
		l.tokens.ReserveN(now, n)
	}
}

func (l *Limiter) recordBlocked() {
	l.mu.Lock()
	l.blockedRequests++
	l.mu.Unlock()
}

// Stats holds rate limiter statistics.
type Stats struct {
	TotalRequests   int64
	BlockedRequests int64
	TotalTokens     int64
}

// Stats returns rate limiter statistics.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		TotalRequests:   l.totalRequests,
		BlockedRequests: l.blockedRequests,
		TotalTokens:     l.totalTokens,
	}
}

// EstimateTokens estimates the number of tokens for a text, about four
// characters per token.
func EstimateTokens(text string) int64 {
	return int64(len(text) / 4)
}
