// Package dispatch fetches batches of HTML pages concurrently and streams
// one core.CrawlResult per URL. Two renderers are provided: a plain HTTP
// collector (colly) and a headless browser (chromedp).
package dispatch

import (
	"context"
	"math/rand/v2"
	"slices"
	"time"
)

// Rate limiter defaults.
const (
	DefaultBaseDelayMin = 1 * time.Second
	DefaultBaseDelayMax = 3 * time.Second
	DefaultMaxDelay     = 30 * time.Second
	DefaultMaxRetries   = 2
)

// DefaultRetryCodes are the statuses treated as "slow down".
var DefaultRetryCodes = []int{429, 503}

// RateLimiter decides politeness delays and retries for rate-limited
// responses. Backoff doubles per attempt with ±25% jitter, capped at MaxDelay.
type RateLimiter struct {
	BaseDelayMin time.Duration
	BaseDelayMax time.Duration
	MaxDelay     time.Duration
	MaxRetries   int
	Codes        []int

	random func() float64
}

// NewRateLimiter creates a RateLimiter. A nil codes slice uses DefaultRetryCodes.
func NewRateLimiter(baseMin, baseMax, maxDelay time.Duration, maxRetries int, codes []int) *RateLimiter {
	if baseMax < baseMin {
		baseMax = baseMin
	}
	if codes == nil {
		codes = DefaultRetryCodes
	}
	return &RateLimiter{
		BaseDelayMin: baseMin,
		BaseDelayMax: baseMax,
		MaxDelay:     maxDelay,
		MaxRetries:   maxRetries,
		Codes:        codes,
		random:       rand.Float64,
	}
}

// ShouldRetry reports whether a response with status may be retried after
// attempt retries have already been made.
func (l *RateLimiter) ShouldRetry(status, attempt int) bool {
	return attempt < l.MaxRetries && slices.Contains(l.Codes, status)
}

// BaseDelay returns a uniformly random delay in [BaseDelayMin, BaseDelayMax].
func (l *RateLimiter) BaseDelay() time.Duration {
	span := l.BaseDelayMax - l.BaseDelayMin
	return l.BaseDelayMin + time.Duration(l.random()*float64(span))
}

// Backoff returns the wait before retry number attempt+1.
func (l *RateLimiter) Backoff(attempt int) time.Duration {
	d := float64(l.BaseDelay())
	for i := 0; i <= attempt; i++ {
		d *= 2 * (0.75 + 0.5*l.random())
	}
	if l.MaxDelay > 0 && d > float64(l.MaxDelay) {
		return l.MaxDelay
	}
	return time.Duration(d)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
