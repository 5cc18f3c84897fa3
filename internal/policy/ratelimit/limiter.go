// Package ratelimit implements a per-host floor rate limiter. The security
// manager's adaptive pacing is the primary throttle; this limiter is the hard
// floor underneath it, so a pacing bug can never hammer the target.
package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jobsweep/linkedin-crawler/internal/metrics"
)

// Limiter manages per-host token buckets.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	floor    rate.Limit
	burst    int
}

// Config holds rate limiter configuration.
type Config struct {
	// FloorRPS is the maximum requests per second allowed against any one
	// host. Zero or negative disables the floor.
	FloorRPS float64
	// Burst is the bucket size; values below 1 become 1.
	Burst int
}

// New creates a Limiter.
func New(cfg Config) *Limiter {
	r := rate.Limit(cfg.FloorRPS)
	if cfg.FloorRPS <= 0 {
		r = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		floor:    r,
		burst:    burst,
	}
}

// Wait blocks until a token is available for the host of rawURL, or the
// context ends. Waits longer than a millisecond are recorded as pace delay.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host := "unknown"
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}

	l.mu.Lock()
	limiter, ok := l.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(l.floor, l.burst)
		l.limiters[host] = limiter
	}
	l.mu.Unlock()

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if d := time.Since(start); d > time.Millisecond {
		metrics.ObservePaceDelay(host, d)
	}
	return nil
}
