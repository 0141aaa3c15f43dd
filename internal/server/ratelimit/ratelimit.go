// Package ratelimit provides per-client rate limiting using a token bucket.
package ratelimit

import (
	"sync"
	"time"
)

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled bool
	// Limit is the sustained request rate per client per Window.
	Limit  int
	Window time.Duration
	// Burst is the bucket capacity; zero means Limit.
	Burst int
}

// DefaultConfig suits an agent API where session creation drives a browser
// and an LLM call: low sustained rate, small burst.
func DefaultConfig() *Config {
	return &Config{
		Enabled: true,
		Limit:   60,
		Window:  time.Minute,
		Burst:   10,
	}
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// Limiter manages token buckets keyed by client ID. Buckets idle for more
// than an hour are dropped on the fly during Allow.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	cfg     *Config
	now     func() time.Time

	lastSweep time.Time
}

// NewLimiter creates a limiter with the given configuration. A nil config
// uses DefaultConfig.
func NewLimiter(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.Limit
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		cfg:     cfg,
		now:     time.Now,
	}
}

// Allow consumes one token for the client and reports whether the request
// may proceed.
func (l *Limiter) Allow(clientID string) (bool, Info) {
	if !l.cfg.Enabled || l.cfg.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	refillRate := float64(l.cfg.Limit) / l.cfg.Window.Seconds()

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.maybeSweep(now)

	b, ok := l.buckets[clientID]
	if !ok {
		b = &bucket{tokens: float64(l.cfg.Burst), lastRefill: now}
		l.buckets[clientID] = b
	}

	b.tokens += now.Sub(b.lastRefill).Seconds() * refillRate
	if b.tokens > float64(l.cfg.Burst) {
		b.tokens = float64(l.cfg.Burst)
	}
	b.lastRefill = now

	allowed := b.tokens >= 1.0
	if allowed {
		b.tokens -= 1.0
	}

	info := Info{
		Allowed:   allowed,
		Limit:     l.cfg.Limit,
		Remaining: int(b.tokens),
	}
	if b.tokens < float64(l.cfg.Burst) {
		deficit := float64(l.cfg.Burst) - b.tokens
		info.ResetTime = now.Add(time.Duration(deficit / refillRate * float64(time.Second)))
	} else {
		info.ResetTime = now
	}
	if !allowed {
		wait := (1.0 - b.tokens) / refillRate
		info.RetryAfter = time.Duration(wait * float64(time.Second))
	}

	return allowed, info
}

// maybeSweep drops buckets untouched for over an hour. Runs at most once
// per cleanup interval; caller holds l.mu.
func (l *Limiter) maybeSweep(now time.Time) {
	const sweepEvery = 5 * time.Minute
	if now.Sub(l.lastSweep) < sweepEvery {
		return
	}
	l.lastSweep = now

	cutoff := now.Add(-1 * time.Hour)
	for id, b := range l.buckets {
		if b.lastRefill.Before(cutoff) {
			delete(l.buckets, id)
		}
	}
}
