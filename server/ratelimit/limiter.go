// Package ratelimit throttles expensive generation endpoints per client IP.
// Generation requests fan out into up to two model calls, so a single
// misbehaving client can burn real money without a cap here.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(key string) bool

	// Remaining reports how many requests the key has left in the
	// current window.
	Remaining(key string) int
}

// SlidingWindowLimiter keeps per-key request timestamps and allows at
// most limit requests within the trailing window.
type SlidingWindowLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	history map[string][]time.Time

	now func() time.Time
}

// NewSlidingWindow creates a limiter allowing limit requests per window.
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindowLimiter {
	l := &SlidingWindowLimiter{
		limit:   limit,
		window:  window,
		history: make(map[string][]time.Time),
		now:     time.Now,
	}
	go l.cleanup()
	return l
}

func (l *SlidingWindowLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.trim(key, now)
	if len(recent) >= l.limit {
		return false
	}
	l.history[key] = append(recent, now)
	return true
}

func (l *SlidingWindowLimiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	remaining := l.limit - len(l.trim(key, l.now()))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// trim drops timestamps older than the window. Caller holds the lock.
func (l *SlidingWindowLimiter) trim(key string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	recent := l.history[key][:0]
	for _, t := range l.history[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	if len(recent) == 0 {
		delete(l.history, key)
		return nil
	}
	l.history[key] = recent
	return recent
}

// cleanup periodically drops idle keys so the map does not grow forever.
func (l *SlidingWindowLimiter) cleanup() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		now := l.now()
		for key := range l.history {
			l.trim(key, now)
		}
		l.mu.Unlock()
	}
}
