// Package limiter rate-limits requests per key (usually the client IP).
package limiter

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether one more hit for key is allowed and records it.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Memory is an in-process sliding window limiter.
type Memory struct {
	mu        sync.Mutex
	attempts  map[string][]time.Time
	max       int
	window    time.Duration
	now       func() time.Time
	lastSweep time.Time
}

// NewMemory creates a Memory limiter that allows max hits per window.
func NewMemory(max int, window time.Duration) *Memory {
	return &Memory{
		attempts: make(map[string][]time.Time),
		max:      max,
		window:   window,
		now:      time.Now,
	}
}

// Allow checks the key against the window and records the hit when allowed.
func (l *Memory) Allow(_ context.Context, key string) (bool, error) {
	if l.max <= 0 {
		return true, nil
	}

	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(cutoff)
		l.lastSweep = now
	}

	kept := prune(l.attempts[key], cutoff)
	if len(kept) >= l.max {
		l.attempts[key] = kept
		return false, nil
	}

	l.attempts[key] = append(kept, now)
	return true, nil
}

// sweep drops keys whose hits all fell out of the window.
func (l *Memory) sweep(cutoff time.Time) {
	for key, hits := range l.attempts {
		kept := prune(hits, cutoff)
		if len(kept) == 0 {
			delete(l.attempts, key)
			continue
		}
		l.attempts[key] = kept
	}
}

func prune(hits []time.Time, cutoff time.Time) []time.Time {
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// Unlimited always allows.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (bool, error) { return true, nil }
