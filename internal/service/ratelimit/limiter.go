// Package ratelimit provides a keyed token bucket for throttling expensive
// API triggers (scans, backtests) per caller.
package ratelimit

import (
	"sync"
	"time"
)

// Buckets idle longer than this are dropped on the next sweep so one-off
// caller IPs do not accumulate forever.
const staleAfter = time.Hour

type bucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

// Limiter maintains one token bucket per key. Capacity and refill rate travel
// with each Allow call so different operations can share one limiter with
// different budgets.
type Limiter struct {
	mu        sync.Mutex
	m         map[string]*bucket
	lastSweep time.Time
}

func New() *Limiter {
	return &Limiter{m: make(map[string]*bucket), lastSweep: time.Now()}
}

// Allow consumes one token for key if available. A new key starts with a full
// bucket.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
		l.m[key] = b
	}

	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * b.refillRate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.last = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops buckets that have not been touched within staleAfter. Runs at
// most once per sweep interval; callers hold l.mu.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < staleAfter {
		return
	}
	for k, b := range l.m {
		if now.Sub(b.last) >= staleAfter {
			delete(l.m, k)
		}
	}
	l.lastSweep = now
}
