package ws

import (
	"sync"
	"time"
)

// rateLimiter is a sliding-window limiter for one connection's inbound
// frames.
type rateLimiter struct {
	mu       sync.Mutex
	history  []time.Time
	limit    int
	interval time.Duration
}

func newRateLimiter(limit int, interval time.Duration) *rateLimiter {
	return &rateLimiter{limit: limit, interval: interval}
}

func (rl *rateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.interval)

	fresh := rl.history[:0]
	for _, t := range rl.history {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}
	rl.history = fresh

	if len(rl.history) >= rl.limit {
		return false
	}
	rl.history = append(rl.history, now)
	return true
}
