package ratelimit

import (
	"sync"
	"time"
)

// window tracks one user's send count inside the current sliding window.
type window struct {
	count       int
	windowStart time.Time
}

// RateLimiter throttles outbound sends per user: a fixed quota inside a
// sliding one-minute window. State is local to this process; a user with two
// open sessions effectively gets double quota.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	quota   int
	period  time.Duration
	now     func() time.Time
}

func NewRateLimiter(quota int, period time.Duration) *RateLimiter {
	if quota <= 0 {
		quota = 10
	}
	if period <= 0 {
		period = time.Minute
	}
	return &RateLimiter{
		windows: make(map[string]*window),
		quota:   quota,
		period:  period,
		now:     time.Now,
	}
}

// TryConsume reports whether the user may send now, consuming one slot if so.
func (rl *RateLimiter) TryConsume(userID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[userID]
	if !ok {
		w = &window{windowStart: now}
		rl.windows[userID] = w
	}

	if now.Sub(w.windowStart) > rl.period {
		w.count = 0
		w.windowStart = now
	}

	if w.count < rl.quota {
		w.count++
		return true
	}
	return false
}

// Remaining returns the slots left in the user's current window.
func (rl *RateLimiter) Remaining(userID string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[userID]
	if !ok {
		return rl.quota
	}
	if rl.now().Sub(w.windowStart) > rl.period {
		return rl.quota
	}
	left := rl.quota - w.count
	if left < 0 {
		return 0
	}
	return left
}

// Cleanup drops windows idle for longer than one full period.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for userID, w := range rl.windows {
		if now.Sub(w.windowStart) > 2*rl.period {
			delete(rl.windows, userID)
		}
	}
}

// StartCleanupRoutine runs Cleanup periodically until stop is closed.
func (rl *RateLimiter) StartCleanupRoutine(stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}
