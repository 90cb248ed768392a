package orchestrator

import (
	"sync"
	"time"
)

// RateLimiter enforces a sliding-window request cap per user
type RateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	limit  int
	stamps map[string][]time.Time
	now    func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		window: window,
		limit:  limit,
		stamps: make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow records the request and reports whether it fits in the window.
// A rejected request is not recorded, so it does not extend the lockout.
func (r *RateLimiter) Allow(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-r.window)

	kept := r.stamps[userID][:0]
	for _, ts := range r.stamps[userID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= r.limit {
		r.stamps[userID] = kept
		return false
	}
	r.stamps[userID] = append(kept, now)
	return true
}
