package server

import (
	"sync"
	"time"
)

const (
	rateWindow          = time.Minute
	rateCleanupInterval = 5 * time.Minute
)

// RateLimiter enforces a per-IP sliding window of at most limit requests
// per minute. Idle IPs are dropped by a background cleanup loop.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
	limit   int
	stopCh  chan struct{}

	// now is overridable for tests
	now func() time.Time
}

// NewRateLimiter creates a rate limiter allowing limit requests per minute.
func NewRateLimiter(limit int) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string][]time.Time),
		limit:   limit,
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}

	go rl.cleanupLoop()

	return rl
}

// Allow records a request from ip and reports whether it fits the window.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	recent := inWindow(rl.buckets[ip], now)
	if len(recent) >= rl.limit {
		rl.buckets[ip] = recent
		return false
	}

	rl.buckets[ip] = append(recent, now)
	return true
}

// RetryAfter returns how many seconds until ip's oldest request leaves the
// window, rounded up. Zero when the IP is unknown or already clear.
func (rl *RateLimiter) RetryAfter(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	recent := inWindow(rl.buckets[ip], now)
	if len(recent) == 0 {
		return 0
	}

	remaining := rateWindow - now.Sub(recent[0])
	if remaining <= 0 {
		return 0
	}
	return int((remaining + time.Second - 1) / time.Second)
}

// inWindow keeps only the timestamps still inside the sliding window.
// Entries are appended in time order, so the first surviving index bounds
// the rest.
func inWindow(times []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-rateWindow)
	for i, t := range times {
		if t.After(cutoff) {
			return times[i:]
		}
	}
	return nil
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rateCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for ip, times := range rl.buckets {
		recent := inWindow(times, now)
		if len(recent) == 0 {
			delete(rl.buckets, ip)
		} else {
			rl.buckets[ip] = recent
		}
	}
}

// Stop halts the cleanup loop.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}
