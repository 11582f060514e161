package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	t.Run("should allow requests under the limit", func(t *testing.T) {
		rl := NewRateLimiter(3)
		defer rl.Stop()

		assert.True(t, rl.Allow("1.2.3.4"))
		assert.True(t, rl.Allow("1.2.3.4"))
		assert.True(t, rl.Allow("1.2.3.4"))
	})

	t.Run("should block requests over the limit", func(t *testing.T) {
		rl := NewRateLimiter(2)
		defer rl.Stop()

		rl.Allow("1.2.3.4")
		rl.Allow("1.2.3.4")
		assert.False(t, rl.Allow("1.2.3.4"))
	})

	t.Run("should track IPs independently", func(t *testing.T) {
		rl := NewRateLimiter(1)
		defer rl.Stop()

		assert.True(t, rl.Allow("1.2.3.4"))
		assert.True(t, rl.Allow("5.6.7.8"))
		assert.False(t, rl.Allow("1.2.3.4"))
	})

	t.Run("should allow again once the window slides past", func(t *testing.T) {
		rl := NewRateLimiter(1)
		defer rl.Stop()

		now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
		rl.now = func() time.Time { return now }

		assert.True(t, rl.Allow("1.2.3.4"))
		assert.False(t, rl.Allow("1.2.3.4"))

		now = now.Add(61 * time.Second)
		assert.True(t, rl.Allow("1.2.3.4"))
	})

	t.Run("should report retry-after for throttled IPs", func(t *testing.T) {
		rl := NewRateLimiter(1)
		defer rl.Stop()

		now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
		rl.now = func() time.Time { return now }

		rl.Allow("1.2.3.4")
		assert.Equal(t, 60, rl.RetryAfter("1.2.3.4"))

		now = now.Add(45 * time.Second)
		assert.Equal(t, 15, rl.RetryAfter("1.2.3.4"))
	})

	t.Run("should report zero retry-after for unknown IPs", func(t *testing.T) {
		rl := NewRateLimiter(1)
		defer rl.Stop()

		assert.Equal(t, 0, rl.RetryAfter("9.9.9.9"))
	})

	t.Run("should drop idle IPs on cleanup", func(t *testing.T) {
		rl := NewRateLimiter(1)
		defer rl.Stop()

		now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
		rl.now = func() time.Time { return now }

		rl.Allow("1.2.3.4")
		now = now.Add(2 * time.Minute)
		rl.cleanup()

		rl.mu.Lock()
		_, exists := rl.buckets["1.2.3.4"]
		rl.mu.Unlock()
		assert.False(t, exists)
	})
}
