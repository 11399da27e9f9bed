package ratelimiter

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrRateLimitExceeded is returned when the rate limit is exceeded
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// RateLimiter limits calls within a sliding time window. The bot wraps every
// outbound Telegram request with it to stay under the API flood limits.
type RateLimiter struct {
	mu             sync.Mutex
	maxCalls       int
	windowDuration time.Duration
	callTimestamps []time.Time
	now            func() time.Time
}

// NewRateLimiter creates a new rate limiter with the specified max calls and window duration
func NewRateLimiter(maxCalls int, windowDuration time.Duration) *RateLimiter {
	if maxCalls <= 0 {
		maxCalls = 1
	}
	if windowDuration <= 0 {
		windowDuration = time.Minute
	}

	return &RateLimiter{
		maxCalls:       maxCalls,
		windowDuration: windowDuration,
		callTimestamps: make([]time.Time, 0, maxCalls),
		now:            time.Now,
	}
}

// Allow records a call and returns ErrRateLimitExceeded when the window is full.
func (rl *RateLimiter) Allow(_ context.Context) error {
	_, err := rl.reserve()
	return err
}

// Wait blocks until a call fits in the window or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		delay, err := rl.reserve()
		if err == nil {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve returns how long to wait for the oldest call to leave the window when it is full.
func (rl *RateLimiter) reserve() (time.Duration, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.windowDuration)
	valid := rl.callTimestamps[:0]
	for _, ts := range rl.callTimestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}
	rl.callTimestamps = valid

	if len(rl.callTimestamps) >= rl.maxCalls {
		delay := rl.callTimestamps[0].Sub(cutoff)
		if delay <= 0 {
			delay = time.Millisecond
		}
		return delay, ErrRateLimitExceeded
	}

	rl.callTimestamps = append(rl.callTimestamps, now)
	return 0, nil
}
