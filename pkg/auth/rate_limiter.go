package auth

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimiter provides rate limiting functionality
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// SlidingWindowLimiter implements sliding window rate limiting
type SlidingWindowLimiter struct {
	mu         sync.Mutex
	windows    map[string]*window
	limit      int
	windowSize time.Duration
	lastSweep  time.Time
	now        func() time.Time
}

type window struct {
	requests []time.Time
	// retired is set once the sweeper has removed the window from the map
	retired bool
	mu      sync.Mutex
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter
func NewSlidingWindowLimiter(limit int, windowSize time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		windows:    make(map[string]*window),
		limit:      limit,
		windowSize: windowSize,
		now:        time.Now,
	}
}

// Allow checks if a request is allowed
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := l.now()

	for {
		w := l.windowFor(key, now)

		w.mu.Lock()
		if w.retired {
			// swept between lookup and lock; count the hit on the live window
			w.mu.Unlock()
			continue
		}

		w.requests = pruneBefore(w.requests, now.Add(-l.windowSize))
		allowed := len(w.requests) < l.limit
		if allowed {
			w.requests = append(w.requests, now)
		}
		w.mu.Unlock()
		return allowed, nil
	}
}

func (l *SlidingWindowLimiter) windowFor(key string, now time.Time) *window {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweepLocked(now)
	w, exists := l.windows[key]
	if !exists {
		w = &window{}
		l.windows[key] = w
	}
	return w
}

// RetryAfter returns how long until key may send another request
func (l *SlidingWindowLimiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	w, exists := l.windows[key]
	l.mu.Unlock()
	if !exists {
		return 0
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.requests) < l.limit {
		return 0
	}
	wait := w.requests[0].Add(l.windowSize).Sub(l.now())
	if wait < 0 {
		return 0
	}
	return wait
}

// Reset resets the rate limit for a key
func (l *SlidingWindowLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w, ok := l.windows[key]; ok {
		w.mu.Lock()
		w.retired = true
		w.mu.Unlock()
		delete(l.windows, key)
	}
	return nil
}

// sweepLocked drops idle windows once per window period
func (l *SlidingWindowLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.windowSize {
		return
	}
	l.lastSweep = now
	cutoff := now.Add(-l.windowSize)
	for key, w := range l.windows {
		w.mu.Lock()
		if len(w.requests) == 0 || !w.requests[len(w.requests)-1].After(cutoff) {
			w.retired = true
			delete(l.windows, key)
		}
		w.mu.Unlock()
	}
}

func pruneBefore(requests []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(requests) && !requests[i].After(cutoff) {
		i++
	}
	return requests[i:]
}

// IPRateLimiter wraps a rate limiter for IP-based limiting
type IPRateLimiter struct {
	limiter *SlidingWindowLimiter
}

// NewIPRateLimiter creates a new IP-based rate limiter
func NewIPRateLimiter(requestsPerMinute int) *IPRateLimiter {
	return &IPRateLimiter{
		limiter: NewSlidingWindowLimiter(requestsPerMinute, time.Minute),
	}
}

// Allow checks if a request from an IP is allowed
func (l *IPRateLimiter) Allow(ctx context.Context, ip string) (bool, error) {
	return l.limiter.Allow(ctx, ipKey(ip))
}

// RetryAfter reports the wait before the IP is allowed again
func (l *IPRateLimiter) RetryAfter(ip string) time.Duration {
	return l.limiter.RetryAfter(ipKey(ip))
}

// UserRateLimiter wraps a rate limiter for user-based limiting
type UserRateLimiter struct {
	limiter *SlidingWindowLimiter
}

// NewUserRateLimiter creates a new user-based rate limiter
func NewUserRateLimiter(requestsPerMinute int) *UserRateLimiter {
	return &UserRateLimiter{
		limiter: NewSlidingWindowLimiter(requestsPerMinute, time.Minute),
	}
}

// Allow checks if a request from a user is allowed
func (l *UserRateLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	return l.limiter.Allow(ctx, userKey(userID))
}

// RetryAfter reports the wait before the user is allowed again
func (l *UserRateLimiter) RetryAfter(userID string) time.Duration {
	return l.limiter.RetryAfter(userKey(userID))
}

func ipKey(ip string) string       { return fmt.Sprintf("ip:%s", ip) }
func userKey(userID string) string { return fmt.Sprintf("user:%s", userID) }
