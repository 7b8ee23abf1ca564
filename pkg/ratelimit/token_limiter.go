package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenLimiter enforces a tokens-per-minute budget for AI providers. Callers
// report consumed tokens after each request; Wait blocks until the current
// minute window has room again.
type TokenLimiter struct {
	mu           sync.Mutex
	maxPerMinute int
	used         int
	windowStart  time.Time
}

// NewTokenLimiter creates a limiter with the given per-minute token budget.
func NewTokenLimiter(maxPerMinute int) *TokenLimiter {
	return &TokenLimiter{
		maxPerMinute: maxPerMinute,
		windowStart:  time.Now(),
	}
}

// Wait records the consumed tokens and blocks until the budget allows another
// request, or the context is done.
func (l *TokenLimiter) Wait(ctx context.Context, tokens int) error {
	for {
		l.mu.Lock()
		l.rotateWindow()
		if l.used+tokens <= l.maxPerMinute || l.maxPerMinute <= 0 {
			l.used += tokens
			l.mu.Unlock()
			return nil
		}
		sleep := time.Until(l.windowStart.Add(time.Minute))
		l.mu.Unlock()

		if sleep <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// GetRemaining returns the tokens left in the current window.
func (l *TokenLimiter) GetRemaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rotateWindow()
	remaining := l.maxPerMinute - l.used
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (l *TokenLimiter) rotateWindow() {
	if time.Since(l.windowStart) >= time.Minute {
		l.windowStart = time.Now()
		l.used = 0
	}
}
