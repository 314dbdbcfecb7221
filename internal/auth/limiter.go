// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package auth

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/animerec/internal/cache"
)

// maxTrackedUsernames bounds the limiter map so random usernames cannot
// grow it without limit.
const maxTrackedUsernames = 10000

// LoginLimiter throttles login attempts per username with a token bucket:
// attempts tokens per window, refilled evenly.
type LoginLimiter struct {
	limiters *cache.LRU[*rate.Limiter]
	rate     rate.Limit
	burst    int
}

// NewLoginLimiter allows attempts logins per window for each username.
func NewLoginLimiter(attempts int, window time.Duration) *LoginLimiter {
	if attempts < 1 {
		attempts = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &LoginLimiter{
		// Idle limiters are dropped after one window, by which point
		// their bucket has refilled anyway.
		limiters: cache.NewLRU[*rate.Limiter](maxTrackedUsernames, window),
		rate:     rate.Every(window / time.Duration(attempts)),
		burst:    attempts,
	}
}

// Allow consumes one attempt for username and reports whether it was
// available.
func (l *LoginLimiter) Allow(username string) bool {
	limiter, ok := l.limiters.Get(username)
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
	}
	// Refresh the TTL on every attempt.
	l.limiters.Set(username, limiter)
	return limiter.Allow()
}

// Reset clears the attempt history for username after a successful login.
func (l *LoginLimiter) Reset(username string) {
	l.limiters.Remove(username)
}

// Cleanup drops limiters idle for longer than one window.
func (l *LoginLimiter) Cleanup() int {
	return l.limiters.CleanupExpired()
}
