package auth

import (
	"sync"
	"time"

	"hisab/internal/core"
)

// LoginLimiter locks an email out after repeated failed logins inside a
// rolling window. State is in-memory, so a restart clears it; the limit is a
// brake on online guessing, not an audit record.
type LoginLimiter struct {
	mu          sync.Mutex
	failures    map[string][]time.Time
	maxAttempts int
	window      time.Duration
	clock       core.Clock
}

// NewLoginLimiter creates a limiter allowing maxAttempts failures per window.
func NewLoginLimiter(maxAttempts int, window time.Duration, clock core.Clock) *LoginLimiter {
	return &LoginLimiter{
		failures:    make(map[string][]time.Time),
		maxAttempts: maxAttempts,
		window:      window,
		clock:       clock,
	}
}

// Locked reports whether the email has reached the failure limit.
func (l *LoginLimiter) Locked(email string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recent(email)) >= l.maxAttempts
}

// RecordFailure notes one failed attempt for the email.
func (l *LoginLimiter) RecordFailure(email string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[email] = append(l.recent(email), l.clock.Now())
}

// Reset clears the failure history after a successful login.
func (l *LoginLimiter) Reset(email string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, email)
}

// recent prunes attempts older than the window. Caller holds the lock.
func (l *LoginLimiter) recent(email string) []time.Time {
	cutoff := l.clock.Now().Add(-l.window)
	kept := l.failures[email][:0]
	for _, at := range l.failures[email] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	if len(kept) == 0 {
		delete(l.failures, email)
		return nil
	}
	l.failures[email] = kept
	return kept
}
