// Package session manages short-lived customer sessions.
package session

import "time"

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithTTL sets the session validity window.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithCleanupInterval sets how often expired sessions are reaped.
func WithCleanupInterval(interval time.Duration) Option {
	return func(m *Manager) {
		if interval > 0 {
			m.cleanupInterval = interval
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}
