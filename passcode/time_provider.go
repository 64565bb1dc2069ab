package passcode

import "time"

// TimeProvider abstracts time operations for deterministic testing.
type TimeProvider interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// DefaultTimeProvider uses the standard library time functions.
type DefaultTimeProvider struct{}

// Now returns the current time.
func (DefaultTimeProvider) Now() time.Time { return time.Now() }

// Since returns the duration since t.
func (DefaultTimeProvider) Since(t time.Time) time.Duration { return time.Since(t) }

// defaultTimeProvider is the package-level default time provider.
var defaultTimeProvider TimeProvider = DefaultTimeProvider{}
