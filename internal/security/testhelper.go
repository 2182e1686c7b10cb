package security

import "time"

// TestSecret is the HMAC secret used by NewTestTokenProvider. Do not use in production.
const TestSecret = "test-secret-for-unit-tests-only"

// NewTestTokenProvider returns a TokenProvider with TestSecret, a 15m access TTL and a 24h
// refresh TTL. now may be nil to use the wall clock. For unit tests only.
func NewTestTokenProvider(now func() time.Time) *TokenProvider {
	return NewTokenProvider(TestSecret, 15*time.Minute, 24*time.Hour, WithClock(now))
}

// FixedClock returns a settable clock for tests.
type FixedClock struct {
	T time.Time
}

// Now returns the current fake time.
func (c *FixedClock) Now() time.Time { return c.T }

// Advance moves the fake time forward by d.
func (c *FixedClock) Advance(d time.Duration) { c.T = c.T.Add(d) }
