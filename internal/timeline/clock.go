package timeline

import "time"

// Clock supplies "now" to live queries so that reports stay deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the platform clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant.
type FixedClock time.Time

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return time.Time(c) }
