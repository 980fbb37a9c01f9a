package delivery

import "time"

// DefaultBaseDelay is the floor and growth unit for retry backoff.
const DefaultBaseDelay = 500 * time.Millisecond

// maxBackoffShift caps the exponent so the delay computation cannot
// overflow under a misconfigured retry limit.
const maxBackoffShift = 16

// Backoff returns the delay before the retry following the given attempt
// count: max(base, (2^attempts - 1) * base). The result is non-decreasing
// in attempts and never below base.
func Backoff(attempts int, base time.Duration) time.Duration {
	if base <= 0 {
		base = DefaultBaseDelay
	}
	if attempts > maxBackoffShift {
		attempts = maxBackoffShift
	}
	delay := time.Duration((int64(1)<<attempts)-1) * base
	if delay < base {
		return base
	}
	return delay
}
