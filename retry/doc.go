// Package retry implements the backoff policy shared by every meshkit
// endpoint family. A single Policy answers two questions: may this
// failed attempt be retried, and how long should the caller wait before
// the next one.
//
// Delays grow exponentially from BaseDelay, carry up to 30% symmetric
// jitter to avoid synchronized retry storms, and are clamped to
// MaxDelay. The randomness source is injectable so tests can assert
// exact bounds:
//
//	p := retry.New(3, time.Second, 30*time.Second)
//	p.Rand = func() float64 { return 0.5 } // zero jitter
//
// Only rate limiting (429), the transient 5xx family, and transport
// failures are retried by default. All other client errors are terminal
// regardless of remaining budget: resending a request the service has
// already rejected as malformed or unauthorized cannot succeed.
package retry
