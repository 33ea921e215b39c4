package retry

import (
	"math/rand"
	"sync"
	"time"

	"github.com/vinayprograms/meshkit/errors"
)

// Retry defaults.
const (
	DefaultMaxRetries = 5
	DefaultBaseDelay  = 1 * time.Second
	DefaultMaxDelay   = 60 * time.Second

	backoffFactor = 2.0
	jitterRatio   = 0.3
)

// DefaultRetryableStatuses are the HTTP statuses retried when the
// policy is not configured with an explicit set: rate limiting and the
// transient 5xx family. Every other 4xx is terminal no matter how much
// retry budget remains.
var DefaultRetryableStatuses = []int{429, 500, 502, 503, 504}

// Policy decides whether a failed attempt may be retried and how long
// to back off before the next one. Fields must be set before the first
// ShouldRetry or DelayFor call; after that the policy is read-only and
// safe for concurrent use.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// BaseDelay is the backoff for attempt 0; each later attempt
	// doubles it.
	BaseDelay time.Duration

	// MaxDelay clamps the computed backoff.
	MaxDelay time.Duration

	// RetryableStatuses overrides DefaultRetryableStatuses when non-nil.
	RetryableStatuses []int

	// Rand supplies jitter randomness in [0.0, 1.0). Injectable so
	// tests can pin delays exactly; nil uses math/rand.
	Rand func() float64

	initOnce sync.Once
	statuses map[int]bool
}

// New creates a Policy, filling unset fields with defaults.
func New(maxRetries int, baseDelay, maxDelay time.Duration) *Policy {
	p := &Policy{
		MaxRetries: maxRetries,
		BaseDelay:  baseDelay,
		MaxDelay:   maxDelay,
	}
	p.applyDefaults()
	return p
}

// Default returns a Policy with all default settings.
func Default() *Policy {
	return New(DefaultMaxRetries, DefaultBaseDelay, DefaultMaxDelay)
}

func (p *Policy) applyDefaults() {
	if p.MaxRetries < 0 {
		p.MaxRetries = DefaultMaxRetries
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
}

// init freezes the policy on first use. One Client shares one Policy
// across all endpoint families, so after this point ShouldRetry and
// DelayFor only read.
func (p *Policy) init() {
	p.initOnce.Do(func() {
		p.applyDefaults()
		if p.Rand == nil {
			p.Rand = rand.Float64
		}
		set := p.RetryableStatuses
		if set == nil {
			set = DefaultRetryableStatuses
		}
		p.statuses = make(map[int]bool, len(set))
		for _, s := range set {
			p.statuses[s] = true
		}
	})
}

// retryableStatus reports whether the HTTP status is in the configured
// retryable set.
func (p *Policy) retryableStatus(status int) bool {
	return p.statuses[status]
}

// ShouldRetry reports whether another attempt is permitted after the
// given error on the given 0-based attempt index. Transport failures
// and timeouts are retryable; classified HTTP errors are retryable only
// when their status is in the configured set.
func (p *Policy) ShouldRetry(err error, attempt int) bool {
	if err == nil {
		return false
	}
	p.init()
	if attempt >= p.MaxRetries {
		return false
	}

	switch errors.Code(err) {
	case errors.ErrCodeTransport, errors.ErrCodeTimeout:
		// No response received; retrying cannot make things worse
		// than re-sending, and the request may simply have been lost.
		return errors.IsRetryable(err)
	case "":
		// Foreign error: nothing to classify on
		return false
	}

	if status := errors.HTTPStatus(err); status != 0 {
		return p.retryableStatus(status)
	}
	return errors.IsRetryable(err)
}

// DelayFor computes the backoff before retrying the given 0-based
// attempt: BaseDelay doubled per attempt, with symmetric jitter of up
// to 30%, clamped to [BaseDelay, MaxDelay].
func (p *Policy) DelayFor(attempt int) time.Duration {
	p.init()

	exp := float64(p.BaseDelay)
	for i := 0; i < attempt; i++ {
		exp *= backoffFactor
		if exp >= float64(p.MaxDelay) {
			exp = float64(p.MaxDelay)
			break
		}
	}

	// Jitter in [-jitterRatio, +jitterRatio] of the exponential term
	jitter := exp * jitterRatio * (2*p.Rand() - 1)

	d := time.Duration(exp + jitter)
	if d < p.BaseDelay {
		d = p.BaseDelay
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}
