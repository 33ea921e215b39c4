package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Common errors.
var (
	ErrClosed       = errors.New("gate closed")
	ErrInvalidLimit = errors.New("invalid request limit")
)

// Defaults.
const (
	// DefaultWindow is the trailing interval the request ceiling
	// applies to.
	DefaultWindow = time.Second

	// DefaultSafetyMargin pads computed waits so a request admitted
	// right at the window edge does not land a hair too early.
	DefaultSafetyMargin = 50 * time.Millisecond
)

// Gate is sliding-window admission control for outgoing requests. It
// keeps the timestamps of recent requests and delays callers so that no
// more than limit requests fall inside the trailing window.
//
// The gate is owned by a single client instance. Two independent
// clients hitting the same real ceiling must be coordinated by the
// caller; no cross-process state exists here.
type Gate struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	margin  time.Duration
	entries []time.Time
	closed  bool
	nowFunc func() time.Time // for testing
}

// NewGate creates a gate admitting at most requestsPerSecond requests
// in any trailing one-second window.
func NewGate(requestsPerSecond int) (*Gate, error) {
	if requestsPerSecond <= 0 {
		return nil, ErrInvalidLimit
	}
	return &Gate{
		limit:   requestsPerSecond,
		window:  DefaultWindow,
		margin:  DefaultSafetyMargin,
		nowFunc: time.Now,
	}, nil
}

// prune drops entries older than the window. Callers must hold mu.
func (g *Gate) prune(now time.Time) {
	cutoff := now.Add(-g.window)
	i := 0
	for i < len(g.entries) && !g.entries[i].After(cutoff) {
		i++
	}
	if i > 0 {
		g.entries = append(g.entries[:0], g.entries[i:]...)
	}
}

// Admit blocks until one more request can be sent without exceeding the
// ceiling. It never appends to the window itself; the executor records
// a timestamp with Record once the logical call completes. Returns
// context errors if the caller gives up, ErrClosed after Close, and nil
// once admission is granted.
func (g *Gate) Admit(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		g.mu.Lock()
		if g.closed {
			g.mu.Unlock()
			return ErrClosed
		}
		now := g.nowFunc()
		g.prune(now)
		if len(g.entries) < g.limit {
			g.mu.Unlock()
			return nil
		}
		// Window full: wait until the oldest entry ages out
		wait := g.window - now.Sub(g.entries[0]) + g.margin
		g.mu.Unlock()

		if wait <= 0 {
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Record appends the current timestamp to the window. The executor
// calls this exactly once per completed call, not per attempt, so a
// call that needed three tries still charges one admission slot. The
// stricter per-attempt alternative would shrink worst-case bursts at
// the cost of double-charging retried calls.
func (g *Gate) Record() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	now := g.nowFunc()
	g.prune(now)
	g.entries = append(g.entries, now)
}

// InWindow returns the number of recorded requests still inside the
// trailing window.
func (g *Gate) InWindow() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prune(g.nowFunc())
	return len(g.entries)
}

// Limit returns the configured ceiling.
func (g *Gate) Limit() int {
	return g.limit
}

// Close shuts the gate; subsequent Admit calls fail with ErrClosed.
func (g *Gate) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	g.closed = true
	g.entries = nil
	return nil
}
