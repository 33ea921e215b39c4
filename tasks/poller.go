package tasks

import (
	"context"
	"time"

	"github.com/vinayprograms/meshkit/errors"
	"github.com/vinayprograms/meshkit/logging"
)

// Poller defaults.
const (
	DefaultMaxAttempts = 120
	DefaultInterval    = 5 * time.Second

	// The eventual-consistency grace window right after task creation:
	// a 404 from the status endpoint is treated as replication lag for
	// a few short, growing delays before it is surfaced as NOT_FOUND.
	DefaultGraceAttempts = 3
	DefaultGraceDelay    = 250 * time.Millisecond
)

// FetchFunc retrieves the current state of a task. The executor layer
// already retried transport and throughput failures, so the poller
// treats any error from fetch as final (outside the grace window).
type FetchFunc func(ctx context.Context, id string) (*Task, error)

// Poller drives a task handle to a terminal status by repeatedly
// invoking a fetch operation. The same poller serves every endpoint
// family; only the fetch callback differs.
type Poller struct {
	// MaxAttempts bounds the number of non-terminal observations
	// before the poll fails with POLL_TIMEOUT.
	MaxAttempts int

	// Interval is the wait between observations.
	Interval time.Duration

	// GraceAttempts is the number of extra NOT_FOUND retries granted
	// right after creation; they do not consume MaxAttempts.
	GraceAttempts int

	// GraceDelay is the first grace retry delay; it doubles per grace
	// attempt.
	GraceDelay time.Duration

	// Logger, when set, receives per-tick progress output.
	Logger *logging.Logger

	sleep func(ctx context.Context, d time.Duration) error // for testing
}

// NewPoller creates a Poller, filling unset values with defaults.
func NewPoller(maxAttempts int, interval time.Duration) *Poller {
	p := &Poller{
		MaxAttempts: maxAttempts,
		Interval:    interval,
	}
	p.applyDefaults()
	return p
}

func (p *Poller) applyDefaults() {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Interval <= 0 {
		p.Interval = DefaultInterval
	}
	if p.GraceAttempts <= 0 {
		p.GraceAttempts = DefaultGraceAttempts
	}
	if p.GraceDelay <= 0 {
		p.GraceDelay = DefaultGraceDelay
	}
	if p.sleep == nil {
		p.sleep = sleepCtx
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Wait polls until the task reaches a terminal status or a bound is
// exceeded.
//
// A succeeded task is returned as-is. A task observed failed, canceled,
// or expired fails the poll with TASK_FAILED carrying the id and the
// observed status. If MaxAttempts non-terminal observations pass, the
// poll fails with POLL_TIMEOUT carrying the id and the last observed
// status. Fetch failures propagate immediately, except NOT_FOUND inside
// the initial grace window, which retries on a short growing backoff
// without consuming an attempt.
func (p *Poller) Wait(ctx context.Context, fetch FetchFunc, id string) (*Task, error) {
	p.applyDefaults()

	lastStatus := Status("unknown")
	graceLeft := p.GraceAttempts
	graceDelay := p.GraceDelay

	for attempt := 0; attempt < p.MaxAttempts; {
		task, err := fetch(ctx, id)
		if err != nil {
			if errors.Is(err, errors.ErrCodeNotFound) && lastStatus == "unknown" && graceLeft > 0 {
				// Task not visible yet: replication lag after create
				graceLeft--
				if p.Logger != nil {
					p.Logger.PollNotVisible(id, p.GraceAttempts-graceLeft)
				}
				if serr := p.sleep(ctx, graceDelay); serr != nil {
					return nil, errors.Wrap(serr, "waiting for task to become visible", errors.WithTaskID(id))
				}
				graceDelay *= 2
				continue
			}
			return nil, errors.Wrap(err, "fetching task status", errors.WithTaskID(id))
		}

		lastStatus = task.Status
		if p.Logger != nil {
			p.Logger.PollTick(id, task.Status.String(), task.Progress)
		}

		switch {
		case task.Status == StatusSucceeded:
			return task, nil
		case task.Status.IsTerminal():
			return nil, errors.TaskFailed(id, task.Status.String())
		}

		attempt++
		if attempt >= p.MaxAttempts {
			break
		}
		if err := p.sleep(ctx, p.Interval); err != nil {
			return nil, errors.Wrap(err, "waiting between polls", errors.WithTaskID(id))
		}
	}

	return nil, errors.PollTimeout(id, lastStatus.String())
}
