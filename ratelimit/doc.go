// Package ratelimit provides sliding-window admission control for
// outgoing API requests.
//
// The remote service enforces a requests-per-second ceiling per
// credential tier. Each client owns one Gate configured for its tier;
// the gate delays requests locally so the service never has to reject
// them for rate reasons in the steady state.
//
//	gate, err := ratelimit.NewGate(20) // 20 requests per second
//	if err != nil {
//	    return err
//	}
//
//	// Block until a request may be sent
//	if err := gate.Admit(ctx); err != nil {
//	    return err // context cancelled or gate closed
//	}
//	// ... send, and once the logical call succeeds:
//	gate.Record()
//
// # Algorithm
//
// The gate keeps the timestamps of recent requests:
//   - Entries older than the trailing window are pruned before every check
//   - If fewer than limit entries remain, the caller is admitted immediately
//   - Otherwise the caller sleeps until the oldest entry ages out, plus a
//     small safety margin, and re-checks
//
// Admission order between concurrent callers is not FIFO; only the
// window-capacity bound is guaranteed.
//
// # Accounting
//
// One window entry is recorded per completed logical call, not per
// attempt. Admission is still checked before every retry attempt, but a
// retried call does not charge the budget twice.
package ratelimit
