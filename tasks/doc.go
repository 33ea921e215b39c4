// Package tasks models remote generation tasks and drives them to
// completion.
//
// A Task is one unit of remote work: created by a submit call starting
// at pending, advanced by the service through in_progress, and finished
// in exactly one of succeeded, failed, canceled, or expired. Terminal
// states never transition again; this client only observes tasks, it
// never mutates them.
//
// The Poller turns a task handle plus a status-fetch operation into a
// blocking-but-bounded wait:
//
//	poller := tasks.NewPoller(120, 5*time.Second)
//	task, err := poller.Wait(ctx, svc.Get, taskID)
//
// Every endpoint family reuses the same protocol; only the fetch
// callback and the shape of the result payload differ. Right after
// creation a task may not be visible on the status endpoint yet, so a
// short grace window treats NOT_FOUND as replication lag rather than a
// terminal miss.
package tasks
