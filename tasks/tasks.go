package tasks

import (
	"encoding/json"
	"time"
)

// Status represents the current state of a remote task.
type Status string

const (
	// StatusPending indicates the task is queued and not yet started.
	StatusPending Status = "pending"

	// StatusInProgress indicates the service is working on the task.
	StatusInProgress Status = "in_progress"

	// StatusSucceeded indicates the task finished and a result is available.
	StatusSucceeded Status = "succeeded"

	// StatusFailed indicates the task finished without a result.
	StatusFailed Status = "failed"

	// StatusCanceled indicates the task was canceled before finishing.
	StatusCanceled Status = "canceled"

	// StatusExpired indicates the task aged out before finishing.
	StatusExpired Status = "expired"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if the status is a terminal state. A task in
// a terminal state never transitions again.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCanceled, StatusExpired:
		return true
	default:
		return false
	}
}

// Task represents one unit of remote work. Tasks are created by a
// submit call, mutated only by the remote service, and observed (never
// mutated) by this client.
type Task struct {
	// ID is the opaque handle assigned by the service on creation.
	ID string `json:"id"`

	// Status is the current lifecycle state.
	Status Status `json:"status"`

	// Progress is a best-effort 0-100 completion estimate. It is
	// monotonically non-decreasing while the task runs, but there is
	// no live guarantee between polls.
	Progress int `json:"progress"`

	// CreatedAt is when the service accepted the task.
	CreatedAt *time.Time `json:"created_at,omitempty"`

	// StartedAt is when processing began; nil while pending.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt is when a terminal status was reached; nil before.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// ExpiresAt is when the service will expire the task, if it
	// advertises one.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// Result is the opaque success payload, present only when Status
	// is succeeded. Endpoint families decode it into their own
	// manifest shapes.
	Result json.RawMessage `json:"result,omitempty"`

	// TaskError is the failure message, present only when Status is
	// failed.
	TaskError string `json:"task_error,omitempty"`
}

// Succeeded reports whether the task finished with a result.
func (t *Task) Succeeded() bool {
	return t.Status == StatusSucceeded
}

// DecodeResult unmarshals the success payload into v. It is a no-op
// returning nil when no result is present.
func (t *Task) DecodeResult(v interface{}) error {
	if len(t.Result) == 0 {
		return nil
	}
	return json.Unmarshal(t.Result, v)
}
