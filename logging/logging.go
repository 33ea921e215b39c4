// Package logging provides real-time console output for request and
// polling activity. Output is for monitoring a long-running generation
// pipeline; programmatic reactions should branch on structured errors,
// not parse log lines.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger provides structured logging to stdout.
type Logger struct {
	mu        sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
	requestID string
}

// levelPriority maps levels to numeric priority for filtering.
var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// New creates a new Logger.
func New() *Logger {
	return &Logger{
		output:   os.Stdout,
		minLevel: LevelInfo,
	}
}

// WithComponent returns a new logger with the given component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: component,
		requestID: l.requestID,
	}
}

// WithRequestID returns a new logger tagged with a request ID so
// retried attempts of one logical call group together.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: l.component,
		requestID: requestID,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// SetOutput sets the output writer (default: stdout).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields formats a map of fields as key=value pairs.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	var parts []string
	for k, v := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return " " + strings.Join(parts, " ")
}

// log writes a log entry in traditional format: LEVEL TIMESTAMP [component] message key=value ...
func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	if levelPriority[level] < levelPriority[l.minLevel] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	var fieldStr string
	if len(fields) > 0 && fields[0] != nil {
		if l.requestID != "" {
			fields[0]["request_id"] = l.requestID
		}
		fieldStr = formatFields(fields[0])
	} else if l.requestID != "" {
		fieldStr = " request_id=" + l.requestID
	}

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}

// --- Event helpers ---
// Called by the executor and poller so request lifecycles read
// consistently in the console.

// RequestRetry logs a retried attempt with its backoff and cause.
func (l *Logger) RequestRetry(method, path string, attempt int, delay time.Duration, cause error) {
	fields := map[string]interface{}{
		"method":  method,
		"path":    path,
		"attempt": attempt,
		"backoff": delay.String(),
	}
	if cause != nil {
		fields["cause"] = cause.Error()
	}
	l.Warn("request_retry", fields)
}

// RequestDone logs a completed request.
func (l *Logger) RequestDone(method, path string, status int, duration time.Duration) {
	l.Debug("request_done", map[string]interface{}{
		"method":   method,
		"path":     path,
		"status":   status,
		"duration": duration.String(),
	})
}

// RequestFailed logs a request that exhausted its attempts.
func (l *Logger) RequestFailed(method, path string, attempts int, err error) {
	l.Error("request_failed", map[string]interface{}{
		"method":   method,
		"path":     path,
		"attempts": attempts,
		"error":    err.Error(),
	})
}

// TaskCreated logs acceptance of a new remote task.
func (l *Logger) TaskCreated(resource, taskID string) {
	l.Info("task_created", map[string]interface{}{
		"resource": resource,
		"task_id":  taskID,
	})
}

// PollTick logs one poll observation.
func (l *Logger) PollTick(taskID, status string, progress int) {
	l.Debug("poll_tick", map[string]interface{}{
		"task_id":  taskID,
		"status":   status,
		"progress": progress,
	})
}

// PollNotVisible logs a not-yet-visible task inside the grace window.
func (l *Logger) PollNotVisible(taskID string, graceAttempt int) {
	l.Debug("poll_not_visible", map[string]interface{}{
		"task_id":       taskID,
		"grace_attempt": graceAttempt,
	})
}

// PollDone logs a poll reaching a terminal status.
func (l *Logger) PollDone(taskID, status string, duration time.Duration) {
	l.Info("poll_done", map[string]interface{}{
		"task_id":  taskID,
		"status":   status,
		"duration": duration.String(),
	})
}

// AssetDownloaded logs a result artifact written to disk.
func (l *Logger) AssetDownloaded(url, path string, bytes int64) {
	l.Info("asset_downloaded", map[string]interface{}{
		"url":   url,
		"path":  path,
		"bytes": bytes,
	})
}
