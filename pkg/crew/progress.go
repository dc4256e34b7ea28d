package crew

import (
	"context"
	"time"

	"github.com/r3d91ll/quire/wool"
)

// EventKind says what happened to a task.
type EventKind string

const (
	TaskStarted  EventKind = "task_started"
	TaskFinished EventKind = "task_finished"
	TaskFailed   EventKind = "task_failed"
)

// Event reports task progress. Index is 1-based.
type Event struct {
	Kind    EventKind     `json:"kind"`
	Index   int           `json:"index"`
	Total   int           `json:"total"`
	Task    string        `json:"task"`
	Agent   string        `json:"agent"`
	Role    wool.Role     `json:"role"`
	Elapsed time.Duration `json:"elapsed_ns,omitempty"`
}

// ProgressFunc receives events synchronously from the running crew.
type ProgressFunc func(Event)

type progressKey struct{}

// WithProgress returns a context whose crew runs report to fn.
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	if fn == nil {
		return ctx
	}
	return context.WithValue(ctx, progressKey{}, fn)
}

// ProgressFrom returns the callback in ctx, or one that drops events.
func ProgressFrom(ctx context.Context) ProgressFunc {
	if fn, ok := ctx.Value(progressKey{}).(ProgressFunc); ok {
		return fn
	}
	return func(Event) {}
}
