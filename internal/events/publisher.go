package events

import (
	"context"
	"time"
)

// JobEvent records a job lifecycle transition for downstream consumers.
type JobEvent struct {
	JobID     string    `json:"job_id"`
	Kind      string    `json:"kind"`
	State     string    `json:"state"`
	ErrorKind string    `json:"error_kind,omitempty"`
	Attempt   int       `json:"attempt,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher emits job lifecycle events.
type Publisher interface {
	PublishJobEvent(ctx context.Context, event JobEvent) error
	Close() error
}

// NoopPublisher drops events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishJobEvent(context.Context, JobEvent) error { return nil }
func (NoopPublisher) Close() error                                    { return nil }
