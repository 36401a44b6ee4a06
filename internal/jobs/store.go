package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists jobs. Implementations must be safe for concurrent use.
type Store interface {
	// Create persists a new job.
	Create(ctx context.Context, job *Job) error
	// Get returns a job by id, or an error wrapping ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Job, error)
	// Update persists the job's current state.
	Update(ctx context.Context, job *Job) error
	// List returns up to limit jobs, newest first.
	List(ctx context.Context, limit int) ([]*Job, error)
	// Delete removes a job. Missing jobs yield ErrNotFound.
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteExpired removes jobs whose TTL passed and returns how many.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
	// Close releases resources.
	Close() error
}
