package workers

import (
	"context"
	"time"

	"tachi/internal/jobs"
	"tachi/pkg/errors"
)

// JanitorWorker sweeps expired job records from the store so finished
// analyses do not accumulate forever. Running jobs are never swept.
type JanitorWorker struct {
	*BaseWorker
	store jobs.Store
}

// NewJanitorWorker creates the job-store janitor.
func NewJanitorWorker(store jobs.Store, interval time.Duration) *JanitorWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &JanitorWorker{
		BaseWorker: NewBaseWorker("job_janitor", interval, true),
		store:      store,
	}
}

// Run removes every job whose TTL elapsed.
func (w *JanitorWorker) Run(ctx context.Context) error {
	removed, err := w.store.DeleteExpired(ctx, time.Now())
	if err != nil {
		w.RecordError(err)
		return errors.Wrap(err, "sweep expired jobs")
	}

	w.RecordRun()
	if removed > 0 {
		w.Log().Info("Expired jobs removed", "count", removed)
	}
	return nil
}
