package jobs

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"tachi/internal/adapters/config"
	"tachi/internal/events"
	"tachi/internal/metrics"
	"tachi/pkg/errors"
	"tachi/pkg/logger"
)

// Runner executes the analysis behind a job and returns its serialized
// result. The ctx carries the job's wall-clock deadline.
type Runner func(ctx context.Context, job *Job) (json.RawMessage, error)

// Manager owns the job lifecycle: admission through the governor, the job
// wall-clock timeout, retry with exponential backoff, and terminal-state
// bookkeeping.
type Manager struct {
	store     Store
	governor  *Governor
	runner    Runner
	publisher events.Publisher
	cfg       config.AnalysisConfig
	log       *logger.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager creates a job manager. runner is invoked once per attempt.
func NewManager(store Store, runner Runner, publisher events.Publisher, cfg config.AnalysisConfig) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		store:     store,
		governor:  NewGovernor(cfg.MaxConcurrent),
		runner:    runner,
		publisher: publisher,
		cfg:       cfg,
		log:       logger.Get().With("component", "job_manager"),
		baseCtx:   ctx,
		cancel:    cancel,
	}
}

// Submit enqueues a new job and returns it immediately; execution happens in
// the background once the governor grants a slot.
func (m *Manager) Submit(ctx context.Context, kind Kind, request json.RawMessage) (*Job, error) {
	job := NewJob(kind, request, m.cfg.JobTTL)

	if err := m.store.Create(ctx, job); err != nil {
		return nil, errors.Wrap(err, "persist job")
	}

	metrics.JobsSubmitted.WithLabelValues(string(kind)).Inc()
	metrics.JobsQueued.Inc()
	m.publish(job, 0)

	m.log.Info("Job submitted", "job_id", job.ID, "kind", string(kind))

	m.wg.Add(1)
	clone := *job
	go m.execute(&clone)

	return job, nil
}

// Get returns a job by id.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	return m.store.Get(ctx, id)
}

// List returns recent jobs, newest first.
func (m *Manager) List(ctx context.Context, limit int) ([]*Job, error) {
	return m.store.List(ctx, limit)
}

// Delete removes a job record. Running jobs cannot be deleted.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	job, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.State == StateRunning {
		return errors.Wrapf(errors.ErrInvalidInput, "job %s is running", id)
	}
	return m.store.Delete(ctx, id)
}

// Shutdown stops accepting work and waits for in-flight jobs, bounded by ctx.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "job manager shutdown")
	}
}

// execute drives one job from queued to a terminal state.
func (m *Manager) execute(job *Job) {
	defer m.wg.Done()

	log := m.log.With("job_id", job.ID, "kind", string(job.Kind))

	if err := m.governor.Acquire(m.baseCtx); err != nil {
		metrics.JobsQueued.Dec()
		m.finish(job, errors.Wrap(errors.ErrTimeout, "shut down before execution"))
		return
	}
	defer m.governor.Release()

	metrics.JobsQueued.Dec()
	metrics.JobsRunning.Inc()
	defer metrics.JobsRunning.Dec()

	if err := job.Transition(StateRunning); err != nil {
		log.Error("Cannot start job", "error", err)
		return
	}
	m.persist(job)
	m.publish(job, 0)
	log.Info("Job started")

	start := time.Now()
	result, err := m.runAttempts(job, log)
	metrics.JobDuration.WithLabelValues(string(job.Kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		m.finish(job, err)
		return
	}

	job.Result = result
	if terr := job.Transition(StateSucceeded); terr != nil {
		log.Error("Cannot mark job succeeded", "error", terr)
		return
	}
	m.persist(job)
	m.publish(job, job.Attempts)
	metrics.JobsCompleted.WithLabelValues(string(job.Kind), string(StateSucceeded)).Inc()
	log.Info("Job succeeded", "attempts", job.Attempts, "duration_ms", time.Since(start).Milliseconds())
}

// runAttempts runs the job under one wall-clock deadline covering every
// attempt and backoff wait. Timeouts are terminal: once the deadline passes
// the job is timed out, never retried under a fresh window.
func (m *Manager) runAttempts(job *Job, log *logger.Logger) (json.RawMessage, error) {
	runCtx, cancel := context.WithTimeout(m.baseCtx, m.cfg.Timeout)
	defer cancel()

	var lastErr error

	for attempt := 1; attempt <= m.cfg.MaxRetries+1; attempt++ {
		job.Attempts = attempt

		result, err := m.runner(runCtx, job)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if errors.Is(err, errors.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			log.Warn("Job timed out", "attempt", attempt)
			return nil, err
		}
		if runCtx.Err() != nil {
			log.Warn("Job deadline reached", "attempt", attempt)
			return nil, errors.Wrapf(errors.ErrTimeout, "deadline reached after attempt %d: %v", attempt, err)
		}
		if !errors.Retryable(err) {
			return nil, err
		}
		if attempt > m.cfg.MaxRetries {
			break
		}

		delay := m.backoff(attempt)
		metrics.JobRetries.WithLabelValues(string(job.Kind)).Inc()
		log.Warn("Job attempt failed, retrying",
			"attempt", attempt, "delay_ms", delay.Milliseconds(), "error", err)

		select {
		case <-runCtx.Done():
			return nil, errors.Wrap(errors.ErrTimeout, "deadline reached during retry wait")
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}

// backoff computes the delay before retry n (1-based): base doubled per
// attempt, capped, with ±25% jitter to spread synchronized retries.
func (m *Manager) backoff(attempt int) time.Duration {
	delay := m.cfg.RetryBackoffBase << (attempt - 1)
	if max := m.cfg.RetryBackoffMax; max > 0 && (delay > max || delay <= 0) {
		delay = max
	}
	if m.cfg.RetryJitter {
		factor := 0.75 + rand.Float64()*0.5
		delay = time.Duration(float64(delay) * factor)
	}
	return delay
}

// finish records a terminal failure.
func (m *Manager) finish(job *Job, cause error) {
	if err := job.Fail(cause); err != nil {
		m.log.Error("Cannot finish job", "job_id", job.ID, "error", err)
		return
	}
	m.persist(job)
	m.publish(job, job.Attempts)
	metrics.JobsCompleted.WithLabelValues(string(job.Kind), string(job.State)).Inc()
	m.log.Warn("Job finished with failure",
		"job_id", job.ID, "state", string(job.State), "error_kind", job.ErrorKind)
}

func (m *Manager) persist(job *Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.store.Update(ctx, job); err != nil {
		m.log.Error("Failed to persist job", "job_id", job.ID, "error", err)
	}
}

func (m *Manager) publish(job *Job, attempt int) {
	if m.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	event := events.JobEvent{
		JobID:     job.ID.String(),
		Kind:      string(job.Kind),
		State:     string(job.State),
		ErrorKind: job.ErrorKind,
		Attempt:   attempt,
		At:        time.Now().UTC(),
	}
	if err := m.publisher.PublishJobEvent(ctx, event); err != nil {
		m.log.Warn("Failed to publish job event", "job_id", job.ID, "error", err)
	}
}
