package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"tachi/pkg/errors"
)

// Kind is the type of analysis a job performs.
type Kind string

const (
	KindPortfolio Kind = "portfolio"
	KindStock     Kind = "stock"
)

// State is a job's lifecycle state.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
)

// Terminal reports whether a state admits no further transitions.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateTimedOut:
		return true
	}
	return false
}

// validTransitions is the full state machine: queued feeds running, running
// feeds exactly one terminal state.
var validTransitions = map[State][]State{
	StateQueued:  {StateRunning},
	StateRunning: {StateSucceeded, StateFailed, StateTimedOut},
}

// Job is one asynchronous analysis request.
type Job struct {
	ID    uuid.UUID `json:"id" db:"id"`
	Kind  Kind      `json:"kind" db:"kind"`
	State State     `json:"state" db:"state"`

	Request json.RawMessage `json:"request" db:"request"`
	Result  json.RawMessage `json:"result,omitempty" db:"result"`

	ErrorKind    string `json:"error_kind,omitempty" db:"error_kind"`
	ErrorMessage string `json:"error_message,omitempty" db:"error_message"`

	// Attempts counts executions, including retries.
	Attempts int `json:"attempts" db:"attempts"`

	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	ExpiresAt  time.Time  `json:"-" db:"expires_at"`
}

// NewJob creates a queued job with a fresh id.
func NewJob(kind Kind, request json.RawMessage, ttl time.Duration) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        uuid.New(),
		Kind:      kind,
		State:     StateQueued,
		Request:   request,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Transition moves the job to a new state, enforcing the state machine.
// Terminal states never change again.
func (j *Job) Transition(to State) error {
	if j.State.Terminal() {
		return errors.Wrapf(errors.ErrInvalidInput,
			"job %s is already %s, cannot become %s", j.ID, j.State, to)
	}

	for _, allowed := range validTransitions[j.State] {
		if allowed == to {
			j.State = to
			now := time.Now().UTC()
			switch to {
			case StateRunning:
				j.StartedAt = &now
			case StateSucceeded, StateFailed, StateTimedOut:
				j.FinishedAt = &now
			}
			return nil
		}
	}

	return errors.Wrapf(errors.ErrInvalidInput,
		"invalid job transition %s -> %s", j.State, to)
}

// Fail marks the job failed or timed out depending on the error, recording
// the taxonomy kind for the API.
func (j *Job) Fail(err error) error {
	state := StateFailed
	kind := errors.Kind(err)
	if errors.Is(err, errors.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		state = StateTimedOut
		kind = errors.Kind(errors.ErrTimeout)
	}
	if terr := j.Transition(state); terr != nil {
		return terr
	}
	j.ErrorKind = kind
	j.ErrorMessage = err.Error()
	return nil
}
