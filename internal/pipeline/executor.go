package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"tachi/internal/agents"
	"tachi/pkg/errors"
	"tachi/pkg/logger"
)

// Input seeds a pipeline run.
type Input struct {
	// Brief is free-form context included in every task, e.g. the rendered
	// portfolio.
	Brief string
	// Tickers scope the tool calls the agents make.
	Tickers []string
	// Quantities maps ticker to held quantity for valuation tools.
	Quantities map[string]string
}

// TaskResult is the outcome of one executed task.
type TaskResult struct {
	TaskID       string
	Agent        agents.AgentType
	Output       string
	Model        string
	InputTokens  int
	OutputTokens int
	Duration     time.Duration
	Attempts     int
}

// Result aggregates a pipeline run.
type Result struct {
	Pipeline    string
	Mode        Mode
	TaskResults map[string]TaskResult
	// Final is the output of the last task (sequential), the manager
	// (hierarchical), or the last declared task (parallel).
	Final   string
	Started time.Time
	Ended   time.Time
}

// Duration returns total wall time of the run.
func (r *Result) Duration() time.Duration { return r.Ended.Sub(r.Started) }

// TotalTokens sums token usage across tasks.
func (r *Result) TotalTokens() (in, out int) {
	for _, tr := range r.TaskResults {
		in += tr.InputTokens
		out += tr.OutputTokens
	}
	return in, out
}

// Options tunes executor behavior.
type Options struct {
	// TaskRetries is how many extra attempts a task gets on retryable errors.
	TaskRetries int
	// TaskRetryDelay sleeps between task attempts.
	TaskRetryDelay time.Duration
	// ParallelLimit caps concurrently running tasks in a wave.
	ParallelLimit int
}

// Executor runs pipelines against a crew. It is stateless across runs and
// safe for concurrent use; per-provider rate limiters inside the agents are
// the only shared state.
type Executor struct {
	crew agents.Crew
	opts Options
	log  *logger.Logger
}

// NewExecutor creates an executor for a crew.
func NewExecutor(crew agents.Crew, opts Options) *Executor {
	if opts.ParallelLimit <= 0 {
		opts.ParallelLimit = 5
	}
	return &Executor{
		crew: crew,
		opts: opts,
		log:  logger.Get().With("component", "pipeline_executor"),
	}
}

// Run validates and executes a pipeline. The first task failure aborts the
// run: in-flight sibling tasks are cancelled and downstream tasks are never
// started. Partial results collected before the failure are returned
// alongside the error.
func (e *Executor) Run(ctx context.Context, p Pipeline, input Input) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	for _, t := range p.Tasks {
		if _, err := e.crew.Get(t.Agent); err != nil {
			return nil, errors.Wrapf(err, "task %s", t.ID)
		}
	}

	result := &Result{
		Pipeline:    p.Name,
		Mode:        p.Mode,
		TaskResults: make(map[string]TaskResult, len(p.Tasks)),
		Started:     time.Now(),
	}
	defer func() { result.Ended = time.Now() }()

	log := e.log.With("pipeline", p.Name, "mode", string(p.Mode))
	log.Info("Pipeline started", "tasks", len(p.Tasks))

	var err error
	switch p.Mode {
	case ModeParallel:
		err = e.runParallel(ctx, p, input, result)
	case ModeHierarchical:
		err = e.runHierarchical(ctx, p, input, result)
	default:
		err = e.runSequential(ctx, p, input, result)
	}

	if err != nil {
		log.Error("Pipeline failed", "error", err)
		return result, err
	}

	log.Info("Pipeline complete", "duration_ms", time.Since(result.Started).Milliseconds())
	return result, nil
}

// runSequential executes tasks in declaration order. A task with explicit
// dependencies sees only their outputs; one without sees everything produced
// so far.
func (e *Executor) runSequential(ctx context.Context, p Pipeline, input Input, result *Result) error {
	var order []string

	for _, t := range p.Tasks {
		deps := t.DependsOn
		if len(deps) == 0 {
			deps = order
		}

		tr, err := e.runTask(ctx, t, input, e.contextFor(deps, result))
		if err != nil {
			return err
		}

		result.TaskResults[t.ID] = tr
		result.Final = tr.Output
		order = append(order, t.ID)
	}

	return nil
}

// runParallel executes dependency waves, tasks within a wave concurrently.
func (e *Executor) runParallel(ctx context.Context, p Pipeline, input Input, result *Result) error {
	waves, err := p.waves()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	var rootErr error

	for _, wave := range waves {
		sem := make(chan struct{}, e.opts.ParallelLimit)
		var wg sync.WaitGroup

		for _, t := range wave {
			wg.Add(1)
			sem <- struct{}{}
			go func(t Task) {
				defer wg.Done()
				defer func() { <-sem }()

				mu.Lock()
				taskCtx := e.contextFor(t.DependsOn, result)
				mu.Unlock()

				tr, err := e.runTask(ctx, t, input, taskCtx)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					// The first failure is the root cause. Siblings aborted
					// by the cancel below fail with cancellation errors and
					// must not displace it.
					if rootErr == nil {
						rootErr = err
						cancel()
					}
					return
				}
				result.TaskResults[t.ID] = tr
			}(t)
		}

		wg.Wait()

		// Later waves depend on this one; after a failure they never start.
		if rootErr != nil {
			return rootErr
		}
	}

	last := p.Tasks[len(p.Tasks)-1]
	if tr, ok := result.TaskResults[last.ID]; ok {
		result.Final = tr.Output
	}

	return nil
}

// runHierarchical executes every non-manager task as a parallel DAG, then
// hands all their outputs to the manager task for synthesis. Delegation is
// explicit message passing: worker outputs become the manager's context.
func (e *Executor) runHierarchical(ctx context.Context, p Pipeline, input Input, result *Result) error {
	manager, ok := p.task(p.Manager)
	if !ok {
		return errors.Wrapf(errors.ErrInvalidInput, "manager task %s not found", p.Manager)
	}

	agent, err := e.crew.Get(manager.Agent)
	if err != nil {
		return err
	}
	if !agent.AllowDelegation() {
		return errors.Wrapf(errors.ErrConfiguration,
			"manager task %s uses agent %s which does not allow delegation", manager.ID, manager.Agent)
	}

	workers := Pipeline{Name: p.Name + "/workers", Mode: ModeParallel}
	var workerIDs []string
	for _, t := range p.Tasks {
		if t.ID == p.Manager {
			continue
		}
		workers.Tasks = append(workers.Tasks, t)
		workerIDs = append(workerIDs, t.ID)
	}

	if len(workers.Tasks) > 0 {
		if err := e.runParallel(ctx, workers, input, result); err != nil {
			return err
		}
	}

	tr, err := e.runTask(ctx, manager, input, e.contextFor(workerIDs, result))
	if err != nil {
		return err
	}

	result.TaskResults[manager.ID] = tr
	result.Final = tr.Output
	return nil
}

// runTask executes one task with bounded retries on retryable errors.
func (e *Executor) runTask(ctx context.Context, t Task, input Input, taskCtx string) (TaskResult, error) {
	agent, err := e.crew.Get(t.Agent)
	if err != nil {
		return TaskResult{}, errors.Wrapf(err, "task %s", t.ID)
	}

	runInput := agents.RunInput{
		Task:           t.Description,
		ExpectedOutput: t.ExpectedOutput,
		Context:        joinContext(input.Brief, taskCtx),
		Tickers:        input.Tickers,
		Quantities:     input.Quantities,
	}

	attempts := e.opts.TaskRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return TaskResult{}, errors.Wrapf(err, "task %s aborted", t.ID)
		}

		out, err := agent.Run(ctx, runInput)
		if err == nil {
			return TaskResult{
				TaskID:       t.ID,
				Agent:        t.Agent,
				Output:       out.Text,
				Model:        out.Model,
				InputTokens:  out.InputTokens,
				OutputTokens: out.OutputTokens,
				Duration:     out.Duration,
				Attempts:     attempt,
			}, nil
		}

		lastErr = err
		if !errors.Retryable(err) {
			break
		}

		e.log.Warn("Task attempt failed, retrying",
			"task", t.ID, "attempt", attempt, "error", err)

		if e.opts.TaskRetryDelay > 0 && attempt < attempts {
			select {
			case <-ctx.Done():
				return TaskResult{}, errors.Wrapf(ctx.Err(), "task %s aborted", t.ID)
			case <-time.After(e.opts.TaskRetryDelay):
			}
		}
	}

	return TaskResult{}, errors.Wrapf(lastErr, "task %s", t.ID)
}

// contextFor renders the outputs of the named tasks as handoff context.
func (e *Executor) contextFor(ids []string, result *Result) string {
	var b strings.Builder
	for _, id := range ids {
		if tr, ok := result.TaskResults[id]; ok {
			fmt.Fprintf(&b, "## %s (%s)\n%s\n\n", tr.TaskID, tr.Agent, tr.Output)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func joinContext(brief, taskCtx string) string {
	switch {
	case brief == "":
		return taskCtx
	case taskCtx == "":
		return brief
	default:
		return brief + "\n\n" + taskCtx
	}
}
