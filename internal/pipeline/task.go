package pipeline

import (
	"tachi/internal/agents"
	"tachi/pkg/errors"
)

// Mode selects how a pipeline schedules its tasks.
type Mode string

const (
	// ModeSequential runs tasks strictly in declaration order.
	ModeSequential Mode = "sequential"

	// ModeParallel runs independent tasks concurrently, honoring DependsOn.
	ModeParallel Mode = "parallel"

	// ModeHierarchical runs worker tasks first, then a delegating manager
	// task synthesizes their outputs.
	ModeHierarchical Mode = "hierarchical"
)

// Task is one unit of agent work inside a pipeline.
type Task struct {
	// ID is unique within the pipeline.
	ID string
	// Agent names the crew member executing the task.
	Agent agents.AgentType
	// Description is the instruction handed to the agent.
	Description string
	// ExpectedOutput describes the desired answer shape.
	ExpectedOutput string
	// DependsOn lists task IDs whose outputs feed this task's context.
	DependsOn []string
}

// Pipeline is a named DAG of tasks plus a scheduling mode.
type Pipeline struct {
	Name  string
	Mode  Mode
	Tasks []Task

	// Manager designates the delegating task for hierarchical mode. It must
	// reference an agent that allows delegation.
	Manager string
}

// Validate checks structural soundness: unique IDs, known dependencies, no
// cycles, and a valid manager for hierarchical mode.
func (p Pipeline) Validate() error {
	if len(p.Tasks) == 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "pipeline %s has no tasks", p.Name)
	}

	byID := make(map[string]Task, len(p.Tasks))
	for _, t := range p.Tasks {
		if t.ID == "" {
			return errors.Wrapf(errors.ErrInvalidInput, "pipeline %s has a task with no ID", p.Name)
		}
		if _, dup := byID[t.ID]; dup {
			return errors.Wrapf(errors.ErrInvalidInput, "pipeline %s has duplicate task %s", p.Name, t.ID)
		}
		byID[t.ID] = t
	}

	for _, t := range p.Tasks {
		for _, dep := range t.DependsOn {
			if dep == t.ID {
				return errors.Wrapf(errors.ErrInvalidInput, "task %s depends on itself", t.ID)
			}
			if _, ok := byID[dep]; !ok {
				return errors.Wrapf(errors.ErrInvalidInput, "task %s depends on unknown task %s", t.ID, dep)
			}
		}
	}

	if _, err := p.waves(); err != nil {
		return err
	}

	if p.Mode == ModeHierarchical {
		if p.Manager == "" {
			return errors.Wrapf(errors.ErrInvalidInput, "hierarchical pipeline %s has no manager task", p.Name)
		}
		if _, ok := byID[p.Manager]; !ok {
			return errors.Wrapf(errors.ErrInvalidInput, "manager task %s is not in pipeline %s", p.Manager, p.Name)
		}
	}

	return nil
}

// waves groups tasks into dependency levels: every task in wave n depends
// only on tasks in waves < n. Fails on cycles.
func (p Pipeline) waves() ([][]Task, error) {
	remaining := make(map[string]Task, len(p.Tasks))
	for _, t := range p.Tasks {
		remaining[t.ID] = t
	}

	done := make(map[string]bool, len(p.Tasks))
	var out [][]Task

	for len(remaining) > 0 {
		var wave []Task
		// Preserve declaration order inside each wave.
		for _, t := range p.Tasks {
			if _, pending := remaining[t.ID]; !pending {
				continue
			}
			ready := true
			for _, dep := range t.DependsOn {
				if !done[dep] {
					ready = false
					break
				}
			}
			if ready {
				wave = append(wave, t)
			}
		}

		if len(wave) == 0 {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "pipeline %s has a dependency cycle", p.Name)
		}

		for _, t := range wave {
			done[t.ID] = true
			delete(remaining, t.ID)
		}
		out = append(out, wave)
	}

	return out, nil
}

// task returns the task with the given ID.
func (p Pipeline) task(id string) (Task, bool) {
	for _, t := range p.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}
