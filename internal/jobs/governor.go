package jobs

import (
	"container/list"
	"context"
	"sync"

	"tachi/pkg/errors"
)

// Governor caps how many jobs execute at once. Waiters are admitted strictly
// in arrival order, so a burst of submissions drains as a FIFO queue.
type Governor struct {
	mu      sync.Mutex
	slots   int
	active  int
	waiters *list.List // of chan struct{}
}

// NewGovernor creates a governor with the given number of slots.
func NewGovernor(slots int) *Governor {
	if slots < 1 {
		slots = 1
	}
	return &Governor{
		slots:   slots,
		waiters: list.New(),
	}
}

// Acquire blocks until a slot is free or ctx is done.
func (g *Governor) Acquire(ctx context.Context) error {
	g.mu.Lock()
	if g.active < g.slots && g.waiters.Len() == 0 {
		g.active++
		g.mu.Unlock()
		return nil
	}

	ready := make(chan struct{})
	elem := g.waiters.PushBack(ready)
	g.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		g.mu.Lock()
		select {
		case <-ready:
			// Admitted and cancelled at the same time; the slot is ours to
			// give back.
			g.release()
			g.mu.Unlock()
			return errors.Wrap(ctx.Err(), "job slot wait aborted")
		default:
		}
		g.waiters.Remove(elem)
		g.mu.Unlock()
		return errors.Wrap(ctx.Err(), "job slot wait aborted")
	}
}

// Release frees a slot and admits the oldest waiter, if any.
func (g *Governor) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.release()
}

// release must be called with mu held.
func (g *Governor) release() {
	if front := g.waiters.Front(); front != nil {
		g.waiters.Remove(front)
		close(front.Value.(chan struct{}))
		return
	}
	if g.active > 0 {
		g.active--
	}
}

// InFlight returns how many slots are occupied.
func (g *Governor) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Waiting returns the queue depth.
func (g *Governor) Waiting() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.waiters.Len()
}
