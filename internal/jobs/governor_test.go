package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"tachi/pkg/errors"
)

func TestGovernor_CapsInFlight(t *testing.T) {
	g := NewGovernor(2)
	ctx := context.Background()

	if err := g.Acquire(ctx); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := g.Acquire(ctx); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if g.InFlight() != 2 {
		t.Fatalf("expected 2 in flight, got %d", g.InFlight())
	}

	ctx2, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := g.Acquire(ctx2); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	g.Release()
	if err := g.Acquire(ctx); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}

func TestGovernor_FIFOAdmission(t *testing.T) {
	g := NewGovernor(1)
	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	const waiters = 5
	var (
		mu    sync.Mutex
		order []int
	)
	started := make(chan struct{}, waiters)
	done := make(chan struct{}, waiters)

	for i := 0; i < waiters; i++ {
		i := i
		go func() {
			// Signal before blocking so enqueue order is deterministic.
			for g.Waiting() != i {
				time.Sleep(time.Millisecond)
			}
			started <- struct{}{}
			if err := g.Acquire(context.Background()); err != nil {
				t.Errorf("acquire: %v", err)
				done <- struct{}{}
				return
			}
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			g.Release()
			done <- struct{}{}
		}()
		<-started
	}

	// Wait until all five are queued, then release the held slot.
	deadline := time.Now().Add(2 * time.Second)
	for g.Waiting() != waiters {
		if time.Now().After(deadline) {
			t.Fatalf("waiters never queued, waiting=%d", g.Waiting())
		}
		time.Sleep(time.Millisecond)
	}
	g.Release()

	for i := 0; i < waiters; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("waiter did not finish")
		}
	}

	for i, got := range order {
		if got != i {
			t.Fatalf("admission order %v, want FIFO", order)
		}
	}
}

func TestGovernor_CancelledWaiterIsSkipped(t *testing.T) {
	g := NewGovernor(1)
	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- g.Acquire(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for g.Waiting() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("waiter never queued")
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}

	// The abandoned waiter must not consume the slot on release.
	g.Release()
	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	if err := g.Acquire(ctx2); err != nil {
		t.Fatalf("slot leaked to cancelled waiter: %v", err)
	}
}
