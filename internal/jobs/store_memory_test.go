package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"tachi/pkg/errors"
)

func TestMemoryStore_CRUD(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	job := NewJob(KindPortfolio, []byte(`{"tickers":["AAPL"]}`), time.Hour)
	if err := store.Create(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, job); !errors.Is(err, errors.ErrAlreadyExists) {
		t.Fatalf("duplicate create should fail, got %v", err)
	}

	got, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != StateQueued {
		t.Fatalf("unexpected state %s", got.State)
	}

	// Mutating the returned copy must not touch the stored record.
	got.State = StateFailed
	again, _ := store.Get(ctx, job.ID)
	if again.State != StateQueued {
		t.Fatal("store must hand out copies")
	}

	_ = job.Transition(StateRunning)
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("update: %v", err)
	}
	updated, _ := store.Get(ctx, job.ID)
	if updated.State != StateRunning {
		t.Fatalf("update not applied, state %s", updated.State)
	}

	if err := store.Delete(ctx, job.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, job.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, uuid.New()); !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("deleting unknown job should fail, got %v", err)
	}
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	older := NewJob(KindPortfolio, []byte(`{}`), time.Hour)
	older.CreatedAt = time.Now().Add(-time.Minute)
	newer := NewJob(KindStock, []byte(`{}`), time.Hour)

	_ = store.Create(ctx, older)
	_ = store.Create(ctx, newer)

	out, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 2 || out[0].ID != newer.ID {
		t.Fatalf("expected newest first, got %v", out)
	}

	limited, _ := store.List(ctx, 1)
	if len(limited) != 1 {
		t.Fatalf("limit not applied: %d", len(limited))
	}
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	expired := NewJob(KindPortfolio, []byte(`{}`), -time.Minute)
	_ = expired.Transition(StateRunning)
	_ = expired.Transition(StateSucceeded)

	running := NewJob(KindPortfolio, []byte(`{}`), -time.Minute)
	_ = running.Transition(StateRunning)

	fresh := NewJob(KindStock, []byte(`{}`), time.Hour)

	_ = store.Create(ctx, expired)
	_ = store.Create(ctx, running)
	_ = store.Create(ctx, fresh)

	removed, err := store.DeleteExpired(ctx, time.Now())
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := store.Get(ctx, running.ID); err != nil {
		t.Fatal("running jobs must survive the sweep")
	}
	if _, err := store.Get(ctx, fresh.ID); err != nil {
		t.Fatal("fresh jobs must survive the sweep")
	}
}
