package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"tachi/pkg/errors"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStoreWithDB(sqlx.NewDb(db, "sqlmock")), mock
}

func TestPostgresStore_Create(t *testing.T) {
	store, mock := newMockStore(t)
	job := NewJob(KindPortfolio, []byte(`{"tickers":["AAPL"]}`), time.Hour)

	mock.ExpectExec("INSERT INTO analysis_jobs").
		WithArgs(job.ID, job.Kind, job.State, []byte(job.Request), []byte(nil),
			"", "", 0, job.CreatedAt, nil, nil, job.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Create(context.Background(), job); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newMockStore(t)
	job := NewJob(KindStock, []byte(`{"ticker":"TSLA"}`), time.Hour)

	rows := sqlmock.NewRows([]string{
		"id", "kind", "state", "request", "result",
		"error_kind", "error_message", "attempts",
		"created_at", "started_at", "finished_at", "expires_at",
	}).AddRow(job.ID, job.Kind, job.State, []byte(job.Request), nil,
		"", "", 0, job.CreatedAt, nil, nil, job.ExpiresAt)

	mock.ExpectQuery("SELECT (.+) FROM analysis_jobs").
		WithArgs(job.ID).
		WillReturnRows(rows)

	got, err := store.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != job.ID || got.Kind != KindStock || got.State != StateQueued {
		t.Fatalf("unexpected job: %+v", got)
	}
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	job := NewJob(KindStock, []byte(`{}`), time.Hour)

	mock.ExpectQuery("SELECT (.+) FROM analysis_jobs").
		WithArgs(job.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := store.Get(context.Background(), job.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresStore_UpdateMissingRow(t *testing.T) {
	store, mock := newMockStore(t)
	job := NewJob(KindPortfolio, []byte(`{}`), time.Hour)

	mock.ExpectExec("UPDATE analysis_jobs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Update(context.Background(), job); !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresStore_DeleteExpired(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectExec("DELETE FROM analysis_jobs WHERE expires_at").
		WithArgs(now, StateRunning).
		WillReturnResult(sqlmock.NewResult(0, 3))

	removed, err := store.DeleteExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3, got %d", removed)
	}
}
