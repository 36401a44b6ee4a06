package jobs

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"tachi/pkg/errors"
)

var _ Store = (*PostgresStore)(nil)

// Schema creates the jobs table. Applied at startup when the postgres
// driver is selected.
const Schema = `
CREATE TABLE IF NOT EXISTS analysis_jobs (
	id            UUID PRIMARY KEY,
	kind          TEXT NOT NULL,
	state         TEXT NOT NULL,
	request       JSONB NOT NULL,
	result        JSONB,
	error_kind    TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	attempts      INT NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL,
	started_at    TIMESTAMPTZ,
	finished_at   TIMESTAMPTZ,
	expires_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analysis_jobs_created_at ON analysis_jobs (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_analysis_jobs_expires_at ON analysis_jobs (expires_at);
`

// PostgresStore persists jobs in PostgreSQL so they survive restarts and
// can be shared by multiple instances.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects to the database and ensures the schema.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connect to postgres")
	}
	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "apply jobs schema")
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreWithDB wraps an existing connection, mainly for tests.
func NewPostgresStoreWithDB(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// DB exposes the underlying connection for health checks.
func (s *PostgresStore) DB() *sqlx.DB { return s.db }

func (s *PostgresStore) Create(ctx context.Context, job *Job) error {
	query := `
		INSERT INTO analysis_jobs (
			id, kind, state, request, result,
			error_kind, error_message, attempts,
			created_at, started_at, finished_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.db.ExecContext(ctx, query,
		job.ID, job.Kind, job.State, []byte(job.Request), []byte(job.Result),
		job.ErrorKind, job.ErrorMessage, job.Attempts,
		job.CreatedAt, job.StartedAt, job.FinishedAt, job.ExpiresAt,
	)
	if err != nil {
		return errors.Wrap(err, "create job")
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	query := `
		SELECT id, kind, state, request, result,
		       error_kind, error_message, attempts,
		       created_at, started_at, finished_at, expires_at
		FROM analysis_jobs
		WHERE id = $1
	`

	job := &Job{}
	err := s.db.GetContext(ctx, job, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "job %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get job")
	}
	return job, nil
}

func (s *PostgresStore) Update(ctx context.Context, job *Job) error {
	query := `
		UPDATE analysis_jobs
		SET state = $2, result = $3,
		    error_kind = $4, error_message = $5, attempts = $6,
		    started_at = $7, finished_at = $8
		WHERE id = $1
	`

	res, err := s.db.ExecContext(ctx, query,
		job.ID, job.State, []byte(job.Result),
		job.ErrorKind, job.ErrorMessage, job.Attempts,
		job.StartedAt, job.FinishedAt,
	)
	if err != nil {
		return errors.Wrap(err, "update job")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "job %s", job.ID)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, kind, state, request, result,
		       error_kind, error_message, attempts,
		       created_at, started_at, finished_at, expires_at
		FROM analysis_jobs
		ORDER BY created_at DESC
		LIMIT $1
	`

	var out []*Job
	if err := s.db.SelectContext(ctx, &out, query, limit); err != nil {
		return nil, errors.Wrap(err, "list jobs")
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analysis_jobs WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete job")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "job %s", id)
	}
	return nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM analysis_jobs WHERE expires_at < $1 AND state != $2`, now, StateRunning)
	if err != nil {
		return 0, errors.Wrap(err, "delete expired jobs")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "count expired jobs")
	}
	return int(n), nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }
