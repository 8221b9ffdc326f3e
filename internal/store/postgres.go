package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresJobStore persists analysis jobs in PostgreSQL so job state survives
// process restarts. Results are stored as JSONB.
type PostgresJobStore struct {
	pool *pgxpool.Pool
}

// NewPostgresJobStore connects to the database and ensures the jobs table
// exists.
func NewPostgresJobStore(ctx context.Context, databaseURL string) (*PostgresJobStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresJobStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the connection pool.
func (s *PostgresJobStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresJobStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS analysis_jobs (
			id            TEXT PRIMARY KEY,
			url           TEXT NOT NULL,
			analysis_type TEXT NOT NULL,
			status        TEXT NOT NULL,
			progress      INT NOT NULL DEFAULT 0,
			results       JSONB NOT NULL DEFAULT '{}',
			error         TEXT NOT NULL DEFAULT '',
			started_at    TIMESTAMPTZ NOT NULL,
			completed_at  TIMESTAMPTZ
		)`)
	if err != nil {
		return fmt.Errorf("failed to create jobs table: %w", err)
	}
	return nil
}

// CreateJob inserts a new job record.
func (s *PostgresJobStore) CreateJob(ctx context.Context, job *Job) error {
	results, err := json.Marshal(job.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO analysis_jobs (id, url, analysis_type, status, progress, results, error, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		job.ID, job.URL, job.AnalysisType, string(job.Status), job.Progress,
		results, job.Error, job.StartedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetJob fetches a job by id, returning (nil, nil) when absent.
func (s *PostgresJobStore) GetJob(ctx context.Context, id string) (*Job, error) {
	var (
		job         Job
		status      string
		resultsJSON []byte
		completedAt *time.Time
	)

	err := s.pool.QueryRow(ctx,
		`SELECT id, url, analysis_type, status, progress, results, error, started_at, completed_at
		 FROM analysis_jobs WHERE id = $1`, id,
	).Scan(&job.ID, &job.URL, &job.AnalysisType, &status, &job.Progress,
		&resultsJSON, &job.Error, &job.StartedAt, &completedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	job.Status = JobStatus(status)
	job.CompletedAt = completedAt
	if err := json.Unmarshal(resultsJSON, &job.Results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal results: %w", err)
	}
	return &job, nil
}

// UpdateJob replaces the stored job state.
func (s *PostgresJobStore) UpdateJob(ctx context.Context, job *Job) error {
	results, err := json.Marshal(job.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`UPDATE analysis_jobs
		 SET status = $1, progress = $2, results = $3, error = $4, completed_at = $5
		 WHERE id = $6`,
		string(job.Status), job.Progress, results, job.Error, job.CompletedAt, job.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

// ListJobIDs returns all known job identifiers, newest first.
func (s *PostgresJobStore) ListJobIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM analysis_jobs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan job id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
