// Package store provides job tracking and analysis result caching behind
// pluggable backends: an in-memory store for single-process deployments and
// tests, and a PostgreSQL-backed job store for durable deployments.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of an analysis job.
type JobStatus string

const (
	// JobRunning means the background analysis is still executing.
	JobRunning JobStatus = "running"
	// JobCompleted means the analysis finished; Results is populated.
	JobCompleted JobStatus = "completed"
	// JobFailed means job bookkeeping itself failed; Error is populated.
	// Per-kind analysis failures do not fail the job.
	JobFailed JobStatus = "failed"
)

// Job is a tracked unit of asynchronous analysis work with pollable status.
type Job struct {
	ID           string         `json:"job_id"`
	URL          string         `json:"url"`
	AnalysisType string         `json:"analysis_type"`
	Status       JobStatus      `json:"status"`
	Progress     int            `json:"progress"`
	Results      map[string]any `json:"results"`
	Error        string         `json:"error,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// NewJob creates a running job with a collision-free identifier.
func NewJob(url, analysisType string) *Job {
	return &Job{
		ID:           uuid.New().String(),
		URL:          url,
		AnalysisType: analysisType,
		Status:       JobRunning,
		Progress:     0,
		Results:      make(map[string]any),
		StartedAt:    time.Now().UTC(),
	}
}

// JobStore tracks analysis jobs. Implementations must be safe for concurrent
// use. GetJob returns (nil, nil) when the job does not exist.
type JobStore interface {
	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	UpdateJob(ctx context.Context, job *Job) error
	ListJobIDs(ctx context.Context) ([]string, error)
}

// Cache memoizes single-kind analysis results keyed by "{kind}_{url}".
type Cache interface {
	Get(key string) (any, bool)
	Put(key string, value any)
	Len() int
}

// CachePolicy bounds cache growth. Zero values mean no expiry and no size
// bound, matching the behavior of an unconfigured deployment.
type CachePolicy struct {
	TTL        time.Duration
	MaxEntries int
}
