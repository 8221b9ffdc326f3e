package analysis

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jonathan/website-analyzer/internal/store"
)

// Runner executes analyses in the background and records their progress in a
// job store. Each job gets its own cancellable context detached from the
// request that started it.
type Runner struct {
	svc  *Service
	jobs store.JobStore

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewRunner creates a runner backed by the given service and job store.
func NewRunner(svc *Service, jobs store.JobStore) *Runner {
	return &Runner{
		svc:     svc,
		jobs:    jobs,
		cancels: make(map[string]context.CancelFunc),
	}
}

// Start registers a job and launches it in the background. The returned job
// reflects the initial running state.
func (r *Runner) Start(ctx context.Context, url, analysisType string) (*store.Job, error) {
	job := store.NewJob(url, analysisType)
	if err := r.jobs.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to register job: %w", err)
	}

	// The job outlives the request; only explicit cancellation or shutdown
	// stops it.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.mu.Lock()
	r.cancels[job.ID] = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(runCtx, job)

	return job, nil
}

// Cancel stops a running job. It reports whether the job was active.
func (r *Runner) Cancel(id string) bool {
	r.mu.Lock()
	cancel, ok := r.cancels[id]
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Shutdown cancels all running jobs and waits for their goroutines to exit.
func (r *Runner) Shutdown() {
	r.mu.Lock()
	for _, cancel := range r.cancels {
		cancel()
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Runner) run(ctx context.Context, job *store.Job) {
	defer r.wg.Done()
	defer func() {
		r.mu.Lock()
		if cancel, ok := r.cancels[job.ID]; ok {
			cancel()
			delete(r.cancels, job.ID)
		}
		r.mu.Unlock()
	}()

	kinds := Kinds
	if job.AnalysisType != "all" {
		kinds = []string{job.AnalysisType}
	}

	log.Printf("[runner] job %s: starting %s analysis of %s", job.ID, job.AnalysisType, job.URL)

	for i, kind := range kinds {
		if ctx.Err() != nil {
			r.finish(job, store.JobFailed, "analysis cancelled")
			return
		}

		art := r.svc.Run(ctx, kind, job.URL)
		if art.Failed {
			log.Printf("[runner] job %s: %s analysis failed: %s", job.ID, kind, art.ErrorDetail)
		} else {
			log.Printf("[runner] job %s: %s analysis completed", job.ID, kind)
		}
		job.Results[kind] = art.Value()
		job.Progress = (i + 1) * 100 / len(kinds)

		if err := r.jobs.UpdateJob(context.WithoutCancel(ctx), job); err != nil {
			log.Printf("[runner] job %s: failed to record progress: %v", job.ID, err)
		}
	}

	if ctx.Err() != nil {
		r.finish(job, store.JobFailed, "analysis cancelled")
		return
	}
	r.finish(job, store.JobCompleted, "")
}

// finish records the terminal state. Partial results stay on the job so
// callers can inspect what completed before a failure.
func (r *Runner) finish(job *store.Job, status store.JobStatus, errMsg string) {
	job.Status = status
	job.Error = errMsg
	if status == store.JobCompleted {
		job.Progress = 100
	}
	now := time.Now().UTC()
	job.CompletedAt = &now

	if err := r.jobs.UpdateJob(context.Background(), job); err != nil {
		log.Printf("[runner] job %s: failed to record final state: %v", job.ID, err)
	}
	log.Printf("[runner] job %s: %s", job.ID, status)
}
