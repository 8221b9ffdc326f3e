package store

import (
	"context"
	"sync"
	"time"
)

// MemoryJobStore is a mutex-guarded in-memory job store. Jobs live until
// process restart.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryJobStore creates an empty in-memory job store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]*Job)}
}

// CreateJob stores a new job.
func (s *MemoryJobStore) CreateJob(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

// GetJob returns a copy of the job, or (nil, nil) when absent.
func (s *MemoryJobStore) GetJob(_ context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	return cloneJob(job), nil
}

// UpdateJob replaces the stored job state.
func (s *MemoryJobStore) UpdateJob(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

// ListJobIDs returns all known job identifiers.
func (s *MemoryJobStore) ListJobIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.jobs))
	for id := range s.jobs {
		ids = append(ids, id)
	}
	return ids, nil
}

// cloneJob copies a job so callers cannot mutate stored state in place.
func cloneJob(job *Job) *Job {
	copied := *job
	copied.Results = make(map[string]any, len(job.Results))
	for k, v := range job.Results {
		copied.Results[k] = v
	}
	return &copied
}

type cacheEntry struct {
	value    any
	storedAt time.Time
}

// MemoryCache is a mutex-guarded in-memory cache with an optional TTL and
// size bound. Insertion order is tracked for oldest-first eviction.
type MemoryCache struct {
	mu      sync.Mutex
	policy  CachePolicy
	entries map[string]cacheEntry
	order   []string
}

// NewMemoryCache creates a cache with the given policy.
func NewMemoryCache(policy CachePolicy) *MemoryCache {
	return &MemoryCache{
		policy:  policy,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached value if present and not expired.
func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.policy.TTL > 0 && time.Since(entry.storedAt) > c.policy.TTL {
		c.remove(key)
		return nil, false
	}
	return entry.value, true
}

// Put stores a value, evicting the oldest entries when over the size bound.
func (c *MemoryCache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = cacheEntry{value: value, storedAt: time.Now()}

	if c.policy.MaxEntries > 0 {
		for len(c.entries) > c.policy.MaxEntries {
			c.remove(c.order[0])
		}
	}
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// remove deletes a key; callers must hold the lock.
func (c *MemoryCache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
