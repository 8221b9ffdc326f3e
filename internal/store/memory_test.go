package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryJobStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryJobStore()

	job := NewJob("https://example.com", "all")
	require.NotEmpty(t, job.ID)
	assert.Equal(t, JobRunning, job.Status)
	assert.Equal(t, 0, job.Progress)

	require.NoError(t, s.CreateJob(ctx, job))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, JobRunning, got.Status)

	job.Status = JobCompleted
	job.Progress = 100
	job.Results["seo"] = "report"
	now := time.Now().UTC()
	job.CompletedAt = &now
	require.NoError(t, s.UpdateJob(ctx, job))

	got, err = s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, "report", got.Results["seo"])

	ids, err := s.ListJobIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{job.ID}, ids)
}

func TestMemoryJobStore_MissingJob(t *testing.T) {
	s := NewMemoryJobStore()
	got, err := s.GetJob(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryJobStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryJobStore()
	job := NewJob("https://example.com", "all")
	require.NoError(t, s.CreateJob(ctx, job))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	got.Results["mutated"] = true

	again, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.NotContains(t, again.Results, "mutated")
}

func TestNewJob_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		job := NewJob("https://example.com", "all")
		assert.False(t, seen[job.ID], "duplicate job id %s", job.ID)
		seen[job.ID] = true
	}
}

func TestMemoryCache_PutGet(t *testing.T) {
	c := NewMemoryCache(CachePolicy{})
	c.Put("seo_https://example.com", "report")

	got, ok := c.Get("seo_https://example.com")
	require.True(t, ok)
	assert.Equal(t, "report", got)
	assert.Equal(t, 1, c.Len())

	_, ok = c.Get("audit_https://example.com")
	assert.False(t, ok)
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	c := NewMemoryCache(CachePolicy{TTL: 10 * time.Millisecond})
	c.Put("k", "v")

	_, ok := c.Get("k")
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_SizeBoundEvictsOldest(t *testing.T) {
	c := NewMemoryCache(CachePolicy{MaxEntries: 2})
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry should be evicted")
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestMemoryCache_OverwriteDoesNotGrow(t *testing.T) {
	c := NewMemoryCache(CachePolicy{MaxEntries: 2})
	c.Put("a", 1)
	c.Put("a", 2)
	assert.Equal(t, 1, c.Len())

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, got)
}
