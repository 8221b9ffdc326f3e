package analysis

import (
	"context"
	"sync"
	"time"
)

// Pacer spaces out provider calls using a token bucket. Unlike a request
// limiter it never rejects, it blocks until a token is available or the
// context is cancelled. A nil Pacer never blocks.
type Pacer struct {
	capacity   int
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

// NewPacer creates a pacer with the given burst capacity and refill rate in
// tokens per second. The bucket starts full.
func NewPacer(capacity int, refillRate float64) *Pacer {
	return &Pacer{
		capacity:   capacity,
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available, then consumes it.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}

	for {
		p.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(p.lastRefill)
		p.tokens = min(float64(p.capacity), p.tokens+elapsed.Seconds()*p.refillRate)
		p.lastRefill = now

		if p.tokens >= 1.0 {
			p.tokens -= 1.0
			p.mu.Unlock()
			return nil
		}

		needed := 1.0 - p.tokens
		wait := time.Duration(needed / p.refillRate * float64(time.Second))
		p.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
