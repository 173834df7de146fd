package dma

import (
	"sync"
	"time"
)

// TokenBucket meters aggregate copy bandwidth across all engine workers,
// modeling contention on a shared transfer bus. The bucket starts full and
// refills continuously at the configured rate; Take never rejects, it
// returns how long the caller must stall before moving the requested bytes.
type TokenBucket struct {
	rate float64

	mu     sync.Mutex
	tokens float64
	max    float64
	last   time.Time
}

// NewTokenBucket returns a bucket refilling at bytesPerSec.
func NewTokenBucket(bytesPerSec int64) *TokenBucket {
	r := float64(bytesPerSec)
	return &TokenBucket{
		rate:   r,
		tokens: r,
		max:    r,
		last:   time.Now(),
	}
}

// Take reserves n bytes of bandwidth and returns the wait the caller owes
// before the transfer may proceed. A zero return means the bucket had enough
// tokens.
func (b *TokenBucket) Take(n int) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens += now.Sub(b.last).Seconds() * b.rate
	if b.tokens > b.max {
		b.tokens = b.max
	}
	b.last = now

	b.tokens -= float64(n)
	if b.tokens >= 0 {
		return 0
	}
	return time.Duration(-b.tokens / b.rate * float64(time.Second))
}
