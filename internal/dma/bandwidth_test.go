package dma

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketWithinBurst(t *testing.T) {
	b := NewTokenBucket(1024 * 1024)

	// The bucket starts full, so a small take never waits.
	assert.Equal(t, time.Duration(0), b.Take(1024))
}

func TestTokenBucketDeficitWait(t *testing.T) {
	b := NewTokenBucket(1000)

	assert.Equal(t, time.Duration(0), b.Take(1000))

	// 500 bytes over at 1000 B/s is half a second of deficit.
	wait := b.Take(500)
	assert.GreaterOrEqual(t, wait, 400*time.Millisecond)
	assert.LessOrEqual(t, wait, 600*time.Millisecond)
}

func TestTokenBucketRefill(t *testing.T) {
	b := NewTokenBucket(10000)

	assert.Equal(t, time.Duration(0), b.Take(10000))

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, time.Duration(0), b.Take(500))
}
