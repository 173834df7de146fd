// Package partition derives the per-iteration and per-chunk byte extents a
// transfer run is split into.
package partition

import (
	"errors"
	"fmt"
)

// ErrNotDivisible reports a buffer size that does not split exactly into
// iterations times copies equal chunks. Truncating instead would leave a
// tail of bytes no chunk covers, so such configurations are rejected.
var ErrNotDivisible = errors.New("buffer size does not divide evenly")

// Extent is a contiguous byte range within the transfer buffers.
type Extent struct {
	Offset int
	Size   int
}

// End returns the exclusive end offset of the extent.
func (e Extent) End() int {
	return e.Offset + e.Size
}

// Layout describes how a buffer splits into iterations, each moved as a
// number of equally sized chunk copies. A Layout is only constructed through
// NewLayout and is immutable afterwards.
type Layout struct {
	BufferSize int
	Iterations int
	Copies     int

	iterSize  int
	chunkSize int
}

// NewLayout validates the configuration and derives the chunk geometry.
// Buffer size must split exactly; one divisibility check covers both levels,
// since buffer = k*iterations*copies implies both divisions are exact.
func NewLayout(bufferSize, iterations, copies int) (Layout, error) {
	if bufferSize <= 0 {
		return Layout{}, fmt.Errorf("buffer size must be positive, got %d", bufferSize)
	}
	if iterations <= 0 {
		return Layout{}, fmt.Errorf("iterations must be positive, got %d", iterations)
	}
	if copies <= 0 {
		return Layout{}, fmt.Errorf("copies per iteration must be positive, got %d", copies)
	}
	if bufferSize%(iterations*copies) != 0 {
		return Layout{}, fmt.Errorf("%w: %d bytes across %d iterations x %d copies",
			ErrNotDivisible, bufferSize, iterations, copies)
	}

	iterSize := bufferSize / iterations
	return Layout{
		BufferSize: bufferSize,
		Iterations: iterations,
		Copies:     copies,
		iterSize:   iterSize,
		chunkSize:  iterSize / copies,
	}, nil
}

// IterationSize returns the byte extent covered by one iteration.
func (l Layout) IterationSize() int {
	return l.iterSize
}

// ChunkSize returns the byte length of one chunk copy.
func (l Layout) ChunkSize() int {
	return l.chunkSize
}

// Iteration returns the extent covered by iteration j.
func (l Layout) Iteration(j int) Extent {
	return Extent{Offset: l.iterSize * j, Size: l.iterSize}
}

// Chunk returns the extent of chunk i within iteration j:
// offset = chunk_size*i + iteration_size*j.
func (l Layout) Chunk(i, j int) Extent {
	return Extent{Offset: l.chunkSize*i + l.iterSize*j, Size: l.chunkSize}
}

// Chunks returns the extents of all copies within iteration j, in issue
// order.
func (l Layout) Chunks(j int) []Extent {
	out := make([]Extent, l.Copies)
	for i := range out {
		out[i] = l.Chunk(i, j)
	}
	return out
}
