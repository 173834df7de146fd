// Package tcdm models the cluster's tightly coupled data memory: a small,
// capacity-bounded scratchpad handed out to transfer runs.
package tcdm

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrOutOfMemory is returned when an allocation does not fit in the
	// remaining capacity.
	ErrOutOfMemory = errors.New("tcdm: out of memory")

	// ErrBadSize is returned for non-positive allocation sizes.
	ErrBadSize = errors.New("tcdm: allocation size must be positive")

	// ErrNotAllocated is returned when freeing a buffer this allocator does
	// not own, including buffers already freed.
	ErrNotAllocated = errors.New("tcdm: buffer not allocated here")
)

// Buffer is one live allocation. The backing bytes stay valid for the
// lifetime of the Go slice, but accounting ends at Free.
type Buffer struct {
	data []byte
}

// Bytes returns the allocated byte range.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the allocation size.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Allocator hands out byte ranges from a fixed fast-tier capacity and keeps
// usage accounting. Double frees are detected. Safe for concurrent use.
type Allocator struct {
	mu       sync.Mutex
	capacity int
	used     int
	peak     int
	total    uint64
	live     map[*Buffer]struct{}
}

// Stats is a point-in-time snapshot of allocator accounting.
type Stats struct {
	Capacity       int
	InUse          int
	Peak           int
	Live           int
	TotalAllocated uint64
}

// NewAllocator returns an allocator bounded by capacity bytes.
func NewAllocator(capacity int) *Allocator {
	return &Allocator{
		capacity: capacity,
		live:     make(map[*Buffer]struct{}),
	}
}

// Alloc reserves n bytes. It fails with ErrOutOfMemory when the request does
// not fit in the remaining capacity.
func (a *Allocator) Alloc(n int) (*Buffer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadSize, n)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.used+n > a.capacity {
		return nil, fmt.Errorf("%w: requested %d with %d of %d in use",
			ErrOutOfMemory, n, a.used, a.capacity)
	}

	b := &Buffer{data: make([]byte, n)}
	a.live[b] = struct{}{}
	a.used += n
	a.total += uint64(n)
	if a.used > a.peak {
		a.peak = a.used
	}
	return b, nil
}

// Free releases a buffer back to the allocator. Freeing a buffer twice, or
// one obtained elsewhere, fails with ErrNotAllocated.
func (a *Allocator) Free(b *Buffer) error {
	if b == nil {
		return ErrNotAllocated
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.live[b]; !ok {
		return fmt.Errorf("%w: %d bytes", ErrNotAllocated, b.Len())
	}
	delete(a.live, b)
	a.used -= b.Len()
	return nil
}

// Capacity returns the total scratchpad size.
func (a *Allocator) Capacity() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.capacity
}

// InUse returns the bytes currently allocated.
func (a *Allocator) InUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used
}

// Stats returns a snapshot of the allocator accounting.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Stats{
		Capacity:       a.capacity,
		InUse:          a.used,
		Peak:           a.peak,
		Live:           len(a.live),
		TotalAllocated: a.total,
	}
}
