package tcdm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocatorAllocFree(t *testing.T) {
	a := NewAllocator(4096)

	buf, err := a.Alloc(2048)
	require.NoError(t, err)
	require.NotNil(t, buf)
	assert.Equal(t, 2048, buf.Len())
	assert.Len(t, buf.Bytes(), 2048)
	assert.Equal(t, 2048, a.InUse())

	require.NoError(t, a.Free(buf))
	assert.Equal(t, 0, a.InUse())
}

func TestAllocatorOutOfMemory(t *testing.T) {
	a := NewAllocator(1024)

	buf, err := a.Alloc(512)
	require.NoError(t, err)

	_, err = a.Alloc(1024)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfMemory)

	// Freeing makes the capacity available again.
	require.NoError(t, a.Free(buf))
	buf2, err := a.Alloc(1024)
	require.NoError(t, err)
	require.NoError(t, a.Free(buf2))
}

func TestAllocatorBadSize(t *testing.T) {
	a := NewAllocator(1024)

	_, err := a.Alloc(0)
	assert.ErrorIs(t, err, ErrBadSize)
	_, err = a.Alloc(-16)
	assert.ErrorIs(t, err, ErrBadSize)
}

func TestAllocatorDoubleFree(t *testing.T) {
	a := NewAllocator(1024)

	buf, err := a.Alloc(256)
	require.NoError(t, err)
	require.NoError(t, a.Free(buf))

	err = a.Free(buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotAllocated)
	assert.Equal(t, 0, a.InUse(), "double free must not corrupt accounting")
}

func TestAllocatorFreeForeignBuffer(t *testing.T) {
	a := NewAllocator(1024)
	b := NewAllocator(1024)

	buf, err := b.Alloc(128)
	require.NoError(t, err)

	assert.ErrorIs(t, a.Free(buf), ErrNotAllocated)
	assert.ErrorIs(t, a.Free(nil), ErrNotAllocated)
}

func TestAllocatorStats(t *testing.T) {
	a := NewAllocator(4096)

	b1, err := a.Alloc(1024)
	require.NoError(t, err)
	b2, err := a.Alloc(2048)
	require.NoError(t, err)

	s := a.Stats()
	assert.Equal(t, 4096, s.Capacity)
	assert.Equal(t, 3072, s.InUse)
	assert.Equal(t, 3072, s.Peak)
	assert.Equal(t, 2, s.Live)
	assert.Equal(t, uint64(3072), s.TotalAllocated)

	require.NoError(t, a.Free(b1))
	require.NoError(t, a.Free(b2))

	s = a.Stats()
	assert.Equal(t, 0, s.InUse)
	assert.Equal(t, 3072, s.Peak, "peak is sticky")
	assert.Equal(t, 0, s.Live)
	assert.Equal(t, uint64(3072), s.TotalAllocated)
}

func TestAllocatorConcurrent(t *testing.T) {
	a := NewAllocator(1 << 20)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				buf, err := a.Alloc(1024)
				if !assert.NoError(t, err) {
					return
				}
				assert.NoError(t, a.Free(buf))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, a.InUse())
	assert.Equal(t, 0, a.Stats().Live)
}
