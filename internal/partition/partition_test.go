package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLayoutValidation(t *testing.T) {
	tests := []struct {
		name       string
		buffer     int
		iterations int
		copies     int
		wantErr    bool
	}{
		{"valid small", 2048, 4, 2, false},
		{"valid single", 16, 1, 1, false},
		{"valid dense", 2048, 8, 8, false},
		{"zero buffer", 0, 4, 2, true},
		{"negative buffer", -2048, 4, 2, true},
		{"zero iterations", 2048, 0, 2, true},
		{"zero copies", 2048, 4, 0, true},
		{"uneven iterations", 2048, 3, 1, true},
		{"uneven copies", 2048, 4, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLayout(tt.buffer, tt.iterations, tt.copies)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewLayoutRejectsRemainder(t *testing.T) {
	// 2048 = 3*682 + 2: the reference behavior would silently truncate the
	// tail; here the configuration is rejected outright.
	_, err := NewLayout(2048, 3, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotDivisible)
}

func TestLayoutSizes(t *testing.T) {
	l, err := NewLayout(2048, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 512, l.IterationSize())
	assert.Equal(t, 256, l.ChunkSize())

	dense, err := NewLayout(2048, 8, 8)
	require.NoError(t, err)
	assert.Equal(t, 256, dense.IterationSize())
	assert.Equal(t, 32, dense.ChunkSize())
	assert.Equal(t, 64, dense.Iterations*dense.Copies, "total chunk transfers per direction")
}

func TestChunkOffsets(t *testing.T) {
	l, err := NewLayout(2048, 4, 2)
	require.NoError(t, err)

	// offset(i, j) = chunk_size*i + iteration_size*j
	assert.Equal(t, Extent{Offset: 0, Size: 256}, l.Chunk(0, 0))
	assert.Equal(t, Extent{Offset: 256, Size: 256}, l.Chunk(1, 0))
	assert.Equal(t, Extent{Offset: 512, Size: 256}, l.Chunk(0, 1))
	assert.Equal(t, Extent{Offset: 768, Size: 256}, l.Chunk(1, 1))
	assert.Equal(t, Extent{Offset: 1792, Size: 256}, l.Chunk(1, 3))

	assert.Equal(t, Extent{Offset: 1536, Size: 512}, l.Iteration(3))
	assert.Equal(t, 2048, l.Iteration(3).End())
}

func TestChunksAreContiguous(t *testing.T) {
	l, err := NewLayout(4096, 4, 4)
	require.NoError(t, err)

	for j := 0; j < l.Iterations; j++ {
		iter := l.Iteration(j)
		chunks := l.Chunks(j)
		require.Len(t, chunks, l.Copies)

		assert.Equal(t, iter.Offset, chunks[0].Offset, "iteration %d", j)
		for i := 1; i < len(chunks); i++ {
			assert.Equal(t, chunks[i-1].End(), chunks[i].Offset,
				"gap between chunks %d and %d of iteration %d", i-1, i, j)
		}
		assert.Equal(t, iter.End(), chunks[len(chunks)-1].End(), "iteration %d", j)
	}
}

func TestPartitionCompleteness(t *testing.T) {
	configs := []struct {
		buffer     int
		iterations int
		copies     int
	}{
		{2048, 4, 2},
		{2048, 8, 8},
		{2048, 1, 1},
		{1024, 2, 4},
		{4096, 16, 4},
	}

	for _, cfg := range configs {
		l, err := NewLayout(cfg.buffer, cfg.iterations, cfg.copies)
		require.NoError(t, err)

		covered := make([]int, cfg.buffer)
		for j := 0; j < l.Iterations; j++ {
			for _, c := range l.Chunks(j) {
				for k := c.Offset; k < c.End(); k++ {
					covered[k]++
				}
			}
		}
		for k, n := range covered {
			require.Equal(t, 1, n, "config %+v byte %d covered %d times", cfg, k, n)
		}
	}
}
