package cluster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/internal/dma"
)

func TestDeviceOpenClose(t *testing.T) {
	d, err := Open(Config{})
	require.NoError(t, err)

	assert.NotNil(t, d.DMA())
	assert.NotNil(t, d.L1())
	assert.Equal(t, DefaultL1Capacity, d.L1().Capacity())

	require.NoError(t, d.Close())
	assert.ErrorIs(t, d.Close(), ErrDeviceClosed)
}

func TestDeviceCustomCapacity(t *testing.T) {
	d, err := Open(Config{L1Capacity: 4096})
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, 4096, d.L1().Capacity())
}

func TestDeviceRejectsNegativeCapacity(t *testing.T) {
	_, err := Open(Config{L1Capacity: -1})
	assert.Error(t, err)
}

func TestDeviceCloseWithLiveBuffers(t *testing.T) {
	d, err := Open(Config{L1Capacity: 4096})
	require.NoError(t, err)

	// A leaked buffer is reported but must not fail the close.
	_, err = d.L1().Alloc(1024)
	require.NoError(t, err)
	assert.NoError(t, d.Close())
}

func TestDeviceEngineUsable(t *testing.T) {
	d, err := Open(Config{Engine: dma.Config{Workers: 1}})
	require.NoError(t, err)
	defer d.Close()

	ext := []byte{1, 2, 3, 4}
	loc := make([]byte, 4)
	cmd, err := d.DMA().Issue(dma.ExtToLoc, ext, loc)
	require.NoError(t, err)
	require.NoError(t, cmd.Wait(context.Background()))
	assert.Equal(t, ext, loc)
}
