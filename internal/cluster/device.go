// Package cluster models the accelerator side of the benchmark: a compute
// cluster with a small fast local memory fed by an asynchronous copy
// engine. Device owns the engine and the fast-tier allocator; Pipeline runs
// the staged copy-in, transform, copy-out loop over a partitioned buffer.
package cluster

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/internal/dma"
	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/internal/tcdm"
)

// ErrDeviceClosed is returned when a closed device is closed again.
var ErrDeviceClosed = errors.New("cluster: device closed")

// DefaultL1Capacity sizes the fast tier when the configuration does not.
const DefaultL1Capacity = 256 * 1024

// Config describes a cluster device.
type Config struct {
	// L1Capacity is the fast-tier size in bytes. Zero means
	// DefaultL1Capacity.
	L1Capacity int
	// Engine configures the copy engine.
	Engine dma.Config
}

// Device bundles a copy engine with its fast-tier allocator and manages
// their shared lifecycle.
type Device struct {
	engine *dma.Engine
	l1     *tcdm.Allocator

	closed bool
}

// Open starts a device: a running copy engine plus an empty fast tier.
func Open(cfg Config) (*Device, error) {
	if cfg.L1Capacity == 0 {
		cfg.L1Capacity = DefaultL1Capacity
	}
	if cfg.L1Capacity < 0 {
		return nil, fmt.Errorf("cluster: l1 capacity must be positive, got %d", cfg.L1Capacity)
	}

	d := &Device{
		engine: dma.New(cfg.Engine),
		l1:     tcdm.NewAllocator(cfg.L1Capacity),
	}
	log.Debug().Int("l1_capacity", cfg.L1Capacity).Msg("cluster device opened")
	return d, nil
}

// DMA returns the device's copy engine.
func (d *Device) DMA() *dma.Engine {
	return d.engine
}

// L1 returns the fast-tier allocator.
func (d *Device) L1() *tcdm.Allocator {
	return d.l1
}

// Close stops the copy engine after draining outstanding transfers.
// Fast-tier buffers still allocated at close are reported but do not fail
// the close.
func (d *Device) Close() error {
	if d.closed {
		return ErrDeviceClosed
	}
	d.closed = true

	if stats := d.l1.Stats(); stats.Live > 0 {
		log.Warn().
			Int("buffers", stats.Live).
			Int("bytes", stats.InUse).
			Msg("fast-tier buffers still allocated at device close")
	}
	if err := d.engine.Close(); err != nil {
		return fmt.Errorf("close dma engine: %w", err)
	}
	log.Debug().Msg("cluster device closed")
	return nil
}
