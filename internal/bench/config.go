// Package bench runs and verifies memory-transfer benchmarks: it generates
// a deterministic source buffer, drives it through the cluster pipeline
// under cycle measurement, and checks the output byte for byte. Sweep runs
// the full copies-by-iterations matrix.
package bench

import (
	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/internal/partition"
)

// Config selects one benchmark geometry.
type Config struct {
	// Copies is the number of chunk transfers issued per iteration and
	// direction.
	Copies int `json:"nb_copy"`
	// Iterations is the number of staged rounds the buffer is split into.
	Iterations int `json:"nb_iter"`
	// BufferSize is the total payload in bytes. It must divide evenly into
	// Iterations x Copies chunks.
	BufferSize int `json:"buffer_size"`
	// Seed feeds the test-pattern generator.
	Seed uint32 `json:"seed"`
}

// Layout derives the chunk geometry, rejecting configurations the buffer
// cannot be split evenly into.
func (c Config) Layout() (partition.Layout, error) {
	return partition.NewLayout(c.BufferSize, c.Iterations, c.Copies)
}

// Validate reports whether the geometry is runnable.
func (c Config) Validate() error {
	_, err := c.Layout()
	return err
}
