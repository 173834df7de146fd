package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/internal/bench"
)

// RunnerStats is the statistics surface the collector polls.
type RunnerStats interface {
	Stats() bench.Stats
}

// Collector periodically mirrors runner statistics into Prometheus.
// Counters receive the delta since the previous collection so restarting a
// collection loop never double-counts. Collect may be called concurrently
// with a running Run loop.
type Collector struct {
	metrics *BenchMetrics
	runner  RunnerStats

	// Last snapshot for delta calculation, guarded against a final
	// caller-side Collect overlapping the periodic loop.
	mu   sync.Mutex
	last bench.Stats
}

// NewCollector creates a new metrics collector.
func NewCollector(m *BenchMetrics, runner RunnerStats) *Collector {
	return &Collector{
		metrics: m,
		runner:  runner,
	}
}

// Collect updates all metrics from the current runner state.
func (c *Collector) Collect() {
	if c.runner == nil {
		return
	}
	stats := c.runner.Stats()

	c.mu.Lock()
	defer c.mu.Unlock()

	if stats.Passed > c.last.Passed {
		c.metrics.RunsTotal.WithLabelValues("pass").Add(float64(stats.Passed - c.last.Passed))
	}
	if stats.Failed > c.last.Failed {
		c.metrics.RunsTotal.WithLabelValues("fail").Add(float64(stats.Failed - c.last.Failed))
	}

	if stats.Transfers.Completed > c.last.Transfers.Completed {
		c.metrics.CopiesTotal.WithLabelValues("completed").
			Add(float64(stats.Transfers.Completed - c.last.Transfers.Completed))
	}
	if stats.Transfers.Faulted > c.last.Transfers.Faulted {
		c.metrics.CopiesTotal.WithLabelValues("faulted").
			Add(float64(stats.Transfers.Faulted - c.last.Transfers.Faulted))
	}
	if stats.Transfers.Dropped > c.last.Transfers.Dropped {
		c.metrics.CopiesTotal.WithLabelValues("dropped").
			Add(float64(stats.Transfers.Dropped - c.last.Transfers.Dropped))
	}

	if stats.Transfers.BytesIn > c.last.Transfers.BytesIn {
		c.metrics.CopyBytesTotal.WithLabelValues("ext2loc").
			Add(float64(stats.Transfers.BytesIn - c.last.Transfers.BytesIn))
	}
	if stats.Transfers.BytesOut > c.last.Transfers.BytesOut {
		c.metrics.CopyBytesTotal.WithLabelValues("loc2ext").
			Add(float64(stats.Transfers.BytesOut - c.last.Transfers.BytesOut))
	}

	if stats.MismatchedBytes > c.last.MismatchedBytes {
		c.metrics.MismatchedBytes.Add(float64(stats.MismatchedBytes - c.last.MismatchedBytes))
	}

	c.metrics.L1PeakBytes.Set(float64(stats.L1PeakBytes))

	c.last = stats
}

// Run starts periodic metric collection.
func (c *Collector) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	c.Collect()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Collect()
		}
	}
}
