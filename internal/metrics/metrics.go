// Package metrics provides Prometheus metrics for dmabench sessions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the Prometheus registry for all dmabench metrics.
var Registry = prometheus.NewRegistry()

func init() {
	// Register standard Go metrics
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// BenchMetrics holds all Prometheus metrics for a benchmark session.
type BenchMetrics struct {
	// Run outcomes (counter, labeled by verdict)
	RunsTotal *prometheus.CounterVec

	// Copy engine activity
	CopiesTotal    *prometheus.CounterVec // labels: outcome (completed, faulted, dropped)
	CopyBytesTotal *prometheus.CounterVec // labels: direction (ext2loc, loc2ext)

	// Verification
	MismatchedBytes prometheus.Counter

	// Fast-tier watermark
	L1PeakBytes prometheus.Gauge
}

// New registers benchmark metrics on reg.
func New(reg prometheus.Registerer) *BenchMetrics {
	return &BenchMetrics{
		RunsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "dmabench_runs_total",
			Help: "Total benchmark runs by verdict",
		}, []string{"verdict"}),

		CopiesTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "dmabench_copies_total",
			Help: "Total DMA copies by outcome",
		}, []string{"outcome"}),
		CopyBytesTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "dmabench_copy_bytes_total",
			Help: "Total bytes moved by the copy engine, by direction",
		}, []string{"direction"}),

		MismatchedBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "dmabench_mismatched_bytes_total",
			Help: "Total output bytes that failed verification",
		}),

		L1PeakBytes: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "dmabench_l1_peak_bytes",
			Help: "Highest fast-tier allocation watermark seen in any run",
		}),
	}
}
