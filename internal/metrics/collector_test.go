package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/internal/bench"
	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/internal/dma"
)

type mockRunner struct {
	mu    sync.Mutex
	stats bench.Stats
}

func (m *mockRunner) Stats() bench.Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

func (m *mockRunner) SetStats(stats bench.Stats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = stats
}

func TestCollector_Collect(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	runner := &mockRunner{
		stats: bench.Stats{
			Runs:            4,
			Passed:          3,
			Failed:          1,
			MismatchedBytes: 2040,
			Transfers: dma.Stats{
				Issued:    128,
				Completed: 120,
				Faulted:   2,
				Dropped:   6,
				BytesIn:   8192,
				BytesOut:  7936,
			},
			L1PeakBytes: 2048,
		},
	}

	c := NewCollector(m, runner)
	c.Collect()

	assert.Equal(t, 3.0, counterValue(t, reg, "dmabench_runs_total", map[string]string{"verdict": "pass"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "dmabench_runs_total", map[string]string{"verdict": "fail"}))
	assert.Equal(t, 120.0, counterValue(t, reg, "dmabench_copies_total", map[string]string{"outcome": "completed"}))
	assert.Equal(t, 2.0, counterValue(t, reg, "dmabench_copies_total", map[string]string{"outcome": "faulted"}))
	assert.Equal(t, 6.0, counterValue(t, reg, "dmabench_copies_total", map[string]string{"outcome": "dropped"}))
	assert.Equal(t, 8192.0, counterValue(t, reg, "dmabench_copy_bytes_total", map[string]string{"direction": "ext2loc"}))
	assert.Equal(t, 7936.0, counterValue(t, reg, "dmabench_copy_bytes_total", map[string]string{"direction": "loc2ext"}))
	assert.Equal(t, 2040.0, counterValue(t, reg, "dmabench_mismatched_bytes_total", nil))
	assert.Equal(t, 2048.0, gaugeValue(t, reg, "dmabench_l1_peak_bytes"))
}

func TestCollector_Deltas(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	runner := &mockRunner{stats: bench.Stats{Passed: 2}}
	c := NewCollector(m, runner)
	c.Collect()

	// A second collection only adds the delta.
	runner.SetStats(bench.Stats{Passed: 5})
	c.Collect()
	assert.Equal(t, 5.0, counterValue(t, reg, "dmabench_runs_total", map[string]string{"verdict": "pass"}))

	// An unchanged snapshot adds nothing.
	c.Collect()
	assert.Equal(t, 5.0, counterValue(t, reg, "dmabench_runs_total", map[string]string{"verdict": "pass"}))
}

func TestCollector_ConcurrentCollect(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	runner := &mockRunner{}
	c := NewCollector(m, runner)

	// The sweep command collects once more from the main goroutine while
	// the periodic loop is still ticking; the delta snapshot must stay
	// consistent under that overlap.
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx, time.Microsecond)
	}()

	for i := 1; i <= 200; i++ {
		runner.SetStats(bench.Stats{Passed: uint64(i)})
		c.Collect()
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop on context cancel")
	}

	// One final collect after the loop has joined; the counter must hold
	// exactly the last snapshot, never a double-counted delta.
	c.Collect()
	assert.Equal(t, 200.0, counterValue(t, reg, "dmabench_runs_total", map[string]string{"verdict": "pass"}))
}

func TestCollector_NilRunner(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(New(reg), nil)
	assert.NotPanics(t, c.Collect)
}

func TestCollector_Run(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	runner := &mockRunner{stats: bench.Stats{Passed: 1}}
	c := NewCollector(m, runner)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx, 10*time.Millisecond)
	}()

	// The loop collects immediately, then on every tick.
	time.Sleep(50 * time.Millisecond)
	runner.SetStats(bench.Stats{Passed: 4})
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop on context cancel")
	}

	assert.Equal(t, 4.0, counterValue(t, reg, "dmabench_runs_total", map[string]string{"verdict": "pass"}))
}
