// Package perf measures the cost of a benchmark run in cycles. On Linux it
// reads the hardware CPU cycle counter through perf_event_open; everywhere
// else, or when the kernel denies counter access, it falls back to a
// monotonic timebase counting nanoseconds.
package perf

import "time"

// Counter accumulates a cost figure across Start/Stop windows. Counters are
// not safe for concurrent use; a benchmark run owns its counter.
type Counter interface {
	// Reset zeroes the accumulated count.
	Reset()
	// Start opens a measurement window.
	Start()
	// Stop closes the current measurement window.
	Stop()
	// Read returns the count accumulated so far, including the open
	// window if one is running.
	Read() uint64
	// Source names the underlying clock, e.g. "cpu-cycles" or "timebase".
	Source() string
	// Close releases any kernel resources held by the counter.
	Close() error
}

// Timebase is the portable fallback Counter. It counts elapsed monotonic
// nanoseconds, so its readings are comparable across runs on one host but
// are not hardware cycles.
type Timebase struct {
	elapsed uint64
	started bool
	t0      time.Time
}

// NewTimebase returns a stopped, zeroed timebase counter.
func NewTimebase() *Timebase {
	return &Timebase{}
}

func (t *Timebase) Reset() {
	t.elapsed = 0
	if t.started {
		t.t0 = time.Now()
	}
}

func (t *Timebase) Start() {
	if t.started {
		return
	}
	t.started = true
	t.t0 = time.Now()
}

func (t *Timebase) Stop() {
	if !t.started {
		return
	}
	t.elapsed += uint64(time.Since(t.t0))
	t.started = false
}

func (t *Timebase) Read() uint64 {
	if t.started {
		return t.elapsed + uint64(time.Since(t.t0))
	}
	return t.elapsed
}

func (t *Timebase) Source() string {
	return "timebase"
}

func (t *Timebase) Close() error {
	return nil
}
