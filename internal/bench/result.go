package bench

import (
	"fmt"
	"time"
)

// Verdict is the pass/fail outcome of a verified run.
type Verdict string

const (
	VerdictPass Verdict = "PASS"
	VerdictFail Verdict = "FAIL"
)

// Result captures one benchmark run. A Result is produced for every run,
// including runs that fail before the pipeline starts.
type Result struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Config    Config    `json:"config"`

	// Cycles is the measured cost of the pipeline, in units of
	// CycleSource.
	Cycles      uint64 `json:"cycles"`
	CycleSource string `json:"cycle_source,omitempty"`

	Duration      time.Duration `json:"duration_ns"`
	BytesMoved    int           `json:"bytes_moved"`
	CyclesPerByte float64       `json:"cycles_per_byte"`

	Verdict Verdict `json:"verdict"`
	Error   string  `json:"error,omitempty"`

	// Mismatches counts output bytes that differ from the expected
	// transform; FirstMismatch is the offset of the first one, -1 when
	// the output verified clean.
	Mismatches    int `json:"mismatches"`
	FirstMismatch int `json:"first_mismatch"`
}

// Passed reports whether the run verified clean.
func (r *Result) Passed() bool {
	return r.Verdict == VerdictPass
}

// Line renders the single-line report emitted for every run. The field
// names are kept stable for log-scraping tooling.
func (r *Result) Line() string {
	return fmt.Sprintf("NB_COPY=%d NB_ITER=%d Buffer=%d Cycles=%d Result=%s",
		r.Config.Copies, r.Config.Iterations, r.Config.BufferSize, r.Cycles, r.Verdict)
}
