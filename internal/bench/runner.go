package bench

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/internal/cluster"
	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/internal/dma"
	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/internal/lcg"
	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/internal/perf"
	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/internal/transform"
)

// ErrVerification is returned when the output buffer does not match the
// expected transform of the source.
var ErrVerification = errors.New("bench: output verification failed")

// Stats aggregates runner activity across runs.
type Stats struct {
	Runs            uint64
	Passed          uint64
	Failed          uint64
	MismatchedBytes uint64

	// Transfers sums engine counters over all runs; L1PeakBytes is the
	// highest fast-tier watermark seen in any single run.
	Transfers   dma.Stats
	L1PeakBytes uint64
}

// Option configures a Runner.
type Option func(*Runner)

// WithCounter overrides how the runner obtains its cycle counter.
func WithCounter(fn func() perf.Counter) Option {
	return func(r *Runner) {
		r.counter = fn
	}
}

// Runner executes benchmark runs against freshly opened cluster devices.
// Each run gets its own device so chaos, queue sizing, and transfer
// statistics never bleed between runs.
type Runner struct {
	cluster cluster.Config
	counter func() perf.Counter

	mu    sync.Mutex
	stats Stats
}

// NewRunner builds a runner that opens devices from cfg.
func NewRunner(cfg cluster.Config, opts ...Option) *Runner {
	r := &Runner{
		cluster: cfg,
		counter: perf.NewCounter,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stats returns a snapshot of aggregated runner activity.
func (r *Runner) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Run executes one benchmark: generate the source pattern, push it through
// the pipeline under cycle measurement, and verify the output. The
// returned Result is never nil; the error mirrors Result.Error when the
// run failed.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	res := &Result{
		ID:            uuid.New().String(),
		Timestamp:     time.Now().UTC(),
		Config:        cfg,
		Verdict:       VerdictFail,
		FirstMismatch: -1,
	}
	r.mu.Lock()
	r.stats.Runs++
	r.mu.Unlock()

	layout, err := cfg.Layout()
	if err != nil {
		return r.fail(res, err)
	}

	// Every chunk copy of one direction is outstanding at once, so the
	// issue queue must hold at least Copies commands.
	ccfg := r.cluster
	if ccfg.Engine.QueueDepth == 0 {
		ccfg.Engine.QueueDepth = dma.DefaultQueueDepth
	}
	if ccfg.Engine.QueueDepth < cfg.Copies {
		ccfg.Engine.QueueDepth = cfg.Copies
	}

	dev, err := cluster.Open(ccfg)
	if err != nil {
		return r.fail(res, fmt.Errorf("open cluster: %w", err))
	}
	defer func() {
		transfers := dev.DMA().Stats()
		peak := uint64(dev.L1().Stats().Peak)
		r.mu.Lock()
		r.stats.Transfers.Issued += transfers.Issued
		r.stats.Transfers.Completed += transfers.Completed
		r.stats.Transfers.Faulted += transfers.Faulted
		r.stats.Transfers.Dropped += transfers.Dropped
		r.stats.Transfers.BytesIn += transfers.BytesIn
		r.stats.Transfers.BytesOut += transfers.BytesOut
		if peak > r.stats.L1PeakBytes {
			r.stats.L1PeakBytes = peak
		}
		r.mu.Unlock()
		if err := dev.Close(); err != nil {
			log.Warn().Err(err).Msg("cluster close failed")
		}
	}()

	l1, err := dev.L1().Alloc(cfg.BufferSize)
	if err != nil {
		return r.fail(res, fmt.Errorf("allocate fast tier: %w", err))
	}
	defer func() {
		if err := dev.L1().Free(l1); err != nil {
			log.Error().Err(err).Msg("fast-tier free failed")
		}
	}()

	src := make([]byte, cfg.BufferSize)
	lcg.New(cfg.Seed).Fill(src)
	dst := make([]byte, cfg.BufferSize)

	ctr := r.counter()
	defer ctr.Close()
	res.CycleSource = ctr.Source()

	pipe := cluster.NewPipeline(dev.DMA(), layout)

	log.Debug().
		Int("nb_copy", cfg.Copies).
		Int("nb_iter", cfg.Iterations).
		Int("buffer", cfg.BufferSize).
		Str("cycle_source", res.CycleSource).
		Msg("benchmark run starting")

	start := time.Now()
	ctr.Reset()
	ctr.Start()
	runErr := pipe.Run(ctx, src, dst, l1.Bytes())
	ctr.Stop()

	res.Cycles = ctr.Read()
	res.Duration = time.Since(start)
	res.BytesMoved = 2 * cfg.BufferSize
	res.CyclesPerByte = float64(res.Cycles) / float64(res.BytesMoved)

	if runErr != nil {
		return r.fail(res, fmt.Errorf("pipeline aborted in state %s: %w", pipe.State(), runErr))
	}

	if mismatches, first := verify(src, dst); mismatches > 0 {
		res.Mismatches = mismatches
		res.FirstMismatch = first
		r.mu.Lock()
		r.stats.MismatchedBytes += uint64(mismatches)
		r.mu.Unlock()
		return r.fail(res, fmt.Errorf("%w: %d mismatched bytes, first at offset %d",
			ErrVerification, mismatches, first))
	}

	res.Verdict = VerdictPass
	r.mu.Lock()
	r.stats.Passed++
	r.mu.Unlock()

	log.Info().
		Int("nb_copy", cfg.Copies).
		Int("nb_iter", cfg.Iterations).
		Int("buffer", cfg.BufferSize).
		Uint64("cycles", res.Cycles).
		Dur("duration", res.Duration).
		Msg("benchmark run passed")
	return res, nil
}

func (r *Runner) fail(res *Result, err error) (*Result, error) {
	res.Verdict = VerdictFail
	res.Error = err.Error()
	r.mu.Lock()
	r.stats.Failed++
	r.mu.Unlock()

	log.Error().
		Err(err).
		Int("nb_copy", res.Config.Copies).
		Int("nb_iter", res.Config.Iterations).
		Int("buffer", res.Config.BufferSize).
		Msg("benchmark run failed")
	return res, err
}

// verify compares every output byte against the expected transform of the
// source and returns the mismatch count plus the first bad offset, -1 when
// clean.
func verify(src, dst []byte) (mismatches, first int) {
	first = -1
	for i := range src {
		if dst[i] != transform.Expected(src[i]) {
			if first < 0 {
				first = i
			}
			mismatches++
		}
	}
	return mismatches, first
}
