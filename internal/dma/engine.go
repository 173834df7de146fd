// Package dma implements the asynchronous copy engine that moves byte
// ranges between the external memory tier and the cluster-local fast tier.
// Copies are issued without blocking and complete on a pool of workers;
// completion is observed per command through Wait.
package dma

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	// ErrClosed is returned by Issue after the engine has been closed.
	ErrClosed = errors.New("dma: engine closed")

	// ErrQueueFull is returned when the issue queue cannot accept another
	// transfer without blocking.
	ErrQueueFull = errors.New("dma: issue queue full")

	// ErrLengthMismatch is returned when the two byte ranges of a copy have
	// different lengths.
	ErrLengthMismatch = errors.New("dma: source and destination lengths differ")

	// ErrEmptyTransfer is returned for zero-length copies, which are always
	// configuration bugs upstream.
	ErrEmptyTransfer = errors.New("dma: empty transfer")

	// ErrAlreadyWaited is returned when a command is waited on twice.
	ErrAlreadyWaited = errors.New("dma: transfer already waited on")

	// ErrFaultInjected is the failure reported by chaos fault injection.
	ErrFaultInjected = errors.New("dma: injected transfer fault")

	// ErrWaitTimeout is returned when a bounded wait expires before the
	// copy completes.
	ErrWaitTimeout = errors.New("dma: wait timed out")
)

// DefaultQueueDepth bounds issued-but-unstarted transfers when the
// configuration does not say otherwise.
const DefaultQueueDepth = 64

// Config controls engine concurrency and fault injection.
type Config struct {
	// Workers is the number of concurrent copy channels. Zero means one per
	// CPU.
	Workers int
	// QueueDepth bounds the number of issued transfers waiting for a
	// worker. Zero means DefaultQueueDepth. Issue fails with ErrQueueFull
	// rather than block when the queue is full.
	QueueDepth int
	// WaitTimeout bounds every Wait call. Zero preserves the reference
	// semantics: wait until the copy completes.
	WaitTimeout time.Duration
	// Chaos injects faults into the copy path.
	Chaos ChaosConfig
}

// Stats is a snapshot of engine activity. Issued always equals
// Completed+Faulted+Dropped once every outstanding command has finished.
type Stats struct {
	Issued    uint64
	Completed uint64
	Faulted   uint64
	Dropped   uint64
	BytesIn   uint64
	BytesOut  uint64
}

// Command is the handle for one in-flight copy. It is created by Issue and
// must be consumed by exactly one Wait call.
type Command struct {
	dir     Direction
	src     []byte
	dst     []byte
	timeout time.Duration

	done   chan struct{}
	err    error
	waited atomic.Bool
}

// Direction returns the copy orientation of the command.
func (c *Command) Direction() Direction {
	return c.dir
}

// Len returns the number of bytes the command moves.
func (c *Command) Len() int {
	return len(c.src)
}

// complete publishes the outcome. err is stored before done closes, so a
// Wait that observes the close also observes err and the copied bytes.
func (c *Command) complete(err error) {
	c.err = err
	close(c.done)
}

// Wait blocks until the copy completes and returns its outcome. After a nil
// return the destination range is visible to the caller. Wait honors
// context cancellation and the engine's bounded-wait configuration; a
// command may only be waited on once.
func (c *Command) Wait(ctx context.Context) error {
	if c.waited.Swap(true) {
		return ErrAlreadyWaited
	}

	var expired <-chan time.Time
	if c.timeout > 0 {
		t := time.NewTimer(c.timeout)
		defer t.Stop()
		expired = t.C
	}

	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	case <-expired:
		return fmt.Errorf("%w after %v", ErrWaitTimeout, c.timeout)
	}
}

type counters struct {
	issued    atomic.Uint64
	completed atomic.Uint64
	faulted   atomic.Uint64
	dropped   atomic.Uint64
	bytesIn   atomic.Uint64
	bytesOut  atomic.Uint64
}

// Engine executes asynchronous tier-to-tier copies on a worker pool.
// Commands issued on disjoint byte ranges proceed concurrently; the fan-out
// of one iteration's chunk copies is bounded only by QueueDepth.
type Engine struct {
	cfg    Config
	queue  chan *Command
	wg     sync.WaitGroup
	chaos  *chaos
	bucket *TokenBucket
	stats  counters

	mu     sync.Mutex
	closed bool
}

// New starts an engine with the given configuration.
func New(cfg Config) *Engine {
	return NewWithRng(cfg, nil)
}

// NewWithRng starts an engine whose chaos decisions draw from rng, for
// deterministic fault-injection tests. A nil rng uses a time seed.
func NewWithRng(cfg Config, rng *rand.Rand) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = DefaultQueueDepth
	}

	e := &Engine{
		cfg:   cfg,
		queue: make(chan *Command, cfg.QueueDepth),
		chaos: newChaos(cfg.Chaos, rng),
	}
	if cfg.Chaos.Bandwidth > 0 {
		e.bucket = NewTokenBucket(cfg.Chaos.Bandwidth)
	}

	for i := 0; i < cfg.Workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}

	log.Debug().
		Int("workers", cfg.Workers).
		Int("queue_depth", cfg.QueueDepth).
		Dur("wait_timeout", cfg.WaitTimeout).
		Msg("dma engine started")
	if cfg.Chaos.IsEnabled() {
		log.Warn().
			Dur("latency", cfg.Chaos.Latency).
			Dur("jitter", cfg.Chaos.Jitter).
			Float64("drop_percent", cfg.Chaos.DropPercent).
			Float64("fault_percent", cfg.Chaos.FaultPercent).
			Int64("bandwidth_bps", cfg.Chaos.Bandwidth).
			Msg("dma chaos injection enabled")
	}
	return e
}

// Issue begins an asynchronous copy between an external-tier range and a
// fast-tier range and returns its handle without blocking. The two ranges
// must have the same non-zero length. The engine never retains the slices
// beyond command completion.
func (e *Engine) Issue(dir Direction, ext, loc []byte) (*Command, error) {
	if len(ext) != len(loc) {
		return nil, fmt.Errorf("%w: ext=%d loc=%d", ErrLengthMismatch, len(ext), len(loc))
	}
	if len(ext) == 0 {
		return nil, ErrEmptyTransfer
	}

	cmd := &Command{
		dir:     dir,
		timeout: e.cfg.WaitTimeout,
		done:    make(chan struct{}),
	}
	switch dir {
	case ExtToLoc:
		cmd.src, cmd.dst = ext, loc
	case LocToExt:
		cmd.src, cmd.dst = loc, ext
	default:
		return nil, fmt.Errorf("dma: unknown direction %d", int(dir))
	}

	// The lock orders Issue against Close so the queue cannot be closed
	// between the check and the send.
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	select {
	case e.queue <- cmd:
		e.stats.issued.Add(1)
		return cmd, nil
	default:
		return nil, fmt.Errorf("%w: depth %d", ErrQueueFull, e.cfg.QueueDepth)
	}
}

// Close stops the engine after draining every queued copy. Issue fails with
// ErrClosed afterwards; commands completed during the drain remain waitable.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.closed = true
	close(e.queue)
	e.mu.Unlock()

	e.wg.Wait()
	log.Debug().Msg("dma engine closed")
	return nil
}

// Stats returns a snapshot of engine activity.
func (e *Engine) Stats() Stats {
	return Stats{
		Issued:    e.stats.issued.Load(),
		Completed: e.stats.completed.Load(),
		Faulted:   e.stats.faulted.Load(),
		Dropped:   e.stats.dropped.Load(),
		BytesIn:   e.stats.bytesIn.Load(),
		BytesOut:  e.stats.bytesOut.Load(),
	}
}

func (e *Engine) worker() {
	defer e.wg.Done()
	for cmd := range e.queue {
		e.execute(cmd)
	}
}

func (e *Engine) execute(cmd *Command) {
	if e.bucket != nil {
		if wait := e.bucket.Take(cmd.Len()); wait > 0 {
			time.Sleep(wait)
		}
	}
	if d := e.chaos.delay(); d > 0 {
		time.Sleep(d)
	}

	if e.chaos.faultCopy() {
		e.stats.faulted.Add(1)
		cmd.complete(fmt.Errorf("%w: %s %d bytes", ErrFaultInjected, cmd.dir, cmd.Len()))
		return
	}
	if e.chaos.dropCopy() {
		e.stats.dropped.Add(1)
		cmd.complete(nil)
		return
	}

	n := copy(cmd.dst, cmd.src)
	e.stats.completed.Add(1)
	switch cmd.dir {
	case ExtToLoc:
		e.stats.bytesIn.Add(uint64(n))
	case LocToExt:
		e.stats.bytesOut.Add(uint64(n))
	}
	cmd.complete(nil)
}
