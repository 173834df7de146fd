package dma

import (
	"math/rand"
	"sync"
	"time"
)

// ChaosConfig injects faults into the copy path for resilience experiments.
// The zero value disables all injection.
type ChaosConfig struct {
	// Latency is added to every copy.
	Latency time.Duration
	// Jitter adds a uniformly random delay in [0, Jitter) on top of Latency.
	Jitter time.Duration
	// DropPercent silently completes that percentage of copies without
	// moving any data. Dropped copies report success; only verification of
	// the destination can observe them.
	DropPercent float64
	// FaultPercent fails that percentage of copies with ErrFaultInjected.
	FaultPercent float64
	// Bandwidth caps aggregate copy throughput in bytes per second across
	// all workers. Zero means unlimited.
	Bandwidth int64
}

// IsEnabled reports whether any injection is configured.
func (c ChaosConfig) IsEnabled() bool {
	return c.Latency > 0 || c.Jitter > 0 || c.DropPercent > 0 ||
		c.FaultPercent > 0 || c.Bandwidth > 0
}

// chaos makes per-copy injection decisions. Workers share one instance, so
// the rng is guarded.
type chaos struct {
	cfg ChaosConfig

	mu  sync.Mutex
	rng *rand.Rand
}

func newChaos(cfg ChaosConfig, rng *rand.Rand) *chaos {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &chaos{cfg: cfg, rng: rng}
}

// delay returns the injected latency for one copy.
func (c *chaos) delay() time.Duration {
	d := c.cfg.Latency
	if c.cfg.Jitter > 0 {
		c.mu.Lock()
		d += time.Duration(c.rng.Int63n(int64(c.cfg.Jitter)))
		c.mu.Unlock()
	}
	return d
}

func (c *chaos) roll(percent float64) bool {
	if percent <= 0 {
		return false
	}
	if percent >= 100 {
		return true
	}
	c.mu.Lock()
	v := c.rng.Float64() * 100
	c.mu.Unlock()
	return v < percent
}

func (c *chaos) dropCopy() bool {
	return c.roll(c.cfg.DropPercent)
}

func (c *chaos) faultCopy() bool {
	return c.roll(c.cfg.FaultPercent)
}
