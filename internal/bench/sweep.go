package bench

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/internal/lcg"
)

// SweepConfig spans a matrix of benchmark geometries over one buffer size.
type SweepConfig struct {
	Copies     []int  `json:"copies"`
	Iterations []int  `json:"iterations"`
	BufferSize int    `json:"buffer_size"`
	Seed       uint32 `json:"seed"`
}

// DefaultSweep is the reference matrix: chunk fan-outs and iteration
// counts from 1 to 8 over a 2 KiB buffer.
func DefaultSweep() SweepConfig {
	return SweepConfig{
		Copies:     []int{1, 2, 4, 8},
		Iterations: []int{1, 2, 4, 8},
		BufferSize: 2048,
		Seed:       lcg.DefaultSeed,
	}
}

// Sweep runs every copies-by-iterations combination in order, iterations
// outermost. A failed run is recorded and the sweep continues; a cancelled
// context stops the sweep and returns the results gathered so far.
func (r *Runner) Sweep(ctx context.Context, cfg SweepConfig) []*Result {
	results := make([]*Result, 0, len(cfg.Copies)*len(cfg.Iterations))

	log.Info().
		Ints("copies", cfg.Copies).
		Ints("iterations", cfg.Iterations).
		Int("buffer", cfg.BufferSize).
		Msg("sweep starting")

	for _, iterations := range cfg.Iterations {
		for _, copies := range cfg.Copies {
			if err := ctx.Err(); err != nil {
				log.Warn().Err(err).Int("completed", len(results)).Msg("sweep cancelled")
				return results
			}

			res, err := r.Run(ctx, Config{
				Copies:     copies,
				Iterations: iterations,
				BufferSize: cfg.BufferSize,
				Seed:       cfg.Seed,
			})
			if err != nil {
				log.Warn().Err(err).Msg("sweep run failed, continuing")
			}
			results = append(results, res)
		}
	}
	return results
}
