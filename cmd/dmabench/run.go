package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/internal/bench"
	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/internal/config"
	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/internal/tracing"
	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/pkg/bytesize"
)

var (
	// Run flags
	runCopies     int
	runIterations int
	runSize       string
	runSeed       uint32
	runL1Capacity string
	runOutput     string
	runTrace      string

	// Engine flags
	runWorkers     int
	runQueueDepth  int
	runWaitTimeout time.Duration

	// Chaos flags
	runLatency      time.Duration
	runJitter       time.Duration
	runDropPercent  float64
	runFaultPercent float64
	runBandwidth    string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one benchmark geometry",
		Long: `Run a single benchmark: stage the buffer through the fast tier in the
given number of iterations and chunk copies, verify the result and report
the measured cycles.

Examples:
  # Reference geometry: 2KB buffer, 4 iterations, 2 copies per iteration
  dmabench run --copies 2 --iterations 4 --size 2KB

  # Stress the wait path with injected copy faults
  dmabench run --copies 8 --iterations 8 --fault-percent 10

  # Save the result as JSON and capture an execution trace
  dmabench run -o result.json --trace run.trace`,
		Args: cobra.NoArgs,
		RunE: runRun,
	}

	cmd.Flags().IntVar(&runCopies, "copies", 1, "chunk copies per iteration and direction")
	cmd.Flags().IntVar(&runIterations, "iterations", 1, "iterations the buffer is split into")
	cmd.Flags().StringVar(&runSize, "size", "", "buffer size (e.g., 2KB, 1MB); default from config")
	cmd.Flags().Uint32Var(&runSeed, "seed", 0, "test-pattern seed; default from config")
	cmd.Flags().StringVar(&runL1Capacity, "l1-capacity", "", "fast-tier capacity (e.g., 256KB)")
	cmd.Flags().StringVarP(&runOutput, "output", "o", "", "JSON output file path")
	cmd.Flags().StringVar(&runTrace, "trace", "", "write a runtime execution trace to this file")

	cmd.Flags().IntVar(&runWorkers, "workers", 0, "engine copy workers (0 = one per CPU)")
	cmd.Flags().IntVar(&runQueueDepth, "queue-depth", 0, "engine issue queue depth (0 = default)")
	cmd.Flags().DurationVar(&runWaitTimeout, "wait-timeout", 0, "bound every transfer wait (0 = wait forever)")

	cmd.Flags().DurationVar(&runLatency, "latency", 0, "injected latency per copy")
	cmd.Flags().DurationVar(&runJitter, "jitter", 0, "injected random extra latency per copy")
	cmd.Flags().Float64Var(&runDropPercent, "drop-percent", 0, "percentage of copies silently dropped (0-100)")
	cmd.Flags().Float64Var(&runFaultPercent, "fault-percent", 0, "percentage of copies failed with an error (0-100)")
	cmd.Flags().StringVar(&runBandwidth, "bandwidth", "", "engine bandwidth cap (e.g., 100MB/s)")

	return cmd
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	setupLogging(cfg.LogLevel)

	if runTrace != "" {
		if err := tracing.Start(runTrace); err != nil {
			return fmt.Errorf("start trace: %w", err)
		}
		defer func() {
			if err := tracing.Stop(); err != nil {
				fmt.Fprintf(os.Stderr, "stop trace: %v\n", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := bench.NewRunner(clusterConfig(cfg))
	res, runErr := runner.Run(ctx, bench.Config{
		Copies:     runCopies,
		Iterations: runIterations,
		BufferSize: cfg.BufferSize.Int(),
		Seed:       cfg.Seed,
	})

	fmt.Println(res.Line())
	if res.Passed() {
		fmt.Printf("  Cycles/byte: %.2f (%s)\n", res.CyclesPerByte, res.CycleSource)
		fmt.Printf("  Duration:    %v\n", res.Duration)
	} else if res.Mismatches > 0 {
		fmt.Printf("  Mismatches:  %d, first at offset %d\n", res.Mismatches, res.FirstMismatch)
	}

	if runOutput != "" {
		if err := writeResultsJSON(runOutput, res); err != nil {
			return err
		}
		fmt.Printf("Result saved to: %s\n", runOutput)
	}

	if runErr != nil {
		return fmt.Errorf("benchmark failed: %w", runErr)
	}
	return nil
}

// applyRunFlags layers explicitly set flags over the file configuration.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	if runSize != "" {
		size, err := bytesize.Parse(runSize)
		if err != nil {
			return fmt.Errorf("invalid size: %w", err)
		}
		cfg.BufferSize = bytesize.Size(size)
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = runSeed
	}
	if runL1Capacity != "" {
		capacity, err := bytesize.Parse(runL1Capacity)
		if err != nil {
			return fmt.Errorf("invalid l1-capacity: %w", err)
		}
		cfg.L1Capacity = bytesize.Size(capacity)
	}
	if cmd.Flags().Changed("workers") {
		cfg.Engine.Workers = runWorkers
	}
	if cmd.Flags().Changed("queue-depth") {
		cfg.Engine.QueueDepth = runQueueDepth
	}
	if cmd.Flags().Changed("wait-timeout") {
		cfg.Engine.WaitTimeout = config.Duration(runWaitTimeout)
	}
	if cmd.Flags().Changed("latency") {
		cfg.Chaos.Latency = config.Duration(runLatency)
	}
	if cmd.Flags().Changed("jitter") {
		cfg.Chaos.Jitter = config.Duration(runJitter)
	}
	if cmd.Flags().Changed("drop-percent") {
		cfg.Chaos.DropPercent = runDropPercent
	}
	if cmd.Flags().Changed("fault-percent") {
		cfg.Chaos.FaultPercent = runFaultPercent
	}
	if runBandwidth != "" {
		rate, err := bytesize.ParseRate(runBandwidth)
		if err != nil {
			return fmt.Errorf("invalid bandwidth: %w", err)
		}
		cfg.Chaos.Bandwidth = bytesize.Rate(rate)
	}
	return nil
}
