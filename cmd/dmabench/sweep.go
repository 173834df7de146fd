package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/internal/bench"
	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/internal/metrics"
	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/internal/tracing"
	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/pkg/bytesize"
)

var (
	// Sweep flags
	sweepSize       string
	sweepCopies     []int
	sweepIterations []int
	sweepSeed       uint32
	sweepOutput     string
	sweepMetrics    string
	sweepTrace      string
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the copies-by-iterations benchmark matrix",
		Long: `Run every combination of chunk fan-out and iteration count over one
buffer size, print a report line per run and a summary table at the end.

A failed run is recorded and the sweep continues with the next geometry.

Examples:
  # The reference matrix: fan-outs and iteration counts 1,2,4,8 over 2KB
  dmabench sweep

  # A custom matrix over a larger buffer
  dmabench sweep --size 1MB --copies 1,4,16 --iterations 2,8

  # Export engine metrics to Prometheus while sweeping
  dmabench sweep --metrics-listen :9102`,
		Args: cobra.NoArgs,
		RunE: runSweep,
	}

	cmd.Flags().StringVar(&sweepSize, "size", "", "buffer size (e.g., 2KB, 1MB); default from config")
	cmd.Flags().IntSliceVar(&sweepCopies, "copies", nil, "chunk fan-outs to sweep; default from config")
	cmd.Flags().IntSliceVar(&sweepIterations, "iterations", nil, "iteration counts to sweep; default from config")
	cmd.Flags().Uint32Var(&sweepSeed, "seed", 0, "test-pattern seed; default from config")
	cmd.Flags().StringVarP(&sweepOutput, "output", "o", "", "JSON output file path")
	cmd.Flags().StringVar(&sweepMetrics, "metrics-listen", "", "Prometheus listen address (e.g., :9102)")
	cmd.Flags().StringVar(&sweepTrace, "trace", "", "write a runtime execution trace to this file")

	return cmd
}

func runSweep(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if sweepSize != "" {
		size, err := bytesize.Parse(sweepSize)
		if err != nil {
			return fmt.Errorf("invalid size: %w", err)
		}
		cfg.BufferSize = bytesize.Size(size)
	}
	if len(sweepCopies) > 0 {
		cfg.Copies = sweepCopies
	}
	if len(sweepIterations) > 0 {
		cfg.Iterations = sweepIterations
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = sweepSeed
	}
	if sweepOutput != "" {
		cfg.Output = sweepOutput
	}
	if sweepMetrics != "" {
		cfg.MetricsListen = sweepMetrics
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	setupLogging(cfg.LogLevel)

	if sweepTrace != "" {
		if err := tracing.Start(sweepTrace); err != nil {
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

	var collector *metrics.Collector
	if cfg.MetricsListen != "" {
		collector = metrics.NewCollector(metrics.New(metrics.Registry), runner)
		go collector.Run(ctx, time.Second)
		go serveMetrics(cfg.MetricsListen)
	}

	results := runner.Sweep(ctx, bench.SweepConfig{
		Copies:     cfg.Copies,
		Iterations: cfg.Iterations,
		BufferSize: cfg.BufferSize.Int(),
		Seed:       cfg.Seed,
	})

	// Final scrape-visible state before the process exits.
	if collector != nil {
		collector.Collect()
	}

	failed := 0
	for _, res := range results {
		fmt.Println(res.Line())
		if !res.Passed() {
			failed++
		}
	}

	fmt.Println()
	printSweepSummary(os.Stdout, results)

	log.Info().
		Int("passed", len(results)-failed).
		Int("failed", failed).
		Int("total", len(results)).
		Msg("sweep finished")

	if cfg.Output != "" {
		if err := writeResultsJSON(cfg.Output, results); err != nil {
			return err
		}
		fmt.Printf("\nResults saved to: %s\n", cfg.Output)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(results))
	}
	return nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	log.Info().Str("addr", addr).Msg("serving Prometheus metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn().Err(err).Msg("metrics listener stopped")
	}
}

// printSweepSummary renders the per-run results as an aligned table.
func printSweepSummary(w *os.File, results []*bench.Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"NB_COPY", "NB_ITER", "BUFFER", "CYCLES", "CYCLES/B", "VERDICT"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, res := range results {
		table.Append([]string{
			fmt.Sprintf("%d", res.Config.Copies),
			fmt.Sprintf("%d", res.Config.Iterations),
			fmt.Sprintf("%d", res.Config.BufferSize),
			fmt.Sprintf("%d", res.Cycles),
			fmt.Sprintf("%.2f", res.CyclesPerByte),
			string(res.Verdict),
		})
	}
	table.Render()
}
