// Package config handles configuration loading and validation for dmabench.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/pkg/bytesize"
)

// Duration wraps time.Duration so YAML values can use Go duration strings
// like "150ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var str string
	if err := unmarshal(&str); err != nil {
		return fmt.Errorf("duration must be a string like \"150ms\"")
	}
	v, err := time.ParseDuration(str)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", str, err)
	}
	*d = Duration(v)
	return nil
}

// EngineConfig tunes the copy engine.
type EngineConfig struct {
	Workers     int      `yaml:"workers"`      // 0 = one per CPU
	QueueDepth  int      `yaml:"queue_depth"`  // 0 = engine default
	WaitTimeout Duration `yaml:"wait_timeout"` // 0 = wait forever
}

// ChaosConfig injects faults into the copy path.
type ChaosConfig struct {
	Latency      Duration      `yaml:"latency"`       // fixed delay per copy
	Jitter       Duration      `yaml:"jitter"`        // random extra delay per copy
	DropPercent  float64       `yaml:"drop_percent"`  // silently skipped copies
	FaultPercent float64       `yaml:"fault_percent"` // copies failed with an error
	Bandwidth    bytesize.Rate `yaml:"bandwidth"`     // 0 = unlimited
}

// Config is the on-disk benchmark configuration.
type Config struct {
	LogLevel      string        `yaml:"log_level"`
	BufferSize    bytesize.Size `yaml:"buffer_size"`
	Seed          uint32        `yaml:"seed"`
	Copies        []int         `yaml:"copies"`     // chunk fan-outs to sweep
	Iterations    []int         `yaml:"iterations"` // iteration counts to sweep
	L1Capacity    bytesize.Size `yaml:"l1_capacity"`
	Engine        EngineConfig  `yaml:"engine"`
	Chaos         ChaosConfig   `yaml:"chaos"`
	Output        string        `yaml:"output"`         // JSON results path
	MetricsListen string        `yaml:"metrics_listen"` // Prometheus listen address
}

// Default returns the reference configuration: the 2 KiB buffer swept over
// fan-outs and iteration counts 1 to 8.
func Default() *Config {
	return &Config{
		LogLevel:   "info",
		BufferSize: 2048,
		Seed:       1,
		Copies:     []int{1, 2, 4, 8},
		Iterations: []int{1, 2, 4, 8},
		L1Capacity: 256 * 1024,
	}
}

// Load reads a YAML configuration file over the defaults. Fields absent
// from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	// Apply defaults for emptied lists
	if len(cfg.Copies) == 0 {
		cfg.Copies = []int{1, 2, 4, 8}
	}
	if len(cfg.Iterations) == 0 {
		cfg.Iterations = []int{1, 2, 4, 8}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// Validate checks if the configuration is runnable.
func (c *Config) Validate() error {
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer_size must be positive")
	}
	if c.L1Capacity < 0 {
		return fmt.Errorf("l1_capacity must not be negative")
	}
	for _, v := range c.Copies {
		if v < 1 {
			return fmt.Errorf("copies values must be at least 1, got %d", v)
		}
	}
	for _, v := range c.Iterations {
		if v < 1 {
			return fmt.Errorf("iterations values must be at least 1, got %d", v)
		}
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("engine.workers must not be negative")
	}
	if c.Engine.QueueDepth < 0 {
		return fmt.Errorf("engine.queue_depth must not be negative")
	}
	if c.Engine.WaitTimeout < 0 {
		return fmt.Errorf("engine.wait_timeout must not be negative")
	}
	if c.Chaos.DropPercent < 0 || c.Chaos.DropPercent > 100 {
		return fmt.Errorf("chaos.drop_percent must be between 0 and 100")
	}
	if c.Chaos.FaultPercent < 0 || c.Chaos.FaultPercent > 100 {
		return fmt.Errorf("chaos.fault_percent must be between 0 and 100")
	}
	if c.Chaos.Latency < 0 || c.Chaos.Jitter < 0 {
		return fmt.Errorf("chaos delays must not be negative")
	}
	if c.Chaos.Bandwidth < 0 {
		return fmt.Errorf("chaos.bandwidth must not be negative")
	}
	return nil
}
