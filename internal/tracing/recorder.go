// Package tracing records runtime execution traces of benchmark runs for
// offline analysis with `go tool trace`.
package tracing

import (
	"errors"
	"fmt"
	"os"
	"runtime/trace"
	"sync"
)

var (
	mu     sync.Mutex
	out    *os.File
	active bool
)

// ErrAlreadyStarted is returned when a trace is started while one is
// running.
var ErrAlreadyStarted = errors.New("tracing already started")

// Start begins recording a runtime trace to the file at path.
func Start(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if active {
		return ErrAlreadyStarted
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trace file: %w", err)
	}
	if err := trace.Start(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("start trace: %w", err)
	}

	out = f
	active = true
	return nil
}

// Active returns true while a trace is being recorded.
func Active() bool {
	mu.Lock()
	defer mu.Unlock()
	return active
}

// Stop flushes and closes the current trace. It is safe to call Stop when
// no trace is running.
func Stop() error {
	mu.Lock()
	defer mu.Unlock()

	if !active {
		return nil
	}

	trace.Stop()
	err := out.Close()
	out = nil
	active = false
	if err != nil {
		return fmt.Errorf("close trace file: %w", err)
	}
	return nil
}
