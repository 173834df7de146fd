package tracing

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStartStop(t *testing.T) {
	// Clean state
	_ = Stop()

	path := filepath.Join(t.TempDir(), "bench.trace")
	if err := Start(path); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !Active() {
		t.Error("Active() should return true while recording")
	}

	// Generate a little scheduler activity for the trace buffer.
	done := make(chan struct{})
	go func() { close(done) }()
	<-done

	if err := Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if Active() {
		t.Error("Active() should return false after Stop")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("trace file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("trace file is empty")
	}
}

func TestStart_Twice(t *testing.T) {
	_ = Stop()

	dir := t.TempDir()
	if err := Start(filepath.Join(dir, "first.trace")); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer func() { _ = Stop() }()

	if err := Start(filepath.Join(dir, "second.trace")); err != ErrAlreadyStarted {
		t.Errorf("second Start() = %v, want ErrAlreadyStarted", err)
	}
}

func TestStart_BadPath(t *testing.T) {
	_ = Stop()

	if err := Start("/nonexistent-dir/bench.trace"); err == nil {
		_ = Stop()
		t.Fatal("Start() with unwritable path should fail")
	}
	if Active() {
		t.Error("failed Start must not leave tracing active")
	}
}

func TestStop_WithoutStart(t *testing.T) {
	_ = Stop()

	if err := Stop(); err != nil {
		t.Errorf("Stop() without Start should be a no-op, got %v", err)
	}
}
