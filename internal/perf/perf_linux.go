//go:build linux

package perf

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// CycleCounter reads the hardware CPU cycle counter for the calling process
// via perf_event_open. The event is scoped to user space on any CPU the
// process runs on.
type CycleCounter struct {
	fd int
}

// NewCycleCounter opens a disabled cycle counter for the current process.
// It fails when the kernel forbids hardware counters, typically because of
// perf_event_paranoid or a missing PMU.
func NewCycleCounter() (*CycleCounter, error) {
	attr := unix.PerfEventAttr{
		Type:   unix.PERF_TYPE_HARDWARE,
		Size:   uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
		Config: unix.PERF_COUNT_HW_CPU_CYCLES,
		Bits:   unix.PerfBitDisabled | unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv,
	}

	fd, err := unix.PerfEventOpen(&attr, 0, -1, -1, unix.PERF_FLAG_FD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("open cycle counter: %w", err)
	}
	return &CycleCounter{fd: fd}, nil
}

func (c *CycleCounter) Reset() {
	_ = unix.IoctlSetInt(c.fd, unix.PERF_EVENT_IOC_RESET, 0)
}

func (c *CycleCounter) Start() {
	_ = unix.IoctlSetInt(c.fd, unix.PERF_EVENT_IOC_ENABLE, 0)
}

func (c *CycleCounter) Stop() {
	_ = unix.IoctlSetInt(c.fd, unix.PERF_EVENT_IOC_DISABLE, 0)
}

func (c *CycleCounter) Read() uint64 {
	var buf [8]byte
	n, err := unix.Read(c.fd, buf[:])
	if err != nil || n != 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(buf[:])
}

func (c *CycleCounter) Source() string {
	return "cpu-cycles"
}

func (c *CycleCounter) Close() error {
	return unix.Close(c.fd)
}

// NewCounter returns a hardware cycle counter when the kernel allows one
// and the monotonic timebase otherwise.
func NewCounter() Counter {
	c, err := NewCycleCounter()
	if err != nil {
		log.Debug().Err(err).Msg("hardware cycle counter unavailable, using timebase")
		return NewTimebase()
	}
	return c
}
