package perf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimebaseAccumulates(t *testing.T) {
	tb := NewTimebase()

	tb.Start()
	time.Sleep(20 * time.Millisecond)
	tb.Stop()

	got := tb.Read()
	assert.GreaterOrEqual(t, got, uint64(15*time.Millisecond))

	// Stopped counters hold their value.
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, got, tb.Read())
}

func TestTimebaseReadsOpenWindow(t *testing.T) {
	tb := NewTimebase()

	tb.Start()
	time.Sleep(5 * time.Millisecond)
	assert.Greater(t, tb.Read(), uint64(0))
	tb.Stop()
}

func TestTimebaseReset(t *testing.T) {
	tb := NewTimebase()

	tb.Start()
	time.Sleep(5 * time.Millisecond)
	tb.Stop()
	require.Greater(t, tb.Read(), uint64(0))

	tb.Reset()
	assert.Equal(t, uint64(0), tb.Read())
}

func TestTimebaseStartStopIdempotent(t *testing.T) {
	tb := NewTimebase()

	tb.Start()
	tb.Start()
	time.Sleep(10 * time.Millisecond)
	tb.Stop()
	tb.Stop()

	first := tb.Read()
	assert.GreaterOrEqual(t, first, uint64(5*time.Millisecond))
	assert.Less(t, first, uint64(time.Second))
}

func TestTimebaseSource(t *testing.T) {
	tb := NewTimebase()
	assert.Equal(t, "timebase", tb.Source())
	assert.NoError(t, tb.Close())
}

func TestNewCounterMeasuresWork(t *testing.T) {
	c := NewCounter()
	defer c.Close()

	c.Reset()
	c.Start()
	sink := 0
	for i := 0; i < 1_000_000; i++ {
		sink += i
	}
	time.Sleep(5 * time.Millisecond)
	c.Stop()

	assert.Greater(t, sink, 0)
	assert.Greater(t, c.Read(), uint64(0))
	assert.NotEmpty(t, c.Source())
}
