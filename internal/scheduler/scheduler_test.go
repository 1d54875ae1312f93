package scheduler

import (
	"bytes"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"levelbar.klederson.com/internal/wallclock"
)

// blocks is a Source whose block i carries the single level float64(i).
type blocks int

func (b blocks) Len() int               { return int(b) }
func (b blocks) IDs() []int             { return []int{0} }
func (b blocks) Levels(i int) []float64 { return []float64{float64(i)} }

// syncBuffer lets the loop goroutine log while the test reads afterwards.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStartTwiceFails(t *testing.T) {
	s := New(blocks(4), nil)
	require.NoError(t, s.Start(time.Millisecond))
	defer func() { require.NoError(t, s.Stop()) }()

	require.ErrorIs(t, s.Start(time.Millisecond), ErrAlreadyRunning)
	require.True(t, s.Running())
}

func TestStopTwiceFails(t *testing.T) {
	s := New(blocks(4), nil)
	require.ErrorIs(t, s.Stop(), ErrNotRunning)

	require.NoError(t, s.Start(time.Millisecond))
	require.NoError(t, s.Stop())
	require.ErrorIs(t, s.Stop(), ErrNotRunning)
	require.False(t, s.Running())
}

func TestRestartCycles(t *testing.T) {
	s := New(blocks(4), nil)
	for i := 0; i < 20; i++ {
		require.NoError(t, s.Start(time.Millisecond))
		require.NoError(t, s.Stop())
	}
	require.NoError(t, s.Start(time.Millisecond))
	require.NoError(t, s.Stop())
}

func TestInvalidInterval(t *testing.T) {
	s := New(blocks(4), nil)
	require.ErrorIs(t, s.Start(0), ErrInvalidInterval)
	require.ErrorIs(t, s.Start(-time.Second), ErrInvalidInterval)
	require.False(t, s.Running())
}

func TestCursorWraps(t *testing.T) {
	const n = 7
	var emitted []float64
	s := New(blocks(n), HandlerFunc(func(_ []int, levels []float64) error {
		emitted = append(emitted, levels[0])
		return nil
	}))

	require.NoError(t, s.tick())
	afterFirst := s.Cursor()
	require.Equal(t, 1, afterFirst)

	for i := 0; i < n; i++ {
		require.NoError(t, s.tick())
	}
	require.Equal(t, afterFirst, s.Cursor())
	require.Equal(t, []float64{1, 2, 3, 4, 5, 6, 0, 1}, emitted)
}

func TestEmptySourceIsNoop(t *testing.T) {
	var calls atomic.Int32
	h := HandlerFunc(func([]int, []float64) error {
		calls.Add(1)
		return nil
	})

	s := New(nil, h)
	require.NoError(t, s.tick())
	s.SetSource(blocks(0))
	require.NoError(t, s.tick())

	require.NoError(t, s.Start(time.Millisecond))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, s.Stop())

	require.Zero(t, calls.Load())
	require.Zero(t, s.Cursor())
}

func TestEmitsOnInterval(t *testing.T) {
	got := make(chan float64, 64)
	s := New(blocks(3), HandlerFunc(func(ids []int, levels []float64) error {
		if len(ids) != len(levels) {
			return errors.New("ids and levels differ in length")
		}
		select {
		case got <- levels[0]:
		default:
		}
		return nil
	}))

	require.NoError(t, s.Start(time.Millisecond))
	var seq []float64
	for len(seq) < 4 {
		select {
		case v := <-got:
			seq = append(seq, v)
		case <-time.After(2 * time.Second):
			t.Fatal("scheduler did not tick")
		}
	}
	require.NoError(t, s.Stop())
	require.Equal(t, []float64{1, 2, 0, 1}, seq)
}

func TestNoEmissionAfterStop(t *testing.T) {
	var calls atomic.Int32
	s := New(blocks(3), HandlerFunc(func([]int, []float64) error {
		calls.Add(1)
		return nil
	}))

	require.NoError(t, s.Start(time.Millisecond))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.Stop())

	n := calls.Load()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, n, calls.Load())
}

func TestStopJoinsRunningHandler(t *testing.T) {
	var inside atomic.Bool
	entered := make(chan struct{}, 1)
	s := New(blocks(3), HandlerFunc(func([]int, []float64) error {
		inside.Store(true)
		select {
		case entered <- struct{}{}:
		default:
		}
		time.Sleep(30 * time.Millisecond)
		inside.Store(false)
		return nil
	}))

	require.NoError(t, s.Start(time.Millisecond))
	<-entered
	require.NoError(t, s.Stop())
	require.False(t, inside.Load(), "Stop returned while the handler was still running")
}

func TestHandlerFailuresDoNotStopLoop(t *testing.T) {
	var calls atomic.Int32
	logs := &syncBuffer{}
	s := New(blocks(5), HandlerFunc(func([]int, []float64) error {
		n := calls.Add(1)
		if n%2 == 0 {
			panic("display exploded")
		}
		return errors.New("display unavailable")
	}), WithLogger(zerolog.New(logs)))

	require.NoError(t, s.Start(time.Millisecond))
	require.Eventually(t, func() bool { return calls.Load() >= 6 }, 2*time.Second, time.Millisecond)
	require.NoError(t, s.Stop())

	out := logs.String()
	require.Contains(t, out, "display unavailable")
	require.Contains(t, out, "display exploded")
	require.True(t, s.Cursor() >= 0 && s.Cursor() < 5)
}

func TestSetSourceRewinds(t *testing.T) {
	s := New(blocks(5), nil)
	require.NoError(t, s.tick())
	require.NoError(t, s.tick())
	require.Equal(t, 2, s.Cursor())

	s.SetSource(blocks(3))
	require.Zero(t, s.Cursor())
	require.NoError(t, s.tick())
	require.Equal(t, 1, s.Cursor())
}

func TestInterval(t *testing.T) {
	s := New(blocks(2), nil)
	require.NoError(t, s.Start(3906250*time.Nanosecond))
	require.Equal(t, 3906250*time.Nanosecond, s.Interval())
	require.NoError(t, s.Stop())
}

// manualClock hands out timers that fire only when the test says so.
type manualClock struct {
	fire chan time.Time
}

type manualTimer struct {
	c *manualClock
}

func (c *manualClock) NewTimer(time.Duration) wallclock.Timer { return manualTimer{c: c} }
func (c *manualClock) Now() time.Time                         { return time.Time{} }

func (t manualTimer) C() <-chan time.Time      { return t.c.fire }
func (t manualTimer) Reset(time.Duration) bool { return true }
func (t manualTimer) Stop() bool               { return true }

func TestTicksFollowClock(t *testing.T) {
	clock := &manualClock{fire: make(chan time.Time)}
	got := make(chan float64, 8)
	s := New(blocks(4), HandlerFunc(func(_ []int, levels []float64) error {
		got <- levels[0]
		return nil
	}), WithClock(clock))

	require.NoError(t, s.Start(time.Hour))
	require.Equal(t, 1.0, <-got, "first tick is immediate")

	select {
	case v := <-got:
		t.Fatalf("unexpected tick %v before the timer fired", v)
	case <-time.After(20 * time.Millisecond):
	}

	clock.fire <- time.Time{}
	require.Equal(t, 2.0, <-got)
	clock.fire <- time.Time{}
	require.Equal(t, 3.0, <-got)

	require.NoError(t, s.Stop())
}
