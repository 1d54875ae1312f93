// Package scheduler replays a level corpus on a fixed cadence.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"levelbar.klederson.com/internal/wallclock"
)

var (
	// ErrAlreadyRunning is returned by Start while the loop is running.
	ErrAlreadyRunning = errors.New("scheduler is already running")

	// ErrNotRunning is returned by Stop while the scheduler is idle.
	ErrNotRunning = errors.New("scheduler is not running")

	// ErrInvalidInterval is returned by Start for a non-positive interval.
	ErrInvalidInterval = errors.New("tick interval must be positive")
)

// Source is the read-only block data the scheduler walks over.
type Source interface {
	Len() int
	IDs() []int
	Levels(i int) []float64
}

// Handler receives one level vector per tick. The slices belong to the
// source and must not be modified.
type Handler interface {
	LevelDataReceived(ids []int, levels []float64) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ids []int, levels []float64) error

// LevelDataReceived calls f.
func (f HandlerFunc) LevelDataReceived(ids []int, levels []float64) error {
	return f(ids, levels)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for recovered tick failures.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Scheduler) { s.log = log }
}

// WithClock sets the clock the interval wait runs on.
func WithClock(clock wallclock.WallClock) Option {
	return func(s *Scheduler) { s.clock = clock }
}

// Scheduler runs a cancellable periodic loop that advances a cursor over a
// Source and hands each block's levels to a Handler.
type Scheduler struct {
	handler Handler
	clock   wallclock.WallClock
	log     zerolog.Logger

	// lifecycle serializes Start and Stop.
	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	interval  time.Duration

	// mu guards the cursor and source, shared with the loop.
	mu     sync.Mutex
	src    Source
	cursor int
}

// New creates an idle scheduler over src. src may be nil until SetSource.
func New(src Source, h Handler, opts ...Option) *Scheduler {
	s := &Scheduler{
		src:     src,
		handler: h,
		clock:   wallclock.Real,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetSource replaces the data being replayed and rewinds the cursor.
func (s *Scheduler) SetSource(src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src = src
	s.cursor = 0
}

// Start arms the periodic loop. The first tick fires immediately.
func (s *Scheduler) Start(interval time.Duration) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.cancel != nil {
		return ErrAlreadyRunning
	}
	if interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.interval = interval

	go s.loop(ctx, interval, s.done)
	return nil
}

// Stop cancels the loop and blocks until it has exited.
func (s *Scheduler) Stop() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.cancel == nil {
		return ErrNotRunning
	}

	s.cancel()
	<-s.done

	s.cancel = nil
	s.done = nil
	return nil
}

// Running reports whether the loop is armed.
func (s *Scheduler) Running() bool {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	return s.cancel != nil
}

// Interval returns the interval of the current or last run.
func (s *Scheduler) Interval() time.Duration {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	return s.interval
}

// Cursor returns the index of the block emitted last.
func (s *Scheduler) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, done chan<- struct{}) {
	defer close(done)

	timer := s.clock.NewTimer(interval)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return
		}

		s.safeTick()

		timer.Reset(interval)
		select {
		case <-ctx.Done():
			return
		case <-timer.C():
		}
	}
}

// safeTick runs one tick, logging handler errors and panics so a failing
// consumer never ends the loop.
func (s *Scheduler) safeTick() {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().
				Interface("panic", r).
				Int("cursor", s.Cursor()).
				Msg("Level data handler panicked")
		}
	}()

	if err := s.tick(); err != nil {
		s.log.Error().
			Err(err).
			Int("cursor", s.Cursor()).
			Msg("Error during job execution")
	}
}

// tick advances the cursor and emits the block under it. An empty or unset
// source makes it a no-op.
func (s *Scheduler) tick() error {
	s.mu.Lock()
	src := s.src
	if src == nil || src.Len() == 0 {
		s.mu.Unlock()
		return nil
	}

	s.cursor++
	if s.cursor >= src.Len() {
		s.cursor = 0
	}
	cursor := s.cursor
	s.mu.Unlock()

	if s.handler == nil {
		return nil
	}
	return s.handler.LevelDataReceived(src.IDs(), src.Levels(cursor))
}
