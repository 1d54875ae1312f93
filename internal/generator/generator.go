// Package generator is the simulated acquisition device: it announces the
// channel set, builds the corpus and replays it through the scheduler.
package generator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"levelbar.klederson.com/internal/channel"
	"levelbar.klederson.com/internal/config"
	"levelbar.klederson.com/internal/corpus"
	"levelbar.klederson.com/internal/scheduler"
)

// ErrBusy is returned by Configure while the generator is connected.
var ErrBusy = errors.New("generator is connected")

// State is the connection state of the generator.
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Observer receives everything the generator produces. Calls are
// synchronous: channel events on the caller of Connect/Disconnect, level data
// on the scheduler goroutine.
type Observer interface {
	channel.Observer
	scheduler.Handler
	ConnectionStateChanged(state State)
}

// NopObserver implements Observer with no-ops. Embed it to pick slots.
type NopObserver struct{}

func (NopObserver) ChannelAdded(channel.Channel) error       { return nil }
func (NopObserver) ChannelRemoved(channel.Channel) error     { return nil }
func (NopObserver) LevelDataReceived([]int, []float64) error { return nil }
func (NopObserver) ConnectionStateChanged(State)             {}

// Option configures a Generator.
type Option func(*Generator)

// WithRand sets the random source the corpus is built from.
func WithRand(rng *rand.Rand) Option {
	return func(g *Generator) { g.rng = rng }
}

// WithParams sets the parameters Connect uses until Configure replaces them.
func WithParams(p corpus.Params) Option {
	return func(g *Generator) { g.params = p }
}

// WithLogger sets the generator logger. The scheduler logs through it too.
func WithLogger(log zerolog.Logger) Option {
	return func(g *Generator) { g.log = log }
}

// Generator owns the registry, corpus and scheduler of one simulated device.
type Generator struct {
	mu      sync.Mutex
	obs     Observer
	log     zerolog.Logger
	rng     *rand.Rand
	params  corpus.Params
	corpus  *corpus.Corpus
	state   State
	session string

	registry *channel.Registry
	sched    *scheduler.Scheduler
}

// New creates a stopped generator reporting to obs. A nil obs is replaced by
// NopObserver.
func New(obs Observer, opts ...Option) *Generator {
	if obs == nil {
		obs = NopObserver{}
	}
	g := &Generator{
		obs:    obs,
		log:    zerolog.Nop(),
		params: DefaultParams(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	g.registry = channel.NewRegistry(obs)
	g.sched = scheduler.New(nil, obs, scheduler.WithLogger(g.log))
	return g
}

// DefaultParams returns the reference acquisition scenario.
func DefaultParams() corpus.Params {
	return corpus.Params{
		SamplingRate:     config.SamplingRate,
		ChannelBlockSize: config.ChannelBlockSize,
		SamplingTime:     config.SamplingTime,
		NumberOfChannels: config.NumberOfChannels,
	}
}

// Configure builds a corpus for p and makes it the replay source. The
// scheduler rewinds to block 0. It fails with ErrBusy while connected.
func (g *Generator) Configure(p corpus.Params) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == Running {
		return ErrBusy
	}
	return g.configureLocked(p)
}

func (g *Generator) configureLocked(p corpus.Params) error {
	c, err := corpus.Build(p, g.rng)
	if err != nil {
		return fmt.Errorf("configure generator: %w", err)
	}
	g.params = p
	g.corpus = c
	g.sched.SetSource(c)

	g.log.Info().
		Int("channels", p.NumberOfChannels).
		Int("blocks", c.Len()).
		Int("trigger_blocks", c.TriggerBlocks).
		Dur("interval", p.TickInterval()).
		Msg("Corpus built")
	return nil
}

// Connect announces the channels, builds the corpus if none exists yet and
// starts the replay. Connecting while running is logged and ignored.
// Observers must not call back into the Generator from channel or state
// notifications.
func (g *Generator) Connect(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == Running {
		g.log.Warn().Str("session", g.session).Msg("Already connected")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p := g.params
	if err := p.Validate(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	if err := g.registry.RegisterAll(p.NumberOfChannels); err != nil {
		return g.abortConnect(err)
	}

	if g.corpus == nil {
		if err := g.configureLocked(p); err != nil {
			return g.abortConnect(err)
		}
	}

	if err := g.sched.Start(p.TickInterval()); err != nil {
		return g.abortConnect(err)
	}

	g.session = uuid.NewString()
	g.state = Running
	g.log.Info().Str("session", g.session).Msg("Connected")
	g.obs.ConnectionStateChanged(Running)
	return nil
}

// abortConnect retires the channels announced by a failed Connect.
func (g *Generator) abortConnect(cause error) error {
	if err := g.registry.Retire(); err != nil {
		g.log.Error().Err(err).Msg("Failed to retire channels after connect error")
	}
	return fmt.Errorf("connect: %w", cause)
}

// Disconnect stops the replay, waits for the loop to exit and retires the
// channels. Disconnecting while stopped is logged and ignored.
func (g *Generator) Disconnect() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == Stopped {
		g.log.Warn().Msg("Already disconnected")
		return nil
	}

	if err := g.sched.Stop(); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	g.state = Stopped
	g.log.Info().Str("session", g.session).Msg("Disconnected")

	if err := g.registry.DeregisterAll(g.params.NumberOfChannels); err != nil {
		g.obs.ConnectionStateChanged(Stopped)
		return fmt.Errorf("disconnect: %w", err)
	}
	g.obs.ConnectionStateChanged(Stopped)
	return nil
}

// State returns the connection state.
func (g *Generator) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Session returns the id of the current or last connection, empty before the
// first Connect.
func (g *Generator) Session() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

// Corpus returns the configured corpus, or nil.
func (g *Generator) Corpus() *corpus.Corpus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.corpus
}

// Params returns the parameters of the configured corpus.
func (g *Generator) Params() corpus.Params {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.params
}

// Cursor returns the index of the block emitted last.
func (g *Generator) Cursor() int {
	return g.sched.Cursor()
}

// Channels returns the registered channels sorted by id.
func (g *Generator) Channels() []channel.Channel {
	return g.registry.Snapshot()
}
