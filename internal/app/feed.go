package app

import (
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"levelbar.klederson.com/internal/channel"
	"levelbar.klederson.com/internal/generator"
	"levelbar.klederson.com/internal/meter"
	"levelbar.klederson.com/internal/wallclock"
)

// Sender delivers messages into a running Bubble Tea program.
type Sender interface {
	Send(msg tea.Msg)
}

// Feed is the generator observer behind the TUI. It normalizes level vectors
// on the scheduler goroutine and sends only the accepted ones to the program.
type Feed struct {
	normalizer *meter.Normalizer
	log        zerolog.Logger
	clock      wallclock.WallClock

	mu      sync.RWMutex
	program Sender
}

var _ generator.Observer = (*Feed)(nil)

// NewFeed creates a feed around n that stamps vectors with clock. A nil
// clock is wallclock.Real. Messages are dropped until Attach.
func NewFeed(n *meter.Normalizer, clock wallclock.WallClock, log zerolog.Logger) *Feed {
	if clock == nil {
		clock = wallclock.Real
	}
	return &Feed{
		normalizer: n,
		clock:      clock,
		log:        log,
	}
}

// Attach sets the program messages are sent to.
func (f *Feed) Attach(p Sender) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.program = p
}

func (f *Feed) send(msg tea.Msg) {
	f.mu.RLock()
	p := f.program
	f.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

// ChannelAdded forwards the new channel to the program.
func (f *Feed) ChannelAdded(ch channel.Channel) error {
	f.send(ChannelAddedMsg{Channel: ch})
	return nil
}

// ChannelRemoved forwards the retired channel to the program.
func (f *Feed) ChannelRemoved(ch channel.Channel) error {
	f.send(ChannelRemovedMsg{Channel: ch})
	return nil
}

// LevelDataReceived scales the vector and forwards it unless throttled.
func (f *Feed) LevelDataReceived(ids []int, levels []float64) error {
	now := f.clock.Now()
	scaled, err := f.normalizer.Observe(ids, levels, now)
	if errors.Is(err, meter.ErrThrottled) {
		return nil
	}
	if err != nil {
		return err
	}
	if scaled == nil {
		return nil
	}

	f.send(LevelsMsg{
		Levels: scaled,
		Bounds: f.normalizer.Bounds(),
		At:     now,
	})
	return nil
}

// ConnectionStateChanged forwards the state to the program.
func (f *Feed) ConnectionStateChanged(state generator.State) {
	f.log.Debug().Stringer("state", state).Msg("Connection state changed")
	f.send(StateMsg{State: state})
}
