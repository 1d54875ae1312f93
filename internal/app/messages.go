package app

import (
	"time"

	"levelbar.klederson.com/internal/channel"
	"levelbar.klederson.com/internal/generator"
	"levelbar.klederson.com/internal/meter"
)

// TickMsg triggers a frame update for animation and peak decay.
type TickMsg time.Time

// ChannelAddedMsg announces a new channel.
type ChannelAddedMsg struct {
	Channel channel.Channel
}

// ChannelRemovedMsg retires a channel.
type ChannelRemovedMsg struct {
	Channel channel.Channel
}

// LevelsMsg carries one un-throttled, scaled level vector.
type LevelsMsg struct {
	Levels []meter.Scaled
	Bounds meter.Bounds
	At     time.Time
}

// StateMsg reports a generator connection state change.
type StateMsg struct {
	State generator.State
}

// SessionMsg describes the connection Connect just opened.
type SessionMsg struct {
	ID       string
	Blocks   int
	Interval time.Duration
}

// ErrMsg reports generator or feed errors.
type ErrMsg struct {
	Err error
}
