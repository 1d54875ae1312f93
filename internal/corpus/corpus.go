// Package corpus synthesizes the replayable multi-channel signal data that
// stands in for a live acquisition front-end.
package corpus

import (
	"errors"
	"fmt"
	"time"
)

const (
	// TriggerChannel carries the excitation impulse in block 0.
	TriggerChannel = 36

	// PeakDivisor scales a block's max absolute sample into its level.
	PeakDivisor = 10.0

	// DurationMultiplier is how many excitation windows the corpus spans.
	DurationMultiplier = 5

	// BytesPerSample is the width of one raw sample in a channel block.
	BytesPerSample = 8

	// NoiseStdDev is the standard deviation of the Gaussian noise floor.
	NoiseStdDev = 0.01

	// MaxBurstFrequency bounds the random burst frequency in Hz.
	MaxBurstFrequency = 1000.0
)

var (
	// ErrInvalidParams reports sampling parameters that cannot produce a corpus.
	ErrInvalidParams = errors.New("invalid sampling parameters")

	// ErrTriggerChannel reports a channel count that leaves no room for the
	// trigger channel.
	ErrTriggerChannel = errors.New("trigger channel out of range")
)

// Params are the sampling parameters a corpus is built from.
type Params struct {
	SamplingRate     int     // Hz
	ChannelBlockSize int     // bytes per channel per block
	SamplingTime     float64 // seconds
	NumberOfChannels int
}

// SamplesPerBlock returns the number of samples per channel in one block.
func (p Params) SamplesPerBlock() int {
	return p.ChannelBlockSize / BytesPerSample
}

// dataPoints is the sample count of one excitation window.
func (p Params) dataPoints() int {
	return int(p.SamplingTime * float64(p.SamplingRate))
}

// NumberOfBlocks returns how many blocks the corpus holds.
func (p Params) NumberOfBlocks() int {
	spb := p.SamplesPerBlock()
	if spb <= 0 {
		return 0
	}
	return DurationMultiplier * p.dataPoints() / spb
}

// NumberOfTriggerBlocks returns how many leading blocks carry the burst.
func (p Params) NumberOfTriggerBlocks() int {
	spb := p.SamplesPerBlock()
	if spb <= 0 {
		return 0
	}
	return p.dataPoints() / spb
}

// TickInterval is the wall-clock duration of one block.
func (p Params) TickInterval() time.Duration {
	if p.SamplingRate <= 0 {
		return 0
	}
	seconds := float64(p.SamplesPerBlock()) / float64(p.SamplingRate)
	return time.Duration(seconds * float64(time.Second))
}

// Validate reports whether the parameters can produce a non-empty corpus.
func (p Params) Validate() error {
	switch {
	case p.SamplingRate <= 0:
		return fmt.Errorf("%w: sampling rate %d", ErrInvalidParams, p.SamplingRate)
	case p.ChannelBlockSize <= 0:
		return fmt.Errorf("%w: channel block size %d", ErrInvalidParams, p.ChannelBlockSize)
	case p.SamplingTime <= 0:
		return fmt.Errorf("%w: sampling time %g", ErrInvalidParams, p.SamplingTime)
	case p.NumberOfChannels <= 0:
		return fmt.Errorf("%w: number of channels %d", ErrInvalidParams, p.NumberOfChannels)
	case p.SamplesPerBlock() == 0:
		return fmt.Errorf("%w: channel block size %d holds no samples", ErrInvalidParams, p.ChannelBlockSize)
	case p.NumberOfBlocks() <= 0:
		return fmt.Errorf("%w: corpus would hold no blocks", ErrInvalidParams)
	case p.TickInterval() <= 0:
		return fmt.Errorf("%w: %d samples at %d Hz give a zero tick interval",
			ErrInvalidParams, p.SamplesPerBlock(), p.SamplingRate)
	case p.NumberOfChannels <= TriggerChannel:
		return fmt.Errorf("%w: channel %d needs at least %d channels, got %d",
			ErrTriggerChannel, TriggerChannel, TriggerChannel+1, p.NumberOfChannels)
	}
	return nil
}

// Block is one simulated acquisition window across all channels.
// Samples[ch] is channel ch's raw window; Levels[ch] its peak level.
type Block struct {
	Samples [][]float64
	Levels  []float64
}

// Corpus is an ordered, immutable sequence of blocks. It is safe for
// concurrent readers; callers must not modify the returned slices.
type Corpus struct {
	Params          Params
	Blocks          []Block
	TriggerBlocks   int
	SamplesPerBlock int

	channelIDs []int
}

// Len returns the number of blocks.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Blocks)
}

// IDs returns the channel ids in level-vector order.
func (c *Corpus) IDs() []int {
	return c.channelIDs
}

// Levels returns the per-channel level vector of block i.
func (c *Corpus) Levels(i int) []float64 {
	return c.Blocks[i].Levels
}

// Samples returns the raw samples of channel ch in block i.
func (c *Corpus) Samples(i, ch int) []float64 {
	return c.Blocks[i].Samples[ch]
}

// SamplingRate returns the rate the samples were generated at.
func (c *Corpus) SamplingRate() int {
	return c.Params.SamplingRate
}
