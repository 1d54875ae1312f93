// Package audio lets one channel of the corpus be heard through the
// default output device.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"levelbar.klederson.com/internal/corpus"
)

const bytesPerSample = 2 // signed 16-bit mono

var (
	// ErrNoCorpus is returned when there is nothing to play.
	ErrNoCorpus = errors.New("no corpus to play")

	// ErrChannel is returned for a channel outside the corpus.
	ErrChannel = errors.New("channel out of range")
)

// ChannelReader streams one channel's raw samples as mono signed 16-bit
// little-endian PCM, looping over the corpus blocks forever.
type ChannelReader struct {
	c    *corpus.Corpus
	ch   int
	gain float64

	block int
	index int

	buf     [bytesPerSample]byte
	pending []byte
}

// NewChannelReader returns a reader over channel ch of c. Samples are
// multiplied by gain and clipped to [-1, 1].
func NewChannelReader(c *corpus.Corpus, ch int, gain float64) (*ChannelReader, error) {
	if c.Len() == 0 {
		return nil, ErrNoCorpus
	}
	if ch < 0 || ch >= len(c.IDs()) {
		return nil, fmt.Errorf("%w: %d of %d", ErrChannel, ch, len(c.IDs()))
	}
	if gain <= 0 {
		gain = 1
	}
	return &ChannelReader{c: c, ch: ch, gain: gain}, nil
}

// Read fills p with PCM bytes. It never returns an error.
func (r *ChannelReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(r.pending) > 0 {
			k := copy(p[n:], r.pending)
			r.pending = r.pending[k:]
			n += k
			continue
		}

		binary.LittleEndian.PutUint16(r.buf[:], uint16(PCM(r.next()*r.gain)))
		k := copy(p[n:], r.buf[:])
		if k < bytesPerSample {
			r.pending = r.buf[k:]
		}
		n += k
	}
	return n, nil
}

// position returns the block and sample index of the next sample.
func (r *ChannelReader) position() (block, index int) {
	return r.block, r.index
}

func (r *ChannelReader) next() float64 {
	samples := r.c.Samples(r.block, r.ch)
	for len(samples) == 0 {
		r.advanceBlock()
		samples = r.c.Samples(r.block, r.ch)
	}

	v := samples[r.index]
	r.index++
	if r.index >= len(samples) {
		r.advanceBlock()
	}
	return v
}

func (r *ChannelReader) advanceBlock() {
	r.index = 0
	r.block++
	if r.block >= r.c.Len() {
		r.block = 0
	}
}

// PCM converts a sample to signed 16-bit, clipping to [-1, 1].
func PCM(v float64) int16 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Max(-1, math.Min(1, v))
	return int16(math.Round(v * math.MaxInt16))
}
