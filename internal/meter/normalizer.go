// Package meter turns raw channel peak levels into bounded display levels.
package meter

import (
	"errors"
	"math"
	"sync"
	"time"

	"levelbar.klederson.com/internal/config"
)

const (
	// logFloor keeps log10 away from zero and negative inputs.
	logFloor = 1e-9
)

var (
	// ErrThrottled is returned by Observe when the observation arrives within
	// the throttle window of the last accepted one.
	ErrThrottled = errors.New("observation throttled")

	// ErrLengthMismatch is returned when ids and levels differ in length.
	ErrLengthMismatch = errors.New("channel ids and levels differ in length")
)

// Bounds is the adaptively tracked [Min, Max] of the latest level vector.
type Bounds struct {
	Min float64
	Max float64
}

// Scaled is one channel's display level.
type Scaled struct {
	ID    int
	Raw   float64
	Level float64 // [0, 1]
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithThrottle sets the minimum spacing between accepted observations.
func WithThrottle(d time.Duration) NormalizerOption {
	return func(n *Normalizer) { n.throttle = d }
}

// WithDbRange sets the dB window mapped onto [0, 1].
func WithDbRange(minDb, maxDb float64) NormalizerOption {
	return func(n *Normalizer) {
		n.minDb = minDb
		n.maxDb = maxDb
	}
}

// WithInitialBounds seeds the cluster bounds.
func WithInitialBounds(b Bounds) NormalizerOption {
	return func(n *Normalizer) { n.bounds = b }
}

// Normalizer maps raw levels into [0, 1] on a dB scale relative to the
// bounds of the most recent accepted vector, dropping observations that
// arrive faster than the throttle window.
type Normalizer struct {
	mu         sync.Mutex
	bounds     Bounds
	lastUpdate time.Time
	throttle   time.Duration
	minDb      float64
	maxDb      float64
}

// NewNormalizer creates a normalizer with the default constants.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		bounds:   Bounds{Min: config.InitialClusterMin, Max: config.InitialClusterMax},
		throttle: config.ThrottleWindow,
		minDb:    config.MinDb,
		maxDb:    config.MaxDb,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Bounds returns the current cluster bounds.
func (n *Normalizer) Bounds() Bounds {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.bounds
}

// Observe accepts a level vector at time now. Within the throttle window it
// returns ErrThrottled and changes nothing. Otherwise it recomputes the
// bounds from this vector alone and returns each channel's scaled level in
// vector order. An empty vector is ignored.
func (n *Normalizer) Observe(ids []int, levels []float64, now time.Time) ([]Scaled, error) {
	if len(ids) != len(levels) {
		return nil, ErrLengthMismatch
	}
	if len(levels) == 0 {
		return nil, nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.lastUpdate.IsZero() && now.Sub(n.lastUpdate) < n.throttle {
		return nil, ErrThrottled
	}
	n.lastUpdate = now
	n.bounds = boundsOf(levels)

	out := make([]Scaled, len(levels))
	for i, x := range levels {
		out[i] = Scaled{
			ID:    ids[i],
			Raw:   x,
			Level: Scale(x, n.bounds, n.minDb, n.maxDb),
		}
	}
	return out, nil
}

func boundsOf(levels []float64) Bounds {
	b := Bounds{Min: levels[0], Max: levels[0]}
	for _, v := range levels[1:] {
		b.Min = math.Min(b.Min, v)
		b.Max = math.Max(b.Max, v)
	}
	if b.Min > b.Max {
		b.Max = b.Min
	}
	return b
}

// Scale maps x into [0, 1]: clamp to b, normalize, convert to dB and map the
// [minDb, maxDb] window linearly onto [0, 1].
func Scale(x float64, b Bounds, minDb, maxDb float64) float64 {
	clamped := clamp(x, b.Min, b.Max)

	normalized := 0.0
	if b.Max > b.Min {
		normalized = (clamped - b.Min) / (b.Max - b.Min)
	}

	db := ToDb(normalized)
	return clamp((db-minDb)/(maxDb-minDb), 0, 1)
}

// ToDb returns 20·log10(v), flooring v at 1e-9.
func ToDb(v float64) float64 {
	return 20 * math.Log10(math.Max(v, logFloor))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
