package meter

import (
	"time"

	"levelbar.klederson.com/internal/config"
)

// LevelBar is one channel's display state: the current scaled level and a
// peak hold that collapses to the current level after HoldDuration without a
// new peak.
type LevelBar struct {
	ID        int
	Name      string
	Raw       float64
	Level     float64
	Peak      float64
	PeakSetAt time.Time

	hold    time.Duration
	holding bool
}

// NewLevelBar creates an empty bar with the given hold duration.
func NewLevelBar(id int, name string, hold time.Duration) *LevelBar {
	if hold <= 0 {
		hold = config.HoldDuration
	}
	return &LevelBar{ID: id, Name: name, hold: hold}
}

// SetLevel records a new scaled level. A level above the held peak becomes
// the new peak and restarts the hold.
func (b *LevelBar) SetLevel(scaled float64, now time.Time) {
	b.Level = scaled
	if scaled > b.Peak {
		b.Peak = scaled
		b.PeakSetAt = now
		b.holding = true
		return
	}
	b.Expire(now)
}

// Expire collapses the peak to the current level once the hold has run out.
// It reports whether a collapse happened.
func (b *LevelBar) Expire(now time.Time) bool {
	if !b.holding || now.Sub(b.PeakSetAt) < b.hold {
		return false
	}
	b.Peak = b.Level
	b.holding = false
	return true
}

// Holding reports whether a peak hold countdown is armed.
func (b *LevelBar) Holding() bool {
	return b.holding
}

// Db returns the bar level expressed on the display dB scale.
func (b *LevelBar) Db(minDb, maxDb float64) float64 {
	return minDb + b.Level*(maxDb-minDb)
}
