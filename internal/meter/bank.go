package meter

import (
	"sort"
	"sync"
	"time"

	"levelbar.klederson.com/internal/channel"
)

// Bank is a thread-safe set of level bars, one per registered channel.
// It implements channel.Observer so bars come and go with the registry.
type Bank struct {
	mu   sync.RWMutex
	bars map[int]*LevelBar
	hold time.Duration
}

// NewBank creates an empty bank whose bars use the given hold duration.
func NewBank(hold time.Duration) *Bank {
	return &Bank{
		bars: make(map[int]*LevelBar),
		hold: hold,
	}
}

// ChannelAdded creates the channel's bar.
func (k *Bank) ChannelAdded(ch channel.Channel) error {
	k.Add(ch)
	return nil
}

// ChannelRemoved drops the channel's bar.
func (k *Bank) ChannelRemoved(ch channel.Channel) error {
	k.Remove(ch.ID)
	return nil
}

// Add creates a bar for ch, keeping an existing one.
func (k *Bank) Add(ch channel.Channel) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, ok := k.bars[ch.ID]; ok {
		return
	}
	k.bars[ch.ID] = NewLevelBar(ch.ID, ch.DisplayName(), k.hold)
}

// Remove drops the bar for id.
func (k *Bank) Remove(id int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.bars, id)
}

// Apply updates the bars of known channels. Unknown ids are ignored.
// Returns the number of bars updated.
func (k *Bank) Apply(levels []Scaled, now time.Time) int {
	k.mu.Lock()
	defer k.mu.Unlock()

	n := 0
	for _, s := range levels {
		bar, ok := k.bars[s.ID]
		if !ok {
			continue
		}
		bar.Raw = s.Raw
		bar.SetLevel(s.Level, now)
		n++
	}
	return n
}

// ExpireAll runs the peak hold decay on every bar.
func (k *Bank) ExpireAll(now time.Time) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, bar := range k.bars {
		bar.Expire(now)
	}
}

// Get returns a copy of the bar for id.
func (k *Bank) Get(id int) (LevelBar, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	bar, ok := k.bars[id]
	if !ok {
		return LevelBar{}, false
	}
	return *bar, true
}

// Count returns the number of bars.
func (k *Bank) Count() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.bars)
}

// Snapshot returns copies of all bars sorted by channel id.
func (k *Bank) Snapshot() []LevelBar {
	k.mu.RLock()
	defer k.mu.RUnlock()

	result := make([]LevelBar, 0, len(k.bars))
	for _, bar := range k.bars {
		result = append(result, *bar)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}
