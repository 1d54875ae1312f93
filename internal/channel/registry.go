package channel

import (
	"fmt"
	"sort"
	"sync"
)

// Observer receives channel lifecycle notifications. Returning an error stops
// the announcement loop at that channel.
type Observer interface {
	ChannelAdded(ch Channel) error
	ChannelRemoved(ch Channel) error
}

// Registry is a thread-safe set of announced channels.
type Registry struct {
	mu       sync.RWMutex
	channels map[int]Channel
	observer Observer
}

// NewRegistry creates an empty registry notifying obs. obs may be nil.
func NewRegistry(obs Observer) *Registry {
	return &Registry{
		channels: make(map[int]Channel),
		observer: obs,
	}
}

// RegisterAll announces channels 0..count-1 in ascending order. It stops at
// the first observer error; later ids are neither announced nor registered.
func (r *Registry) RegisterAll(count int) error {
	for id := 0; id < count; id++ {
		ch := New(id)
		if r.observer != nil {
			if err := r.observer.ChannelAdded(ch); err != nil {
				return fmt.Errorf("channel %d added: %w", id, err)
			}
		}

		r.mu.Lock()
		r.channels[id] = ch
		r.mu.Unlock()
	}
	return nil
}

// DeregisterAll retires channels 0..count-1 in ascending order, failing fast
// like RegisterAll.
func (r *Registry) DeregisterAll(count int) error {
	for id := 0; id < count; id++ {
		r.mu.RLock()
		ch, ok := r.channels[id]
		r.mu.RUnlock()
		if !ok {
			ch = New(id)
		}

		if r.observer != nil {
			if err := r.observer.ChannelRemoved(ch); err != nil {
				return fmt.Errorf("channel %d removed: %w", id, err)
			}
		}

		r.mu.Lock()
		delete(r.channels, id)
		r.mu.Unlock()
	}
	return nil
}

// Retire removes every registered channel in ascending id order, notifying
// the observer for each. Unlike DeregisterAll it continues past observer
// errors so the registry always ends empty; the first error is returned.
func (r *Registry) Retire() error {
	var first error
	for _, ch := range r.Snapshot() {
		if r.observer != nil {
			if err := r.observer.ChannelRemoved(ch); err != nil && first == nil {
				first = fmt.Errorf("channel %d removed: %w", ch.ID, err)
			}
		}

		r.mu.Lock()
		delete(r.channels, ch.ID)
		r.mu.Unlock()
	}
	return first
}

// Count returns the number of registered channels.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// Snapshot returns the registered channels sorted by id.
func (r *Registry) Snapshot() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		result = append(result, ch)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}
