package channel

import "fmt"

// Channel is one acquisition channel. Identity is the ID.
type Channel struct {
	ID   int
	Name string
}

// New returns a channel with its default display name.
func New(id int) Channel {
	return Channel{ID: id, Name: DefaultName(id)}
}

// DefaultName returns the 1-based display name for a channel id.
func DefaultName(id int) string {
	return fmt.Sprintf("Channel %d", id+1)
}

// DisplayName returns the channel name or its default if empty.
func (c Channel) DisplayName() string {
	if c.Name == "" {
		return DefaultName(c.ID)
	}
	return c.Name
}
