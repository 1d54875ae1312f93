package channel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	added   []int
	removed []int
	failAt  int
	err     error
}

func (r *recorder) ChannelAdded(ch Channel) error {
	if r.err != nil && ch.ID == r.failAt {
		return r.err
	}
	r.added = append(r.added, ch.ID)
	return nil
}

func (r *recorder) ChannelRemoved(ch Channel) error {
	if r.err != nil && ch.ID == r.failAt {
		return r.err
	}
	r.removed = append(r.removed, ch.ID)
	return nil
}

func TestRegisterAllAscending(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry(rec)

	require.NoError(t, reg.RegisterAll(5))
	require.Equal(t, []int{0, 1, 2, 3, 4}, rec.added)
	require.Equal(t, 5, reg.Count())

	snap := reg.Snapshot()
	require.Len(t, snap, 5)
	for i, ch := range snap {
		require.Equal(t, i, ch.ID)
		require.Equal(t, DefaultName(i), ch.Name)
	}
}

func TestDeregisterAllAscending(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry(rec)

	require.NoError(t, reg.RegisterAll(3))
	require.NoError(t, reg.DeregisterAll(3))
	require.Equal(t, []int{0, 1, 2}, rec.removed)
	require.Zero(t, reg.Count())
	require.Empty(t, reg.Snapshot())
}

func TestRegisterAllFailsFast(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{failAt: 2, err: boom}
	reg := NewRegistry(rec)

	err := reg.RegisterAll(5)
	require.ErrorIs(t, err, boom)
	require.Equal(t, []int{0, 1}, rec.added)
	require.Equal(t, []int{0, 1}, ids(reg))
}

func TestDeregisterAllFailsFast(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.RegisterAll(4))

	boom := errors.New("boom")
	rec := &recorder{failAt: 1, err: boom}
	reg.observer = rec

	err := reg.DeregisterAll(4)
	require.ErrorIs(t, err, boom)
	require.Equal(t, []int{0}, rec.removed)
	require.Equal(t, []int{1, 2, 3}, ids(reg))
}

func TestRetireRemovesRegistered(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{failAt: 3, err: boom}
	reg := NewRegistry(rec)

	require.ErrorIs(t, reg.RegisterAll(5), boom)
	require.Equal(t, []int{0, 1, 2}, ids(reg))

	rec.err = nil
	require.NoError(t, reg.Retire())
	require.Equal(t, []int{0, 1, 2}, rec.removed)
	require.Zero(t, reg.Count())
}

func TestRetireContinuesPastErrors(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.RegisterAll(4))

	boom := errors.New("boom")
	rec := &recorder{failAt: 1, err: boom}
	reg.observer = rec

	require.ErrorIs(t, reg.Retire(), boom)
	require.Equal(t, []int{0, 2, 3}, rec.removed)
	require.Empty(t, reg.Snapshot())
}

func ids(reg *Registry) []int {
	var out []int
	for _, ch := range reg.Snapshot() {
		out = append(out, ch.ID)
	}
	return out
}

func TestNilObserver(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.RegisterAll(2))
	require.Equal(t, 2, reg.Count())
	require.NoError(t, reg.DeregisterAll(2))
	require.Zero(t, reg.Count())
}

func TestDisplayName(t *testing.T) {
	require.Equal(t, "Channel 37", New(36).DisplayName())
	require.Equal(t, "Channel 1", Channel{ID: 0}.DisplayName())
	require.Equal(t, "trigger", Channel{ID: 36, Name: "trigger"}.DisplayName())
}
