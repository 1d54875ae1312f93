package generator

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"levelbar.klederson.com/internal/channel"
	"levelbar.klederson.com/internal/corpus"
)

var smallParams = corpus.Params{
	SamplingRate:     1024,
	ChannelBlockSize: 512,
	SamplingTime:     1,
	NumberOfChannels: 40,
}

// recorder captures every notification in order.
type recorder struct {
	mu      sync.Mutex
	added   []int
	removed []int
	states  []State
	vectors int
	width   int
	failAdd int // channel id whose ChannelAdded fails, -1 for none
}

func newRecorder() *recorder {
	return &recorder{failAdd: -1}
}

func (r *recorder) ChannelAdded(ch channel.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch.ID == r.failAdd {
		return errors.New("display rejected channel")
	}
	r.added = append(r.added, ch.ID)
	return nil
}

func (r *recorder) ChannelRemoved(ch channel.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, ch.ID)
	return nil
}

func (r *recorder) LevelDataReceived(ids []int, levels []float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vectors++
	r.width = len(levels)
	return nil
}

func (r *recorder) ConnectionStateChanged(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) vectorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vectors
}

func newTestGenerator(obs Observer) *Generator {
	return New(obs,
		WithParams(smallParams),
		WithRand(rand.New(rand.NewPCG(7, 7))),
	)
}

func TestConnectDisconnect(t *testing.T) {
	rec := newRecorder()
	g := newTestGenerator(rec)
	require.Equal(t, Stopped, g.State())
	require.Empty(t, g.Session())

	require.NoError(t, g.Connect(context.Background()))
	require.Equal(t, Running, g.State())
	_, err := uuid.Parse(g.Session())
	require.NoError(t, err)
	require.Len(t, g.Channels(), 40)
	require.Equal(t, 80, g.Corpus().Len())

	require.Eventually(t, func() bool { return rec.vectorCount() >= 2 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, g.Disconnect())
	require.Equal(t, Stopped, g.State())
	require.Empty(t, g.Channels())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.added, 40)
	require.Len(t, rec.removed, 40)
	for i := range rec.added {
		require.Equal(t, i, rec.added[i])
		require.Equal(t, i, rec.removed[i])
	}
	require.Equal(t, []State{Running, Stopped}, rec.states)
	require.Equal(t, 40, rec.width)
}

func TestConnectTwiceIsIgnored(t *testing.T) {
	rec := newRecorder()
	g := newTestGenerator(rec)

	require.NoError(t, g.Connect(context.Background()))
	session := g.Session()
	require.NoError(t, g.Connect(context.Background()))
	require.Equal(t, session, g.Session())
	require.NoError(t, g.Disconnect())
	require.NoError(t, g.Disconnect())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.added, 40)
	require.Equal(t, []State{Running, Stopped}, rec.states)
}

func TestReconnectKeepsCorpusAndNewSession(t *testing.T) {
	g := newTestGenerator(nil)

	require.NoError(t, g.Connect(context.Background()))
	first := g.Corpus()
	session := g.Session()
	require.NoError(t, g.Disconnect())

	require.NoError(t, g.Connect(context.Background()))
	require.Same(t, first, g.Corpus())
	require.NotEqual(t, session, g.Session())
	require.NoError(t, g.Disconnect())
}

func TestConnectStopsAtObserverFailure(t *testing.T) {
	rec := newRecorder()
	rec.failAdd = 3
	g := newTestGenerator(rec)

	err := g.Connect(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "channel 3 added")
	require.Equal(t, Stopped, g.State())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Equal(t, []int{0, 1, 2}, rec.added)
	require.Empty(t, rec.states)
}

func TestFailedConnectRetiresChannels(t *testing.T) {
	rec := newRecorder()
	rec.failAdd = 3
	g := newTestGenerator(rec)

	require.Error(t, g.Connect(context.Background()))
	require.Empty(t, g.Channels())
	require.Nil(t, g.Corpus())

	rec.mu.Lock()
	require.Equal(t, []int{0, 1, 2}, rec.removed)
	rec.mu.Unlock()

	// A later successful connect starts from an empty registry.
	rec.mu.Lock()
	rec.failAdd = -1
	rec.added, rec.removed = nil, nil
	rec.mu.Unlock()

	require.NoError(t, g.Connect(context.Background()))
	require.Len(t, g.Channels(), 40)
	require.NoError(t, g.Disconnect())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.added, 40)
	require.Len(t, rec.removed, 40)
	require.Equal(t, []State{Running, Stopped}, rec.states)
}

func TestConnectRejectsBadParams(t *testing.T) {
	p := smallParams
	p.NumberOfChannels = 36
	g := New(nil, WithParams(p))
	require.ErrorIs(t, g.Connect(context.Background()), corpus.ErrTriggerChannel)
	require.Equal(t, Stopped, g.State())
}

func TestConnectCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := newTestGenerator(nil)
	require.ErrorIs(t, g.Connect(ctx), context.Canceled)
	require.Equal(t, Stopped, g.State())
}

func TestConfigure(t *testing.T) {
	g := newTestGenerator(nil)
	require.Nil(t, g.Corpus())

	p := smallParams
	p.NumberOfChannels = 38
	require.NoError(t, g.Configure(p))
	require.Equal(t, p, g.Params())
	require.Len(t, g.Corpus().IDs(), 38)

	require.NoError(t, g.Connect(context.Background()))
	require.ErrorIs(t, g.Configure(smallParams), ErrBusy)
	require.Len(t, g.Channels(), 38)
	require.NoError(t, g.Disconnect())

	bad := smallParams
	bad.SamplingRate = 0
	require.ErrorIs(t, g.Configure(bad), corpus.ErrInvalidParams)
	require.Equal(t, p, g.Params())
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	require.Equal(t, 1280, p.NumberOfBlocks())
	require.Equal(t, 256, p.NumberOfTriggerBlocks())
	require.Equal(t, 3906250*time.Nanosecond, p.TickInterval())
}

func TestStateString(t *testing.T) {
	require.Equal(t, "running", Running.String())
	require.Equal(t, "stopped", Stopped.String())
}
