package audio

import (
	"encoding/binary"
	"io"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"levelbar.klederson.com/internal/corpus"
)

func buildCorpus(t *testing.T) *corpus.Corpus {
	t.Helper()
	c, err := corpus.Build(corpus.Params{
		SamplingRate:     1024,
		ChannelBlockSize: 512,
		SamplingTime:     1,
		NumberOfChannels: 40,
	}, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)
	return c
}

func TestNewChannelReaderErrors(t *testing.T) {
	_, err := NewChannelReader(nil, 0, 1)
	require.ErrorIs(t, err, ErrNoCorpus)

	c := buildCorpus(t)
	_, err = NewChannelReader(c, 40, 1)
	require.ErrorIs(t, err, ErrChannel)
	_, err = NewChannelReader(c, -1, 1)
	require.ErrorIs(t, err, ErrChannel)
}

func TestReadEncodesSamples(t *testing.T) {
	c := buildCorpus(t)
	r, err := NewChannelReader(c, corpus.TriggerChannel, 1)
	require.NoError(t, err)

	buf := make([]byte, 2*c.SamplesPerBlock)
	n, err := r.Read(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)

	samples := c.Samples(0, corpus.TriggerChannel)
	for i, want := range samples {
		got := int16(binary.LittleEndian.Uint16(buf[2*i:]))
		require.Equal(t, PCM(want), got, "sample %d", i)
	}

	block, index := r.position()
	require.Equal(t, 1, block)
	require.Zero(t, index)
}

func TestReadSplitsSamples(t *testing.T) {
	c := buildCorpus(t)
	whole, err := NewChannelReader(c, 5, 1)
	require.NoError(t, err)
	split, err := NewChannelReader(c, 5, 1)
	require.NoError(t, err)

	want := make([]byte, 101)
	_, err = io.ReadFull(whole, want)
	require.NoError(t, err)

	var got []byte
	for _, size := range []int{1, 3, 2, 7, 1, 87} {
		chunk := make([]byte, size)
		n, err := split.Read(chunk)
		require.NoError(t, err)
		require.Equal(t, size, n)
		got = append(got, chunk...)
	}
	require.Equal(t, want, got)
}

func TestReadLoops(t *testing.T) {
	c := buildCorpus(t)
	r, err := NewChannelReader(c, 0, 1)
	require.NoError(t, err)

	total := c.Len() * c.SamplesPerBlock * 2
	_, err = io.ReadFull(r, make([]byte, total))
	require.NoError(t, err)

	block, index := r.position()
	require.Zero(t, block)
	require.Zero(t, index)

	first := make([]byte, 2)
	_, err = r.Read(first)
	require.NoError(t, err)
	require.Equal(t, PCM(c.Samples(0, 0)[0]), int16(binary.LittleEndian.Uint16(first)))
}

func TestGainClips(t *testing.T) {
	c := buildCorpus(t)
	r, err := NewChannelReader(c, corpus.TriggerChannel, 1000)
	require.NoError(t, err)

	buf := make([]byte, 2*c.SamplesPerBlock)
	_, err = r.Read(buf)
	require.NoError(t, err)

	// The impulse peak at offset 50 clips at full scale.
	require.Equal(t, int16(math.MaxInt16), int16(binary.LittleEndian.Uint16(buf[100:])))
}

func TestPCM(t *testing.T) {
	require.Equal(t, int16(0), PCM(0))
	require.Equal(t, int16(math.MaxInt16), PCM(1))
	require.Equal(t, int16(-math.MaxInt16), PCM(-1))
	require.Equal(t, int16(math.MaxInt16), PCM(3))
	require.Equal(t, int16(-math.MaxInt16), PCM(-3))
	require.Equal(t, int16(16384), PCM(0.5))
	require.Equal(t, int16(0), PCM(math.NaN()))
}
