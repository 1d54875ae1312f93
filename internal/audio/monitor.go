package audio

import (
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Monitor plays a PCM stream on the default output device.
type Monitor struct {
	mu     sync.Mutex
	otoCtx *oto.Context
	player *oto.Player
}

// NewMonitor opens the output device for mono signed 16-bit audio at
// sampleRate and waits until it is ready.
func NewMonitor(sampleRate int) (*Monitor, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	}

	otoCtx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-readyChan

	return &Monitor{otoCtx: otoCtx}, nil
}

// Play starts streaming r, replacing any stream already playing.
func (m *Monitor) Play(r io.Reader) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.player != nil {
		m.player.Pause()
		m.player.Close()
	}
	m.player = m.otoCtx.NewPlayer(r)
	m.player.Play()
}

// Close stops playback. The oto context stays alive for the process.
func (m *Monitor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.player == nil {
		return nil
	}
	m.player.Pause()
	err := m.player.Close()
	m.player = nil
	return err
}
