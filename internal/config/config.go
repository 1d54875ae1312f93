package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"levelbar.klederson.com/internal/corpus"
	"levelbar.klederson.com/internal/logger"
)

const (
	// Acquisition (reference scenario)
	SamplingRate     = 16384 // Hz
	ChannelBlockSize = 512   // bytes per channel per block (8 bytes per sample)
	SamplingTime     = 1.0   // seconds of excitation
	NumberOfChannels = 75

	// Level normalization
	ThrottleWindow    = 300 * time.Millisecond // Minimum spacing of display updates
	MinDb             = -60.0
	MaxDb             = 0.0
	InitialClusterMin = 0.098
	InitialClusterMax = 0.101

	// Peak hold
	HoldDuration = 2 * time.Second

	// Display
	TargetFPS      = 30  // Target frames per second
	HistoryLength  = 120 // Level history samples kept per channel
	SpringFreq     = 6.0 // Bar animation angular frequency
	SpringDamping  = 1.0 // Critically damped, no overshoot
	MeterMinHeight = 5   // Minimum bar height in rows
	TopChannels    = 5   // Channels listed per headless report line

	// App
	AppName    = "LEVELBAR"
	AppVersion = "1.0"
)

// ErrInvalidSettings is returned by Validate for out-of-range settings.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings is the YAML-loadable runtime configuration.
type Settings struct {
	Acquisition Acquisition `yaml:"acquisition"`
	Meter       Meter       `yaml:"meter"`
	LogLevel    string      `yaml:"log_level"`
}

// Acquisition holds the corpus sampling parameters.
type Acquisition struct {
	SamplingRate     int     `yaml:"sampling_rate"`
	ChannelBlockSize int     `yaml:"channel_block_size"`
	SamplingTime     float64 `yaml:"sampling_time"`
	NumberOfChannels int     `yaml:"number_of_channels"`
	Seed             uint64  `yaml:"seed"` // 0 = random seed per run
}

// Meter holds the normalizer and peak hold tuning.
type Meter struct {
	ThrottleWindow    time.Duration `yaml:"throttle_window"`
	MinDb             float64       `yaml:"min_db"`
	MaxDb             float64       `yaml:"max_db"`
	InitialClusterMin float64       `yaml:"initial_cluster_min"`
	InitialClusterMax float64       `yaml:"initial_cluster_max"`
	HoldDuration      time.Duration `yaml:"hold_duration"`
}

// Params returns the corpus parameters described by a.
func (a Acquisition) Params() corpus.Params {
	return corpus.Params{
		SamplingRate:     a.SamplingRate,
		ChannelBlockSize: a.ChannelBlockSize,
		SamplingTime:     a.SamplingTime,
		NumberOfChannels: a.NumberOfChannels,
	}
}

// Defaults returns the reference scenario settings.
func Defaults() Settings {
	return Settings{
		Acquisition: Acquisition{
			SamplingRate:     SamplingRate,
			ChannelBlockSize: ChannelBlockSize,
			SamplingTime:     SamplingTime,
			NumberOfChannels: NumberOfChannels,
		},
		Meter: Meter{
			ThrottleWindow:    ThrottleWindow,
			MinDb:             MinDb,
			MaxDb:             MaxDb,
			InitialClusterMin: InitialClusterMin,
			InitialClusterMax: InitialClusterMax,
			HoldDuration:      HoldDuration,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML settings file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Settings, error) {
	s := Defaults()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Save writes the settings as YAML.
func Save(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks ranges that the corpus builder and normalizer rely on.
func (s Settings) Validate() error {
	a := s.Acquisition
	switch {
	case a.SamplingRate <= 0:
		return fmt.Errorf("%w: sampling_rate must be positive, got %d", ErrInvalidSettings, a.SamplingRate)
	case a.ChannelBlockSize <= 0:
		return fmt.Errorf("%w: channel_block_size must be positive, got %d", ErrInvalidSettings, a.ChannelBlockSize)
	case a.SamplingTime <= 0:
		return fmt.Errorf("%w: sampling_time must be positive, got %g", ErrInvalidSettings, a.SamplingTime)
	case a.NumberOfChannels <= 0:
		return fmt.Errorf("%w: number_of_channels must be positive, got %d", ErrInvalidSettings, a.NumberOfChannels)
	case a.Params().TickInterval() <= 0:
		return fmt.Errorf("%w: sampling_rate %d is too high for channel_block_size %d, the tick interval rounds to zero",
			ErrInvalidSettings, a.SamplingRate, a.ChannelBlockSize)
	}

	if _, err := logger.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}

	m := s.Meter
	switch {
	case m.ThrottleWindow < 0:
		return fmt.Errorf("%w: throttle_window must not be negative", ErrInvalidSettings)
	case m.HoldDuration <= 0:
		return fmt.Errorf("%w: hold_duration must be positive", ErrInvalidSettings)
	case m.MinDb >= m.MaxDb:
		return fmt.Errorf("%w: min_db (%g) must be below max_db (%g)", ErrInvalidSettings, m.MinDb, m.MaxDb)
	case m.InitialClusterMin > m.InitialClusterMax:
		return fmt.Errorf("%w: initial_cluster_min must not exceed initial_cluster_max", ErrInvalidSettings)
	}
	return nil
}
