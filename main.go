package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"levelbar.klederson.com/internal/app"
	"levelbar.klederson.com/internal/audio"
	"levelbar.klederson.com/internal/config"
	"levelbar.klederson.com/internal/corpus"
	"levelbar.klederson.com/internal/generator"
	"levelbar.klederson.com/internal/logger"
	"levelbar.klederson.com/internal/meter"
	"levelbar.klederson.com/internal/report"
	"levelbar.klederson.com/internal/wallclock"
)

var (
	flagConfig   string
	flagChannels int
	flagSeed     uint64
	flagLogLevel string
	flagLogFile  string
	flagHeadless bool
	flagDuration time.Duration
	flagListen   int
	flagWriteCfg string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "levelbar",
		Short: "LevelBar - simulated multi-channel acquisition with a live level meter",
		Long: `LevelBar synthesizes a repeatable multi-channel signal corpus with one
trigger channel and replays it block by block on a fixed cadence, showing every
channel as a dB-scaled level bar with peak hold.

Use --headless to print level lines instead of the terminal meter, and
--listen to hear one channel through the default audio device.`,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().StringVar(&flagConfig, "config", "", "YAML settings file")
	rootCmd.Flags().IntVar(&flagChannels, "channels", config.NumberOfChannels, "Number of channels to simulate")
	rootCmd.Flags().Uint64Var(&flagSeed, "seed", 0, "Corpus random seed (0 picks one)")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file")
	rootCmd.Flags().BoolVar(&flagHeadless, "headless", false, "Print level lines instead of the terminal meter")
	rootCmd.Flags().DurationVar(&flagDuration, "duration", 0, "Stop a headless run after this long (0 runs until interrupted)")
	rootCmd.Flags().IntVar(&flagListen, "listen", -1, "Play this channel's samples on the audio device")
	rootCmd.Flags().StringVar(&flagWriteCfg, "write-config", "", "Write the effective settings to this YAML file and exit")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if flagWriteCfg != "" {
		if err := config.Save(flagWriteCfg, settings); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Settings written to %s\n", flagWriteCfg)
		return nil
	}

	log, closeLog, err := newLogger(settings.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	seed := settings.Acquisition.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	log.Info().Uint64("seed", seed).Msg("Starting " + config.AppName)

	normalizer := meter.NewNormalizer(
		meter.WithThrottle(settings.Meter.ThrottleWindow),
		meter.WithDbRange(settings.Meter.MinDb, settings.Meter.MaxDb),
		meter.WithInitialBounds(meter.Bounds{
			Min: settings.Meter.InitialClusterMin,
			Max: settings.Meter.InitialClusterMax,
		}),
	)

	var (
		obs  generator.Observer
		feed *app.Feed
		rep  *report.Reporter
	)
	if flagHeadless {
		rep = report.New(os.Stdout, normalizer, settings.Meter.HoldDuration,
			report.WithClock(wallclock.Real),
			report.WithLogger(log),
		)
		obs = rep
	} else {
		feed = app.NewFeed(normalizer, wallclock.Real, log)
		obs = feed
	}

	params := settings.Acquisition.Params()
	gen := generator.New(obs,
		generator.WithParams(params),
		generator.WithRand(rand.New(rand.NewPCG(seed, seed>>1|1))),
		generator.WithLogger(log),
	)
	if err := gen.Configure(params); err != nil {
		return err
	}

	if flagListen >= 0 {
		stopMonitor, err := startMonitor(gen.Corpus(), flagListen, log)
		if err != nil {
			return err
		}
		defer stopMonitor()
	}

	if flagHeadless {
		err = runHeadless(cmd.Context(), gen, log)
		log.Info().Int("updates", rep.Updates()).Msg("Headless run finished")
		return err
	}
	return runTUI(gen, feed, settings)
}

func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	settings, err := config.Load(flagConfig)
	if err != nil {
		return settings, err
	}

	flags := cmd.Flags()
	if flags.Changed("channels") {
		settings.Acquisition.NumberOfChannels = flagChannels
	}
	if flags.Changed("seed") {
		settings.Acquisition.Seed = flagSeed
	}
	if flags.Changed("log-level") {
		settings.LogLevel = flagLogLevel
	}
	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

// newLogger logs to stderr in headless mode. The TUI owns the terminal, so
// there logs go to --log-file or nowhere.
func newLogger(level string) (zerolog.Logger, func(), error) {
	if flagLogFile != "" {
		f, err := logger.OpenFile(flagLogFile)
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		return logger.New(f, level), func() { _ = f.Close() }, nil
	}
	if flagHeadless {
		return logger.New(os.Stderr, level), func() {}, nil
	}
	return logger.New(io.Discard, level), func() {}, nil
}

func runHeadless(parent context.Context, gen *generator.Generator, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flagDuration)
		defer cancel()
	}

	if err := gen.Connect(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	log.Debug().Err(context.Cause(ctx)).Msg("Stopping")

	return gen.Disconnect()
}

func runTUI(gen *generator.Generator, feed *app.Feed, settings config.Settings) error {
	model := app.New(gen, settings, true)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithFPS(config.TargetFPS),
	)
	feed.Attach(p)

	_, err := p.Run()
	if derr := gen.Disconnect(); derr != nil && err == nil {
		err = derr
	}
	return err
}

func startMonitor(c *corpus.Corpus, ch int, log zerolog.Logger) (func(), error) {
	reader, err := audio.NewChannelReader(c, ch, 1)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	mon, err := audio.NewMonitor(c.SamplingRate())
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	mon.Play(reader)
	log.Info().Int("channel", ch).Int("sample_rate", c.SamplingRate()).Msg("Audio monitor started")

	return func() {
		if err := mon.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to stop audio monitor")
		}
	}, nil
}
