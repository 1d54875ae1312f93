// Package report prints level updates as colored text lines for headless
// runs.
package report

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"levelbar.klederson.com/internal/channel"
	"levelbar.klederson.com/internal/config"
	"levelbar.klederson.com/internal/generator"
	"levelbar.klederson.com/internal/meter"
	"levelbar.klederson.com/internal/wallclock"
)

const barWidth = 10

// Option configures a Reporter.
type Option func(*Reporter)

// WithTopK sets how many of the loudest channels each line lists.
func WithTopK(k int) Option {
	return func(r *Reporter) { r.topK = k }
}

// WithClock sets the time source for throttling and peak hold.
func WithClock(clock wallclock.WallClock) Option {
	return func(r *Reporter) { r.clock = clock }
}

// WithNoColor disables ANSI colors regardless of the terminal.
func WithNoColor() Option {
	return func(r *Reporter) { r.noColor = true }
}

// WithLogger sets the reporter logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Reporter) { r.log = log }
}

// Reporter is a generator observer that writes one line per accepted level
// vector: the cluster bounds and the loudest channels colored by zone.
type Reporter struct {
	normalizer *meter.Normalizer
	bank       *meter.Bank
	topK       int
	clock      wallclock.WallClock
	noColor    bool
	log        zerolog.Logger

	mu      sync.Mutex
	out     io.Writer
	updates int

	bold  *color.Color
	dim   *color.Color
	zones map[meter.Zone]*color.Color
}

var _ generator.Observer = (*Reporter)(nil)

// New creates a reporter writing to out.
func New(out io.Writer, n *meter.Normalizer, hold time.Duration, opts ...Option) *Reporter {
	r := &Reporter{
		normalizer: n,
		bank:       meter.NewBank(hold),
		topK:       config.TopChannels,
		clock:      wallclock.Real,
		log:        zerolog.Nop(),
		out:        out,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.topK < 1 {
		r.topK = 1
	}

	r.bold = color.New(color.Bold)
	r.dim = color.New(color.Faint)
	r.zones = map[meter.Zone]*color.Color{
		meter.ZoneLow:      color.New(color.FgGreen),
		meter.ZoneModerate: color.New(color.FgHiGreen),
		meter.ZoneElevated: color.New(color.FgYellow),
		meter.ZoneHigh:     color.New(color.FgHiYellow, color.Bold),
		meter.ZoneClip:     color.New(color.FgHiRed, color.Bold),
	}
	if r.noColor {
		r.bold.DisableColor()
		r.dim.DisableColor()
		for _, c := range r.zones {
			c.DisableColor()
		}
	}
	return r
}

// ChannelAdded creates the channel's level bar.
func (r *Reporter) ChannelAdded(ch channel.Channel) error {
	r.bank.Add(ch)
	return nil
}

// ChannelRemoved drops the channel's level bar.
func (r *Reporter) ChannelRemoved(ch channel.Channel) error {
	r.bank.Remove(ch.ID)
	return nil
}

// LevelDataReceived scales the vector and prints it unless throttled.
func (r *Reporter) LevelDataReceived(ids []int, levels []float64) error {
	now := r.clock.Now()
	scaled, err := r.normalizer.Observe(ids, levels, now)
	if errors.Is(err, meter.ErrThrottled) {
		return nil
	}
	if err != nil {
		return err
	}
	if scaled == nil {
		return nil
	}

	r.bank.Apply(scaled, now)
	return r.writeLevels(now, r.normalizer.Bounds(), TopK(r.bank.Snapshot(), r.topK))
}

// ConnectionStateChanged prints the new state.
func (r *Reporter) ConnectionStateChanged(state generator.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.bold.Fprintf(r.out, "%s %s\n", r.stamp(r.clock.Now()), strings.ToUpper(state.String())); err != nil {
		r.log.Error().Err(err).Msg("Failed to write state line")
	}
}

// Updates returns the number of level lines written.
func (r *Reporter) Updates() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates
}

func (r *Reporter) writeLevels(now time.Time, b meter.Bounds, top []meter.LevelBar) error {
	var sb strings.Builder
	sb.WriteString(r.stamp(now))
	sb.WriteString(r.dim.Sprintf(" bounds %.4f..%.4f", b.Min, b.Max))
	for _, bar := range top {
		c := r.zones[meter.ZoneFor(bar.Level)]
		sb.WriteString(" | ")
		sb.WriteString(fmt.Sprintf("%-10s ", bar.Name))
		sb.WriteString(c.Sprintf("%s %.2f", Bar(bar.Level, barWidth), bar.Level))
	}
	sb.WriteByte('\n')

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := io.WriteString(r.out, sb.String()); err != nil {
		return fmt.Errorf("write level line: %w", err)
	}
	r.updates++
	return nil
}

func (r *Reporter) stamp(t time.Time) string {
	return r.dim.Sprint(t.Format("15:04:05.000"))
}

// TopK returns up to k bars ordered by level, loudest first. Ties keep the
// lower channel id first.
func TopK(bars []meter.LevelBar, k int) []meter.LevelBar {
	sorted := append([]meter.LevelBar(nil), bars...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Level > sorted[j].Level
	})
	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}

// Bar draws level as a fixed-width text bar.
func Bar(level float64, width int) string {
	filled := int(level*float64(width) + 0.5)
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
}
