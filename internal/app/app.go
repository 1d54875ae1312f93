package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"levelbar.klederson.com/internal/config"
	"levelbar.klederson.com/internal/generator"
	"levelbar.klederson.com/internal/meter"
	"levelbar.klederson.com/internal/ui"
)

// shared holds state shared between the Bubble Tea model copies and main.go.
// Because Bubble Tea uses value receivers, pointer fields ensure all copies
// see the same underlying data.
type shared struct {
	gen       *generator.Generator
	bank      *meter.Bank
	histories map[int]*LevelRing
	springs   map[int]*barSpring
}

// AppModel is the root Bubble Tea model for the level meter.
//
// Update and View never take the generator lock: Connect and Disconnect hold
// it while the feed waits on the program loop. Generator calls that lock run
// in commands.
type AppModel struct {
	width  int
	height int

	connected   bool
	autoConnect bool
	selected    int
	minDb       float64
	maxDb       float64

	session  string
	blocks   int
	interval time.Duration
	bounds   meter.Bounds
	err      error
	now      time.Time

	shared *shared

	// Cached per-frame snapshot
	bars    []meter.LevelBar
	heights []float64
}

// New creates a new AppModel driving gen. Channel and level updates arrive
// as messages from the Feed observing gen.
func New(gen *generator.Generator, settings config.Settings, autoConnect bool) AppModel {
	return AppModel{
		autoConnect: autoConnect,
		minDb:       settings.Meter.MinDb,
		maxDb:       settings.Meter.MaxDb,
		bounds: meter.Bounds{
			Min: settings.Meter.InitialClusterMin,
			Max: settings.Meter.InitialClusterMax,
		},
		shared: &shared{
			gen:       gen,
			bank:      meter.NewBank(settings.Meter.HoldDuration),
			histories: make(map[int]*LevelRing),
			springs:   make(map[int]*barSpring),
		},
	}
}

func (m AppModel) Init() tea.Cmd {
	if m.autoConnect {
		return tea.Batch(tickCmd(), m.connectCmd())
	}
	return tickCmd()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TickMsg:
		m.now = time.Time(msg)
		m.shared.bank.ExpireAll(m.now)
		m.refresh()
		return m, tickCmd()

	case ChannelAddedMsg:
		id := msg.Channel.ID
		m.shared.bank.Add(msg.Channel)
		if _, ok := m.shared.histories[id]; !ok {
			m.shared.histories[id] = NewLevelRing(config.HistoryLength)
			m.shared.springs[id] = newBarSpring()
		}
		return m, nil

	case ChannelRemovedMsg:
		id := msg.Channel.ID
		m.shared.bank.Remove(id)
		delete(m.shared.histories, id)
		delete(m.shared.springs, id)
		m.clampSelection(m.shared.bank.Count())
		return m, nil

	case LevelsMsg:
		m.shared.bank.Apply(msg.Levels, msg.At)
		for _, s := range msg.Levels {
			if h, ok := m.shared.histories[s.ID]; ok {
				h.Push(s.Level)
			}
		}
		m.bounds = msg.Bounds
		return m, nil

	case StateMsg:
		m.connected = msg.State == generator.Running
		if m.connected {
			m.err = nil
		}
		return m, nil

	case SessionMsg:
		m.session = msg.ID
		m.blocks = msg.Blocks
		m.interval = msg.Interval
		return m, nil

	case ErrMsg:
		m.err = msg.Err
		return m, nil
	}

	return m, nil
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Sequence(m.disconnectCmd(), tea.Quit)

	case "c", "C":
		if !m.connected {
			return m, m.connectCmd()
		}

	case "d", "D":
		if m.connected {
			return m, m.disconnectCmd()
		}

	case "left", "h":
		if m.selected > 0 {
			m.selected--
		}

	case "right", "l":
		if m.selected < m.shared.bank.Count()-1 {
			m.selected++
		}

	case "home":
		m.selected = 0

	case "end":
		if n := m.shared.bank.Count(); n > 0 {
			m.selected = n - 1
		}
	}

	return m, nil
}

// refresh snapshots the bank and steps every bar's spring one frame.
func (m *AppModel) refresh() {
	m.bars = m.shared.bank.Snapshot()
	m.heights = make([]float64, len(m.bars))
	for i, b := range m.bars {
		if s, ok := m.shared.springs[b.ID]; ok {
			m.heights[i] = s.Step(b.Level)
		} else {
			m.heights[i] = b.Level
		}
	}
	m.clampSelection(len(m.bars))
}

func (m *AppModel) clampSelection(n int) {
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing " + config.AppName + "..."
	}

	menuH := 1
	statusH := 1
	bodyH := m.height - menuH - statusH
	if bodyH < config.MeterMinHeight+5 {
		bodyH = config.MeterMinHeight + 5
	}

	meterW := m.width * 2 / 3
	if meterW < 30 {
		meterW = 30
	}
	detailW := m.width - meterW
	if detailW < 30 {
		detailW = 30
		meterW = m.width - detailW
	}

	views := make([]ui.BarView, len(m.bars))
	for i, b := range m.bars {
		views[i] = ui.BarView{ID: b.ID, Height: m.heights[i], Level: b.Level, Peak: b.Peak}
	}

	menuBar := ui.RenderMenuBar(m.width, m.connected, len(m.bars))
	meterPanel := ui.RenderMeterPanel(views, meterW, bodyH, m.selected)
	detailPanel := ui.RenderDetailPanel(m.detail(), detailW, bodyH)
	statusBar := ui.RenderStatusBar(m.width, ui.StatusInfo{
		Running:  m.connected,
		Channels: len(m.bars),
		Bounds:   m.bounds,
		Cursor:   m.shared.gen.Cursor(),
		Blocks:   m.blocks,
		Interval: m.interval,
		Session:  m.session,
		Err:      m.err,
	})

	return ui.ComposeLayout(menuBar, meterPanel, detailPanel, statusBar)
}

func (m AppModel) detail() *ui.DetailInfo {
	if m.selected < 0 || m.selected >= len(m.bars) {
		return nil
	}
	bar := m.bars[m.selected]
	var history []float64
	if h, ok := m.shared.histories[bar.ID]; ok {
		history = h.Values()
	}
	return &ui.DetailInfo{
		Bar:     bar,
		MinDb:   m.minDb,
		MaxDb:   m.maxDb,
		History: history,
		Now:     m.now,
	}
}

func (m AppModel) connectCmd() tea.Cmd {
	gen := m.shared.gen
	return func() tea.Msg {
		if err := gen.Connect(context.Background()); err != nil {
			return ErrMsg{Err: err}
		}
		c := gen.Corpus()
		return SessionMsg{
			ID:       gen.Session(),
			Blocks:   c.Len(),
			Interval: gen.Params().TickInterval(),
		}
	}
}

func (m AppModel) disconnectCmd() tea.Cmd {
	gen := m.shared.gen
	return func() tea.Msg {
		if err := gen.Disconnect(); err != nil {
			return ErrMsg{Err: err}
		}
		return nil
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(config.TargetFPS), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
