package app

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/treykane/cli-rank/internal/catalog"
	"github.com/treykane/cli-rank/internal/config"
	"github.com/treykane/cli-rank/internal/draft"
	"github.com/treykane/cli-rank/internal/drag"
	"github.com/treykane/cli-rank/internal/editor"
	"github.com/treykane/cli-rank/internal/ranking"
)

// appMode tracks which input context is active.
type appMode int

const (
	modeLoading appMode = iota
	modeLoadFailed
	modeBrowse
	modeFilter
	modeConfirmDiscard
)

// overlayMode identifies the document overlay drawn over the panes.
type overlayMode int

const (
	overlayNone overlayMode = iota
	overlayHelp
	overlayDetail
)

// Options wire the model to a catalog and draft storage.
type Options struct {
	RankingID string
	Source    catalog.Source
	Persister draft.Persister
	Storage   draft.Storage
	// Now is the clock handed to the drag sensors. Defaults to time.Now.
	Now func() time.Time
}

// Model is the Bubble Tea model for the ranking editor. All editing goes
// through the headless editor.Shell; the model translates terminal events
// into shell operations and renders what the shell reports.
type Model struct {
	cfg   config.Config
	opts  Options
	shell *editor.Shell
	now   func() time.Time

	mode    appMode
	overlay overlayMode
	status  string
	loadErr error

	width  int
	height int

	// focus is the pane receiving keyboard input. cursor holds one grid
	// index per pane, indexed by editor.Pane.
	focus  editor.Pane
	cursor [2]int

	// keyboardDrag is set while a card picked up with the keyboard is in
	// flight. mousePressed tracks a held left button.
	keyboardDrag bool
	mousePressed bool
	holdSensor   bool

	saving bool

	filter  textinput.Model
	spinner spinner.Model
	doc     viewport.Model

	docSeq      int
	docKey      string
	renderCache map[string]renderCacheEntry

	keyForAction map[string][]string
	keyToAction  map[string]string
}

// New builds the editor model for one ranking.
func New(cfg config.Config, opts Options) *Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	sensor, hold := sensorFor(cfg)
	shell := editor.New(editor.Options{
		RankingID:   opts.RankingID,
		Source:      opts.Source,
		Persister:   opts.Persister,
		Storage:     opts.Storage,
		Constraints: cfg.GridConstraints(),
		Overscan:    cfg.OverscanRows(),
		Sensor:      sensor,
		NarrowWidth: cfg.NarrowWidth,
		Debounce:    cfg.DraftDebounce(),
		Now:         now,
	})

	filter := textinput.New()
	filter.Placeholder = "filter pool"
	filter.Prompt = "/ "
	filter.CharLimit = InputCharLimit

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		cfg:         cfg,
		opts:        opts,
		shell:       shell,
		now:         now,
		mode:        modeLoading,
		status:      "Loading ranking...",
		holdSensor:  hold,
		filter:      filter,
		spinner:     sp,
		doc:         viewport.New(0, 0),
		renderCache: map[string]renderCacheEntry{},
	}
	m.loadKeybindings(cfg)
	shell.OnDrag(m.handleDragEvent)
	return m
}

// sensorFor picks the drag activation sensor configured by cfg. It reports
// whether the sensor needs clock ticks to activate.
func sensorFor(cfg config.Config) (drag.Sensor, bool) {
	if cfg.HoldDelayMS > 0 {
		return drag.HoldSensor{Delay: cfg.HoldDelay(), Tolerance: cfg.HoldTolerance}, true
	}
	return drag.PointerSensor{Distance: cfg.DragDistance}, false
}

// Shell exposes the headless editor, mainly for the CLI to flush drafts on
// exit.
func (m *Model) Shell() *editor.Shell { return m.shell }

// loadResultMsg carries the fetched catalog data back to Update.
type loadResultMsg struct {
	items   []ranking.Item
	ranking catalog.Ranking
	err     error
}

// Init starts the spinner and the initial fetch.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

// loadCmd fetches the catalog off the event loop. The shell is only touched
// when the result arrives in Update.
func (m *Model) loadCmd() tea.Cmd {
	src, id := m.opts.Source, m.opts.RankingID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), LoadTimeout)
		defer cancel()
		items, rk, err := editor.Fetch(ctx, src, id)
		return loadResultMsg{items: items, ranking: rk, err: err}
	}
}

// Update routes Bubble Tea messages to the matching handler, then keeps the
// shell body in step with the footer, whose height depends on the status
// text.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := m.dispatch(msg)
	m.syncLayout()
	return model, cmd
}

func (m *Model) dispatch(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowResize(msg)
	case spinner.TickMsg:
		return m.handleSpinnerTick(msg)
	case loadResultMsg:
		return m.handleLoadResult(msg)
	case saveResultMsg:
		return m.handleSaveResult(msg)
	case holdTickMsg:
		return m.handleHoldTick(msg)
	case draftStatusTickMsg:
		return m.handleDraftStatusTick(msg)
	case docRenderResultMsg:
		return m.handleDocRenderResult(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// handleKey dispatches a key press according to the active mode.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := keyString(msg)
	if key == "ctrl+c" {
		return m.quit()
	}

	switch m.mode {
	case modeLoading:
		if m.actionForKey(key) == actionQuit {
			return m.quit()
		}
		return m, nil
	case modeLoadFailed:
		switch m.actionForKey(key) {
		case actionQuit:
			return m.quit()
		case actionReload:
			return m.reload()
		}
		return m, nil
	case modeFilter:
		return m.handleFilterKey(msg)
	case modeConfirmDiscard:
		return m.handleConfirmDiscardKey(key)
	}

	if m.overlay != overlayNone {
		return m.handleOverlayKey(msg)
	}
	if m.mouseGestureActive() {
		return m.handleMouseGestureKey(key)
	}
	if m.keyboardDrag {
		return m.handleDragKey(key)
	}
	return m.handleBrowseKey(key)
}

// keyString returns the Bubble Tea key name, spelling the space bar out so
// it can be bound in config files.
func keyString(msg tea.KeyMsg) string {
	key := msg.String()
	if key == " " {
		return "space"
	}
	return key
}

// quit ends the program. Pending draft writes are flushed so the next
// session can restore them.
func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.shell.Close()
	appLog.Info("editor closed", "ranking", m.opts.RankingID, "dirty", m.shell.IsDirty())
	return m, tea.Quit
}

// reload retries a failed initial fetch.
func (m *Model) reload() (tea.Model, tea.Cmd) {
	m.mode = modeLoading
	m.loadErr = nil
	m.status = "Loading ranking..."
	return m, tea.Batch(m.spinner.Tick, m.loadCmd())
}
