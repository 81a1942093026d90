// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/heimdall/lib/clock"
	"github.com/bureau-foundation/heimdall/lib/ingest"
	"github.com/bureau-foundation/heimdall/lib/status"
	"github.com/bureau-foundation/heimdall/lib/tui"
	"github.com/bureau-foundation/heimdall/lib/view"
)

// DefaultRefreshInterval is how often the dashboard re-reads storage
// and the status registry. It also bounds how long the dashboard takes
// to notice a shutdown request.
const DefaultRefreshInterval = 250 * time.Millisecond

// infoPanelHeight is the preferred height of the record detail panel.
const infoPanelHeight = 9

// Config holds the dashboard's collaborators.
type Config struct {
	// Source is the storage the log list reads from.
	Source view.Source

	// Registry coordinates shutdown with the listeners. The dashboard
	// expects to be registered as status.Dashboard.
	Registry *status.Registry

	// RefreshInterval defaults to DefaultRefreshInterval.
	RefreshInterval time.Duration

	// ChunkSize is passed to view.NewController.
	ChunkSize int

	// Clock ages the new-record highlight. Defaults to clock.Real().
	Clock clock.Clock

	// Theme defaults to tui.DefaultTheme.
	Theme *tui.Theme

	// Listeners, when set, add receive counters to the threads line.
	Listeners []Listener
}

// Listener is an ingestion service whose counters the threads line
// shows next to its role.
type Listener interface {
	Role() status.Role
	Stats() ingest.Stats
}

// Outcome is how a dashboard session ended.
type Outcome int

const (
	// OutcomeShutdown means the whole collector is shutting down: the
	// operator confirmed quit, or a shutdown was requested elsewhere.
	OutcomeShutdown Outcome = iota

	// OutcomeDetached means only the dashboard closed. Listeners are
	// still running.
	OutcomeDetached
)

func (outcome Outcome) String() string {
	switch outcome {
	case OutcomeShutdown:
		return "shutdown"
	case OutcomeDetached:
		return "detached"
	default:
		return "unknown"
	}
}

// overlay is the modal layer drawn over the dashboard. At most one is
// open at a time.
type overlay int

const (
	overlayNone overlay = iota
	overlayConfirmQuit
)

// action is deferred work requested by a key press. Key handling only
// queues actions; processPending carries them out once the key has
// been fully handled.
type action int

const (
	actionRequestShutdown action = iota + 1
	actionDetach
)

// tickMsg drives the refresh loop.
type tickMsg time.Time

// Model is the bubbletea model for the collector dashboard.
type Model struct {
	ctx        context.Context
	registry   *status.Registry
	listeners  []Listener
	controller *view.Controller
	clock      clock.Clock
	theme      tui.Theme
	keys       KeyMap
	help       help.Model
	info       viewport.Model

	refreshInterval time.Duration

	width      int
	height     int
	ready      bool
	listHeight int

	overlay      overlay
	pending      []action
	shuttingDown bool
	finished     bool
	outcome      Outcome

	roles      []status.Entry
	refreshErr error

	// Status line log message, replaced by the record count when it
	// fades.
	logMessage *logRecordMsg
	logSerial  int

	// New-record highlight. newestSeen is the highest sequence id
	// shown so far; anything above it on a later refresh glows.
	heat       *tui.HeatTracker
	newestSeen int64
	seenAny    bool

	// infoID is the sequence id currently rendered in the info panel.
	infoID    int64
	infoShown bool
}

// NewModel creates a dashboard model. ctx bounds every storage read
// the model makes.
func NewModel(ctx context.Context, cfg Config) Model {
	refreshInterval := cfg.RefreshInterval
	if refreshInterval <= 0 {
		refreshInterval = DefaultRefreshInterval
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	theme := tui.DefaultTheme
	if cfg.Theme != nil {
		theme = *cfg.Theme
	}

	helpModel := help.New()
	helpModel.Styles.ShortKey = lipgloss.NewStyle().Foreground(theme.KeyForeground)
	helpModel.Styles.ShortDesc = lipgloss.NewStyle().Foreground(theme.HelpText)
	helpModel.Styles.FullKey = helpModel.Styles.ShortKey
	helpModel.Styles.FullDesc = helpModel.Styles.ShortDesc

	return Model{
		ctx:             ctx,
		registry:        cfg.Registry,
		listeners:       cfg.Listeners,
		controller:      view.NewController(cfg.Source, cfg.ChunkSize),
		clock:           clk,
		theme:           theme,
		keys:            DefaultKeyMap,
		help:            helpModel,
		info:            viewport.New(0, 0),
		refreshInterval: refreshInterval,
		heat:            tui.NewHeatTracker(),
		newestSeen:      -1,
	}
}

// Outcome reports how the session ended. Only meaningful once the
// program has returned.
func (model Model) Outcome() Outcome {
	return model.outcome
}

// Finished reports whether the model has asked the program to quit.
func (model Model) Finished() bool {
	return model.finished
}

// Init implements tea.Model. The first refresh happens immediately.
func (model Model) Init() tea.Cmd {
	return func() tea.Msg { return tickMsg(time.Time{}) }
}

func (model Model) scheduleTick() tea.Cmd {
	return tea.Tick(model.refreshInterval, func(now time.Time) tea.Msg {
		return tickMsg(now)
	})
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	if model.finished {
		return model, nil
	}

	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.updateLayout()
		model.refresh()

	case tickMsg:
		return model.handleTick()

	case tea.KeyMsg:
		model.handleKey(message)
		return model.processPending()

	case logRecordMsg:
		model.logSerial++
		model.logMessage = &message
		serial := model.logSerial
		return model, tea.Tick(logRecordFadeDelay, func(time.Time) tea.Msg {
			return logRecordFadeMsg{Serial: serial}
		})

	case logRecordFadeMsg:
		if message.Serial == model.logSerial {
			model.logMessage = nil
		}
	}
	return model, nil
}

// handleTick refreshes the view and, once a shutdown is under way,
// checks whether the dashboard is the last role still running.
func (model Model) handleTick() (tea.Model, tea.Cmd) {
	if model.shuttingDown || model.registry.ShouldStop(status.Dashboard) {
		model.shuttingDown = true
		if model.registry.AllStoppedExcept(status.Dashboard) {
			return model.finish(OutcomeShutdown)
		}
	}
	model.refresh()
	return model, model.scheduleTick()
}

// handleKey routes a key press. Keys never act on the registry
// directly; they queue actions for processPending.
func (model *Model) handleKey(message tea.KeyMsg) {
	if model.overlay == overlayConfirmQuit {
		switch {
		case key.Matches(message, model.keys.Confirm):
			model.overlay = overlayNone
			model.pending = append(model.pending, actionRequestShutdown)
		case key.Matches(message, model.keys.Cancel):
			model.overlay = overlayNone
		}
		return
	}

	switch {
	case key.Matches(message, model.keys.Quit):
		if !model.shuttingDown {
			model.overlay = overlayConfirmQuit
		}
		return

	case key.Matches(message, model.keys.Detach):
		model.pending = append(model.pending, actionDetach)
		return

	case key.Matches(message, model.keys.Help):
		model.help.ShowAll = !model.help.ShowAll
		model.updateLayout()

	case key.Matches(message, model.keys.InfoUp):
		model.info.SetYOffset(model.info.YOffset - 1)
		return

	case key.Matches(message, model.keys.InfoDown):
		model.info.SetYOffset(model.info.YOffset + 1)
		return

	case key.Matches(message, model.keys.Newer):
		model.controller.Move(-1)
	case key.Matches(message, model.keys.Older):
		model.controller.Move(1)
	case key.Matches(message, model.keys.Newest):
		model.controller.Top()
	case key.Matches(message, model.keys.Oldest):
		model.controller.Bottom()
	case key.Matches(message, model.keys.Center):
		model.controller.Center()
	case key.Matches(message, model.keys.PageUp):
		model.controller.PageUp()
	case key.Matches(message, model.keys.PageDown):
		model.controller.PageDown()

	default:
		return
	}
	model.refresh()
}

// processPending runs the actions queued by handleKey in order.
func (model Model) processPending() (tea.Model, tea.Cmd) {
	pending := model.pending
	model.pending = nil

	for _, next := range pending {
		switch next {
		case actionRequestShutdown:
			model.shuttingDown = true
			model.registry.RequestShutdown()
			if model.registry.AllStoppedExcept(status.Dashboard) {
				return model.finish(OutcomeShutdown)
			}
		case actionDetach:
			return model.finish(OutcomeDetached)
		}
	}
	return model, nil
}

// finish marks the dashboard role Stopped and quits the program.
func (model Model) finish(outcome Outcome) (tea.Model, tea.Cmd) {
	model.finished = true
	model.outcome = outcome
	// Set fails only if the role is already terminal, which is the
	// state being written.
	_ = model.registry.Set(status.Dashboard, status.StoppedStatus)
	return model, tea.Quit
}

// refresh pulls the current window from storage, snapshots the
// registry, and updates the highlight and info panel.
func (model *Model) refresh() {
	model.refreshErr = model.controller.Refresh(model.ctx)
	model.roles = model.registry.Snapshot()

	now := model.clock.Now()
	for _, stored := range model.controller.Visible() {
		if stored.SequenceID <= model.newestSeen {
			continue
		}
		// Records already present when the dashboard opens do not glow.
		if model.seenAny {
			model.heat.Ignite(stored.SequenceID, now)
		}
		model.newestSeen = stored.SequenceID
	}
	if model.refreshErr == nil {
		model.seenAny = true
	}
	model.heat.HasHot(now)

	model.syncInfo()
}

// syncInfo re-renders the info panel when the selection changed,
// keeping the panel's scroll position otherwise.
func (model *Model) syncInfo() {
	selected, ok := model.controller.Selected()
	if !ok {
		if model.infoShown {
			model.info.SetContent("")
			model.infoShown = false
		}
		return
	}
	if model.infoShown && model.infoID == selected.SequenceID {
		return
	}
	model.info.SetContent(model.renderInfoContent(selected))
	model.info.GotoTop()
	model.infoID = selected.SequenceID
	model.infoShown = true
}

// updateLayout divides the terminal height between the panels. The
// list gets whatever the fixed chrome and the info panel leave.
func (model *Model) updateLayout() {
	model.help.Width = model.width
	helpHeight := lipgloss.Height(model.help.View(model.keys))

	// Status line, threads line, two separators.
	chrome := 4 + helpHeight
	available := max(model.height-chrome, 2)
	infoHeight := max(min(infoPanelHeight, available/3), 1)

	model.listHeight = max(available-infoHeight, 1)
	model.info.Width = model.width
	model.info.Height = infoHeight
	model.controller.SetViewport(model.listHeight)
}
