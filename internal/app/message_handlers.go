package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/treykane/cli-rank/internal/draft"
	"github.com/treykane/cli-rank/internal/drag"
	"github.com/treykane/cli-rank/internal/editor"
)

// handleSpinnerTick advances the spinner while something is in flight and
// lets it stop otherwise.
func (m *Model) handleSpinnerTick(msg spinner.TickMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeLoading && !m.saving {
		return m, nil
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// handleWindowResize updates layout dimensions after terminal resize.
func (m *Model) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.updateLayout()
	if m.overlay != overlayNone {
		return m, m.refreshDoc()
	}
	return m, nil
}

// handleLoadResult initializes the session from the fetched catalog data.
func (m *Model) handleLoadResult(msg loadResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.mode = modeLoadFailed
		m.loadErr = msg.err
		m.setStatusError("Could not load ranking", msg.err, "ranking", m.opts.RankingID)
		return m, nil
	}

	list := m.shell.Initialize(msg.items, msg.ranking)
	m.mode = modeBrowse
	m.updateLayout()
	m.setFocus(editor.PanePool)

	if rec, ok := m.shell.Restored(); ok {
		m.status = restoredNotice(rec, m.now())
		appLog.Info("draft restored", "ranking", m.opts.RankingID, "items", len(list))
	} else {
		m.status = fmt.Sprintf("Loaded %d ranked of %d cards", len(list), m.shell.Pool().Len())
	}
	return m, scheduleDraftStatusTick()
}

// saveResultMsg reports the end of a save round trip.
type saveResultMsg struct {
	err error
}

// handleSaveResult reports the outcome of a save. A failed save leaves the
// edits and the local draft untouched so the user can retry.
func (m *Model) handleSaveResult(msg saveResultMsg) (tea.Model, tea.Cmd) {
	m.saving = false
	switch {
	case msg.err == nil:
		m.status = fmt.Sprintf("Saved ranking (%d items)", len(m.shell.List()))
	case errors.Is(msg.err, draft.ErrSaveInFlight):
		m.status = "A save is already in progress"
	case errors.Is(msg.err, draft.ErrSessionChanged):
		m.status = "Save finished after the ranking was reset; nothing changed"
	default:
		retry := m.primaryActionKey(actionSave, "Ctrl+S")
		m.setStatusError(fmt.Sprintf("Save failed, changes kept locally (%s to retry)", retry),
			msg.err, "ranking", m.opts.RankingID)
	}
	return m, nil
}

// holdTickMsg polls a hold-to-drag press.
type holdTickMsg struct{}

func scheduleHoldTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return holdTickMsg{} })
}

// handleHoldTick lets a held press turn into a drag without pointer
// movement. Polling stops once the press is resolved either way.
func (m *Model) handleHoldTick(holdTickMsg) (tea.Model, tea.Cmd) {
	if m.shell.DragState() != drag.Pending {
		return m, nil
	}
	if m.shell.Tick(m.now()) {
		return m, nil
	}
	if m.shell.DragState() == drag.Pending {
		return m, scheduleHoldTick(HoldTickInterval)
	}
	return m, nil
}

// handleDragEvent observes drag start and end from the shell and turns them
// into status messages.
func (m *Model) handleDragEvent(ev editor.DragEvent) {
	m.syncFocusWithTab()
	name := m.label(ev.Instance.ID)
	if ev.Started {
		m.status = "Dragging " + name
		return
	}

	res := ev.Result
	switch {
	case res.Cancelled:
		m.status = "Drag cancelled"
	case !res.Changed:
		m.status = fmt.Sprintf("%s stays put", name)
	default:
		op := res.Operation
		switch op.Action {
		case drag.Reorder:
			m.status = fmt.Sprintf("Moved %s to #%d", name, op.To+1)
		case drag.Insert:
			m.status = fmt.Sprintf("Inserted %s at #%d", name, op.To+1)
		case drag.Append:
			m.status = fmt.Sprintf("Added %s at #%d", name, op.To+1)
		case drag.Remove:
			m.status = "Removed " + name
		}
	}
}
