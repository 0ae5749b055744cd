package app

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/treykane/cli-rank/internal/config"
	"github.com/treykane/cli-rank/internal/draft"
)

// draftStatusTickMsg re-reads the draft manager so the footer reflects
// writes that finished in the background.
type draftStatusTickMsg struct{}

func scheduleDraftStatusTick() tea.Cmd {
	return tea.Tick(DraftStatusInterval, func(time.Time) tea.Msg {
		return draftStatusTickMsg{}
	})
}

// handleDraftStatusTick only needs to trigger a redraw; View reads the
// draft state directly.
func (m *Model) handleDraftStatusTick(draftStatusTickMsg) (tea.Model, tea.Cmd) {
	return m, scheduleDraftStatusTick()
}

// startSave kicks off a save on a background goroutine. The draft manager
// is safe for concurrent use and keeps later edits pending while the save
// is in flight.
func (m *Model) startSave() tea.Cmd {
	if !m.shell.Loaded() {
		return nil
	}
	if m.saving {
		m.status = "A save is already in progress"
		return nil
	}
	if !m.shell.IsDirty() {
		m.status = "Nothing to save"
		return nil
	}
	m.saving = true
	m.status = "Saving..."

	drafts := m.shell.Drafts()
	save := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), SaveTimeout)
		defer cancel()
		return saveResultMsg{err: drafts.Save(ctx)}
	}
	return tea.Batch(save, m.spinner.Tick)
}

// draftStateSummary describes where local edits currently live.
func (m *Model) draftStateSummary() string {
	d := m.shell.Drafts()
	switch {
	case m.saving || d.Saving():
		return m.spinner.View() + " saving"
	case d.Degraded():
		return "draft storage unavailable, edits in memory only"
	case d.IsDirty() && d.Pending():
		return "unsaved changes"
	case d.IsDirty():
		return "unsaved changes (draft kept)"
	default:
		return "saved"
	}
}

// restoredNotice tells the user a local draft replaced the saved order.
func restoredNotice(rec draft.Record, now time.Time) string {
	age := "just now"
	if !rec.UpdatedAt.IsZero() {
		if d := now.Sub(rec.UpdatedAt).Round(time.Second); d >= time.Second {
			age = humanizeAge(d) + " ago"
		}
	}
	return fmt.Sprintf("Restored unsaved draft from %s (%d items)", age, len(rec.OrderedIDs))
}

func humanizeAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d/time.Second))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	}
}

// OpenDraftStorage opens the draft backend selected in cfg. The returned
// closer releases backend resources and is never nil.
func OpenDraftStorage(cfg config.Config) (draft.Storage, io.Closer, error) {
	switch cfg.DraftBackend {
	case config.DraftBackendMemory:
		return draft.NewMemoryStorage(), nopCloser{}, nil
	case config.DraftBackendSQLite:
		s, err := draft.OpenSQLite(cfg.DraftsDB())
		if err != nil {
			return nil, nil, fmt.Errorf("open draft database: %w", err)
		}
		return s, s, nil
	default:
		return draft.NewFileStorage(cfg.DraftsDir()), nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
