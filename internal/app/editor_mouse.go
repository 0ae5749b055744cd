package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/treykane/cli-rank/internal/drag"
	"github.com/treykane/cli-rank/internal/editor"
)

// handleMouse routes mouse events to the editor shell. Terminal rows are
// shifted up by the title bar so the shell sees body coordinates.
func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeBrowse || m.overlay != overlayNone || m.keyboardDrag {
		return m, nil
	}
	x, y := m.bodyPoint(msg)

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.scrollPaneAt(x, y, -1)
		return m, nil
	case tea.MouseButtonWheelDown:
		m.scrollPaneAt(x, y, 1)
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			return m.handleMousePress(x, y)
		}
	case tea.MouseActionMotion:
		if m.mousePressed {
			m.shell.Motion(x, y, m.now())
		}
	case tea.MouseActionRelease:
		if m.mousePressed {
			m.handleMouseRelease(x, y)
		}
	}
	return m, nil
}

// bodyPoint converts terminal cell coordinates to body coordinates.
func (m *Model) bodyPoint(msg tea.MouseMsg) (int, int) {
	return msg.X, msg.Y - HeaderRows
}

// handleMousePress moves the cursor to the card under the pointer and, when
// the card can be dragged, starts a pending gesture. Clicking the tab bar of
// the narrow layout switches tabs.
func (m *Model) handleMousePress(x, y int) (tea.Model, tea.Cmd) {
	layout := m.shell.Layout()
	if layout.Narrow && y == layout.PoolFrame.Y {
		tab := editor.PanePool
		if x >= layout.Width/2 {
			tab = editor.PaneTarget
		}
		m.setFocus(tab)
		return m, nil
	}

	pane, ok := layout.PaneAt(x, y)
	if !ok {
		return m, nil
	}
	m.setFocus(pane)
	idx, id, ok := m.shell.ItemAt(pane, x, y)
	if !ok {
		return m, nil
	}
	m.cursor[pane] = idx

	if !m.shell.Press(x, y, m.now()) {
		m.status = m.unavailableStatus(id)
		return m, nil
	}
	m.mousePressed = true
	if m.holdSensor {
		return m, scheduleHoldTick(m.cfg.HoldDelay())
	}
	return m, nil
}

// handleMouseRelease commits the gesture. A press that never became a drag
// is a plain click and leaves the list alone.
func (m *Model) handleMouseRelease(x, y int) {
	m.mousePressed = false
	res := m.shell.Release(x, y)
	m.followDrop(res)
}

// mouseGestureActive reports whether a mouse press or drag is in flight.
func (m *Model) mouseGestureActive() bool {
	return !m.keyboardDrag && (m.mousePressed || m.shell.DragState() != drag.Idle)
}

// handleMouseGestureKey handles keys while the mouse holds a card. Esc
// drops the gesture without touching the list and quit still works; every
// other key waits for the release.
func (m *Model) handleMouseGestureKey(key string) (tea.Model, tea.Cmd) {
	if key == "esc" {
		m.cancelDrag()
		return m, nil
	}
	if m.actionForKey(key) == actionQuit {
		m.cancelDrag()
		return m.quit()
	}
	return m, nil
}

// scrollPaneAt scrolls the pane under the pointer by one grid row.
func (m *Model) scrollPaneAt(x, y, rows int) {
	pane, ok := m.shell.Layout().PaneAt(x, y)
	if !ok {
		return
	}
	m.shell.Virtualizer(pane).ScrollRows(rows)
}
