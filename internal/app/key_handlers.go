package app

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/treykane/cli-rank/internal/drag"
	"github.com/treykane/cli-rank/internal/editor"
	"github.com/treykane/cli-rank/internal/ranking"
)

// handleBrowseKey dispatches a key press while no drag, overlay, or input
// is active.
func (m *Model) handleBrowseKey(key string) (tea.Model, tea.Cmd) {
	switch m.actionForKey(key) {
	case actionCursorUp:
		m.moveCursorRows(-1)
	case actionCursorDown:
		m.moveCursorRows(1)
	case actionCursorLeft:
		m.moveCursor(-1)
	case actionCursorRight:
		m.moveCursor(1)
	case actionJumpTop:
		m.setCursor(m.focus, 0)
	case actionJumpBottom:
		m.setCursor(m.focus, m.shell.Count(m.focus)-1)
	case actionPageUp:
		m.scrollPage(-1)
	case actionPageDown:
		m.scrollPage(1)
	case actionFocusToggle:
		m.setFocus(m.focus.Other())
	case actionPickUp:
		m.pickUpAtCursor()
	case actionAppend:
		m.appendAtCursor()
	case actionRemove:
		m.removeAtCursor()
	case actionMoveEarlier:
		m.moveRanked(-1)
	case actionMoveLater:
		m.moveRanked(1)
	case actionDetail:
		return m, m.openDetail()
	case actionFilter:
		return m, m.startFilter()
	case actionSort:
		mode := m.shell.ToggleSort()
		m.clampCursors()
		m.status = "Pool sorted by " + mode.String()
	case actionSave:
		return m, m.startSave()
	case actionDiscard:
		m.confirmDiscard()
	case actionCopy:
		m.copyRankingToClipboard()
	case actionHelp:
		return m, m.toggleHelp()
	case actionQuit:
		return m.quit()
	}
	return m, nil
}

// handleDragKey dispatches a key press while a keyboard drag is in flight.
// Cursor keys move the drop position, Tab moves it to the other pane, and
// the pick-up key or Enter commits.
func (m *Model) handleDragKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc":
		m.cancelDrag()
		return m, nil
	case "enter":
		m.dropKeyboardDrag()
		return m, nil
	}

	switch m.actionForKey(key) {
	case actionCursorUp:
		m.moveDropCursor(-m.columns(editor.PaneTarget))
	case actionCursorDown:
		m.moveDropCursor(m.columns(editor.PaneTarget))
	case actionCursorLeft:
		m.moveDropCursor(-1)
	case actionCursorRight:
		m.moveDropCursor(1)
	case actionJumpTop:
		m.moveDropCursor(-m.shell.Count(editor.PaneTarget) - 1)
	case actionJumpBottom:
		m.moveDropCursor(m.shell.Count(editor.PaneTarget) + 1)
	case actionFocusToggle:
		m.setFocus(m.focus.Other())
		m.hoverKeyboardCandidate()
	case actionPickUp:
		m.dropKeyboardDrag()
	case actionQuit:
		m.cancelDrag()
		return m.quit()
	}
	return m, nil
}

// handleFilterKey edits the pool filter. The pool is re-filtered on every
// keystroke; Enter keeps the query and Esc clears it.
func (m *Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filter.SetValue("")
		m.applyFilter("")
		m.endFilter()
		m.status = "Filter cleared"
		return m, nil
	case "enter":
		m.endFilter()
		if q := m.shell.Pool().Query(); q != "" {
			m.status = fmt.Sprintf("Filter %q: %d cards", q, m.shell.Count(editor.PanePool))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter(m.filter.Value())
	return m, cmd
}

// handleConfirmDiscardKey resolves the discard prompt.
func (m *Model) handleConfirmDiscardKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y", "Y":
		m.mode = modeBrowse
		m.keyboardDrag = false
		m.shell.Discard()
		m.clampCursors()
		m.status = "Discarded local changes"
		appLog.Info("draft discarded", "ranking", m.opts.RankingID)
	case "n", "N", "esc", "q":
		m.mode = modeBrowse
		m.status = "Discard cancelled"
	}
	return m, nil
}

// handleOverlayKey scrolls or closes the document overlay.
func (m *Model) handleOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := keyString(msg)
	action := m.actionForKey(key)
	switch {
	case key == "esc", action == actionQuit:
		m.closeOverlay()
		return m, nil
	case action == actionHelp && m.overlay == overlayHelp:
		m.closeOverlay()
		return m, nil
	case action == actionDetail && m.overlay == overlayDetail:
		m.closeOverlay()
		return m, nil
	}

	var cmd tea.Cmd
	m.doc, cmd = m.doc.Update(msg)
	return m, cmd
}

// ---------------------------------------------------------------------------
// Cursor movement
// ---------------------------------------------------------------------------

func (m *Model) columns(p editor.Pane) int {
	return max(1, m.shell.Layout().Grid(p).Columns)
}

// moveCursor moves the focused cursor by delta cards.
func (m *Model) moveCursor(delta int) {
	m.setCursor(m.focus, m.cursor[m.focus]+delta)
}

// moveCursorRows moves the focused cursor by whole grid rows, staying in the
// same column where possible.
func (m *Model) moveCursorRows(rows int) {
	m.moveCursor(rows * m.columns(m.focus))
}

// setCursor clamps i into pane p and scrolls it into view.
func (m *Model) setCursor(p editor.Pane, i int) {
	count := m.shell.Count(p)
	if count == 0 {
		m.cursor[p] = 0
		return
	}
	m.cursor[p] = clamp(i, 0, count-1)
	m.shell.Reveal(p, m.cursor[p])
}

// clampCursors keeps both cursors inside their panes after the lists
// change. The drop cursor of a keyboard drag may sit one past the last
// ranked card, on the append slot.
func (m *Model) clampCursors() {
	for _, p := range []editor.Pane{editor.PanePool, editor.PaneTarget} {
		limit := m.shell.Count(p) - 1
		if m.keyboardDrag && p == editor.PaneTarget {
			limit++
		}
		m.cursor[p] = clamp(m.cursor[p], 0, max(0, limit))
	}
}

// scrollPage scrolls the focused pane by one viewport and drags the cursor
// along so it stays visible.
func (m *Model) scrollPage(dir int) {
	v := m.shell.Virtualizer(m.focus)
	rows := max(1, v.Viewport()/max(1, v.Stride()))
	v.ScrollRows(dir * rows)
	m.moveCursorRows(dir * rows)
}

// setFocus moves keyboard focus to p. In the narrow layout only the active
// tab is visible, so focus and tab always move together.
func (m *Model) setFocus(p editor.Pane) {
	m.focus = p
	if m.shell.Layout().Narrow {
		m.shell.SetTab(p)
	}
}

// syncFocusWithTab follows tab switches made by the shell, such as the
// automatic switch when a pool drag starts in the narrow layout.
func (m *Model) syncFocusWithTab() {
	if l := m.shell.Layout(); l.Narrow {
		m.focus = l.Tab
	}
}

func (m *Model) cursorID(p editor.Pane) (ranking.ID, bool) {
	return m.shell.IDAt(p, m.cursor[p])
}

func (m *Model) label(id ranking.ID) string {
	if item, ok := m.shell.Item(id); ok {
		return item.Label()
	}
	return string(id)
}

// ---------------------------------------------------------------------------
// Direct edits
// ---------------------------------------------------------------------------

func (m *Model) appendAtCursor() {
	if m.focus != editor.PanePool {
		m.status = "Select a pool card to add it"
		return
	}
	id, ok := m.cursorID(editor.PanePool)
	if !ok {
		return
	}
	if !m.shell.Append(id) {
		m.status = m.unavailableStatus(id)
		return
	}
	m.status = fmt.Sprintf("Added %s at #%d", m.label(id), len(m.shell.List()))
	m.clampCursors()
}

// unavailableStatus explains why pool card id cannot be added.
func (m *Model) unavailableStatus(id ranking.ID) string {
	if m.shell.Pool().Placed(id) {
		return m.label(id) + " is already ranked"
	}
	return m.label(id) + " is excluded from this ranking"
}

func (m *Model) removeAtCursor() {
	if m.focus != editor.PaneTarget {
		m.status = "Select a ranked card to remove it"
		return
	}
	id, ok := m.cursorID(editor.PaneTarget)
	if !ok {
		return
	}
	if m.shell.Remove(id) {
		m.status = "Removed " + m.label(id)
		m.clampCursors()
	}
}

// moveRanked swaps the ranked card under the cursor with its neighbour.
func (m *Model) moveRanked(delta int) {
	if m.focus != editor.PaneTarget {
		return
	}
	id, ok := m.cursorID(editor.PaneTarget)
	if !ok {
		return
	}
	other, ok := m.shell.IDAt(editor.PaneTarget, m.cursor[editor.PaneTarget]+delta)
	if !ok {
		return
	}
	if m.shell.MoveTo(id, other) {
		m.setCursor(editor.PaneTarget, m.shell.List().IndexOf(id))
		m.status = fmt.Sprintf("Moved %s to #%d", m.label(id), m.cursor[editor.PaneTarget]+1)
	}
}

// ---------------------------------------------------------------------------
// Keyboard drag
// ---------------------------------------------------------------------------

// pickUpAtCursor lifts the card under the cursor. A pool card starts with
// the drop cursor on the append slot of the ranking.
func (m *Model) pickUpAtCursor() {
	from := m.focus
	if !m.shell.PickUp(from, m.cursor[from]) {
		if id, ok := m.cursorID(from); ok && from == editor.PanePool {
			m.status = m.unavailableStatus(id)
		}
		return
	}
	m.keyboardDrag = true
	if from == editor.PanePool {
		m.setFocus(editor.PaneTarget)
		m.cursor[editor.PaneTarget] = m.shell.Count(editor.PaneTarget)
	}
	m.hoverKeyboardCandidate()
}

// moveDropCursor moves the keyboard drop position inside the ranking. The
// slot one past the last card means "append".
func (m *Model) moveDropCursor(delta int) {
	if m.focus != editor.PaneTarget {
		return
	}
	count := m.shell.Count(editor.PaneTarget)
	m.cursor[editor.PaneTarget] = clamp(m.cursor[editor.PaneTarget]+delta, 0, count)
	m.shell.Reveal(editor.PaneTarget, min(m.cursor[editor.PaneTarget], max(0, count-1)))
	m.hoverKeyboardCandidate()
}

// keyboardCandidate maps the focus and drop cursor onto a drop candidate.
func (m *Model) keyboardCandidate() drag.Candidate {
	if m.focus == editor.PanePool {
		return drag.Candidate{Kind: drag.CandidatePoolArea, Index: -1}
	}
	i := m.cursor[editor.PaneTarget]
	if id, ok := m.shell.IDAt(editor.PaneTarget, i); ok {
		return drag.Candidate{Kind: drag.CandidateItem, Index: i, ID: id}
	}
	return drag.Candidate{Kind: drag.CandidateContainer, Index: -1}
}

func (m *Model) hoverKeyboardCandidate() {
	m.shell.Hover(m.keyboardCandidate())
}

// dropKeyboardDrag commits the keyboard drag and moves the cursor onto the
// dropped card.
func (m *Model) dropKeyboardDrag() {
	m.keyboardDrag = false
	res := m.shell.Drop()
	m.followDrop(res)
}

// cancelDrag abandons whichever drag is active.
func (m *Model) cancelDrag() {
	m.keyboardDrag = false
	m.mousePressed = false
	m.shell.CancelDrag()
	m.clampCursors()
}

// followDrop places the cursor on the card a drop just moved.
func (m *Model) followDrop(res drag.Result) {
	m.clampCursors()
	if !res.Changed {
		return
	}
	if idx := res.List.IndexOf(res.Operation.ID); idx >= 0 {
		m.setFocus(editor.PaneTarget)
		m.setCursor(editor.PaneTarget, idx)
	}
}

// ---------------------------------------------------------------------------
// Filter
// ---------------------------------------------------------------------------

func (m *Model) startFilter() tea.Cmd {
	m.mode = modeFilter
	m.setFocus(editor.PanePool)
	m.filter.SetValue(m.shell.Pool().Query())
	m.filter.CursorEnd()
	return m.filter.Focus()
}

func (m *Model) endFilter() {
	m.mode = modeBrowse
	m.filter.Blur()
}

func (m *Model) applyFilter(query string) {
	m.shell.Filter(query)
	m.cursor[editor.PanePool] = 0
	m.clampCursors()
}

// confirmDiscard asks before throwing local edits away.
func (m *Model) confirmDiscard() {
	if !m.shell.IsDirty() {
		m.status = "No local changes to discard"
		return
	}
	m.mode = modeConfirmDiscard
	m.status = "Discard local changes and restore the saved ranking? (y/n)"
}

// dropPreviewText describes what releasing the current drag would do.
func (m *Model) dropPreviewText() string {
	op := m.shell.DropPreview()
	name := m.label(op.ID)
	switch op.Action {
	case drag.Reorder:
		return fmt.Sprintf("Drop to move %s to #%d", name, op.To+1)
	case drag.Insert:
		return fmt.Sprintf("Drop to insert %s at #%d", name, op.To+1)
	case drag.Append:
		return fmt.Sprintf("Drop to add %s at the end", name)
	case drag.Remove:
		return fmt.Sprintf("Drop to remove %s", name)
	default:
		return "Dragging " + name
	}
}
