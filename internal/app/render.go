// render.go renders the help and card-detail overlays through Glamour.
//
// Both overlays are markdown documents. Rendering runs on a background
// goroutine; the result is tagged with a sequence number so a document that
// was closed or replaced before its render finished is dropped.
//
// Completed renders are cached by markdown source and width bucket, and the
// Glamour TermRenderer instances themselves are cached per width bucket in a
// small LRU. The rendering style comes from CLI_RANK_GLAMOUR_STYLE or
// GLAMOUR_STYLE, defaulting to "dark".
package app

import (
	"container/list"
	"fmt"
	"os"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/treykane/cli-rank/internal/editor"
	"github.com/treykane/cli-rank/internal/ranking"
)

// renderCacheEntry stores a completed render for one width bucket.
type renderCacheEntry struct {
	width   int
	content string
}

// docRenderResultMsg carries a finished render back to Update.
type docRenderResultMsg struct {
	key     string
	source  string
	width   int
	seq     int
	content string
}

var (
	// maxRendererCacheEntries bounds the number of width-specific Glamour
	// renderers retained in memory.
	maxRendererCacheEntries = 8

	// rendererCacheMu protects the renderer cache; renders run on
	// background goroutines.
	rendererCacheMu sync.Mutex

	rendererCache      = map[int]*glamour.TermRenderer{}
	rendererCacheOrder = list.New()
	rendererCacheNodes = map[int]*list.Element{}
)

// toggleHelp opens or closes the shortcut reference.
func (m *Model) toggleHelp() tea.Cmd {
	if m.overlay == overlayHelp {
		m.closeOverlay()
		return nil
	}
	m.openOverlay(overlayHelp)
	return m.requestDoc("help", m.helpMarkdown())
}

// openDetail shows the card under the cursor.
func (m *Model) openDetail() tea.Cmd {
	id, ok := m.cursorID(m.focus)
	if !ok {
		m.status = "No card selected"
		return nil
	}
	item, ok := m.shell.Item(id)
	if !ok {
		item = ranking.Item{ID: id}
	}
	m.openOverlay(overlayDetail)
	return m.requestDoc("item:"+string(id), m.itemMarkdown(item))
}

// refreshDoc re-renders the open overlay at the current width.
func (m *Model) refreshDoc() tea.Cmd {
	switch m.overlay {
	case overlayHelp:
		return m.requestDoc("help", m.helpMarkdown())
	case overlayDetail:
		if id, ok := strings.CutPrefix(m.docKey, "item:"); ok {
			item, found := m.shell.Item(ranking.ID(id))
			if !found {
				item = ranking.Item{ID: ranking.ID(id)}
			}
			return m.requestDoc(m.docKey, m.itemMarkdown(item))
		}
	}
	return nil
}

// requestDoc shows a cached render immediately or starts a background one.
func (m *Model) requestDoc(key, markdown string) tea.Cmd {
	width := renderWidthBucket(m.doc.Width)
	m.docKey = key
	m.docSeq++
	if entry, ok := m.renderCache[markdown]; ok && entry.width == width {
		m.doc.SetContent(entry.content)
		m.doc.GotoTop()
		return nil
	}
	m.doc.SetContent(m.spinner.View() + " Rendering...")
	seq := m.docSeq
	return func() tea.Msg {
		return docRenderResultMsg{key: key, source: markdown, width: width, seq: seq, content: renderMarkdown(markdown, width)}
	}
}

// handleDocRenderResult installs a finished render if it is still wanted.
func (m *Model) handleDocRenderResult(msg docRenderResultMsg) (tea.Model, tea.Cmd) {
	m.renderCache[msg.source] = renderCacheEntry{width: msg.width, content: msg.content}
	if msg.seq != m.docSeq || msg.key != m.docKey || m.overlay == overlayNone {
		return m, nil
	}
	m.doc.SetContent(msg.content)
	m.doc.GotoTop()
	return m, nil
}

// itemMarkdown describes one card.
func (m *Model) itemMarkdown(item ranking.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", item.Label())
	if item.Subtitle != "" {
		fmt.Fprintf(&b, "*%s*\n\n", item.Subtitle)
	}
	if len(item.Tags) > 0 {
		tags := make([]string, len(item.Tags))
		for i, t := range item.Tags {
			tags[i] = "`" + t + "`"
		}
		fmt.Fprintf(&b, "%s\n\n", strings.Join(tags, " "))
	}
	if idx := m.shell.List().IndexOf(item.ID); idx >= 0 {
		fmt.Fprintf(&b, "**Ranked #%d** of %d\n\n", idx+1, len(m.shell.List()))
	} else {
		b.WriteString("**Not ranked**\n\n")
	}
	if item.Description != "" {
		b.WriteString(item.Description)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "---\n\nid: `%s`\n", item.ID)
	return b.String()
}

// helpMarkdown builds the shortcut reference from the live keymap, so user
// overrides show up in it.
func (m *Model) helpMarkdown() string {
	groups := []struct {
		title   string
		actions []string
	}{
		{"Navigate", []string{actionCursorUp, actionCursorDown, actionCursorLeft, actionCursorRight,
			actionJumpTop, actionJumpBottom, actionPageUp, actionPageDown, actionFocusToggle}},
		{"Edit", []string{actionPickUp, actionAppend, actionRemove, actionMoveEarlier, actionMoveLater,
			actionDetail, actionFilter, actionSort}},
		{"Ranking", []string{actionSave, actionDiscard, actionCopy, actionHelp, actionQuit}},
	}

	var b strings.Builder
	b.WriteString("# Keyboard Shortcuts\n\n")
	for _, g := range groups {
		fmt.Fprintf(&b, "## %s\n\n| Keys | Action |\n| --- | --- |\n", g.title)
		for _, action := range g.actions {
			fmt.Fprintf(&b, "| %s | %s |\n", m.allActionKeys(action, "unbound"), actionDescriptions[action])
		}
		b.WriteString("\n")
	}
	b.WriteString("## Mouse\n\n")
	b.WriteString("- Drag a pool card onto the ranking to insert it before the card under the pointer.\n")
	b.WriteString("- Drop it on empty ranking space to add it at the end.\n")
	b.WriteString("- Drag a ranked card onto another to move it, or back to the pool to remove it.\n")
	b.WriteString("- Near a pane edge the pane scrolls while dragging. The wheel scrolls the pane under the pointer.\n\n")
	b.WriteString("## While dragging with the keyboard\n\n")
	b.WriteString("Arrows move the drop position, Tab switches pane, Space or Enter drops, Esc cancels.\n")
	if m.shell.Layout().Narrow {
		narrow := m.cfg.NarrowWidth
		if narrow <= 0 {
			narrow = editor.DefaultNarrowWidth
		}
		fmt.Fprintf(&b, "\nThe terminal is narrower than %d columns, so the panes are tabs. Click a tab or press %s.\n",
			narrow, m.primaryActionKey(actionFocusToggle, "Tab"))
	}
	return b.String()
}

// renderMarkdown converts markdown to ANSI output. If Glamour fails, the
// raw markdown is returned so the user still sees content.
func renderMarkdown(content string, width int) string {
	if width <= 0 {
		width = 80
	}
	renderer, err := getRenderer(width)
	if err != nil {
		appLog.Error("create markdown renderer", "width", width, "error", err)
		return content
	}
	out, err := renderer.Render(content)
	if err != nil {
		appLog.Error("render markdown content", "width", width, "error", err)
		return content
	}
	return out
}

// getRenderer returns a cached Glamour TermRenderer for the given width,
// creating one if it doesn't exist.
func getRenderer(width int) (*glamour.TermRenderer, error) {
	if width <= 0 {
		width = 80
	}
	rendererCacheMu.Lock()
	defer rendererCacheMu.Unlock()
	if renderer, ok := rendererCache[width]; ok {
		if node, ok := rendererCacheNodes[width]; ok {
			rendererCacheOrder.MoveToBack(node)
		}
		return renderer, nil
	}
	renderer, err := glamour.NewTermRenderer(
		glamourStyleOption(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	rendererCache[width] = renderer
	rendererCacheNodes[width] = rendererCacheOrder.PushBack(width)
	evictOldestRendererIfNeeded()
	return renderer, nil
}

func evictOldestRendererIfNeeded() {
	for len(rendererCache) > maxRendererCacheEntries && rendererCacheOrder.Len() > 0 {
		oldest := rendererCacheOrder.Front()
		width, _ := oldest.Value.(int)
		rendererCacheOrder.Remove(oldest)
		delete(rendererCache, width)
		delete(rendererCacheNodes, width)
	}
}

func resetRendererCacheForTests() {
	rendererCacheMu.Lock()
	defer rendererCacheMu.Unlock()
	rendererCache = map[int]*glamour.TermRenderer{}
	rendererCacheOrder = list.New()
	rendererCacheNodes = map[int]*list.Element{}
}

// glamourStyleOption resolves the Glamour style from CLI_RANK_GLAMOUR_STYLE,
// then GLAMOUR_STYLE, then "dark". "auto" queries the terminal background.
func glamourStyleOption() glamour.TermRendererOption {
	style := strings.ToLower(strings.TrimSpace(os.Getenv("CLI_RANK_GLAMOUR_STYLE")))
	if style == "" {
		style = strings.ToLower(strings.TrimSpace(os.Getenv("GLAMOUR_STYLE")))
	}
	if style == "" {
		style = "dark"
	}
	if style == "auto" {
		return glamour.WithAutoStyle()
	}
	switch style {
	case "dark", "light", "notty":
		return glamour.WithStandardStyle(style)
	default:
		return glamour.WithStandardStyle("dark")
	}
}
