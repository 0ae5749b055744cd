package app

import (
	"os"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/treykane/cli-rank/internal/config"
)

// ---------------------------------------------------------------------------
// Action constants
// ---------------------------------------------------------------------------
//
// Each constant below identifies a user-triggerable action. The user presses
// a key, the key is looked up in the keyToAction map, and the resulting
// action string is dispatched in handleBrowseKey or handleDragKey.
//
// Default key assignments are declared in defaultActionKeys. Users can
// override any assignment via the "keybindings" map in config.json or via an
// external keymap file (default: ~/.cli-rank/keymap.yaml).
// ---------------------------------------------------------------------------

const (
	// actionCursorUp moves the focused pane's cursor up one grid row.
	actionCursorUp = "cursor.up"

	// actionCursorDown moves the focused pane's cursor down one grid row.
	actionCursorDown = "cursor.down"

	// actionCursorLeft moves the cursor to the previous card.
	actionCursorLeft = "cursor.left"

	// actionCursorRight moves the cursor to the next card.
	actionCursorRight = "cursor.right"

	// actionJumpTop moves the cursor to the first card.
	actionJumpTop = "cursor.top"

	// actionJumpBottom moves the cursor to the last card.
	actionJumpBottom = "cursor.bottom"

	// actionPageUp scrolls the focused pane up by one viewport.
	actionPageUp = "scroll.page_up"

	// actionPageDown scrolls the focused pane down by one viewport.
	actionPageDown = "scroll.page_down"

	// actionFocusToggle moves keyboard focus to the other pane. In the
	// narrow layout it also switches tabs.
	actionFocusToggle = "pane.focus.toggle"

	// actionPickUp lifts the card under the cursor for a keyboard drag, and
	// drops it again while a drag is in flight.
	actionPickUp = "drag.pick_up"

	// actionAppend adds the pool card under the cursor to the end of the
	// ranking.
	actionAppend = "ranking.append"

	// actionRemove takes the ranked card under the cursor out of the ranking.
	actionRemove = "ranking.remove"

	// actionMoveEarlier swaps the ranked card under the cursor one place
	// toward the top.
	actionMoveEarlier = "ranking.move.earlier"

	// actionMoveLater swaps the ranked card under the cursor one place
	// toward the bottom.
	actionMoveLater = "ranking.move.later"

	// actionDetail opens the detail overlay for the card under the cursor.
	actionDetail = "item.detail"

	// actionFilter focuses the pool filter input.
	actionFilter = "pool.filter"

	// actionSort toggles the pool between catalog and title order.
	actionSort = "pool.sort.toggle"

	// actionSave persists the ranking to the catalog.
	actionSave = "ranking.save"

	// actionDiscard drops local edits after a confirmation.
	actionDiscard = "ranking.discard"

	// actionCopy copies the ranking as a numbered list.
	actionCopy = "ranking.copy"

	// actionReload retries a failed load.
	actionReload = "ranking.reload"

	// actionHelp toggles the keyboard shortcut reference.
	actionHelp = "help.toggle"

	// actionQuit exits the editor, flushing the local draft.
	actionQuit = "app.quit"
)

// defaultActionKeys maps each action to its factory-default key bindings.
//
// Key strings use the Bubble Tea notation:
//   - Modifier keys: "ctrl+", "alt+", "shift+"
//   - Special keys: "enter", "esc", "tab", "up", "down", "left", "right"
//   - The space bar is spelled "space"
//   - Single characters: "a", "x", "?", etc.
var defaultActionKeys = map[string][]string{
	actionCursorUp:    {"up", "k"},
	actionCursorDown:  {"down", "j"},
	actionCursorLeft:  {"left", "h"},
	actionCursorRight: {"right", "l"},
	actionJumpTop:     {"g", "home"},
	actionJumpBottom:  {"shift+g", "end"},
	actionPageUp:      {"pgup", "ctrl+u"},
	actionPageDown:    {"pgdown", "ctrl+d"},
	actionFocusToggle: {"tab"},
	actionPickUp:      {"space"},
	actionAppend:      {"a", "enter"},
	actionRemove:      {"x", "delete"},
	actionMoveEarlier: {"shift+k", "shift+up"},
	actionMoveLater:   {"shift+j", "shift+down"},
	actionDetail:      {"i"},
	actionFilter:      {"/"},
	actionSort:        {"s"},
	actionSave:        {"ctrl+s"},
	actionDiscard:     {"shift+d"},
	actionCopy:        {"y"},
	actionReload:      {"ctrl+r"},
	actionHelp:        {"?"},
	actionQuit:        {"q", "ctrl+c"},
}

// actionDescriptions label each action in the help overlay.
var actionDescriptions = map[string]string{
	actionCursorUp:    "Move cursor up a row",
	actionCursorDown:  "Move cursor down a row",
	actionCursorLeft:  "Previous card",
	actionCursorRight: "Next card",
	actionJumpTop:     "First card",
	actionJumpBottom:  "Last card",
	actionPageUp:      "Scroll pane up one page",
	actionPageDown:    "Scroll pane down one page",
	actionFocusToggle: "Switch pane",
	actionPickUp:      "Pick up / drop card",
	actionAppend:      "Add pool card to the end",
	actionRemove:      "Remove ranked card",
	actionMoveEarlier: "Move ranked card up one place",
	actionMoveLater:   "Move ranked card down one place",
	actionDetail:      "Show card details",
	actionFilter:      "Filter the pool",
	actionSort:        "Toggle pool sort",
	actionSave:        "Save ranking",
	actionDiscard:     "Discard local changes",
	actionCopy:        "Copy ranking to clipboard",
	actionReload:      "Retry loading",
	actionHelp:        "Toggle help",
	actionQuit:        "Quit (draft is kept)",
}

// ---------------------------------------------------------------------------
// Keybinding initialization
// ---------------------------------------------------------------------------

// loadKeybindings initializes the bidirectional key↔action maps from three
// sources, applied in order of increasing priority:
//
//  1. defaultActionKeys: built-in factory defaults.
//  2. cfg.Keybindings: inline overrides from config.json.
//  3. External keymap file: overrides from the YAML file at cfg.KeymapFile,
//     if it exists.
//
// Unknown action names in user overrides are logged as warnings and
// ignored. Overrides replace an action's full default key set.
func (m *Model) loadKeybindings(cfg config.Config) {
	m.keyForAction = map[string][]string{}
	for action, keys := range defaultActionKeys {
		m.keyForAction[action] = append([]string(nil), keys...)
	}

	for action, key := range cfg.Keybindings {
		m.applyKeybindingOverride(action, key)
	}

	fileOverrides := loadKeymapFile(cfg.KeymapFile)
	for action, key := range fileOverrides {
		m.applyKeybindingOverride(action, key)
	}

	m.rebuildActionKeyIndex()
}

// loadKeymapFile reads an external keymap file: a flat mapping from action
// names to key strings, for example:
//
//	ranking.save: ctrl+w
//	pool.sort.toggle: S
//
// JSON objects are valid YAML, so keymaps written for earlier releases keep
// working. A missing file is not an error.
func loadKeymapFile(path string) map[string]string {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			appLog.Warn("read keymap file", "path", path, "error", err)
		}
		return nil
	}
	overrides := map[string]string{}
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		appLog.Warn("parse keymap file", "path", path, "error", err)
		return nil
	}
	return overrides
}

// applyKeybindingOverride replaces one action's key set with key.
func (m *Model) applyKeybindingOverride(action, key string) {
	action = strings.TrimSpace(action)
	key = normalizeKeyString(key)
	if action == "" || key == "" {
		return
	}
	if _, ok := defaultActionKeys[action]; !ok {
		appLog.Warn("ignore unknown keybinding action", "action", action)
		return
	}
	m.keyForAction[action] = []string{key}
}

// rebuildActionKeyIndex constructs the reverse lookup map (keyToAction) from
// keyForAction. Actions are visited in name order so that when two actions
// claim the same key the winner is stable; the loser is logged and left
// unbound on that key.
func (m *Model) rebuildActionKeyIndex() {
	m.keyToAction = map[string]string{}
	actions := make([]string, 0, len(m.keyForAction))
	for action := range m.keyForAction {
		actions = append(actions, action)
	}
	sort.Strings(actions)

	for _, action := range actions {
		for _, key := range m.keyForAction[action] {
			if key == "" {
				continue
			}
			if existing, ok := m.keyToAction[key]; ok && existing != action {
				appLog.Warn("keybinding conflict ignored", "key", key, "action", action, "existing_action", existing)
				continue
			}
			m.keyToAction[key] = action
		}
	}
}

// ---------------------------------------------------------------------------
// Key string normalization
// ---------------------------------------------------------------------------

// normalizeKeyString converts a user-provided key string into the canonical
// lowercase form used by the keybinding maps.
//
// Examples:
//
//	normalizeKeyString("Ctrl+S")  → "ctrl+s"
//	normalizeKeyString(" D ")     → "shift+d"
//	normalizeKeyString("Space")   → "space"
//	normalizeKeyString("")        → ""
func normalizeKeyString(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	// Bubble Tea reports shifted letters as uppercase runes.
	if len([]rune(key)) == 1 && strings.ToUpper(key) == key && strings.ToLower(key) != key {
		return "shift+" + strings.ToLower(key)
	}
	return strings.ToLower(key)
}

// actionForKey looks up the action bound to the given key string.
func (m *Model) actionForKey(key string) string {
	if m.keyToAction == nil {
		return ""
	}
	return m.keyToAction[normalizeKeyString(key)]
}

func (m *Model) actionKeyLabels(action string) []string {
	keys, ok := m.keyForAction[action]
	if !ok || len(keys) == 0 {
		return nil
	}
	labels := make([]string, 0, len(keys))
	for _, key := range keys {
		label := humanizeKeyLabel(key)
		if label == "" {
			continue
		}
		if slices.Contains(labels, label) {
			continue
		}
		labels = append(labels, label)
	}
	return labels
}

func (m *Model) primaryActionKey(action, fallback string) string {
	keys := m.actionKeyLabels(action)
	if len(keys) == 0 {
		return fallback
	}
	return keys[0]
}

func (m *Model) allActionKeys(action, fallback string) string {
	keys := m.actionKeyLabels(action)
	if len(keys) == 0 {
		return fallback
	}
	return strings.Join(keys, ", ")
}

func humanizeKeyLabel(key string) string {
	normalized := normalizeKeyString(key)
	if normalized == "" {
		return ""
	}
	special := map[string]string{
		"up":        "↑",
		"down":      "↓",
		"left":      "←",
		"right":     "→",
		"enter":     "Enter",
		"esc":       "Esc",
		"tab":       "Tab",
		"home":      "Home",
		"end":       "End",
		"pgup":      "PgUp",
		"pgdown":    "PgDn",
		"space":     "Space",
		"delete":    "Del",
		"backspace": "Backspace",
	}
	parts := strings.Split(normalized, "+")
	for i, part := range parts {
		switch part {
		case "ctrl":
			parts[i] = "Ctrl"
		case "alt":
			parts[i] = "Alt"
		case "shift":
			parts[i] = "Shift"
		default:
			if label, ok := special[part]; ok {
				parts[i] = label
				continue
			}
			runes := []rune(part)
			if len(runes) == 1 && runes[0] >= 'a' && runes[0] <= 'z' {
				parts[i] = strings.ToUpper(part)
			} else if part != "" {
				parts[i] = strings.ToUpper(part[:1]) + part[1:]
			}
		}
	}
	return strings.Join(parts, "+")
}
