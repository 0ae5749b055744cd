// Package ranking holds the item model shared by the editor components: item
// identifiers, the resolvable item universe, the ordered target list being
// ranked, and the source pool items are dragged from.
package ranking

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ID is a stable, opaque item identifier.
type ID string

// Item is a read-only record owned by the item catalog. The editor only
// changes an item's membership and position in a List, never its content.
type Item struct {
	ID          ID       `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Subtitle    string   `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// Label returns the title, falling back to the identifier.
func (it Item) Label() string {
	if title := strings.TrimSpace(it.Title); title != "" {
		return title
	}
	return string(it.ID)
}

var (
	// ErrDuplicate reports an identifier that appears more than once in a list.
	ErrDuplicate = errors.New("duplicate item")
	// ErrUnresolved reports an identifier missing from the item universe.
	ErrUnresolved = errors.New("unresolved item")
)

// Universe resolves identifiers to items. It is the union of the pool
// catalog and any items supplied with the ranking itself.
type Universe struct {
	items map[ID]Item
	order []ID
}

// NewUniverse builds a universe from one or more item sets. When the same
// identifier appears more than once the first occurrence wins. Items with an
// empty identifier are skipped.
func NewUniverse(sets ...[]Item) *Universe {
	u := &Universe{items: map[ID]Item{}}
	for _, set := range sets {
		for _, it := range set {
			if it.ID == "" {
				continue
			}
			if _, ok := u.items[it.ID]; ok {
				continue
			}
			u.items[it.ID] = it
			u.order = append(u.order, it.ID)
		}
	}
	return u
}

// Resolve looks up an item by identifier.
func (u *Universe) Resolve(id ID) (Item, bool) {
	if u == nil {
		return Item{}, false
	}
	it, ok := u.items[id]
	return it, ok
}

// Has reports whether id resolves.
func (u *Universe) Has(id ID) bool {
	_, ok := u.Resolve(id)
	return ok
}

// Len returns the number of known items.
func (u *Universe) Len() int {
	if u == nil {
		return 0
	}
	return len(u.order)
}

// IDs returns every known identifier in insertion order.
func (u *Universe) IDs() []ID {
	if u == nil {
		return nil
	}
	return slices.Clone(u.order)
}

// List is an ordered sequence of item identifiers: the ranking under edit.
type List []ID

// IDs extracts identifiers from items, preserving order.
func IDs(items []Item) List {
	out := make(List, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

// Clone returns an independent copy. A nil list clones to an empty list.
func (l List) Clone() List {
	out := make(List, len(l))
	copy(out, l)
	return out
}

// Equal is a positional comparison: same length and the same identifier at
// every index. Two lists with the same members in a different order are not
// equal.
func (l List) Equal(other List) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}

// IndexOf returns the position of id, or -1.
func (l List) IndexOf(id ID) int {
	for i, candidate := range l {
		if candidate == id {
			return i
		}
	}
	return -1
}

// Contains reports whether id is in the list.
func (l List) Contains(id ID) bool {
	return l.IndexOf(id) >= 0
}

// Move returns a copy with the element at from moved to index to. Every
// other element keeps its relative order. Out-of-range indexes return an
// unchanged copy and false.
func (l List) Move(from, to int) (List, bool) {
	out := l.Clone()
	if from < 0 || from >= len(l) || to < 0 || to >= len(l) || from == to {
		return out, false
	}
	id := out[from]
	out = slices.Delete(out, from, from+1)
	out = slices.Insert(out, to, id)
	return out, true
}

// InsertAt returns a copy with id inserted before index. An index at or
// beyond the end appends. Inserting an identifier that is already present
// returns an unchanged copy and false.
func (l List) InsertAt(id ID, index int) (List, bool) {
	out := l.Clone()
	if id == "" || l.Contains(id) {
		return out, false
	}
	index = max(0, min(index, len(out)))
	return slices.Insert(out, index, id), true
}

// Append returns a copy with id added at the end, unless already present.
func (l List) Append(id ID) (List, bool) {
	return l.InsertAt(id, len(l))
}

// Remove returns a copy without id.
func (l List) Remove(id ID) (List, bool) {
	idx := l.IndexOf(id)
	out := l.Clone()
	if idx < 0 {
		return out, false
	}
	return slices.Delete(out, idx, idx+1), true
}

// Set returns the members as a set.
func (l List) Set() map[ID]struct{} {
	out := make(map[ID]struct{}, len(l))
	for _, id := range l {
		out[id] = struct{}{}
	}
	return out
}

// Validate checks the list invariants: no duplicates and, when u is not nil,
// every identifier resolves. The first violation is returned.
func (l List) Validate(u *Universe) error {
	seen := make(map[ID]struct{}, len(l))
	for i, id := range l {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w %q at position %d", ErrDuplicate, id, i)
		}
		seen[id] = struct{}{}
		if u != nil && !u.Has(id) {
			return fmt.Errorf("%w %q at position %d", ErrUnresolved, id, i)
		}
	}
	return nil
}

// Resolve maps the list to items. Unknown identifiers are skipped and
// counted in missing.
func (l List) Resolve(u *Universe) (items []Item, missing int) {
	items = make([]Item, 0, len(l))
	for _, id := range l {
		it, ok := u.Resolve(id)
		if !ok {
			missing++
			continue
		}
		items = append(items, it)
	}
	return items, missing
}
