package ranking

import (
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortMode selects the order in which the pool is presented.
type SortMode int

const (
	// SortCatalog keeps the order the catalog returned.
	SortCatalog SortMode = iota
	// SortTitle orders by item title using locale-aware collation.
	SortTitle
)

// String returns a short label for status lines.
func (s SortMode) String() string {
	if s == SortTitle {
		return "title"
	}
	return "catalog"
}

// Pool is the ordered source collection items are dragged from.
//
// Pool membership is fixed at construction. The editor only changes the
// flags layered on top of it:
//   - placed: the item is already in the target list, so it is unavailable
//   - excluded: an external filter made the item unavailable
//   - filtered: the item is hidden from the pool view entirely
type Pool struct {
	ids      []ID
	members  map[ID]struct{}
	placed   map[ID]bool
	excluded map[ID]bool
	filtered map[ID]bool

	query string
	sort  SortMode
	view  []ID
}

// NewPool creates a pool over ids. Duplicate identifiers are dropped.
func NewPool(ids []ID) *Pool {
	p := &Pool{
		members:  map[ID]struct{}{},
		placed:   map[ID]bool{},
		excluded: map[ID]bool{},
		filtered: map[ID]bool{},
	}
	for _, id := range ids {
		if _, ok := p.members[id]; ok || id == "" {
			continue
		}
		p.members[id] = struct{}{}
		p.ids = append(p.ids, id)
	}
	p.view = slices.Clone(p.ids)
	return p
}

// IDs returns the pool membership in catalog order.
func (p *Pool) IDs() []ID {
	return slices.Clone(p.ids)
}

// Len returns the number of pool members, hidden or not.
func (p *Pool) Len() int {
	return len(p.ids)
}

// Contains reports pool membership.
func (p *Pool) Contains(id ID) bool {
	_, ok := p.members[id]
	return ok
}

// SetPlaced recomputes the placed flags from the current target list.
func (p *Pool) SetPlaced(list List) {
	p.placed = make(map[ID]bool, len(list))
	for _, id := range list {
		if p.Contains(id) {
			p.placed[id] = true
		}
	}
}

// Placed reports whether id is already in the target list.
func (p *Pool) Placed(id ID) bool {
	return p.placed[id]
}

// SetExcluded replaces the externally excluded set.
func (p *Pool) SetExcluded(ids []ID) {
	p.excluded = make(map[ID]bool, len(ids))
	for _, id := range ids {
		if p.Contains(id) {
			p.excluded[id] = true
		}
	}
}

// Available reports whether id can be dragged into the target list.
func (p *Pool) Available(id ID) bool {
	return p.Contains(id) && !p.placed[id] && !p.excluded[id] && !p.filtered[id]
}

// Hidden reports whether id is filtered out of the pool view.
func (p *Pool) Hidden(id ID) bool {
	return p.filtered[id]
}

// View returns the visible pool identifiers in presentation order.
func (p *Pool) View() []ID {
	return p.view
}

// Query returns the active filter text.
func (p *Pool) Query() string {
	return p.query
}

// SortMode returns the active presentation order.
func (p *Pool) SortMode() SortMode {
	return p.sort
}

// Filter hides every item whose title does not fuzzy-match query. An empty
// query shows everything. Only flags change; membership is untouched.
func (p *Pool) Filter(query string, u *Universe) {
	p.query = strings.TrimSpace(query)
	p.filtered = map[ID]bool{}
	if p.query != "" {
		labels := make([]string, len(p.ids))
		for i, id := range p.ids {
			labels[i] = searchText(id, u)
		}
		keep := make(map[int]bool, len(labels))
		for _, match := range fuzzy.Find(p.query, labels) {
			keep[match.Index] = true
		}
		for i, id := range p.ids {
			if !keep[i] {
				p.filtered[id] = true
			}
		}
	}
	p.rebuildView(u)
}

// SetSort changes the presentation order.
func (p *Pool) SetSort(mode SortMode, u *Universe) {
	p.sort = mode
	p.rebuildView(u)
}

func (p *Pool) rebuildView(u *Universe) {
	view := make([]ID, 0, len(p.ids))
	for _, id := range p.ids {
		if !p.filtered[id] {
			view = append(view, id)
		}
	}
	if p.sort == SortTitle {
		col := collate.New(language.Und, collate.IgnoreCase)
		slices.SortStableFunc(view, func(a, b ID) int {
			return col.CompareString(label(a, u), label(b, u))
		})
	}
	p.view = view
}

func label(id ID, u *Universe) string {
	if it, ok := u.Resolve(id); ok {
		return it.Label()
	}
	return string(id)
}

func searchText(id ID, u *Universe) string {
	it, ok := u.Resolve(id)
	if !ok {
		return string(id)
	}
	parts := []string{it.Label()}
	if it.Subtitle != "" {
		parts = append(parts, it.Subtitle)
	}
	parts = append(parts, it.Tags...)
	return strings.Join(parts, " ")
}
