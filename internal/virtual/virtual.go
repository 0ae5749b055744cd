// Package virtual implements row virtualization for the card grids.
//
// A ranking can hold thousands of cards but only a handful of rows fit in
// the terminal. The Virtualizer tracks the measured row geometry, the
// viewport height, and the scroll offset, and yields only the rows that
// intersect the viewport plus a fixed overscan on either side. Rendering cost
// is therefore proportional to the viewport, never to the item count.
//
// Rows are homogeneous: every row is RowHeight cells tall and separated by
// Gap cells, so offsets are computed arithmetically instead of being
// measured row by row.
package virtual

import "github.com/treykane/cli-rank/internal/grid"

// DefaultOverscan is the number of extra rows rendered above and below the
// viewport when Options.Overscan is negative.
const DefaultOverscan = 2

// Options configure a Virtualizer.
type Options struct {
	// Overscan is the number of rows rendered just outside the viewport on
	// each side. Negative values select DefaultOverscan.
	Overscan int
}

// Row describes one rendered row.
type Row struct {
	Index  int // row index in the full grid
	Start  int // offset of the row's top edge from the top of the content
	Size   int // row height without the trailing gap
	Offset int // Start relative to the viewport top (negative when scrolled past)
}

// End is the offset just past the row's bottom edge.
func (r Row) End() int {
	return r.Start + r.Size
}

// Window is the virtualized slice of the grid for the current scroll state.
type Window struct {
	Rows         []Row
	RowCount     int
	TotalHeight  int
	ScrollOffset int
	Viewport     int
	Version      int
}

// Virtualizer computes visible row windows. The zero value is not usable;
// call New.
type Virtualizer struct {
	overscan int

	rowCount  int
	rowHeight int
	gap       int
	viewport  int
	scroll    int

	// version increments on every re-measure so renderers can tell that
	// cached row bounds are stale even when the scroll offset is unchanged.
	version int
	config  grid.Config
}

// New returns a Virtualizer with no rows.
func New(opts Options) *Virtualizer {
	overscan := opts.Overscan
	if overscan < 0 {
		overscan = DefaultOverscan
	}
	return &Virtualizer{overscan: overscan, rowHeight: 1}
}

// Measure replaces the row geometry and clamps the scroll offset into the
// new range. It always bumps the version.
func (v *Virtualizer) Measure(rowCount, rowHeight, gap int) {
	v.rowCount = max(0, rowCount)
	v.rowHeight = max(1, rowHeight)
	v.gap = max(0, gap)
	v.version++
	v.clampScroll()
}

// SetGrid re-measures from a grid configuration and item count. It must be
// called whenever the grid configuration changes, even if the scroll offset
// did not, otherwise rows keep stale bounds.
func (v *Virtualizer) SetGrid(cfg grid.Config, itemCount int) {
	v.config = cfg
	v.Measure(cfg.RowCount(itemCount), cfg.RowHeight, cfg.Gap)
}

// Grid returns the configuration last passed to SetGrid.
func (v *Virtualizer) Grid() grid.Config {
	return v.config
}

// SetViewport sets the visible height of the scroll container.
func (v *Virtualizer) SetViewport(height int) {
	height = max(0, height)
	if height == v.viewport {
		return
	}
	v.viewport = height
	v.version++
	v.clampScroll()
}

// Viewport returns the visible height.
func (v *Virtualizer) Viewport() int {
	return v.viewport
}

// RowCount returns the number of measured rows.
func (v *Virtualizer) RowCount() int {
	return v.rowCount
}

// Stride is the distance between the tops of adjacent rows.
func (v *Virtualizer) Stride() int {
	return v.rowHeight + v.gap
}

// TotalHeight is the full scrollable extent.
func (v *Virtualizer) TotalHeight() int {
	return v.rowCount * v.Stride()
}

// MaxScroll is the largest valid scroll offset.
func (v *Virtualizer) MaxScroll() int {
	return max(0, v.TotalHeight()-v.viewport)
}

// ScrollOffset returns the current scroll offset.
func (v *Virtualizer) ScrollOffset() int {
	return v.scroll
}

// ScrollTo moves the scroll offset, clamped into range.
func (v *Virtualizer) ScrollTo(offset int) {
	v.scroll = offset
	v.clampScroll()
}

// ScrollBy moves the scroll offset by delta cells.
func (v *Virtualizer) ScrollBy(delta int) {
	v.ScrollTo(v.scroll + delta)
}

// ScrollRows moves the scroll offset by whole rows.
func (v *Virtualizer) ScrollRows(rows int) {
	v.ScrollBy(rows * v.Stride())
}

// EnsureVisible scrolls the minimum amount needed to bring row fully into
// the viewport.
func (v *Virtualizer) EnsureVisible(row int) {
	if v.rowCount == 0 {
		return
	}
	row = clamp(row, 0, v.rowCount-1)
	top := row * v.Stride()
	bottom := top + v.rowHeight
	switch {
	case top < v.scroll:
		v.ScrollTo(top)
	case bottom > v.scroll+v.viewport:
		v.ScrollTo(bottom - v.viewport)
	}
}

// AutoScroll nudges the viewport by one row when y (relative to the viewport
// top) is within edge cells of the top or bottom border. It is used while a
// drag hovers near the edge of a pane. It reports whether the offset moved.
func (v *Virtualizer) AutoScroll(y, edge int) bool {
	if edge <= 0 || v.viewport <= 0 {
		return false
	}
	before := v.scroll
	switch {
	case y < edge:
		v.ScrollRows(-1)
	case y >= v.viewport-edge:
		v.ScrollRows(1)
	}
	return v.scroll != before
}

// Window returns the visible rows plus overscan for the current state.
func (v *Virtualizer) Window() Window {
	w := Window{
		RowCount:     v.rowCount,
		TotalHeight:  v.TotalHeight(),
		ScrollOffset: v.scroll,
		Viewport:     v.viewport,
		Version:      v.version,
	}
	if v.rowCount == 0 {
		return w
	}

	stride := v.Stride()
	first := v.scroll / stride
	last := first - 1
	if v.viewport > 0 {
		last = (v.scroll + v.viewport - 1) / stride
	}

	start := max(0, first-v.overscan)
	end := min(v.rowCount-1, last+v.overscan)
	if end < start {
		return w
	}

	w.Rows = make([]Row, 0, end-start+1)
	for i := start; i <= end; i++ {
		top := i * stride
		w.Rows = append(w.Rows, Row{
			Index:  i,
			Start:  top,
			Size:   v.rowHeight,
			Offset: top - v.scroll,
		})
	}
	return w
}

// RowAt maps a y offset relative to the viewport top to a row index. Offsets
// that land in a gap or outside the grid report false.
func (v *Virtualizer) RowAt(y int) (int, bool) {
	if y < 0 || (v.viewport > 0 && y >= v.viewport) {
		return 0, false
	}
	content := y + v.scroll
	stride := v.Stride()
	row := content / stride
	if row >= v.rowCount {
		return 0, false
	}
	if content-row*stride >= v.rowHeight {
		return 0, false
	}
	return row, true
}

func (v *Virtualizer) clampScroll() {
	v.scroll = clamp(v.scroll, 0, v.MaxScroll())
}

// Slice returns the items that belong to row when laid out in columns
// columns: items[row*columns : row*columns+columns], bounded by len(items).
// The result has no spare capacity, so appending to it never writes into
// the next row.
func Slice[T any](items []T, row, columns int) []T {
	if columns <= 0 || row < 0 {
		return nil
	}
	start := row * columns
	if start >= len(items) {
		return nil
	}
	end := min(len(items), start+columns)
	return items[start:end:end]
}

func clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
