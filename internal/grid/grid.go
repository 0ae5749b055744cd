// Package grid computes the responsive card grid used by the ranking editor.
//
// The grid is derived entirely from the measured container width and a small
// set of constraints. Cards never stretch: every column is exactly
// MinCardWidth cells wide and any width left over after the last column is
// treated as outer margin, so card size stays stable across breakpoints.
//
// Compute is pure and idempotent. The editor calls it from its resize
// observer on every terminal resize without accumulating state.
package grid

// Constraints bound the grid layout.
type Constraints struct {
	MinCardWidth int // width of every card, in cells
	Gap          int // horizontal and vertical gap between cards
	RowHeight    int // height of one row of cards
	MaxColumns   int // upper column bound; <= 0 means unbounded
	MinColumns   int // lower column bound; <= 0 means 1
}

// Config is the derived, non-persistent grid configuration for one
// container width.
type Config struct {
	ContainerWidth int
	Columns        int
	ColumnWidth    int
	RowHeight      int
	Gap            int
}

// DefaultConstraints are used when the configuration leaves the grid
// section empty.
var DefaultConstraints = Constraints{
	MinCardWidth: 24,
	Gap:          1,
	RowHeight:    4,
	MaxColumns:   8,
	MinColumns:   1,
}

// Normalize fills zero or negative values with safe defaults so the result
// can always be laid out.
func (c Constraints) Normalize() Constraints {
	if c.MinCardWidth <= 0 {
		c.MinCardWidth = DefaultConstraints.MinCardWidth
	}
	if c.Gap < 0 {
		c.Gap = 0
	}
	if c.RowHeight <= 0 {
		c.RowHeight = DefaultConstraints.RowHeight
	}
	if c.MinColumns <= 0 {
		c.MinColumns = 1
	}
	if c.MaxColumns > 0 && c.MaxColumns < c.MinColumns {
		c.MaxColumns = c.MinColumns
	}
	return c
}

// Compute returns the grid configuration for containerWidth.
//
// A zero (or negative) width means the container has not been measured yet;
// the placeholder config uses MinColumns columns of MinCardWidth. Otherwise
// the column count is the largest n with
//
//	n*MinCardWidth + (n-1)*Gap <= containerWidth
//
// clamped to [MinColumns, MaxColumns]. A container narrower than one card
// still gets MinColumns columns and overflows horizontally.
func Compute(containerWidth int, constraints Constraints) Config {
	c := constraints.Normalize()
	cfg := Config{
		ContainerWidth: max(0, containerWidth),
		Columns:        c.MinColumns,
		ColumnWidth:    c.MinCardWidth,
		RowHeight:      c.RowHeight,
		Gap:            c.Gap,
	}
	if containerWidth <= 0 {
		return cfg
	}

	columns := (containerWidth + c.Gap) / (c.MinCardWidth + c.Gap)
	if columns < c.MinColumns {
		columns = c.MinColumns
	}
	if c.MaxColumns > 0 && columns > c.MaxColumns {
		columns = c.MaxColumns
	}
	cfg.Columns = columns
	return cfg
}

// ContentWidth is the width actually occupied by the cards and the gaps
// between them.
func (c Config) ContentWidth() int {
	if c.Columns <= 0 {
		return 0
	}
	return c.Columns*c.ColumnWidth + (c.Columns-1)*c.Gap
}

// RowCount returns how many rows are needed to show itemCount cards.
func (c Config) RowCount(itemCount int) int {
	if itemCount <= 0 || c.Columns <= 0 {
		return 0
	}
	return (itemCount + c.Columns - 1) / c.Columns
}

// RowStride is the vertical distance between the tops of adjacent rows.
func (c Config) RowStride() int {
	return c.RowHeight + c.Gap
}

// ColumnAt maps an x offset relative to the grid's left edge to a column
// index. Offsets that land in a gap, left of the grid, or right of the last
// column report false.
func (c Config) ColumnAt(x int) (int, bool) {
	if x < 0 || c.Columns <= 0 {
		return 0, false
	}
	stride := c.ColumnWidth + c.Gap
	if stride <= 0 {
		return 0, false
	}
	col := x / stride
	if col >= c.Columns {
		return 0, false
	}
	if x-col*stride >= c.ColumnWidth {
		return 0, false
	}
	return col, true
}

// Equal reports whether two configs lay cards out identically. The
// container width is ignored because excess width is only margin.
func (c Config) Equal(other Config) bool {
	return c.Columns == other.Columns &&
		c.ColumnWidth == other.ColumnWidth &&
		c.RowHeight == other.RowHeight &&
		c.Gap == other.Gap
}
