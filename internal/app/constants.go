package app

import "time"

// Layout constants define the fixed chrome around the two panes.
const (
	// HeaderRows is the height of the title bar above the panes. Mouse
	// coordinates are shifted by this much to reach body coordinates.
	HeaderRows = 1

	// FooterMinRows is the default number of rows reserved for the bottom
	// status/help area.
	FooterMinRows = 2
	// FooterMaxRows is the expanded footer height used when content does not
	// fit within FooterMinRows.
	FooterMaxRows = 3

	// DocPopupPadding is the horizontal margin around the help and detail
	// overlays.
	DocPopupPadding = 4
)

// Input limits define maximum sizes for user input
const (
	// InputCharLimit is the maximum number of characters allowed in the
	// pool filter.
	InputCharLimit = 120
)

// Rendering constants control render timing and optimization
const (
	// RenderWidthBucket is the granularity for width-based render caching.
	// Widths are rounded down to a multiple of this value.
	RenderWidthBucket = 20
)

// Timing constants for background work.
const (
	// LoadTimeout bounds the initial catalog fetch.
	LoadTimeout = 30 * time.Second
	// SaveTimeout bounds one save round trip to the catalog.
	SaveTimeout = 30 * time.Second

	// DraftStatusInterval is how often the footer re-reads the draft
	// manager, since draft writes complete off the event loop.
	DraftStatusInterval = time.Second

	// HoldTickInterval is the polling interval for hold-to-drag presses
	// after the first activation check.
	HoldTickInterval = 50 * time.Millisecond
)
