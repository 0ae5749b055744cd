// Package editor composes the ranking editor from its engines.
//
// The Shell is headless: it owns the layout context, the pool and target
// virtualizers, the drag engine, and the draft manager, and exposes
// operations in body-cell coordinates. The terminal front end in
// internal/app only translates events and renders what the shell reports.
//
// Resizing follows a fixed chain. A new body size recomputes both grid
// configurations, the virtualizers are re-measured from those configs, and
// only then are resize observers notified, so observers always see
// consistent geometry.
package editor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/treykane/cli-rank/internal/catalog"
	"github.com/treykane/cli-rank/internal/draft"
	"github.com/treykane/cli-rank/internal/drag"
	"github.com/treykane/cli-rank/internal/grid"
	"github.com/treykane/cli-rank/internal/logging"
	"github.com/treykane/cli-rank/internal/ranking"
	"github.com/treykane/cli-rank/internal/virtual"
)

var log = logging.New("editor")

// autoScrollEdge is how close to a pane's top or bottom edge a drag must
// hover before the pane scrolls.
const autoScrollEdge = 1

// ErrNotLoaded is returned by operations that need a loaded ranking.
var ErrNotLoaded = errors.New("ranking not loaded")

// Options configure a Shell.
type Options struct {
	RankingID string
	Source    catalog.Source
	Persister draft.Persister
	Storage   draft.Storage

	Constraints grid.Constraints
	// Overscan rows per side; negative selects virtual.DefaultOverscan.
	Overscan int
	// Sensor decides when a mouse press becomes a drag.
	Sensor drag.Sensor
	// NarrowWidth defaults to DefaultNarrowWidth.
	NarrowWidth int

	Debounce  time.Duration
	Scheduler draft.Scheduler
	Now       func() time.Time
}

// DragEvent is delivered to drag observers once when a gesture starts and
// once when it ends.
type DragEvent struct {
	Started  bool
	Instance drag.Instance
	Result   drag.Result
}

// Shell is the headless ranking editor. It is not safe for concurrent use
// apart from the draft manager it wraps; drive it from one event loop.
type Shell struct {
	opts Options

	title    string
	universe *ranking.Universe
	pool     *ranking.Pool
	list     ranking.List
	loaded   bool

	drafts *draft.Manager
	engine *drag.Engine

	poolVirt   *virtual.Virtualizer
	targetVirt *virtual.Virtualizer
	layout     LayoutContext

	resizeObservers []func(LayoutContext)
	dragObservers   []func(DragEvent)
}

// New returns a shell for one ranking. Call Load (or Initialize) before
// editing.
func New(opts Options) *Shell {
	if opts.NarrowWidth <= 0 {
		opts.NarrowWidth = DefaultNarrowWidth
	}
	opts.Constraints = opts.Constraints.Normalize()

	s := &Shell{
		opts:       opts,
		universe:   ranking.NewUniverse(),
		pool:       ranking.NewPool(nil),
		poolVirt:   virtual.New(virtual.Options{Overscan: opts.Overscan}),
		targetVirt: virtual.New(virtual.Options{Overscan: opts.Overscan}),
	}
	s.drafts = draft.NewManager(draft.Options{
		RankingID: opts.RankingID,
		Storage:   opts.Storage,
		Persister: opts.Persister,
		Debounce:  opts.Debounce,
		Scheduler: opts.Scheduler,
		Now:       opts.Now,
	})
	s.engine = drag.NewEngine(opts.Sensor, drag.Hooks{
		OnStart: s.onDragStart,
		OnEnd:   s.onDragEnd,
	})
	s.layout = computeLayout(0, 0, opts.NarrowWidth, PanePool, opts.Constraints)
	return s
}

// Load fetches the item universe and the ranking concurrently and
// initializes the session once both have arrived. A draft is only resolved
// against the complete universe, never a partial one.
func (s *Shell) Load(ctx context.Context) error {
	items, rk, err := Fetch(ctx, s.opts.Source, s.opts.RankingID)
	if err != nil {
		return err
	}
	s.Initialize(items, rk)
	return nil
}

// Fetch retrieves the item catalog and one ranking concurrently. It does not
// touch any shell state, so front ends can run it off their event loop and
// hand the result to Initialize.
func Fetch(ctx context.Context, src catalog.Source, rankingID string) ([]ranking.Item, catalog.Ranking, error) {
	if src == nil {
		return nil, catalog.Ranking{}, errors.New("no item source configured")
	}

	var (
		items []ranking.Item
		rk    catalog.Ranking
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = src.FetchAllItems(gctx)
		if err != nil {
			return fmt.Errorf("fetch items: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		rk, err = src.FetchRanking(gctx, rankingID)
		if err != nil {
			return fmt.Errorf("fetch ranking: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, catalog.Ranking{}, fmt.Errorf("load ranking %s: %w", rankingID, err)
	}
	return items, rk, nil
}

// Initialize starts the session from already fetched data and returns the
// initial target list.
func (s *Shell) Initialize(items []ranking.Item, rk catalog.Ranking) ranking.List {
	s.title = rk.Title
	s.universe = ranking.NewUniverse(items, rk.Items, rk.Extra)
	s.pool = ranking.NewPool(ranking.IDs(items))

	s.list = s.drafts.Initialize(draft.Baseline{IDs: rk.IDs(), UpdatedAt: rk.UpdatedAt}, s.universe)
	s.pool.SetPlaced(s.list)
	s.loaded = true
	s.remeasure()

	log.Info("ranking loaded", "ranking", s.opts.RankingID,
		"pool", s.pool.Len(), "ranked", len(s.list), "universe", s.universe.Len())
	return s.list.Clone()
}

// Loaded reports whether the session has been initialized.
func (s *Shell) Loaded() bool { return s.loaded }

// RankingID returns the session's ranking identifier.
func (s *Shell) RankingID() string { return s.opts.RankingID }

// Title returns the ranking title.
func (s *Shell) Title() string { return s.title }

// Universe returns the item universe.
func (s *Shell) Universe() *ranking.Universe { return s.universe }

// Pool returns the source pool.
func (s *Shell) Pool() *ranking.Pool { return s.pool }

// List returns a copy of the target list.
func (s *Shell) List() ranking.List { return s.list.Clone() }

// Item resolves an identifier against the universe.
func (s *Shell) Item(id ranking.ID) (ranking.Item, bool) {
	return s.universe.Resolve(id)
}

// Drafts exposes the draft manager for status reporting.
func (s *Shell) Drafts() *draft.Manager { return s.drafts }

// OnResize registers an observer called after every layout change.
func (s *Shell) OnResize(fn func(LayoutContext)) {
	if fn != nil {
		s.resizeObservers = append(s.resizeObservers, fn)
	}
}

// OnDrag registers an observer for drag start and end.
func (s *Shell) OnDrag(fn func(DragEvent)) {
	if fn != nil {
		s.dragObservers = append(s.dragObservers, fn)
	}
}

// Resize lays the editor out for a body of width x height cells.
func (s *Shell) Resize(width, height int) {
	prev := s.layout
	s.layout = computeLayout(width, height, s.opts.NarrowWidth, prev.Tab, s.opts.Constraints)
	s.remeasure()
	if !prev.PoolGrid.Equal(s.layout.PoolGrid) || !prev.TargetGrid.Equal(s.layout.TargetGrid) {
		log.Debug("grid changed", "width", width,
			"pool_columns", s.layout.PoolGrid.Columns, "target_columns", s.layout.TargetGrid.Columns)
	}
	s.notifyResize()
}

// Layout returns the current layout context.
func (s *Shell) Layout() LayoutContext { return s.layout }

// Tab returns the active tab of the narrow layout.
func (s *Shell) Tab() Pane { return s.layout.Tab }

// SetTab switches the active tab.
func (s *Shell) SetTab(p Pane) {
	if s.layout.Tab == p {
		return
	}
	s.layout.Tab = p
	s.notifyResize()
}

func (s *Shell) notifyResize() {
	for _, fn := range s.resizeObservers {
		fn(s.layout)
	}
}

// remeasure pushes the current grid configs and item counts into the
// virtualizers. It runs on every layout, list, or filter change.
func (s *Shell) remeasure() {
	s.poolVirt.SetGrid(s.layout.PoolGrid, len(s.pool.View()))
	s.poolVirt.SetViewport(s.layout.Pool.H)
	s.targetVirt.SetGrid(s.layout.TargetGrid, len(s.list))
	s.targetVirt.SetViewport(s.layout.Target.H)
}

// Virtualizer returns the virtualizer of pane p.
func (s *Shell) Virtualizer(p Pane) *virtual.Virtualizer {
	if p == PaneTarget {
		return s.targetVirt
	}
	return s.poolVirt
}

// Window returns the visible rows of pane p.
func (s *Shell) Window(p Pane) virtual.Window {
	return s.Virtualizer(p).Window()
}

// ids returns the identifiers laid out in pane p, in grid order.
func (s *Shell) ids(p Pane) []ranking.ID {
	if p == PaneTarget {
		return s.list
	}
	return s.pool.View()
}

// Count returns the number of cards laid out in pane p.
func (s *Shell) Count(p Pane) int {
	return len(s.ids(p))
}

// Row returns the identifiers rendered in one row of pane p.
func (s *Shell) Row(p Pane, row int) []ranking.ID {
	return virtual.Slice(s.ids(p), row, s.layout.Grid(p).Columns)
}

// IDAt returns the identifier at grid index i of pane p.
func (s *Shell) IDAt(p Pane, i int) (ranking.ID, bool) {
	ids := s.ids(p)
	if i < 0 || i >= len(ids) {
		return "", false
	}
	return ids[i], true
}

// Reveal scrolls pane p so grid index i is fully visible.
func (s *Shell) Reveal(p Pane, i int) {
	cols := s.layout.Grid(p).Columns
	if cols <= 0 || i < 0 {
		return
	}
	s.Virtualizer(p).EnsureVisible(i / cols)
}

// ItemAt hit-tests a body cell against the cards of pane p.
func (s *Shell) ItemAt(p Pane, x, y int) (int, ranking.ID, bool) {
	if !s.layout.Visible(p) {
		return 0, "", false
	}
	area := s.layout.Area(p)
	if !area.Contains(x, y) {
		return 0, "", false
	}
	cfg := s.layout.Grid(p)
	col, ok := cfg.ColumnAt(x - area.X)
	if !ok {
		return 0, "", false
	}
	row, ok := s.Virtualizer(p).RowAt(y - area.Y)
	if !ok {
		return 0, "", false
	}
	idx := row*cfg.Columns + col
	id, ok := s.IDAt(p, idx)
	if !ok {
		return 0, "", false
	}
	return idx, id, true
}

// CandidateAt resolves the drop candidate under a body cell. Anywhere in
// the pool pane counts as the pool area. Inside the target pane a card is
// an item candidate and any other cell is the container.
func (s *Shell) CandidateAt(x, y int) drag.Candidate {
	pane, ok := s.layout.PaneAt(x, y)
	if !ok {
		return drag.Candidate{}
	}
	if pane == PanePool {
		return drag.Candidate{Kind: drag.CandidatePoolArea, Index: -1}
	}
	if idx, id, ok := s.ItemAt(PaneTarget, x, y); ok {
		return drag.Candidate{Kind: drag.CandidateItem, Index: idx, ID: id}
	}
	return drag.Candidate{Kind: drag.CandidateContainer, Index: -1}
}

// Press starts a gesture on the card under (x, y). Unavailable pool cards
// cannot be picked up. It reports whether a card was pressed.
func (s *Shell) Press(x, y int, now time.Time) bool {
	if !s.loaded {
		return false
	}
	pane, ok := s.layout.PaneAt(x, y)
	if !ok {
		return false
	}
	_, id, ok := s.ItemAt(pane, x, y)
	if !ok {
		return false
	}
	inst, ok := s.instance(pane, id)
	if !ok {
		return false
	}
	s.engine.Press(inst, drag.Point{X: x, Y: y}, now)
	return true
}

// Motion reports pointer movement. A pending press is fed to the sensor;
// an active drag updates its candidate and scrolls the pane under the
// pointer when it nears an edge. It reports whether anything visible
// changed.
func (s *Shell) Motion(x, y int, now time.Time) bool {
	switch s.engine.State() {
	case drag.Pending:
		if !s.engine.Move(drag.Point{X: x, Y: y}, now) {
			return false
		}
	case drag.Dragging:
	default:
		return false
	}

	s.engine.Hover(s.CandidateAt(x, y))
	if pane, ok := s.layout.PaneAt(x, y); ok {
		area := s.layout.Area(pane)
		s.Virtualizer(pane).AutoScroll(y-area.Y, autoScrollEdge)
	}
	return true
}

// Tick lets hold-to-drag sensors activate without movement.
func (s *Shell) Tick(now time.Time) bool {
	return s.engine.Tick(now)
}

// Release ends the mouse gesture at (x, y) and commits the drop.
func (s *Shell) Release(x, y int) drag.Result {
	if s.engine.Dragging() {
		s.engine.Hover(s.CandidateAt(x, y))
	}
	return s.finish(s.engine.Release(s.list))
}

// PickUp starts a keyboard drag on grid index i of pane p. It skips the
// activation sensor.
func (s *Shell) PickUp(p Pane, i int) bool {
	id, ok := s.IDAt(p, i)
	if !ok {
		return false
	}
	inst, ok := s.instance(p, id)
	if !ok {
		return false
	}
	s.engine.Activate(inst)
	return s.engine.Dragging()
}

// Hover sets the drop candidate directly, for keyboard drags.
func (s *Shell) Hover(c drag.Candidate) {
	s.engine.Hover(c)
}

// Drop commits the active drag at its current candidate.
func (s *Shell) Drop() drag.Result {
	return s.finish(s.engine.Release(s.list))
}

// CancelDrag aborts the active gesture without touching the list.
func (s *Shell) CancelDrag() drag.Result {
	return s.engine.Cancel()
}

// Dragging reports whether a drag is active.
func (s *Shell) Dragging() bool { return s.engine.Dragging() }

// DragState returns the gesture state.
func (s *Shell) DragState() drag.State { return s.engine.State() }

// Lifted reports whether the card inst is being dragged.
func (s *Shell) Lifted(inst drag.Instance) bool { return s.engine.Lifted(inst) }

// ActiveDrag returns the dragged instance.
func (s *Shell) ActiveDrag() (drag.Instance, bool) { return s.engine.Active() }

// DropCandidate returns the current drop candidate.
func (s *Shell) DropCandidate() drag.Candidate { return s.engine.Candidate() }

// DropPreview returns what dropping now would do.
func (s *Shell) DropPreview() drag.Operation { return s.engine.Preview(s.list) }

func (s *Shell) instance(p Pane, id ranking.ID) (drag.Instance, bool) {
	if p == PanePool {
		if !s.pool.Available(id) {
			return drag.Instance{}, false
		}
		return drag.Instance{Origin: drag.Pool, ID: id}, true
	}
	return drag.Instance{Origin: drag.Target, ID: id}, true
}

func (s *Shell) finish(res drag.Result) drag.Result {
	if res.Changed {
		s.commit(res.List)
		log.Debug("drop committed", "action", res.Operation.Action.String(),
			"item", string(res.Operation.ID), "from", res.Operation.From, "to", res.Operation.To)
	}
	return res
}

func (s *Shell) onDragStart(inst drag.Instance) {
	// In the tabbed layout the target pane is hidden while browsing the
	// pool, so a pool drag brings it forward to give the card somewhere to
	// land.
	if inst.Origin == drag.Pool && s.layout.Narrow && s.layout.Tab == PanePool {
		s.SetTab(PaneTarget)
	}
	for _, fn := range s.dragObservers {
		fn(DragEvent{Started: true, Instance: inst})
	}
}

func (s *Shell) onDragEnd(inst drag.Instance, res drag.Result) {
	for _, fn := range s.dragObservers {
		fn(DragEvent{Instance: inst, Result: res})
	}
}

// commit makes list the new target list: the draft manager records it, the
// pool flags follow, and the target virtualizer is re-measured.
func (s *Shell) commit(list ranking.List) {
	s.list = list.Clone()
	if err := s.drafts.Update(s.list); err != nil {
		log.Warn("draft update rejected", "ranking", s.opts.RankingID, "error", err)
	}
	s.pool.SetPlaced(s.list)
	s.remeasure()
}

// Append adds an available pool item to the end of the ranking.
func (s *Shell) Append(id ranking.ID) bool {
	if !s.pool.Available(id) {
		return false
	}
	return s.apply(drag.Decide(drag.Instance{Origin: drag.Pool, ID: id}, drag.Candidate{Kind: drag.CandidateContainer}, s.list))
}

// Remove takes id out of the ranking.
func (s *Shell) Remove(id ranking.ID) bool {
	return s.apply(drag.Decide(drag.Instance{Origin: drag.Target, ID: id}, drag.Candidate{Kind: drag.CandidatePoolArea}, s.list))
}

// MoveTo moves the ranked item id onto the position of other.
func (s *Shell) MoveTo(id, other ranking.ID) bool {
	return s.apply(drag.Decide(drag.Instance{Origin: drag.Target, ID: id},
		drag.Candidate{Kind: drag.CandidateItem, Index: s.list.IndexOf(other), ID: other}, s.list))
}

func (s *Shell) apply(op drag.Operation) bool {
	if !s.loaded {
		return false
	}
	next, changed := drag.Apply(op, s.list)
	if changed {
		s.commit(next)
	}
	return changed
}

// Filter hides pool items that do not match query.
func (s *Shell) Filter(query string) {
	s.pool.Filter(query, s.universe)
	s.poolVirt.ScrollTo(0)
	s.remeasure()
}

// ToggleSort switches the pool between catalog and title order.
func (s *Shell) ToggleSort() ranking.SortMode {
	mode := ranking.SortTitle
	if s.pool.SortMode() == ranking.SortTitle {
		mode = ranking.SortCatalog
	}
	s.pool.SetSort(mode, s.universe)
	s.remeasure()
	return mode
}

// IsDirty reports unsaved changes.
func (s *Shell) IsDirty() bool { return s.drafts.IsDirty() }

// Restored returns the draft adopted on load, if any.
func (s *Shell) Restored() (draft.Record, bool) { return s.drafts.Restored() }

// Save persists the current order. Failures leave the list and draft in
// place; the caller retries by saving again.
func (s *Shell) Save(ctx context.Context) error {
	if !s.loaded {
		return ErrNotLoaded
	}
	return s.drafts.Save(ctx)
}

// Discard drops local edits and returns to the baseline.
func (s *Shell) Discard() {
	if !s.loaded {
		return
	}
	s.engine.Cancel()
	s.drafts.Discard()
	s.list = s.drafts.List()
	s.pool.SetPlaced(s.list)
	s.remeasure()
}

// Close flushes the pending draft write and ends the session.
func (s *Shell) Close() {
	s.engine.Cancel()
	s.drafts.Flush()
	s.drafts.Close()
}
