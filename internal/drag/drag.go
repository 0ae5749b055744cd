// Package drag interprets drag gestures against the pool and the target
// list.
//
// The Engine is a small state machine:
//
//	Idle ──press──▶ Pending ──sensor activates──▶ Dragging ──release──▶ Committing ──▶ Idle
//	                   │                              │
//	                   └──release/abort──▶ Idle       └──cancel──▶ Cancelled ──▶ Idle
//
// Pending is the pre-activation window where a press has not yet moved far
// enough (pointer) or been held long enough (hold) to count as a drag; a
// release there is a tap and produces no notifications. While Dragging, the
// front end reports the current drop candidate with Hover. Nothing mutates
// until Release, which resolves the candidate through Decide and hands back
// at most one new list. Cancel never mutates.
//
// Dragged cards are addressed by Instance, which carries its origin. The
// origin is fixed when the gesture starts and is never re-derived from list
// membership at drop time, so the same identifier rendered in both panes
// during a transitional frame cannot be confused.
package drag

import (
	"time"

	"github.com/treykane/cli-rank/internal/ranking"
)

// Origin identifies which collection a dragged card was picked up from.
type Origin int

const (
	// Pool is the source collection.
	Pool Origin = iota + 1
	// Target is the ranking under edit.
	Target
)

func (o Origin) String() string {
	switch o {
	case Pool:
		return "pool"
	case Target:
		return "target"
	default:
		return "none"
	}
}

// Instance addresses one rendered card independently of its identifier.
type Instance struct {
	Origin Origin
	ID     ranking.ID
}

// Key returns a render key that is unique across both panes.
func (i Instance) Key() string {
	return i.Origin.String() + ":" + string(i.ID)
}

// CandidateKind classifies what the pointer is currently over.
type CandidateKind int

const (
	// CandidateNone means no valid drop target.
	CandidateNone CandidateKind = iota
	// CandidateItem is a card in the target list.
	CandidateItem
	// CandidateContainer is the empty area of the target list.
	CandidateContainer
	// CandidatePoolArea is anywhere over the pool pane.
	CandidatePoolArea
)

// Candidate is the current drop target. For CandidateItem, Index is the
// position the card was rendered at and ID is its identifier.
type Candidate struct {
	Kind  CandidateKind
	Index int
	ID    ranking.ID
}

// State is the engine's gesture state.
type State int

const (
	Idle State = iota
	Pending
	Dragging
	Committing
	Cancelled
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Dragging:
		return "dragging"
	case Committing:
		return "committing"
	case Cancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// Point is a position in terminal cells.
type Point struct {
	X, Y int
}

// Result is the outcome of a finished gesture.
type Result struct {
	Instance  Instance
	Operation Operation
	List      ranking.List // the list after the operation; equal to the input when unchanged
	Changed   bool
	Cancelled bool
}

// Hooks receive exactly one start/end pair per activated gesture.
type Hooks struct {
	OnStart func(Instance)
	OnEnd   func(Instance, Result)
}

// Engine is the drag-reorder state machine. It is not safe for concurrent
// use; drive it from the UI event loop.
type Engine struct {
	sensor Sensor
	hooks  Hooks

	state     State
	active    Instance
	pressAt   Point
	pressTime time.Time
	candidate Candidate
}

// NewEngine returns an idle engine. A nil sensor activates on press.
func NewEngine(sensor Sensor, hooks Hooks) *Engine {
	if sensor == nil {
		sensor = PointerSensor{}
	}
	return &Engine{sensor: sensor, hooks: hooks}
}

// SetSensor swaps the activation sensor. It only affects gestures that
// start after the call.
func (e *Engine) SetSensor(sensor Sensor) {
	if sensor != nil {
		e.sensor = sensor
	}
}

// State returns the current gesture state.
func (e *Engine) State() State {
	return e.state
}

// Dragging reports whether a gesture is active.
func (e *Engine) Dragging() bool {
	return e.state == Dragging
}

// Active returns the instance being dragged, or pressed while pending.
func (e *Engine) Active() (Instance, bool) {
	if e.state != Dragging && e.state != Pending {
		return Instance{}, false
	}
	return e.active, true
}

// Lifted reports whether inst is the card currently being dragged.
func (e *Engine) Lifted(inst Instance) bool {
	return e.state == Dragging && e.active == inst
}

// Candidate returns the current drop candidate.
func (e *Engine) Candidate() Candidate {
	return e.candidate
}

// Press begins a gesture on inst. Any gesture already in progress is
// cancelled first. If the sensor activates immediately the engine goes
// straight to Dragging.
func (e *Engine) Press(inst Instance, at Point, now time.Time) {
	if e.state != Idle {
		e.Cancel()
	}
	if inst.ID == "" {
		return
	}
	e.state = Pending
	e.active = inst
	e.pressAt = at
	e.pressTime = now
	e.candidate = Candidate{}
	if e.sensor.Check(at, at, e.pressTime, now) == Activate {
		e.start()
	}
}

// Move reports pointer movement. While pending it feeds the sensor and
// reports whether the gesture activated; a sensor abort returns to Idle
// silently.
func (e *Engine) Move(to Point, now time.Time) bool {
	if e.state != Pending {
		return false
	}
	switch e.sensor.Check(e.pressAt, to, e.pressTime, now) {
	case Activate:
		e.start()
		return true
	case Abort:
		e.reset()
	}
	return false
}

// Tick lets time-based sensors activate without movement.
func (e *Engine) Tick(now time.Time) bool {
	return e.Move(e.pressAt, now)
}

// Activate starts a drag on inst immediately, skipping the sensor. It is
// used for keyboard pick-up.
func (e *Engine) Activate(inst Instance) {
	if e.state != Idle {
		e.Cancel()
	}
	if inst.ID == "" {
		return
	}
	e.active = inst
	e.candidate = Candidate{}
	e.start()
}

// Hover records the current drop candidate. It is presentation-only and
// ignored unless a drag is active.
func (e *Engine) Hover(c Candidate) {
	if e.state != Dragging {
		return
	}
	e.candidate = c
}

// Preview resolves what a drop would do right now, for drop indicators.
func (e *Engine) Preview(list ranking.List) Operation {
	if e.state != Dragging {
		return noop("", "not dragging")
	}
	return Decide(e.active, e.candidate, list)
}

// Release ends the gesture. A pending press is a tap and returns an empty
// result without notifications. An active drag commits: the candidate is
// resolved against list and at most one new list is returned.
func (e *Engine) Release(list ranking.List) Result {
	switch e.state {
	case Pending:
		res := Result{Instance: e.active, Operation: noop(e.active.ID, "tap"), List: list.Clone()}
		e.reset()
		return res
	case Dragging:
	default:
		return Result{Operation: noop("", "idle"), List: list.Clone()}
	}

	e.state = Committing
	inst := e.active
	op := Decide(inst, e.candidate, list)
	next, changed := Apply(op, list)
	if !changed && op.Action != NoOp {
		op = noop(inst.ID, "rejected")
	}
	res := Result{Instance: inst, Operation: op, List: next, Changed: changed}
	e.reset()
	if e.hooks.OnEnd != nil {
		e.hooks.OnEnd(inst, res)
	}
	return res
}

// Cancel aborts the gesture with zero mutation.
func (e *Engine) Cancel() Result {
	inst := e.active
	wasDragging := e.state == Dragging
	if e.state == Idle {
		return Result{Cancelled: true, Operation: noop("", "idle")}
	}
	e.state = Cancelled
	res := Result{Instance: inst, Operation: noop(inst.ID, "cancelled"), Cancelled: true}
	e.reset()
	if wasDragging && e.hooks.OnEnd != nil {
		e.hooks.OnEnd(inst, res)
	}
	return res
}

func (e *Engine) start() {
	e.state = Dragging
	if e.hooks.OnStart != nil {
		e.hooks.OnStart(e.active)
	}
}

func (e *Engine) reset() {
	e.state = Idle
	e.active = Instance{}
	e.candidate = Candidate{}
	e.pressTime = time.Time{}
	e.pressAt = Point{}
}
