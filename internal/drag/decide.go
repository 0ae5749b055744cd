package drag

import "github.com/treykane/cli-rank/internal/ranking"

// Action is the kind of mutation a drop resolves to.
type Action int

const (
	// NoOp leaves the target list untouched.
	NoOp Action = iota
	// Reorder moves an item already in the target list to a new index.
	Reorder
	// Insert places a pool item immediately before an existing target item.
	Insert
	// Append places a pool item at the end of the target list.
	Append
	// Remove takes a target item out of the ranking (dropped back on the pool).
	Remove
)

func (a Action) String() string {
	switch a {
	case Reorder:
		return "reorder"
	case Insert:
		return "insert"
	case Append:
		return "append"
	case Remove:
		return "remove"
	default:
		return "noop"
	}
}

// Operation is the resolved outcome of a drop. From and To are target list
// indexes; From is -1 for pool items and To is -1 when unused.
type Operation struct {
	Action Action
	ID     ranking.ID
	From   int
	To     int
	Reason string
}

func noop(id ranking.ID, reason string) Operation {
	return Operation{Action: NoOp, ID: id, From: -1, To: -1, Reason: reason}
}

// Decide applies the drop decision table to the dragged instance, the
// current drop candidate, and the target list as it is at drop time.
//
// Item candidates are re-resolved by identifier rather than trusted by
// index, so a target that moved or vanished mid-gesture cannot produce a
// mutation at the wrong position. Any case the table does not accept is a
// no-op with a reason.
func Decide(active Instance, candidate Candidate, list ranking.List) Operation {
	if active.ID == "" {
		return noop(active.ID, "nothing dragged")
	}

	over := -1
	switch candidate.Kind {
	case CandidateNone:
		return noop(active.ID, "no drop target")
	case CandidateItem:
		over = list.IndexOf(candidate.ID)
		if over < 0 {
			return noop(active.ID, "drop target vanished")
		}
	}

	switch active.Origin {
	case Pool:
		if list.Contains(active.ID) {
			return noop(active.ID, "already ranked")
		}
		switch candidate.Kind {
		case CandidateItem:
			return Operation{Action: Insert, ID: active.ID, From: -1, To: over}
		case CandidateContainer:
			return Operation{Action: Append, ID: active.ID, From: -1, To: len(list)}
		default:
			return noop(active.ID, "dropped on pool")
		}
	case Target:
		from := list.IndexOf(active.ID)
		if from < 0 {
			return noop(active.ID, "dragged item vanished")
		}
		switch candidate.Kind {
		case CandidateItem:
			if over == from {
				return noop(active.ID, "same position")
			}
			return Operation{Action: Reorder, ID: active.ID, From: from, To: over}
		case CandidatePoolArea:
			return Operation{Action: Remove, ID: active.ID, From: from, To: -1}
		default:
			return noop(active.ID, "no valid target")
		}
	}
	return noop(active.ID, "unknown origin")
}

// Apply performs op against list and returns the new list. The input list is
// never modified. The boolean is false when nothing changed.
func Apply(op Operation, list ranking.List) (ranking.List, bool) {
	switch op.Action {
	case Reorder:
		return list.Move(op.From, op.To)
	case Insert:
		return list.InsertAt(op.ID, op.To)
	case Append:
		return list.Append(op.ID)
	case Remove:
		return list.Remove(op.ID)
	default:
		return list.Clone(), false
	}
}
