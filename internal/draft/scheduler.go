package draft

import "time"

// Timer is a cancellable handle for one scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler schedules debounced callbacks. Production code uses
// time.AfterFunc; tests substitute a manual scheduler so debounce behaviour
// is deterministic.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
