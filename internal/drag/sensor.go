package drag

import "time"

// Activation is a sensor verdict for a pending press.
type Activation int

const (
	// Wait keeps the press pending.
	Wait Activation = iota
	// Activate promotes the press to a drag.
	Activate
	// Abort drops the press without starting a drag.
	Abort
)

// Sensor decides when a press becomes a drag. Activation thresholds keep
// taps and scrolls from being misread as drags.
type Sensor interface {
	Check(origin, current Point, pressed, now time.Time) Activation
}

// PointerSensor activates once the pointer has travelled Distance cells
// from the press point. A Distance of zero activates on press.
type PointerSensor struct {
	Distance int
}

// Check implements Sensor.
func (s PointerSensor) Check(origin, current Point, _, _ time.Time) Activation {
	if distance(origin, current) >= s.Distance {
		return Activate
	}
	return Wait
}

// HoldSensor activates after the press has been held for Delay without
// moving more than Tolerance cells. Moving further before the delay elapses
// aborts the press, which lets the gesture fall through to scrolling.
type HoldSensor struct {
	Delay     time.Duration
	Tolerance int
}

// Check implements Sensor.
func (s HoldSensor) Check(origin, current Point, pressed, now time.Time) Activation {
	if distance(origin, current) > s.Tolerance {
		return Abort
	}
	if now.Sub(pressed) >= s.Delay {
		return Activate
	}
	return Wait
}

// distance is the Chebyshev distance, which matches how far a pointer looks
// to have moved on a cell grid.
func distance(a, b Point) int {
	return max(abs(a.X-b.X), abs(a.Y-b.Y))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
