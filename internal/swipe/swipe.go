// Package swipe is the gesture state machine behind a swipeable row.
//
// State is an immutable value; Reduce returns the next one. Each row owns
// its own State, and what a dismissal means is decided by the Confirm
// callback the caller passes in.
package swipe

// Value is the dismiss state of a row.
type Value int

const (
	Default Value = iota
	// DismissedToEnd: swiped start→end.
	DismissedToEnd
	// DismissedToStart: swiped end→start.
	DismissedToStart
)

func (v Value) String() string {
	switch v {
	case DismissedToEnd:
		return "dismissed-to-end"
	case DismissedToStart:
		return "dismissed-to-start"
	default:
		return "default"
	}
}

// Direction is a horizontal swipe direction.
type Direction int

const (
	None Direction = iota
	StartToEnd
	EndToStart
)

// ThresholdFraction of the viewport width a row may travel.
const ThresholdFraction = 0.25

// Config is the per-row geometry.
type Config struct {
	Threshold  float64
	Directions map[Direction]bool
}

// NewConfig derives the threshold from the viewport width. With no
// directions given both are permitted.
func NewConfig(viewportWidth float64, dirs ...Direction) Config {
	if len(dirs) == 0 {
		dirs = []Direction{StartToEnd, EndToStart}
	}
	allowed := make(map[Direction]bool, len(dirs))
	for _, d := range dirs {
		allowed[d] = true
	}
	return Config{Threshold: viewportWidth * ThresholdFraction, Directions: allowed}
}

func (c Config) half() float64 { return c.Threshold / 2 }

// State of one row.
type State struct {
	Offset float64
	// Target is the value a release would ask for; drives colour and icon.
	Target Value
	// Current is the committed value.
	Current   Value
	Direction Direction
}

// Event is a gesture input.
type Event interface{ isEvent() }

// Drag moves the row by Delta (positive is towards the end).
type Drag struct{ Delta float64 }

// Release ends the drag.
type Release struct{}

// Settle snaps a committed, non-removed row back to rest.
type Settle struct{}

func (Drag) isEvent()    {}
func (Release) isEvent() {}
func (Settle) isEvent()  {}

// Confirm is asked on release whether the candidate value may be committed.
type Confirm func(candidate Value) bool

// Reduce returns the state after ev. confirm is only called for a Release
// past half the threshold.
func Reduce(cfg Config, s State, ev Event, confirm Confirm) State {
	if s.Removed() {
		// terminal
		return s
	}
	switch e := ev.(type) {
	case Drag:
		return drag(cfg, s, e.Delta)
	case Release:
		return release(cfg, s, confirm)
	case Settle:
		return State{}
	}
	return s
}

func drag(cfg Config, s State, delta float64) State {
	switch {
	case delta > 0 && cfg.Directions[StartToEnd]:
		s.Offset = min(s.Offset+delta, cfg.Threshold)
	case delta < 0 && cfg.Directions[EndToStart]:
		s.Offset = max(s.Offset+delta, -cfg.Threshold)
	default:
		return s
	}

	switch {
	case s.Offset > 0:
		s.Direction = StartToEnd
		s.Target = Default
		if s.Offset > cfg.half() {
			s.Target = DismissedToEnd
		}
	case s.Offset < 0:
		s.Direction = EndToStart
		s.Target = Default
		if s.Offset < -cfg.half() {
			s.Target = DismissedToStart
		}
	default:
		s.Direction = None
		s.Target = Default
	}
	return s
}

func release(cfg Config, s State, confirm Confirm) State {
	var candidate Value
	switch {
	case s.Offset > cfg.half():
		candidate = DismissedToEnd
	case s.Offset < -cfg.half():
		candidate = DismissedToStart
	default:
		return State{}
	}
	if confirm == nil || !confirm(candidate) {
		return State{}
	}
	s.Current = candidate
	s.Target = candidate
	return s
}

// Removed reports a committed delete; the row leaves the list.
func (s State) Removed() bool { return s.Current == DismissedToStart }

// Committed reports a committed end-direction action; the row stays and
// should receive Settle.
func (s State) Committed() bool { return s.Current == DismissedToEnd }

// Dragging reports a row away from rest.
func (s State) Dragging() bool { return s.Offset != 0 && s.Current == Default }
