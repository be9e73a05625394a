package swipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// 400px wide viewport: threshold 100, half 50.
var cfg = NewConfig(400)

func run(cfg Config, confirm Confirm, events ...Event) State {
	var s State
	for _, ev := range events {
		s = Reduce(cfg, s, ev, confirm)
	}
	return s
}

func TestThresholdIsQuarterOfViewport(t *testing.T) {
	assert.InDelta(t, 100.0, cfg.Threshold, 1e-9)
	assert.True(t, cfg.Directions[StartToEnd])
	assert.True(t, cfg.Directions[EndToStart])
}

func TestDragClampsToThreshold(t *testing.T) {
	s := run(cfg, nil, Drag{Delta: 70}, Drag{Delta: 70})
	assert.InDelta(t, 100.0, s.Offset, 1e-9)
	s = run(cfg, nil, Drag{Delta: -500})
	assert.InDelta(t, -100.0, s.Offset, 1e-9)
}

func TestTargetFollowsHalfThreshold(t *testing.T) {
	s := run(cfg, nil, Drag{Delta: 50})
	assert.Equal(t, Default, s.Target, "exactly half is not past it")
	assert.Equal(t, StartToEnd, s.Direction)

	s = Reduce(cfg, s, Drag{Delta: 1}, nil)
	assert.Equal(t, DismissedToEnd, s.Target)
	assert.Equal(t, Default, s.Current, "target is feedback only")

	s = Reduce(cfg, s, Drag{Delta: -80}, nil) // offset -29
	assert.Equal(t, EndToStart, s.Direction)
	assert.Equal(t, Default, s.Target)
	s = Reduce(cfg, s, Drag{Delta: -30}, nil) // offset -59
	assert.Equal(t, DismissedToStart, s.Target)
}

func TestReleaseBelowHalfResetsWithoutConfirm(t *testing.T) {
	called := false
	confirm := func(Value) bool { called = true; return true }

	s := run(cfg, confirm, Drag{Delta: -(50 - 1)}, Release{})
	assert.Equal(t, State{}, s)
	assert.False(t, called)

	s = run(cfg, confirm, Drag{Delta: 50 - 1}, Release{})
	assert.Equal(t, State{}, s)
	assert.False(t, called)
}

func TestReleaseDeleteRejected(t *testing.T) {
	var asked []Value
	confirm := func(v Value) bool { asked = append(asked, v); return false }

	s := run(cfg, confirm, Drag{Delta: -(50 + 1)}, Release{})
	assert.Equal(t, []Value{DismissedToStart}, asked)
	assert.Equal(t, State{}, s)
	assert.False(t, s.Removed())
}

func TestReleaseDeleteConfirmedIsTerminal(t *testing.T) {
	confirm := func(v Value) bool { return v == DismissedToStart }

	s := run(cfg, confirm, Drag{Delta: -80}, Release{})
	assert.Equal(t, DismissedToStart, s.Current)
	assert.True(t, s.Removed())

	after := Reduce(cfg, s, Drag{Delta: 30}, confirm)
	assert.Equal(t, s, after)
	assert.Equal(t, s, Reduce(cfg, s, Settle{}, confirm))
}

func TestReleaseEndCommitsThenSettles(t *testing.T) {
	confirm := func(v Value) bool { return true }

	s := run(cfg, confirm, Drag{Delta: 60}, Release{})
	assert.True(t, s.Committed())
	assert.False(t, s.Removed())

	s = Reduce(cfg, s, Settle{}, confirm)
	assert.Equal(t, State{}, s)
}

func TestDisallowedDirectionIgnored(t *testing.T) {
	onlyDelete := NewConfig(400, EndToStart)
	s := run(onlyDelete, nil, Drag{Delta: 80})
	assert.Equal(t, State{}, s)

	s = run(onlyDelete, nil, Drag{Delta: -30}, Drag{Delta: 10})
	assert.InDelta(t, -30.0, s.Offset, 1e-9, "positive delta is ignored")
}

func TestNilConfirmRejects(t *testing.T) {
	s := run(cfg, nil, Drag{Delta: 90}, Release{})
	assert.Equal(t, State{}, s)
}

func TestRowsAreIndependent(t *testing.T) {
	a := run(cfg, nil, Drag{Delta: 70})
	b := Reduce(cfg, State{}, Drag{Delta: -20}, nil)
	assert.InDelta(t, 70.0, a.Offset, 1e-9)
	assert.InDelta(t, -20.0, b.Offset, 1e-9)
}
