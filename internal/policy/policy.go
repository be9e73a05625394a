// Package policy decides which reminder schedules an item change creates or
// cancels. It is pure: side effects only happen through an Executor in Apply.
package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/idilsaglam/checklist/internal/model"
)

// ErrNeedsPermission signals that a schedule was wanted but notifications
// are not allowed. Callers should prompt for the grant.
var ErrNeedsPermission = errors.New("notification permission required")

type Action int

const (
	ActionCancel Action = iota + 1
	ActionSchedule
	ActionNeedPermission
)

func (a Action) String() string {
	switch a {
	case ActionCancel:
		return "cancel"
	case ActionSchedule:
		return "schedule"
	case ActionNeedPermission:
		return "need-permission"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Decision is the ordered list of actions for one transition.
type Decision struct {
	Actions []Action
}

func (d Decision) has(a Action) bool {
	for _, x := range d.Actions {
		if x == a {
			return true
		}
	}
	return false
}

func (d Decision) Cancels() bool         { return d.has(ActionCancel) }
func (d Decision) Schedules() bool       { return d.has(ActionSchedule) }
func (d Decision) NeedsPermission() bool { return d.has(ActionNeedPermission) }
func (d Decision) Empty() bool           { return len(d.Actions) == 0 }

// Decide maps a transition from old (nil for a fresh insert) to next.
// permitted is the caller's answer from the permission checker.
func Decide(old *model.Item, next model.Item, permitted bool) Decision {
	if old == nil {
		return Decision{}
	}
	scheduleOr := func(prefix ...Action) Decision {
		if permitted {
			return Decision{Actions: append(prefix, ActionSchedule)}
		}
		return Decision{Actions: []Action{ActionNeedPermission}}
	}

	switch {
	case old.IsCompleted && !next.IsCompleted:
		return Decision{Actions: []Action{ActionCancel}}
	case !old.IsMarkedComplete && next.IsMarkedComplete:
		// cross-out wins over a simultaneous completion
		return Decision{Actions: []Action{ActionCancel}}
	case !old.IsCompleted && next.IsCompleted:
		return scheduleOr()
	case old.IsMarkedComplete && !next.IsMarkedComplete && next.IsCompleted:
		return scheduleOr()
	case next.Reminding() && model.SettingsChanged(*old, next):
		return scheduleOr(ActionCancel)
	}
	return Decision{}
}

// DecideDelete is the decision for removing an item: always cancel.
func DecideDelete() Decision {
	return Decision{Actions: []Action{ActionCancel}}
}

// Executor owns the two scheduling primitives.
type Executor interface {
	Schedule(ctx context.Context, it model.Item) error
	Cancel(ctx context.Context, id int64) error
}

// Apply runs d against exec for item it. ErrNeedsPermission is returned
// (possibly joined with executor errors) when d asks for the grant.
func Apply(ctx context.Context, d Decision, it model.Item, exec Executor) error {
	var errs []error
	for _, a := range d.Actions {
		switch a {
		case ActionCancel:
			if err := exec.Cancel(ctx, it.ID); err != nil {
				errs = append(errs, fmt.Errorf("cancel %d: %w", it.ID, err))
			}
		case ActionSchedule:
			if err := exec.Schedule(ctx, it); err != nil {
				errs = append(errs, fmt.Errorf("schedule %d: %w", it.ID, err))
			}
		case ActionNeedPermission:
			errs = append(errs, ErrNeedsPermission)
		}
	}
	return errors.Join(errs...)
}

// OnlyNeedsPermission reports whether err carries nothing but
// ErrNeedsPermission, however it was wrapped or joined.
func OnlyNeedsPermission(err error) bool {
	if err == nil {
		return false
	}
	if err == ErrNeedsPermission {
		return true
	}
	switch e := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if !OnlyNeedsPermission(inner) {
				return false
			}
		}
		return true
	case interface{ Unwrap() error }:
		return OnlyNeedsPermission(e.Unwrap())
	}
	return false
}
