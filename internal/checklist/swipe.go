package checklist

import (
	"context"
	"fmt"
	"strings"

	"github.com/idilsaglam/checklist/internal/logfields"
	"github.com/idilsaglam/checklist/internal/model"
	"github.com/idilsaglam/checklist/internal/policy"
	"github.com/idilsaglam/checklist/internal/swipe"
)

// Binding is what a committed swipe does. Swiping towards the start
// always deletes; the end direction depends on the binding.
type Binding int

const (
	// DeleteOrCrossOut toggles the cross-out on a start→end swipe.
	DeleteOrCrossOut Binding = iota
	// DeleteOrComplete completes and crosses out, or undoes that when the
	// item is already crossed out.
	DeleteOrComplete
)

func (b Binding) String() string {
	if b == DeleteOrComplete {
		return "complete"
	}
	return "cross"
}

func ParseBinding(s string) (Binding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cross":
		return DeleteOrCrossOut, nil
	case "complete":
		return DeleteOrComplete, nil
	}
	return 0, fmt.Errorf("unknown swipe binding %q", s)
}

// Outcome is filled in by the Confirm callback returned from Confirmer.
type Outcome struct {
	Value   swipe.Value
	Item    model.Item
	Deleted bool
	// NeedsPermission is set when the action wanted a schedule it could not have.
	NeedsPermission bool
	Err             error
}

// Confirmer returns the swipe.Confirm for the row holding id under b.
// The action runs inside the callback; a failed action rejects the swipe.
func (s *Service) Confirmer(ctx context.Context, b Binding, id int64, out *Outcome) swipe.Confirm {
	return func(candidate swipe.Value) bool {
		var (
			it  model.Item
			err error
		)
		switch candidate {
		case swipe.DismissedToStart:
			it, err = s.Delete(ctx, id)
			out.Deleted = err == nil
		case swipe.DismissedToEnd:
			if b == DeleteOrComplete {
				it, err = s.Complete(ctx, id)
			} else {
				it, err = s.ToggleCrossOut(ctx, id)
			}
		default:
			return false
		}

		out.Value, out.Item = candidate, it
		if policy.OnlyNeedsPermission(err) {
			// the write itself went through
			out.NeedsPermission = true
			return true
		}
		if err != nil {
			out.Err = err
			s.log.Error("Swipe action failed", logfields.ItemID(id), logfields.Error(err))
			return false
		}
		return true
	}
}
