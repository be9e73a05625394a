// Package checklist is the only place items change. Every mutation goes
// through the store's read-modify-write, is fed to the scheduling policy,
// and the resulting schedule/cancel actions are applied before returning.
package checklist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/idilsaglam/checklist/internal/logfields"
	"github.com/idilsaglam/checklist/internal/model"
	"github.com/idilsaglam/checklist/internal/permission"
	"github.com/idilsaglam/checklist/internal/policy"
	"github.com/idilsaglam/checklist/internal/store"
)

type Service struct {
	store store.Store
	exec  policy.Executor
	perm  permission.Checker
	log   *slog.Logger
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.log = l } }

func New(st store.Store, exec policy.Executor, perm permission.Checker, opts ...Option) *Service {
	s := &Service{store: st, exec: exec, perm: perm, log: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Store exposes the underlying store for read-only consumers (Observe).
func (s *Service) Store() store.Store { return s.store }

func (s *Service) Items(ctx context.Context) ([]model.Item, error) {
	return s.store.All(ctx)
}

// Add inserts a fresh item. New items are never completed, so nothing is scheduled.
func (s *Service) Add(ctx context.Context, text string) (model.Item, error) {
	it := model.NewItem(text)
	it.Normalize()
	if err := it.Validate(); err != nil {
		return model.Item{}, err
	}
	id, err := s.store.Insert(ctx, it)
	if err != nil {
		return model.Item{}, fmt.Errorf("add item: %w", err)
	}
	it.ID = id
	s.log.Debug("Item added", logfields.ItemID(id))
	return it, nil
}

// SetCompleted toggles the reminder switch. Turning it off also clears the cross-out.
func (s *Service) SetCompleted(ctx context.Context, id int64, completed bool) (model.Item, error) {
	return s.mutate(ctx, id, func(it *model.Item) error {
		it.IsCompleted = completed
		if !completed {
			it.IsMarkedComplete = false
		}
		return nil
	})
}

// SetMarkedComplete crosses an item out or restores it. Crossing out an
// item that is not completed is a no-op.
func (s *Service) SetMarkedComplete(ctx context.Context, id int64, marked bool) (model.Item, error) {
	return s.mutate(ctx, id, func(it *model.Item) error {
		it.IsMarkedComplete = marked && it.IsCompleted
		return nil
	})
}

func (s *Service) ToggleCrossOut(ctx context.Context, id int64) (model.Item, error) {
	return s.mutate(ctx, id, func(it *model.Item) error {
		it.IsMarkedComplete = !it.IsMarkedComplete && it.IsCompleted
		return nil
	})
}

// Complete completes and crosses out in one write, or undoes the
// cross-out when the item is already crossed out.
func (s *Service) Complete(ctx context.Context, id int64) (model.Item, error) {
	return s.mutate(ctx, id, func(it *model.Item) error {
		if it.IsMarkedComplete {
			it.IsMarkedComplete = false
			return nil
		}
		it.IsCompleted = true
		it.IsMarkedComplete = true
		return nil
	})
}

// Settings are the reminder fields editable from the settings dialog.
type Settings struct {
	IntervalMinutes int
	Repeat          model.RepeatType
	Hour            int
	Minute          int
}

func SettingsOf(it model.Item) Settings {
	return Settings{
		IntervalMinutes: it.NotificationIntervalMinutes,
		Repeat:          it.RepeatType,
		Hour:            it.RepeatHour,
		Minute:          it.RepeatMinute,
	}
}

func (s *Service) UpdateSettings(ctx context.Context, id int64, set Settings) (model.Item, error) {
	if !set.Repeat.Valid() {
		return model.Item{}, fmt.Errorf("%w: repeat type %d", model.ErrInvalidItem, int(set.Repeat))
	}
	return s.mutate(ctx, id, func(it *model.Item) error {
		it.NotificationIntervalMinutes = set.IntervalMinutes
		it.RepeatType = set.Repeat
		it.RepeatHour = set.Hour
		it.RepeatMinute = set.Minute
		return nil
	})
}

// Delete cancels the item's schedules and then removes the row. The
// removed item is returned so the caller can offer an undo.
func (s *Service) Delete(ctx context.Context, id int64) (model.Item, error) {
	it, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Item{}, err
	}
	if err := policy.Apply(ctx, policy.DecideDelete(), it, s.exec); err != nil {
		return it, err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return it, fmt.Errorf("delete item %d: %w", id, err)
	}
	s.log.Debug("Item deleted", logfields.ItemID(id))
	return it, nil
}

// Restore re-inserts a deleted item under a new id and re-arms its
// reminders as if it had just been completed.
func (s *Service) Restore(ctx context.Context, it model.Item) (model.Item, error) {
	id, err := s.store.Insert(ctx, it)
	if err != nil {
		return model.Item{}, fmt.Errorf("restore item: %w", err)
	}
	restored, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Item{}, err
	}
	fresh := restored
	fresh.IsCompleted, fresh.IsMarkedComplete = false, false
	d := policy.Decide(&fresh, restored, s.perm.Granted())
	return restored, s.apply(ctx, d, restored)
}

// CompleteFromNotification handles the "Mark as completed" action. A
// missing item is logged and ignored.
func (s *Service) CompleteFromNotification(ctx context.Context, id int64) error {
	_, err := s.mutate(ctx, id, func(it *model.Item) error {
		it.IsCompleted = true
		it.IsMarkedComplete = true
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		s.log.Warn("Notification action for missing item", logfields.ItemID(id))
		return nil
	}
	if err != nil {
		return err
	}
	// the item may already have been crossed out, in which case Decide
	// saw no transition; cancel anyway so a visible reminder goes away
	return s.exec.Cancel(ctx, id)
}

// Reconcile re-issues schedules for every reminding item. Used at startup
// since nothing outlives the process.
func (s *Service) Reconcile(ctx context.Context) error {
	items, err := s.store.All(ctx)
	if err != nil {
		return err
	}
	var errs []error
	needs := false
	for _, it := range items {
		if !it.Reminding() {
			continue
		}
		if !s.perm.Granted() {
			needs = true
			continue
		}
		if err := s.exec.Schedule(ctx, it); err != nil {
			errs = append(errs, fmt.Errorf("schedule %d: %w", it.ID, err))
		}
	}
	if needs {
		errs = append(errs, policy.ErrNeedsPermission)
	}
	return errors.Join(errs...)
}

func (s *Service) mutate(ctx context.Context, id int64, fn func(*model.Item) error) (model.Item, error) {
	before, after, err := s.store.Mutate(ctx, id, fn)
	if err != nil {
		return model.Item{}, err
	}
	d := policy.Decide(&before, after, s.perm.Granted())
	return after, s.apply(ctx, d, after)
}

func (s *Service) apply(ctx context.Context, d policy.Decision, it model.Item) error {
	if d.Empty() {
		return nil
	}
	s.log.Debug("Applying reminder decision", logfields.ItemID(it.ID), slog.Any("actions", d.Actions))
	err := policy.Apply(ctx, d, it, s.exec)
	if errors.Is(err, policy.ErrNeedsPermission) {
		s.log.Info("Notification permission needed", logfields.ItemID(it.ID))
	}
	return err
}
