package checklist

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/idilsaglam/checklist/internal/logfields"
	"github.com/idilsaglam/checklist/internal/model"
	"github.com/idilsaglam/checklist/internal/permission"
	"github.com/idilsaglam/checklist/internal/policy"
)

// Passive is the executor for processes that do not own the scheduler.
// Their writes reach the owner through the store, where a Syncer applies them.
type Passive struct{}

func (Passive) Schedule(context.Context, model.Item) error { return nil }
func (Passive) Cancel(context.Context, int64) error        { return nil }

// Syncer keeps an executor in step with the store. It diffs consecutive
// snapshots and runs each change through the same policy as Service, so
// writes made by any process end up scheduled once, by the owner.
type Syncer struct {
	exec  policy.Executor
	perm  permission.Checker
	items func(ctx context.Context) ([]model.Item, error)
	log   *slog.Logger

	mu        sync.Mutex
	prev      map[int64]model.Item
	permitted bool
	primed    bool
}

func NewSyncer(exec policy.Executor, perm permission.Checker, items func(ctx context.Context) ([]model.Item, error)) *Syncer {
	return &Syncer{exec: exec, perm: perm, items: items, log: slog.Default()}
}

// Run applies every snapshot from updates until it is closed or ctx ends.
func (s *Syncer) Run(ctx context.Context, updates <-chan []model.Item) {
	for {
		select {
		case <-ctx.Done():
			return
		case items, ok := <-updates:
			if !ok {
				return
			}
			s.Apply(ctx, items)
		}
	}
}

// Apply diffs items against the previous snapshot. The first snapshot,
// and any item seen for the first time, schedules whatever is reminding.
func (s *Syncer) Apply(ctx context.Context, items []model.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(ctx, items)
}

func (s *Syncer) applyLocked(ctx context.Context, items []model.Item) {
	permitted := s.perm.Granted()
	next := make(map[int64]model.Item, len(items))
	needs := 0
	for _, it := range items {
		next[it.ID] = it
		old, seen := s.prev[it.ID]

		var d policy.Decision
		switch {
		case seen:
			d = policy.Decide(&old, it, permitted)
		case it.Reminding() && permitted:
			d = policy.Decision{Actions: []policy.Action{policy.ActionSchedule}}
		case it.Reminding():
			d = policy.Decision{Actions: []policy.Action{policy.ActionNeedPermission}}
		}
		if err := policy.Apply(ctx, d, it, s.exec); err != nil {
			if errors.Is(err, policy.ErrNeedsPermission) {
				needs++
			}
			if !policy.OnlyNeedsPermission(err) {
				s.log.Error("Failed to apply reminder decision", logfields.ItemID(it.ID), logfields.Error(err))
			}
		}
	}
	for id, old := range s.prev {
		if _, ok := next[id]; ok {
			continue
		}
		if err := policy.Apply(ctx, policy.DecideDelete(), old, s.exec); err != nil {
			s.log.Error("Failed to cancel reminders of deleted item", logfields.ItemID(id), logfields.Error(err))
		}
	}
	if needs > 0 {
		s.log.Warn("Reminders waiting for notification permission; run `checklist notify grant`", slog.Int("items", needs))
	}
	s.prev = next
	s.permitted = permitted
	s.primed = true
}

// PermissionChanged re-evaluates every item after the grant changed:
// granting arms reminding items, revoking cancels everything. The reload
// and the re-evaluation happen under the same lock as Apply, so a snapshot
// applied concurrently is never diffed against an older reload.
func (s *Syncer) PermissionChanged(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.perm.Granted()
	if s.primed && now == s.permitted {
		return
	}
	items, err := s.items(ctx)
	if err != nil {
		s.log.Error("Failed to reload items after permission change", logfields.Error(err))
		return
	}
	if !now {
		s.log.Info("Notification permission revoked; cancelling reminders")
		for _, it := range items {
			if err := s.exec.Cancel(ctx, it.ID); err != nil {
				s.log.Error("Failed to cancel reminder", logfields.ItemID(it.ID), logfields.Error(err))
			}
		}
		s.prev = indexByID(items)
		s.permitted = false
		return
	}
	s.log.Info("Notification permission granted; arming reminders")
	s.prev = nil
	s.applyLocked(ctx, items)
}

func indexByID(items []model.Item) map[int64]model.Item {
	out := make(map[int64]model.Item, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out
}
