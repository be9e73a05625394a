package checklist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/checklist/internal/model"
)

func item(id int64, completed, marked bool) model.Item {
	it := model.NewItem("item")
	it.ID = id
	it.IsCompleted = completed
	it.IsMarkedComplete = marked
	return it
}

func TestSyncerPrimesFromFirstSnapshot(t *testing.T) {
	exec := &recordingExec{}
	s := NewSyncer(exec, granted(), nil)

	s.Apply(context.Background(), []model.Item{item(1, true, false), item(2, false, false), item(3, true, true)})
	assert.Equal(t, []call{{"schedule", 1}}, exec.take())

	// same snapshot again: nothing changed
	s.Apply(context.Background(), []model.Item{item(1, true, false), item(2, false, false), item(3, true, true)})
	assert.Empty(t, exec.take())
}

func TestSyncerAppliesDiffs(t *testing.T) {
	ctx := context.Background()
	exec := &recordingExec{}
	s := NewSyncer(exec, granted(), nil)
	s.Apply(ctx, []model.Item{item(1, false, false), item(2, true, false)})
	exec.take()

	changed := item(2, true, false)
	changed.NotificationIntervalMinutes = 3
	s.Apply(ctx, []model.Item{item(1, true, false), changed})
	assert.Equal(t, []call{{"schedule", 1}, {"cancel", 2}, {"schedule", 2}}, exec.take())

	// 2 deleted elsewhere, 4 inserted already reminding
	s.Apply(ctx, []model.Item{item(1, true, true), item(4, true, false)})
	got := exec.take()
	assert.ElementsMatch(t, []call{{"cancel", 1}, {"schedule", 4}, {"cancel", 2}}, got)
}

func TestSyncerFollowsPermission(t *testing.T) {
	ctx := context.Background()
	exec := &recordingExec{}
	perm := &switchPerm{}
	items := []model.Item{item(1, true, false), item(2, false, false)}
	s := NewSyncer(exec, perm, func(context.Context) ([]model.Item, error) { return items, nil })

	s.Apply(ctx, items)
	assert.Empty(t, exec.take(), "nothing armed without the grant")

	perm.on.Store(true)
	s.PermissionChanged(ctx)
	assert.Equal(t, []call{{"schedule", 1}}, exec.take())

	s.PermissionChanged(ctx)
	assert.Empty(t, exec.take(), "no change, no work")

	perm.on.Store(false)
	s.PermissionChanged(ctx)
	assert.Equal(t, []call{{"cancel", 1}, {"cancel", 2}}, exec.take())
}

func TestSyncerGrantDoesNotRollBackNewerSnapshot(t *testing.T) {
	ctx := context.Background()
	exec := &recordingExec{}
	perm := &switchPerm{}
	reminding := []model.Item{item(1, true, false)}
	crossed := []model.Item{item(1, true, true)}

	var s *Syncer
	applied := make(chan struct{})
	// while the grant reloads, the store moves on and Run applies it
	reload := func(context.Context) ([]model.Item, error) {
		go func() {
			s.Apply(ctx, crossed)
			close(applied)
		}()
		return reminding, nil
	}
	s = NewSyncer(exec, perm, reload)
	s.Apply(ctx, reminding)
	require.Empty(t, exec.take())

	perm.on.Store(true)
	s.PermissionChanged(ctx)
	<-applied

	// the crossed-out snapshot lands last, so the item ends up cancelled
	assert.Equal(t, []call{{"schedule", 1}, {"cancel", 1}}, exec.take())
}

func TestSyncerRunStopsWhenUpdatesClose(t *testing.T) {
	exec := &recordingExec{}
	s := NewSyncer(exec, granted(), nil)
	updates := make(chan []model.Item, 2)
	updates <- []model.Item{item(1, true, false)}
	updates <- nil
	close(updates)

	done := make(chan struct{})
	go func() {
		s.Run(context.Background(), updates)
		close(done)
	}()
	<-done
	require.Equal(t, []call{{"schedule", 1}, {"cancel", 1}}, exec.take())
}
