package policy

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/checklist/internal/model"
)

func item(completed, marked bool) model.Item {
	it := model.NewItem("Buy milk")
	it.ID = 7
	it.IsCompleted = completed
	it.IsMarkedComplete = marked
	return it
}

func TestDecide(t *testing.T) {
	settings := item(true, false)
	settings.NotificationIntervalMinutes = 25

	cases := []struct {
		name      string
		old       model.Item
		next      model.Item
		permitted bool
		want      []Action
	}{
		{"uncomplete cancels", item(true, false), item(false, false), true, []Action{ActionCancel}},
		{"complete schedules", item(false, false), item(true, false), true, []Action{ActionSchedule}},
		{"complete without grant asks", item(false, false), item(true, false), false, []Action{ActionNeedPermission}},
		{"cross-out cancels", item(true, false), item(true, true), true, []Action{ActionCancel}},
		{"cross-out without grant still cancels", item(true, false), item(true, true), false, []Action{ActionCancel}},
		{"complete and cross-out together cancels", item(false, false), item(true, true), true, []Action{ActionCancel}},
		{"undo cross-out reschedules", item(true, true), item(true, false), true, []Action{ActionSchedule}},
		{"undo cross-out without grant asks", item(true, true), item(true, false), false, []Action{ActionNeedPermission}},
		{"settings change reschedules", item(true, false), settings, true, []Action{ActionCancel, ActionSchedule}},
		{"settings change without grant asks", item(true, false), settings, false, []Action{ActionNeedPermission}},
		{"completed true to true is a no-op", item(true, false), item(true, false), true, nil},
		{"settings on crossed-out item is a no-op", item(true, true), func() model.Item { it := item(true, true); it.RepeatType = model.RepeatDaily; return it }(), true, nil},
		{"settings on incomplete item is a no-op", item(false, false), func() model.Item { it := item(false, false); it.NotificationIntervalMinutes = 3; return it }(), true, nil},
		{"rename is a no-op", item(true, false), func() model.Item { it := item(true, false); it.Text = "Buy oat milk"; return it }(), true, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			old := tc.old
			got := Decide(&old, tc.next, tc.permitted)
			assert.Equal(t, tc.want, got.Actions)
		})
	}
}

func TestDecideInsertIsEmpty(t *testing.T) {
	assert.True(t, Decide(nil, item(false, false), true).Empty())
}

func TestDecideDeleteCancels(t *testing.T) {
	d := DecideDelete()
	assert.True(t, d.Cancels())
	assert.False(t, d.Schedules())
}

type recorder struct {
	calls       []string
	scheduleErr error
}

func (r *recorder) Schedule(_ context.Context, it model.Item) error {
	r.calls = append(r.calls, "schedule")
	return r.scheduleErr
}

func (r *recorder) Cancel(_ context.Context, id int64) error {
	r.calls = append(r.calls, "cancel")
	return nil
}

func TestApplyRunsActionsInOrder(t *testing.T) {
	rec := &recorder{}
	err := Apply(context.Background(), Decision{Actions: []Action{ActionCancel, ActionSchedule}}, item(true, false), rec)
	require.NoError(t, err)
	assert.Equal(t, []string{"cancel", "schedule"}, rec.calls)
}

func TestApplySignalsPermission(t *testing.T) {
	rec := &recorder{}
	err := Apply(context.Background(), Decision{Actions: []Action{ActionNeedPermission}}, item(true, false), rec)
	assert.ErrorIs(t, err, ErrNeedsPermission)
	assert.Empty(t, rec.calls)
}

func TestApplyPropagatesExecutorErrors(t *testing.T) {
	boom := errors.New("scheduler down")
	rec := &recorder{scheduleErr: boom}
	err := Apply(context.Background(), Decision{Actions: []Action{ActionSchedule}}, item(true, false), rec)
	assert.ErrorIs(t, err, boom)
}

func TestPlanIntervalEntry(t *testing.T) {
	reqs := Plan(item(true, false), DefaultOptions())
	require.Len(t, reqs, 1)
	r := reqs[0]
	assert.Equal(t, "notification_7", r.Key)
	assert.Equal(t, KindInterval, r.Kind)
	assert.Equal(t, 10*time.Minute, r.Every)
	assert.Equal(t, time.Minute, r.FirstAfter)
}

func TestPlanZeroIntervalUsesFallback(t *testing.T) {
	it := item(true, false)
	it.NotificationIntervalMinutes = 0
	reqs := Plan(it, DefaultOptions())
	require.Len(t, reqs, 1)
	assert.Equal(t, 10*time.Minute, reqs[0].Every)
	assert.Equal(t, 10, IntervalMinutes(it, Options{}))
}

func TestPlanNothingWhenNotReminding(t *testing.T) {
	assert.Empty(t, Plan(item(false, false), DefaultOptions()))
	assert.Empty(t, Plan(item(true, true), DefaultOptions()))
}

func TestPlanRepeatEntry(t *testing.T) {
	it := item(true, true)
	it.RepeatType = model.RepeatWeekly
	it.RepeatHour, it.RepeatMinute = 8, 30

	reqs := Plan(it, DefaultOptions())
	require.Len(t, reqs, 1)
	r := reqs[0]
	assert.Equal(t, "notification_immediate_7", r.Key)
	assert.Equal(t, KindRepeat, r.Kind)
	assert.False(t, r.Calendar)
	assert.Equal(t, 10*time.Second, r.Delay)

	opt := DefaultOptions()
	opt.RepeatMode = RepeatCalendar
	reqs = Plan(it, opt)
	require.Len(t, reqs, 1)
	assert.True(t, reqs[0].Calendar)
	assert.Equal(t, 8, reqs[0].Hour)
	assert.Equal(t, 30, reqs[0].Minute)
}

func TestPlanBothEntries(t *testing.T) {
	it := item(true, false)
	it.RepeatType = model.RepeatDaily
	reqs := Plan(it, DefaultOptions())
	require.Len(t, reqs, 2)
	assert.Equal(t, KindInterval, reqs[0].Kind)
	assert.Equal(t, KindRepeat, reqs[1].Kind)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, []string{"notification_3", "notification_immediate_3", "notification_once_3"}, Keys(3))
}

func TestOnlyNeedsPermission(t *testing.T) {
	assert.False(t, OnlyNeedsPermission(nil))
	assert.True(t, OnlyNeedsPermission(ErrNeedsPermission))
	assert.True(t, OnlyNeedsPermission(errors.Join(ErrNeedsPermission, ErrNeedsPermission)))
	assert.False(t, OnlyNeedsPermission(errors.Join(ErrNeedsPermission, assert.AnError)))
	assert.False(t, OnlyNeedsPermission(assert.AnError))
	assert.True(t, OnlyNeedsPermission(fmt.Errorf("schedule 7: %w", ErrNeedsPermission)))
	assert.False(t, OnlyNeedsPermission(errors.Join(fmt.Errorf("schedule 7: %w", errors.Join(ErrNeedsPermission, assert.AnError)))))
}
