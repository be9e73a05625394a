package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/idilsaglam/checklist/internal/logfields"
	"github.com/idilsaglam/checklist/internal/metrics"
	"github.com/idilsaglam/checklist/internal/model"
	"github.com/idilsaglam/checklist/internal/permission"
	"github.com/idilsaglam/checklist/internal/policy"
	"github.com/idilsaglam/checklist/internal/store"
)

// ItemGetter is the slice of the store the worker needs.
type ItemGetter interface {
	Get(ctx context.Context, id int64) (model.Item, error)
}

// Job identifies one firing.
type Job struct {
	Key    string
	Kind   policy.Kind
	ItemID int64
}

type Result int

const (
	ResultSuccess Result = iota
	// ResultSkipped: nothing to deliver (item gone, no longer eligible, no grant).
	ResultSkipped
	ResultFailure
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return metrics.ResultSuccess
	case ResultSkipped:
		return metrics.ResultSkipped
	default:
		return metrics.ResultFailure
	}
}

// Worker runs on the scheduler's goroutines. It only reads items through
// the store and never mutates them.
type Worker struct {
	items ItemGetter
	perm  permission.Checker
	sinks []Sink
	rec   metrics.Recorder
	now   func() time.Time
}

type WorkerOption func(*Worker)

func WithRecorder(r metrics.Recorder) WorkerOption { return func(w *Worker) { w.rec = r } }
func WithNow(now func() time.Time) WorkerOption    { return func(w *Worker) { w.now = now } }

func NewWorker(items ItemGetter, perm permission.Checker, sinks []Sink, opts ...WorkerOption) *Worker {
	w := &Worker{
		items: items,
		perm:  perm,
		sinks: sinks,
		rec:   metrics.Noop{},
		now:   time.Now,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Run executes job. Errors and panics are reported as ResultFailure.
func (w *Worker) Run(ctx context.Context, job Job) (res Result) {
	log := slog.With(logfields.ItemID(job.ItemID), logfields.ScheduleKey(job.Key))
	defer func() {
		if r := recover(); r != nil {
			log.Error("Reminder worker panicked", slog.Any("panic", r))
			res = ResultFailure
		}
		w.rec.IncDelivery(string(job.Kind), res.String())
	}()

	it, err := w.items.Get(ctx, job.ItemID)
	if errors.Is(err, store.ErrNotFound) {
		log.Debug("Reminder for deleted item dropped")
		return ResultSkipped
	}
	if err != nil {
		log.Error("Reminder worker could not load item", logfields.Error(err))
		return ResultFailure
	}

	if !w.perm.Granted() {
		log.Error("Notification permission not granted")
		return ResultSkipped
	}
	if !eligible(it, job.Kind) {
		log.Debug("Item no longer wants this reminder")
		return ResultSkipped
	}

	n := NewNotification(it, job.Kind, w.now())
	if err := w.deliver(ctx, n); err != nil {
		log.Error("Error sending notification", logfields.Error(err))
		return ResultFailure
	}
	log.Debug("Notification sent", logfields.NotificationID(n.ID))
	return ResultSuccess
}

func eligible(it model.Item, kind policy.Kind) bool {
	switch kind {
	case policy.KindInterval:
		return it.Reminding()
	case policy.KindRepeat:
		return it.RepeatType != model.RepeatNone
	}
	return false
}

func (w *Worker) deliver(ctx context.Context, n Notification) error {
	var errs []error
	for _, s := range w.sinks {
		if r, ok := s.(ChannelRegistrar); ok {
			r.EnsureChannel(ReminderChannel)
		}
		if err := s.Deliver(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", s, err))
		}
	}
	return errors.Join(errs...)
}
