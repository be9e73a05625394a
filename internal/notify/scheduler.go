package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/idilsaglam/checklist/internal/logfields"
	"github.com/idilsaglam/checklist/internal/metrics"
	"github.com/idilsaglam/checklist/internal/model"
	"github.com/idilsaglam/checklist/internal/permission"
	"github.com/idilsaglam/checklist/internal/policy"
)

// Runner executes a firing. *Worker is the production runner.
type Runner interface {
	Run(ctx context.Context, job Job) Result
}

type SchedulerOptions struct {
	Policy     policy.Options
	Location   *time.Location
	Clock      clockwork.Clock
	Recorder   metrics.Recorder
	Dismissers []Dismisser
}

// Scheduler implements the schedule and cancel primitives on gocron.
// Each key maps to at most one gocron job; issuing a key again replaces it.
type Scheduler struct {
	cron       gocron.Scheduler
	runner     Runner
	perm       permission.Checker
	opts       policy.Options
	loc        *time.Location
	clock      clockwork.Clock
	rec        metrics.Recorder
	dismissers []Dismisser

	// ctx is handed to every firing; cancelled by Stop.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]uuid.UUID
}

func NewScheduler(runner Runner, perm permission.Checker, opt SchedulerOptions) (*Scheduler, error) {
	if opt.Clock == nil {
		opt.Clock = clockwork.NewRealClock()
	}
	if opt.Location == nil {
		opt.Location = time.Local
	}
	if opt.Recorder == nil {
		opt.Recorder = metrics.Noop{}
	}
	cron, err := gocron.NewScheduler(
		gocron.WithClock(opt.Clock),
		gocron.WithLocation(opt.Location),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:       cron,
		runner:     runner,
		perm:       perm,
		opts:       opt.Policy,
		loc:        opt.Location,
		clock:      opt.Clock,
		rec:        opt.Recorder,
		dismissers: opt.Dismissers,
		ctx:        ctx,
		cancel:     cancel,
		entries:    map[string]uuid.UUID{},
	}, nil
}

func (s *Scheduler) Start() {
	slog.Info("Starting reminder scheduler")
	s.cron.Start()
}

func (s *Scheduler) Stop() error {
	slog.Info("Stopping reminder scheduler")
	s.cancel()
	return s.cron.Shutdown()
}

// Schedule replaces every entry of it with the ones policy.Plan asks for.
// Without the notification grant it logs and does nothing; callers are
// expected to have checked already.
func (s *Scheduler) Schedule(ctx context.Context, it model.Item) error {
	if !s.perm.Granted() {
		slog.Error("Notification permission not granted", logfields.ItemID(it.ID))
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(it.ID)
	s.dismiss(ctx, it.ID)

	var errs []error
	for _, req := range policy.Plan(it, s.opts) {
		if err := s.addLocked(req); err != nil {
			errs = append(errs, err)
		}
	}
	s.rec.SetActiveSchedules(len(s.entries))
	return errors.Join(errs...)
}

// Cancel removes both entry kinds for id and any visible reminder.
// Safe to call when nothing is scheduled.
func (s *Scheduler) Cancel(ctx context.Context, id int64) error {
	s.mu.Lock()
	s.removeLocked(id)
	s.rec.SetActiveSchedules(len(s.entries))
	s.mu.Unlock()

	s.dismiss(ctx, id)
	slog.Debug("Cancelled reminders", logfields.ItemID(id))
	return nil
}

// Active lists the registered keys, sorted.
func (s *Scheduler) Active() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key is registered.
func (s *Scheduler) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

// NextRun returns when key fires next.
func (s *Scheduler) NextRun(key string) (time.Time, error) {
	s.mu.Lock()
	id, ok := s.entries[key]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, fmt.Errorf("no schedule %q", key)
	}
	for _, j := range s.cron.Jobs() {
		if j.ID() == id {
			return j.NextRun()
		}
	}
	return time.Time{}, fmt.Errorf("schedule %q already ran", key)
}

func (s *Scheduler) removeLocked(id int64) {
	for _, key := range policy.Keys(id) {
		jobID, ok := s.entries[key]
		if !ok {
			continue
		}
		delete(s.entries, key)
		if err := s.cron.RemoveJob(jobID); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
			slog.Warn("Failed to remove schedule", logfields.ScheduleKey(key), logfields.Error(err))
		}
	}
}

func (s *Scheduler) dismiss(ctx context.Context, id int64) {
	for _, d := range s.dismissers {
		if err := d.Dismiss(ctx, id); err != nil {
			slog.Warn("Failed to dismiss reminder", logfields.ItemID(id), logfields.Error(err))
		}
	}
}

func (s *Scheduler) addLocked(req policy.Request) error {
	def, err := s.definition(req)
	if err != nil {
		return err
	}
	job := Job{Key: req.Key, Kind: req.Kind, ItemID: req.ItemID}
	oneShot := req.Kind == policy.KindRepeat && !req.Calendar

	jobID := uuid.New()
	task := func() {
		s.runner.Run(s.ctx, job)
		if oneShot {
			s.forget(req.Key, jobID)
		}
	}

	opts := []gocron.JobOption{
		gocron.WithIdentifier(jobID),
		gocron.WithName(req.Key),
		gocron.WithTags(req.Key),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if req.Kind == policy.KindInterval {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartDateTime(s.clock.Now().Add(req.FirstAfter))))
	}

	if _, err := s.cron.NewJob(def, gocron.NewTask(task), opts...); err != nil {
		return fmt.Errorf("schedule %s: %w", req.Key, err)
	}
	s.entries[req.Key] = jobID

	slog.Debug("Scheduled reminder",
		logfields.ScheduleKey(req.Key),
		logfields.Kind(string(req.Kind)),
		logfields.Interval(req.Every.String()),
		logfields.Repeat(req.Repeat.String()))
	return nil
}

// forget drops a finished one-shot entry unless it was replaced meanwhile.
func (s *Scheduler) forget(key string, jobID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.entries[key]; ok && cur == jobID {
		delete(s.entries, key)
		s.rec.SetActiveSchedules(len(s.entries))
	}
}

func (s *Scheduler) definition(req policy.Request) (gocron.JobDefinition, error) {
	now := s.clock.Now().In(s.loc)
	switch {
	case req.Kind == policy.KindInterval:
		return gocron.DurationJob(req.Every), nil
	case !req.Calendar:
		return gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(now.Add(req.Delay))), nil
	}

	at := gocron.NewAtTimes(gocron.NewAtTime(uint(req.Hour), uint(req.Minute), 0))
	switch req.Repeat {
	case model.RepeatDaily:
		return gocron.DailyJob(1, at), nil
	case model.RepeatWeekly:
		return gocron.WeeklyJob(1, gocron.NewWeekdays(now.Weekday()), at), nil
	case model.RepeatMonthly:
		return gocron.MonthlyJob(1, gocron.NewDaysOfTheMonth(now.Day()), at), nil
	case model.RepeatYearly:
		return gocron.CronJob(fmt.Sprintf("%d %d %d %d *", req.Minute, req.Hour, now.Day(), int(now.Month())), false), nil
	}
	return nil, fmt.Errorf("schedule %s: no calendar for repeat type %s", req.Key, req.Repeat)
}
