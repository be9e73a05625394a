// Package app wires configuration into a running checklist: the store, the
// notification grant, the reminder scheduler and the service the UIs call.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/idilsaglam/checklist/internal/checklist"
	"github.com/idilsaglam/checklist/internal/config"
	"github.com/idilsaglam/checklist/internal/logfields"
	"github.com/idilsaglam/checklist/internal/metrics"
	"github.com/idilsaglam/checklist/internal/notify"
	"github.com/idilsaglam/checklist/internal/permission"
	"github.com/idilsaglam/checklist/internal/policy"
	"github.com/idilsaglam/checklist/internal/store"
	"github.com/idilsaglam/checklist/internal/store/jsonstore"
	"github.com/idilsaglam/checklist/internal/store/sqlitestore"
)

const (
	schedulerLockName = "scheduler.lock"
	lockRetry         = 15 * time.Second
)

// OpenStore opens the configured backend.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	path := cfg.StorePath()
	watch := cfg.Store.Watch && path != ":memory:"
	switch cfg.Store.Backend {
	case config.BackendJSON:
		return jsonstore.Open(path, jsonstore.Options{Watch: watch})
	case config.BackendSQLite:
		return sqlitestore.Open(ctx, path, sqlitestore.Options{Watch: watch})
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// PolicyOptions maps the reminders section onto scheduling constants.
func PolicyOptions(cfg *config.Config) policy.Options {
	return policy.Options{
		Unit:         cfg.Reminders.IntervalUnit,
		Fallback:     cfg.Reminders.FallbackInterval,
		InitialDelay: cfg.Reminders.InitialDelay,
		PreviewDelay: cfg.Reminders.PreviewDelay,
		RepeatMode:   policy.RepeatMode(cfg.Reminders.RepeatMode),
	}
}

// Options select what a process runs besides the store and the service.
type Options struct {
	// LogSink also writes delivered reminders to the log (headless daemon).
	LogSink bool
	// NATS publishes reminders and accepts actions when enabled in config.
	NATS bool
	// Metrics registers the Prometheus recorder when enabled in config.
	Metrics bool
}

// App is one process's view of the checklist. Every process can read and
// write items; only the process holding the scheduler lock fires reminders.
type App struct {
	Config   *config.Config
	Store    store.Store
	Perm     *permission.FileChecker
	Tray     *notify.Tray
	Service  *checklist.Service
	Registry *prom.Registry

	rec   metrics.Recorder
	sinks []notify.Sink
	dism  []notify.Dismisser
	nats  *notify.NATSClient

	lock *flock.Flock

	mu        sync.Mutex
	scheduler *notify.Scheduler
	watchers  []*store.FileWatcher
	cancel    context.CancelFunc
}

func New(ctx context.Context, cfg *config.Config, opt Options) (*App, error) {
	if err := os.MkdirAll(cfg.StateDir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &App{
		Config: cfg,
		Store:  st,
		Perm:   permission.NewFileChecker(cfg.StateDir),
		Tray:   notify.NewTray(),
		rec:    metrics.Noop{},
		lock:   flock.New(filepath.Join(cfg.StateDir, schedulerLockName)),
	}
	a.Tray.EnsureChannel(notify.ReminderChannel)
	a.sinks = []notify.Sink{a.Tray}
	a.dism = []notify.Dismisser{a.Tray}

	if opt.Metrics && cfg.Metrics.Enabled {
		a.Registry = prom.NewRegistry()
		a.rec = metrics.NewPrometheusRecorder(a.Registry)
	}
	if opt.LogSink {
		ls := notify.LogSink{}
		a.sinks = append(a.sinks, ls)
		a.dism = append(a.dism, ls)
	}
	if opt.NATS && cfg.NATS.Enabled {
		nc, err := notify.NewNATSClient(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		a.nats = nc
		a.sinks = append(a.sinks, nc)
		a.dism = append(a.dism, nc)
	}

	// writes only reach the scheduler through the store; see StartReminders
	a.Service = checklist.New(st, checklist.Passive{}, a.Perm)
	return a, nil
}

// StartReminders runs the scheduler in the background for as long as ctx
// lives. If another process owns the scheduler it keeps retrying the lock
// so it can take over when that process exits.
func (a *App) StartReminders(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()

	locked, err := a.lock.TryLock()
	if err != nil {
		cancel()
		return fmt.Errorf("scheduler lock: %w", err)
	}
	if locked {
		return a.runScheduler(ctx)
	}

	slog.Info("Another checklist process is sending reminders; standing by", logfields.Path(a.lock.Path()))
	go func() {
		if ok, err := a.lock.TryLockContext(ctx, lockRetry); err != nil || !ok {
			return
		}
		if err := a.runScheduler(ctx); err != nil {
			slog.Error("Failed to start reminders", logfields.Error(err))
		}
	}()
	return nil
}

func (a *App) runScheduler(ctx context.Context) error {
	worker := notify.NewWorker(a.Store, a.Perm, a.sinks, notify.WithRecorder(a.rec))
	sched, err := notify.NewScheduler(worker, a.Perm, notify.SchedulerOptions{
		Policy:     PolicyOptions(a.Config),
		Location:   a.Config.Location(),
		Recorder:   a.rec,
		Dismissers: a.dism,
	})
	if err != nil {
		return err
	}

	syncer := checklist.NewSyncer(sched, a.Perm, a.Store.All)
	updates, err := a.Store.Observe(ctx)
	if err != nil {
		_ = sched.Stop()
		return fmt.Errorf("observe items: %w", err)
	}

	w, err := store.WatchFile(a.Perm.Path(), func() { syncer.PermissionChanged(ctx) })
	if err != nil {
		slog.Warn("Permission watch disabled", logfields.Error(err))
	}

	a.mu.Lock()
	a.scheduler = sched
	if w != nil {
		a.watchers = append(a.watchers, w)
	}
	a.mu.Unlock()

	sched.Start()
	go syncer.Run(ctx, updates)
	slog.Info("Reminders active", logfields.Path(a.lock.Path()))
	return nil
}

// Scheduler is nil until this process owns the reminders.
func (a *App) Scheduler() *notify.Scheduler {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scheduler
}

// CompleteFromNotification handles the "Mark as completed" action and
// clears the delivered reminder even when the item was already crossed out.
func (a *App) CompleteFromNotification(ctx context.Context, id int64) error {
	a.rec.IncAction(notify.ActionComplete)
	if err := a.Service.CompleteFromNotification(ctx, id); err != nil {
		return err
	}
	if s := a.Scheduler(); s != nil {
		return s.Cancel(ctx, id)
	}
	return nil
}

// ListenForActions subscribes to notification actions over NATS.
func (a *App) ListenForActions(ctx context.Context) error {
	if a.nats == nil {
		return nil
	}
	return a.nats.ListenComplete(ctx, a.CompleteFromNotification)
}

func (a *App) Close() error {
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	sched, watchers := a.scheduler, a.watchers
	a.scheduler, a.watchers = nil, nil
	a.mu.Unlock()

	var errs []error
	for _, w := range watchers {
		errs = append(errs, w.Close())
	}
	if sched != nil {
		errs = append(errs, sched.Stop())
	}
	if a.nats != nil {
		errs = append(errs, a.nats.Close())
	}
	if a.lock.Locked() {
		errs = append(errs, a.lock.Unlock())
	}
	errs = append(errs, a.Store.Close())
	return errors.Join(errs...)
}
