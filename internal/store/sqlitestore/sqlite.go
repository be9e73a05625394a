// Package sqlitestore is the SQLite-backed item table.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/idilsaglam/checklist/internal/logfields"
	"github.com/idilsaglam/checklist/internal/model"
	"github.com/idilsaglam/checklist/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS checklist_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	text TEXT NOT NULL,
	is_completed INTEGER NOT NULL DEFAULT 0,
	is_marked_complete INTEGER NOT NULL DEFAULT 0,
	notification_interval_minutes INTEGER NOT NULL DEFAULT 10,
	repeat_type TEXT NOT NULL DEFAULT 'none',
	repeat_hour INTEGER NOT NULL DEFAULT 9,
	repeat_minute INTEGER NOT NULL DEFAULT 0
);`

const selectColumns = `id, text, is_completed, is_marked_complete, notification_interval_minutes, repeat_type, repeat_hour, repeat_minute`

// Store implements store.Store on SQLite.
type Store struct {
	db   *sql.DB
	path string
	// mu serializes writers inside this process; SQLite's own locking covers
	// other processes.
	mu      sync.Mutex
	bc      *store.Broadcaster
	watcher *store.FileWatcher
}

// Options tune Open.
type Options struct {
	// Watch refreshes observers when another process changes the database.
	Watch bool
}

// Open opens (creating if needed) the database at path. ":memory:" is supported.
func Open(ctx context.Context, path string, opt Options) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, path: path}
	if err := s.initialize(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	s.bc = store.NewBroadcaster(s.All)

	if opt.Watch && path != ":memory:" {
		w, err := store.WatchFile(path, func() { s.bc.Notify(context.Background()) })
		if err != nil {
			slog.Warn("Store watch disabled", logfields.Path(path), logfields.Error(err))
		} else {
			s.watcher = w
		}
	}
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	if s.path != ":memory:" {
		if _, err := s.db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
			return err
		}
	}
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) All(ctx context.Context) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM checklist_items ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return items, nil
}

func (s *Store) Observe(ctx context.Context) (<-chan []model.Item, error) {
	return s.bc.Subscribe(ctx)
}

func (s *Store) Insert(ctx context.Context, it model.Item) (int64, error) {
	it.Normalize()
	if err := it.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO checklist_items (text, is_completed, is_marked_complete, notification_interval_minutes, repeat_type, repeat_hour, repeat_minute)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		it.Text, it.IsCompleted, it.IsMarkedComplete, it.NotificationIntervalMinutes,
		it.RepeatType.String(), it.RepeatHour, it.RepeatMinute,
	)
	s.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}
	s.bc.Notify(ctx)
	return id, nil
}

func (s *Store) Update(ctx context.Context, it model.Item) error {
	it.Normalize()
	if err := it.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	err := updateRow(ctx, s.db, it)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.bc.Notify(ctx)
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM checklist_items WHERE id = ?`, id)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("delete item %d: %w", id, err)
	}
	s.bc.Notify(ctx)
	return nil
}

func (s *Store) Get(ctx context.Context, id int64) (model.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM checklist_items WHERE id = ?`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, fmt.Errorf("item %d: %w", id, store.ErrNotFound)
	}
	return it, err
}

func (s *Store) Mutate(ctx context.Context, id int64, fn func(*model.Item) error) (model.Item, model.Item, error) {
	s.mu.Lock()
	before, after, err := s.mutateTx(ctx, id, fn)
	s.mu.Unlock()
	if err != nil {
		return before, after, err
	}
	s.bc.Notify(ctx)
	return before, after, nil
}

func (s *Store) mutateTx(ctx context.Context, id int64, fn func(*model.Item) error) (before, after model.Item, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return before, after, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	row := tx.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM checklist_items WHERE id = ?`, id)
	before, err = scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return before, after, fmt.Errorf("item %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return before, after, err
	}

	after = before
	if err = fn(&after); err != nil {
		return before, after, err
	}
	after.ID = before.ID
	after.Normalize()
	if err = after.Validate(); err != nil {
		return before, after, err
	}
	if err = updateRow(ctx, tx, after); err != nil {
		return before, after, err
	}
	if err = tx.Commit(); err != nil {
		return before, after, fmt.Errorf("commit: %w", err)
	}
	return before, after, nil
}

func (s *Store) Close() error {
	if s.watcher != nil {
		_ = s.watcher.Close()
	}
	s.bc.Close()
	return s.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateRow(ctx context.Context, db execer, it model.Item) error {
	res, err := db.ExecContext(ctx,
		`UPDATE checklist_items SET text = ?, is_completed = ?, is_marked_complete = ?,
		 notification_interval_minutes = ?, repeat_type = ?, repeat_hour = ?, repeat_minute = ?
		 WHERE id = ?`,
		it.Text, it.IsCompleted, it.IsMarkedComplete, it.NotificationIntervalMinutes,
		it.RepeatType.String(), it.RepeatHour, it.RepeatMinute, it.ID,
	)
	if err != nil {
		return fmt.Errorf("update item %d: %w", it.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update item %d: %w", it.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("item %d: %w", it.ID, store.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (model.Item, error) {
	var it model.Item
	var repeat string
	err := row.Scan(&it.ID, &it.Text, &it.IsCompleted, &it.IsMarkedComplete,
		&it.NotificationIntervalMinutes, &repeat, &it.RepeatHour, &it.RepeatMinute)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return it, err
		}
		return it, fmt.Errorf("scan item: %w", err)
	}
	rt, err := model.ParseRepeatType(repeat)
	if err != nil {
		return it, fmt.Errorf("scan item %d: %w", it.ID, err)
	}
	it.RepeatType = rt
	return it, nil
}
