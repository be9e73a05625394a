// Package jsonstore keeps the checklist in a single human-readable JSON file.
//
// Writers are serialized by a mutex inside the process and by a flock lock
// file across processes, so the daemon and the TUI can share one file.
package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/idilsaglam/checklist/internal/logfields"
	"github.com/idilsaglam/checklist/internal/model"
	"github.com/idilsaglam/checklist/internal/store"
)

const lockRetry = 25 * time.Millisecond

// file is the on-disk document.
type file struct {
	NextID int64        `json:"next_id"`
	Items  []model.Item `json:"items"`
}

// Store implements store.Store on a JSON file.
type Store struct {
	path    string
	lock    *flock.Flock
	mu      sync.Mutex
	bc      *store.Broadcaster
	watcher *store.FileWatcher
}

type Options struct {
	Watch bool
}

func Open(path string, opt Options) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	s := &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}
	s.bc = store.NewBroadcaster(s.All)
	if opt.Watch {
		w, err := store.WatchFile(path, func() { s.bc.Notify(context.Background()) })
		if err != nil {
			slog.Warn("Store watch disabled", logfields.Path(path), logfields.Error(err))
		} else {
			s.watcher = w
		}
	}
	return s, nil
}

func (s *Store) load() (file, error) {
	var f file
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return file{NextID: 1, Items: []model.Item{}}, nil
		}
		return f, fmt.Errorf("read file: %w", err)
	}
	if len(b) == 0 {
		return file{NextID: 1, Items: []model.Item{}}, nil
	}
	if err := json.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("json unmarshal: %w", err)
	}
	if f.Items == nil {
		f.Items = []model.Item{}
	}
	for _, it := range f.Items {
		if it.ID >= f.NextID {
			f.NextID = it.ID + 1
		}
	}
	if f.NextID < 1 {
		f.NextID = 1
	}
	return f, nil
}

// save writes atomically through a temp file so readers never see a torn document.
func (s *Store) save(f file) error {
	sort.Slice(f.Items, func(i, j int) bool { return f.Items[i].ID < f.Items[j].ID })
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// withLock runs fn holding both the process mutex and the file lock.
func (s *Store) withLock(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	locked, err := s.lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("lock %s: %w", s.lock.Path(), err)
	}
	if !locked {
		return fmt.Errorf("lock %s: not acquired", s.lock.Path())
	}
	defer func() { _ = s.lock.Unlock() }()
	return fn()
}

func (s *Store) All(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	err := s.withLock(ctx, func() error {
		f, err := s.load()
		if err != nil {
			return err
		}
		items = f.Items
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
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
	var id int64
	err := s.withLock(ctx, func() error {
		f, err := s.load()
		if err != nil {
			return err
		}
		id = f.NextID
		f.NextID++
		it.ID = id
		f.Items = append(f.Items, it)
		return s.save(f)
	})
	if err != nil {
		return 0, err
	}
	s.bc.Notify(ctx)
	return id, nil
}

func (s *Store) Update(ctx context.Context, it model.Item) error {
	it.Normalize()
	if err := it.Validate(); err != nil {
		return err
	}
	err := s.withLock(ctx, func() error {
		f, err := s.load()
		if err != nil {
			return err
		}
		i := indexOf(f.Items, it.ID)
		if i < 0 {
			return fmt.Errorf("item %d: %w", it.ID, store.ErrNotFound)
		}
		f.Items[i] = it
		return s.save(f)
	})
	if err != nil {
		return err
	}
	s.bc.Notify(ctx)
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	changed := false
	err := s.withLock(ctx, func() error {
		f, err := s.load()
		if err != nil {
			return err
		}
		i := indexOf(f.Items, id)
		if i < 0 {
			return nil
		}
		f.Items = append(f.Items[:i], f.Items[i+1:]...)
		changed = true
		return s.save(f)
	})
	if err != nil {
		return err
	}
	if changed {
		s.bc.Notify(ctx)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id int64) (model.Item, error) {
	var it model.Item
	err := s.withLock(ctx, func() error {
		f, err := s.load()
		if err != nil {
			return err
		}
		i := indexOf(f.Items, id)
		if i < 0 {
			return fmt.Errorf("item %d: %w", id, store.ErrNotFound)
		}
		it = f.Items[i]
		return nil
	})
	return it, err
}

func (s *Store) Mutate(ctx context.Context, id int64, fn func(*model.Item) error) (model.Item, model.Item, error) {
	var before, after model.Item
	err := s.withLock(ctx, func() error {
		f, err := s.load()
		if err != nil {
			return err
		}
		i := indexOf(f.Items, id)
		if i < 0 {
			return fmt.Errorf("item %d: %w", id, store.ErrNotFound)
		}
		before = f.Items[i]
		after = before
		if err := fn(&after); err != nil {
			return err
		}
		after.ID = before.ID
		after.Normalize()
		if err := after.Validate(); err != nil {
			return err
		}
		f.Items[i] = after
		return s.save(f)
	})
	if err != nil {
		return before, after, err
	}
	s.bc.Notify(ctx)
	return before, after, nil
}

func (s *Store) Close() error {
	if s.watcher != nil {
		_ = s.watcher.Close()
	}
	s.bc.Close()
	return s.lock.Close()
}

func indexOf(items []model.Item, id int64) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
