package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/idilsaglam/checklist/internal/logfields"
)

const watchDebounce = 150 * time.Millisecond

// FileWatcher calls onChange whenever the data file is written, by this
// process or another one. Events are debounced; a burst of writes yields one
// callback. A backend's own writes therefore notify twice; Broadcaster keeps
// the resulting snapshots in order.
type FileWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func()
	cancel   context.CancelFunc
	done     chan struct{}
}

// WatchFile starts watching path's directory for writes to path or its
// SQLite sidecar files (-wal, -journal).
func WatchFile(path string, onChange func()) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	// the directory is more reliable than the file across atomic renames
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	fw := &FileWatcher{
		path:     abs,
		watcher:  w,
		onChange: onChange,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go fw.loop(ctx)
	slog.Debug("Watching store file", logfields.Path(abs))
	return fw, nil
}

func (fw *FileWatcher) relevant(name string) bool {
	base := filepath.Base(name)
	own := filepath.Base(fw.path)
	return base == own || strings.HasPrefix(base, own+"-")
}

func (fw *FileWatcher) loop(ctx context.Context) {
	defer close(fw.done)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.relevant(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			fw.onChange()
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Store watcher error", logfields.Error(err))
		}
	}
}

// Close stops the watcher and waits for its goroutine.
func (fw *FileWatcher) Close() error {
	fw.cancel()
	err := fw.watcher.Close()
	<-fw.done
	return err
}
