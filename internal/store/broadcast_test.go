package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/checklist/internal/model"
)

// versionedLoader returns one item whose completion mirrors the version,
// and can park the next load until released.
type versionedLoader struct {
	version atomic.Int64
	park    atomic.Bool
	parked  chan struct{}
	release chan struct{}
}

func newVersionedLoader() *versionedLoader {
	l := &versionedLoader{parked: make(chan struct{}, 1), release: make(chan struct{})}
	l.version.Store(1)
	return l
}

func (l *versionedLoader) load(context.Context) ([]model.Item, error) {
	v := l.version.Load()
	if l.park.CompareAndSwap(true, false) {
		l.parked <- struct{}{}
		<-l.release
	}
	it := model.NewItem("Buy milk")
	it.ID = 1
	it.IsCompleted = v == 2
	return []model.Item{it}, nil
}

func TestSubscribePrimesWithCurrentSnapshot(t *testing.T) {
	l := newVersionedLoader()
	b := NewBroadcaster(l.load)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx)
	require.NoError(t, err)
	items := <-ch
	require.Len(t, items, 1)
	assert.False(t, items[0].IsCompleted)
}

func TestNotifyNeverPublishesAnOlderSnapshotLast(t *testing.T) {
	l := newVersionedLoader()
	b := NewBroadcaster(l.load)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx)
	require.NoError(t, err)
	<-ch

	// first notifier reads version 1 and stalls before publishing
	l.park.Store(true)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		b.Notify(ctx)
	}()
	<-l.parked

	// the store moves on and a second notifier runs
	l.version.Store(2)
	go func() {
		defer wg.Done()
		b.Notify(ctx)
	}()

	close(l.release)
	wg.Wait()

	var latest []model.Item
	select {
	case latest = <-ch:
	default:
		t.Fatal("no snapshot published")
	}
	require.Len(t, latest, 1)
	assert.True(t, latest[0].IsCompleted, "subscriber must end on the newest snapshot")
}

func TestCloseEndsSubscriptions(t *testing.T) {
	b := NewBroadcaster(newVersionedLoader().load)
	ch, err := b.Subscribe(context.Background())
	require.NoError(t, err)
	<-ch

	b.Close()
	_, ok := <-ch
	assert.False(t, ok)

	_, err = b.Subscribe(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestWatchFileSeesOwnWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checklist.json")
	var calls atomic.Int32
	w, err := WatchFile(path, func() { calls.Add(1) })
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.txt"), []byte("x"), 0o600))

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)
}
