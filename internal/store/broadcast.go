package store

import (
	"context"
	"sync"

	"github.com/idilsaglam/checklist/internal/model"
)

// Loader reads the current ordered snapshot.
type Loader func(ctx context.Context) ([]model.Item, error)

// Broadcaster fans snapshots out to Observe subscribers. Backends call
// Notify after each committed write.
type Broadcaster struct {
	load Loader
	// publish serializes load+send so a snapshot never overtakes a newer one.
	publish sync.Mutex

	mu     sync.Mutex
	subs   map[int]chan []model.Item
	nextID int
	closed bool
}

func NewBroadcaster(load Loader) *Broadcaster {
	return &Broadcaster{load: load, subs: map[int]chan []model.Item{}}
}

// Subscribe registers a subscriber and primes it with the current snapshot.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan []model.Item, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	ch := make(chan []model.Item, 1)
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	// Registered before loading so no write between the two is missed.
	b.publish.Lock()
	items, err := b.load(ctx)
	if err != nil {
		b.publish.Unlock()
		b.remove(id)
		return nil, err
	}
	b.mu.Lock()
	if _, ok := b.subs[id]; ok {
		select {
		case <-ch:
		default:
		}
		ch <- items
	}
	b.mu.Unlock()
	b.publish.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(id)
	}()
	return ch, nil
}

// Notify loads a fresh snapshot and hands it to every subscriber. A slow
// subscriber only ever sees the newest snapshot.
func (b *Broadcaster) Notify(ctx context.Context) {
	b.mu.Lock()
	n := len(b.subs)
	b.mu.Unlock()
	if n == 0 {
		return
	}

	b.publish.Lock()
	defer b.publish.Unlock()
	items, err := b.load(ctx)
	if err != nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case <-ch:
		default:
		}
		ch <- clone(items)
	}
}

// Close ends every subscription.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}

func (b *Broadcaster) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
	}
}

func clone(items []model.Item) []model.Item {
	out := make([]model.Item, len(items))
	copy(out, items)
	return out
}
