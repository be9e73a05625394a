package notify

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Tray holds the reminders currently visible, at most one per item
// (a newer reminder for the same item replaces the older one).
type Tray struct {
	mu       sync.Mutex
	channels map[string]Channel
	visible  map[int64]Notification
	changes  chan struct{}
}

func NewTray() *Tray {
	return &Tray{
		channels: map[string]Channel{},
		visible:  map[int64]Notification{},
		changes:  make(chan struct{}, 1),
	}
}

func (t *Tray) EnsureChannel(ch Channel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.channels[ch.ID] = ch
}

// Channel returns a registered channel.
func (t *Tray) Channel(id string) (Channel, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.channels[id]
	return ch, ok
}

func (t *Tray) Deliver(_ context.Context, n Notification) error {
	t.mu.Lock()
	if _, ok := t.channels[n.ChannelID]; !ok {
		t.mu.Unlock()
		return fmt.Errorf("tray: channel %q not registered", n.ChannelID)
	}
	t.visible[n.ItemID] = n
	t.mu.Unlock()
	t.signal()
	return nil
}

func (t *Tray) Dismiss(_ context.Context, itemID int64) error {
	t.mu.Lock()
	_, ok := t.visible[itemID]
	delete(t.visible, itemID)
	t.mu.Unlock()
	if ok {
		t.signal()
	}
	return nil
}

// Visible lists shown reminders, oldest first.
func (t *Tray) Visible() []Notification {
	t.mu.Lock()
	out := make([]Notification, 0, len(t.visible))
	for _, n := range t.visible {
		out = append(out, n)
	}
	t.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].DeliveredAt.Equal(out[j].DeliveredAt) {
			return out[i].ItemID < out[j].ItemID
		}
		return out[i].DeliveredAt.Before(out[j].DeliveredAt)
	})
	return out
}

// Changes receives a value whenever the visible set changes. Bursts coalesce.
func (t *Tray) Changes() <-chan struct{} { return t.changes }

func (t *Tray) signal() {
	select {
	case t.changes <- struct{}{}:
	default:
	}
}
