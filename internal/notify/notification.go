// Package notify delivers checklist reminders: the gocron-backed scheduler,
// the worker that runs on each firing, and the places a reminder ends up.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/idilsaglam/checklist/internal/model"
	"github.com/idilsaglam/checklist/internal/policy"
)

type Importance int

const (
	ImportanceDefault Importance = iota
	ImportanceHigh
)

func (i Importance) String() string {
	if i == ImportanceHigh {
		return "high"
	}
	return "default"
}

// Channel groups reminders. It is registered once per process; registering
// it again is harmless.
type Channel struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Importance  Importance      `json:"importance"`
	Vibration   []time.Duration `json:"vibration"`
}

// ReminderChannel is the one channel every reminder is posted to.
var ReminderChannel = Channel{
	ID:          "checklist_reminders",
	Name:        "Checklist Reminders",
	Description: "Reminders for your checklist items",
	Importance:  ImportanceHigh,
	Vibration:   []time.Duration{time.Second, time.Second, time.Second, time.Second},
}

// ActionComplete is the action attached to every reminder.
const ActionComplete = "complete"

type Action struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Notification is one delivered reminder.
type Notification struct {
	ID          string      `json:"id"`
	ChannelID   string      `json:"channel_id"`
	ItemID      int64       `json:"item_id"`
	Kind        policy.Kind `json:"kind"`
	Title       string      `json:"title"`
	Text        string      `json:"text"`
	Importance  Importance  `json:"importance"`
	Actions     []Action    `json:"actions"`
	DeliveredAt time.Time   `json:"delivered_at"`
}

// NewNotification builds the reminder for it. The title follows the repeat type.
func NewNotification(it model.Item, kind policy.Kind, now time.Time) Notification {
	return Notification{
		ID:         uuid.NewString(),
		ChannelID:  ReminderChannel.ID,
		ItemID:     it.ID,
		Kind:       kind,
		Title:      it.RepeatType.Title(),
		Text:       it.Text,
		Importance: ReminderChannel.Importance,
		Actions: []Action{
			{Name: ActionComplete, Label: "Mark as completed"},
		},
		DeliveredAt: now,
	}
}

func (n Notification) String() string {
	return fmt.Sprintf("%s: %s", n.Title, n.Text)
}

// Sink is somewhere a reminder is shown or sent.
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

// Dismisser retracts an already delivered reminder for an item.
type Dismisser interface {
	Dismiss(ctx context.Context, itemID int64) error
}

// ChannelRegistrar is implemented by sinks that need the channel up front.
type ChannelRegistrar interface {
	EnsureChannel(ch Channel)
}
