package model

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultIntervalMinutes is used whenever an item carries no usable interval.
const DefaultIntervalMinutes = 10

// ErrInvalidItem is wrapped by every validation failure.
var ErrInvalidItem = errors.New("invalid item")

// Item is the domain model for a checklist entry.
//
// IsCompleted is the plain check mark; while it is set (and the item is not
// crossed out) interval reminders fire. IsMarkedComplete is the cross-out:
// "done, stop reminding".
type Item struct {
	ID                          int64      `json:"id"`
	Text                        string     `json:"text"`
	IsCompleted                 bool       `json:"is_completed"`
	IsMarkedComplete            bool       `json:"is_marked_complete"`
	NotificationIntervalMinutes int        `json:"notification_interval_minutes"`
	RepeatType                  RepeatType `json:"repeat_type"`
	RepeatHour                  int        `json:"repeat_hour"`
	RepeatMinute                int        `json:"repeat_minute"`
}

// NewItem returns an unsaved item with the default reminder settings.
func NewItem(text string) Item {
	return Item{
		Text:                        strings.TrimSpace(text),
		NotificationIntervalMinutes: DefaultIntervalMinutes,
		RepeatType:                  RepeatNone,
		RepeatHour:                  9,
	}
}

// Normalize enforces the invariants that can be repaired in place:
// cross-out only exists on a completed item, and the repeat time is clamped.
func (it *Item) Normalize() {
	it.Text = strings.TrimSpace(it.Text)
	if !it.IsCompleted {
		it.IsMarkedComplete = false
	}
	it.RepeatHour = clamp(it.RepeatHour, 0, 23)
	it.RepeatMinute = clamp(it.RepeatMinute, 0, 59)
	if it.NotificationIntervalMinutes < 0 {
		it.NotificationIntervalMinutes = 0
	}
}

// Validate reports values that cannot be repaired silently.
func (it Item) Validate() error {
	if strings.TrimSpace(it.Text) == "" {
		return fmt.Errorf("%w: empty text", ErrInvalidItem)
	}
	if it.RepeatHour < 0 || it.RepeatHour > 23 {
		return fmt.Errorf("%w: repeat hour %d out of range", ErrInvalidItem, it.RepeatHour)
	}
	if it.RepeatMinute < 0 || it.RepeatMinute > 59 {
		return fmt.Errorf("%w: repeat minute %d out of range", ErrInvalidItem, it.RepeatMinute)
	}
	if !it.RepeatType.Valid() {
		return fmt.Errorf("%w: unknown repeat type %d", ErrInvalidItem, int(it.RepeatType))
	}
	return nil
}

// EffectiveIntervalMinutes never returns zero.
func (it Item) EffectiveIntervalMinutes() int {
	if it.NotificationIntervalMinutes > 0 {
		return it.NotificationIntervalMinutes
	}
	return DefaultIntervalMinutes
}

// Reminding reports whether interval reminders should be active.
func (it Item) Reminding() bool { return it.IsCompleted && !it.IsMarkedComplete }

// SettingsChanged reports whether any reminder setting differs between a and b.
func SettingsChanged(a, b Item) bool {
	return a.NotificationIntervalMinutes != b.NotificationIntervalMinutes ||
		a.RepeatType != b.RepeatType ||
		a.RepeatHour != b.RepeatHour ||
		a.RepeatMinute != b.RepeatMinute
}

// RepeatTime formats the repeat time of day as HH:MM.
func (it Item) RepeatTime() string {
	return fmt.Sprintf("%02d:%02d", it.RepeatHour, it.RepeatMinute)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
