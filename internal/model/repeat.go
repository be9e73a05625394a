package model

import (
	"fmt"
	"strings"
)

// RepeatType selects the calendar cadence of a repeat reminder.
type RepeatType int

const (
	RepeatNone RepeatType = iota
	RepeatDaily
	RepeatWeekly
	RepeatMonthly
	RepeatYearly
)

// RepeatTypes lists every value in display order.
var RepeatTypes = []RepeatType{RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly, RepeatYearly}

func (r RepeatType) String() string {
	switch r {
	case RepeatNone:
		return "none"
	case RepeatDaily:
		return "daily"
	case RepeatWeekly:
		return "weekly"
	case RepeatMonthly:
		return "monthly"
	case RepeatYearly:
		return "yearly"
	}
	return fmt.Sprintf("repeat(%d)", int(r))
}

// Title is the notification title used for reminders of this type.
func (r RepeatType) Title() string {
	switch r {
	case RepeatDaily:
		return "Daily Reminder"
	case RepeatWeekly:
		return "Weekly Reminder"
	case RepeatMonthly:
		return "Monthly Reminder"
	case RepeatYearly:
		return "Yearly Reminder"
	default:
		return "Checklist Reminder"
	}
}

func (r RepeatType) Valid() bool { return r >= RepeatNone && r <= RepeatYearly }

// ParseRepeatType accepts the String form, case-insensitively.
func ParseRepeatType(s string) (RepeatType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return RepeatNone, nil
	case "daily":
		return RepeatDaily, nil
	case "weekly":
		return RepeatWeekly, nil
	case "monthly":
		return RepeatMonthly, nil
	case "yearly":
		return RepeatYearly, nil
	}
	return RepeatNone, fmt.Errorf("%w: unknown repeat type %q", ErrInvalidItem, s)
}

func (r RepeatType) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: unknown repeat type %d", ErrInvalidItem, int(r))
	}
	return []byte(r.String()), nil
}

func (r *RepeatType) UnmarshalText(b []byte) error {
	v, err := ParseRepeatType(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
