package policy

import (
	"fmt"
	"time"

	"github.com/idilsaglam/checklist/internal/model"
)

type Kind string

const (
	KindInterval Kind = "interval"
	KindRepeat   Kind = "repeat"
)

type RepeatMode string

const (
	// RepeatPreview is a single notification shortly after scheduling.
	RepeatPreview RepeatMode = "preview"
	// RepeatCalendar recurs daily/weekly/monthly/yearly at hour:minute.
	RepeatCalendar RepeatMode = "calendar"
)

// Options are the scheduling constants.
type Options struct {
	// Unit is the unit of NotificationIntervalMinutes and InitialDelay.
	Unit     time.Duration
	Fallback int
	// InitialDelay is counted in Unit.
	InitialDelay int
	PreviewDelay time.Duration
	RepeatMode   RepeatMode
}

// DefaultOptions: minutes, fallback 10, first fire after one minute,
// repeat preview after ten seconds.
func DefaultOptions() Options {
	return Options{
		Unit:         time.Minute,
		Fallback:     model.DefaultIntervalMinutes,
		InitialDelay: 1,
		PreviewDelay: 10 * time.Second,
		RepeatMode:   RepeatPreview,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Unit <= 0 {
		o.Unit = d.Unit
	}
	if o.Fallback <= 0 {
		o.Fallback = d.Fallback
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = d.InitialDelay
	}
	if o.PreviewDelay <= 0 {
		o.PreviewDelay = d.PreviewDelay
	}
	if o.RepeatMode == "" {
		o.RepeatMode = d.RepeatMode
	}
	return o
}

// Request is one schedule entry. Key is unique per (item, kind).
type Request struct {
	Key    string
	Kind   Kind
	ItemID int64

	// interval entries
	Every      time.Duration
	FirstAfter time.Duration

	// repeat entries
	Repeat   model.RepeatType
	Hour     int
	Minute   int
	Calendar bool
	// Delay is the one-shot delay when Calendar is false.
	Delay time.Duration
}

func IntervalKey(id int64) string { return fmt.Sprintf("notification_%d", id) }
func RepeatKey(id int64) string   { return fmt.Sprintf("notification_immediate_%d", id) }

// legacy key of an earlier one-shot variant; still cancelled
func onceKey(id int64) string { return fmt.Sprintf("notification_once_%d", id) }

// Keys lists every key Cancel must clear for id.
func Keys(id int64) []string {
	return []string{IntervalKey(id), RepeatKey(id), onceKey(id)}
}

// IntervalMinutes is the interval actually used: the item's, or the
// fallback when it is not positive.
func IntervalMinutes(it model.Item, opt Options) int {
	opt = opt.withDefaults()
	if it.NotificationIntervalMinutes > 0 {
		return it.NotificationIntervalMinutes
	}
	return opt.Fallback
}

// Plan lists the entries schedule(it) issues: an interval entry while the
// item is completed and not crossed out, and a repeat entry whenever a
// repeat type is set.
func Plan(it model.Item, opt Options) []Request {
	opt = opt.withDefaults()
	var out []Request

	if it.Reminding() {
		out = append(out, Request{
			Key:        IntervalKey(it.ID),
			Kind:       KindInterval,
			ItemID:     it.ID,
			Every:      time.Duration(IntervalMinutes(it, opt)) * opt.Unit,
			FirstAfter: time.Duration(opt.InitialDelay) * opt.Unit,
		})
	}

	if it.RepeatType != model.RepeatNone {
		r := Request{
			Key:    RepeatKey(it.ID),
			Kind:   KindRepeat,
			ItemID: it.ID,
			Repeat: it.RepeatType,
			Hour:   it.RepeatHour,
			Minute: it.RepeatMinute,
		}
		if opt.RepeatMode == RepeatCalendar {
			r.Calendar = true
		} else {
			r.Delay = opt.PreviewDelay
		}
		out = append(out, r)
	}
	return out
}
