package logfields

import "log/slog"

// Canonical log field names shared across packages.
const (
	KeyItemID      = "item_id"
	KeyScheduleKey = "schedule_key"
	KeyKind        = "kind"
	KeyInterval    = "interval"
	KeyRepeat      = "repeat"
	KeyNotifyID    = "notification_id"
	KeySubject     = "subject"
	KeyPath        = "path"
	KeyBackend     = "backend"
	KeyResult      = "result"
	KeyError       = "error"
)

func ItemID(id int64) slog.Attr         { return slog.Int64(KeyItemID, id) }
func ScheduleKey(k string) slog.Attr    { return slog.String(KeyScheduleKey, k) }
func Kind(k string) slog.Attr           { return slog.String(KeyKind, k) }
func Interval(s string) slog.Attr       { return slog.String(KeyInterval, s) }
func Repeat(r string) slog.Attr         { return slog.String(KeyRepeat, r) }
func NotificationID(id string) slog.Attr { return slog.String(KeyNotifyID, id) }
func Subject(s string) slog.Attr        { return slog.String(KeySubject, s) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func Backend(b string) slog.Attr        { return slog.String(KeyBackend, b) }
func Result(r string) slog.Attr         { return slog.String(KeyResult, r) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
