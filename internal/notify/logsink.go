package notify

import (
	"context"
	"log/slog"

	"github.com/idilsaglam/checklist/internal/logfields"
)

// LogSink writes reminders to the structured log. Used by the headless daemon.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s LogSink) Deliver(ctx context.Context, n Notification) error {
	s.logger().InfoContext(ctx, n.Title,
		logfields.ItemID(n.ItemID),
		logfields.NotificationID(n.ID),
		logfields.Kind(string(n.Kind)),
		slog.String("text", n.Text))
	return nil
}

func (s LogSink) Dismiss(ctx context.Context, itemID int64) error {
	s.logger().DebugContext(ctx, "Reminder dismissed", logfields.ItemID(itemID))
	return nil
}
