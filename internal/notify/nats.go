package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/idilsaglam/checklist/internal/logfields"
)

// Subjects under a configurable prefix.
func NotificationsSubject(prefix string) string  { return prefix + ".notifications" }
func DismissalsSubject(prefix string) string     { return prefix + ".dismissals" }
func CompleteActionSubject(prefix string) string { return prefix + ".actions." + ActionComplete }

// ActionMessage is the inbound "mark complete" payload.
type ActionMessage struct {
	ItemID int64 `json:"item_id"`
}

// ParseActionMessage accepts either {"item_id": N} or a bare integer.
func ParseActionMessage(data []byte) (ActionMessage, error) {
	raw := strings.TrimSpace(string(data))
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ActionMessage{ItemID: id}, nil
	}
	var m ActionMessage
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return m, fmt.Errorf("decode action: %w", err)
	}
	if m.ItemID <= 0 {
		return m, fmt.Errorf("decode action: missing item_id")
	}
	return m, nil
}

// NATSClient publishes reminders and receives notification actions.
type NATSClient struct {
	conn   *nats.Conn
	prefix string
	sub    *nats.Subscription
}

func NewNATSClient(url, prefix string) (*NATSClient, error) {
	conn, err := nats.Connect(url, nats.Name("checklist"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS client connected", "url", url, logfields.Subject(prefix))
	return &NATSClient{conn: conn, prefix: prefix}, nil
}

func (c *NATSClient) Deliver(_ context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := c.conn.Publish(NotificationsSubject(c.prefix), data); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

func (c *NATSClient) Dismiss(_ context.Context, itemID int64) error {
	data, err := json.Marshal(ActionMessage{ItemID: itemID})
	if err != nil {
		return err
	}
	return c.conn.Publish(DismissalsSubject(c.prefix), data)
}

// CompleteFunc handles an inbound "mark complete" action.
type CompleteFunc func(ctx context.Context, itemID int64) error

// ListenComplete routes complete actions to fn until Close.
func (c *NATSClient) ListenComplete(ctx context.Context, fn CompleteFunc) error {
	subject := CompleteActionSubject(c.prefix)
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		m, err := ParseActionMessage(msg.Data)
		if err != nil {
			slog.Warn("Ignoring malformed action", logfields.Subject(subject), logfields.Error(err))
			return
		}
		if err := fn(ctx, m.ItemID); err != nil {
			slog.Error("Complete action failed", logfields.ItemID(m.ItemID), logfields.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.sub = sub
	slog.Info("Listening for notification actions", logfields.Subject(subject))
	return nil
}

func (c *NATSClient) Close() error {
	if c.sub != nil {
		_ = c.sub.Unsubscribe()
	}
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
		return err
	}
	return nil
}
