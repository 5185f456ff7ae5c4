package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const DefaultSubject = "tabungan.transactions.changed"

const refreshTimeout = 10 * time.Second

// Conn is the part of *nats.Conn the bridge uses.
type Conn interface {
	Publish(subj string, data []byte) error
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
}

type changeEvent struct {
	At time.Time `json:"at"`
}

// Bridge fans change notifications out through NATS so that every API
// instance refreshes its own hub, including the one that made the change.
type Bridge struct {
	conn    Conn
	subject string
	hub     *Hub
	sub     *nats.Subscription
}

func NewBridge(conn Conn, subject string, hub *Hub) *Bridge {
	if subject == "" {
		subject = DefaultSubject
	}

	return &Bridge{conn: conn, subject: subject, hub: hub}
}

// Start subscribes to change events. Each event refreshes the local hub.
func (b *Bridge) Start() error {
	sub, err := b.conn.Subscribe(b.subject, b.handle)
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", b.subject, err)
	}

	b.sub = sub

	return nil
}

func (b *Bridge) handle(msg *nats.Msg) {
	var ev changeEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		slog.Warn("malformed feed event", "subject", msg.Subject, "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := b.hub.TransactionsChanged(ctx); err != nil {
		slog.Error("failed to refresh feed", "error", err)
	}
}

// TransactionsChanged announces a change to all instances. If the event cannot
// be published the local hub is refreshed directly.
func (b *Bridge) TransactionsChanged(ctx context.Context) error {
	data, err := json.Marshal(changeEvent{At: time.Now()})
	if err != nil {
		return fmt.Errorf("encoding feed event: %w", err)
	}

	if err := b.conn.Publish(b.subject, data); err != nil {
		slog.Warn("failed to publish feed event, refreshing locally", "subject", b.subject, "error", err)
		return b.hub.TransactionsChanged(ctx)
	}

	return nil
}

func (b *Bridge) Close() error {
	if b.sub == nil {
		return nil
	}

	return b.sub.Unsubscribe()
}
