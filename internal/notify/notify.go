// Package notify publishes bill and payment events for delivery to users.
// Delivery itself (push, email, chat) is done by whoever consumes the events.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/ebills/pkg/rabbitmq"
)

// Kind names an event. It doubles as the routing key suffix.
type Kind string

const (
	BillCreated         Kind = "bill.created"
	BillUpdated         Kind = "bill.updated"
	BillClosed          Kind = "bill.closed"
	ParticipantsAdded   Kind = "bill.participants.added"
	ParticipantsRemoved Kind = "bill.participants.removed"
	PaymentConfirmed    Kind = "payment.confirmed"
	DebtReminder        Kind = "debt.reminder"
)

// Event is one notification. Recipients are user ids; the actor is never
// among them.
type Event struct {
	Kind       Kind      `json:"kind"`
	BillID     string    `json:"billId"`
	BillName   string    `json:"billName"`
	ActorID    string    `json:"actorId,omitempty"`
	Recipients []string  `json:"recipients"`
	Amount     string    `json:"amount,omitempty"`
	Currency   string    `json:"currency,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Notifier sends events. Failures are returned but callers treat them as
// non-fatal: a bill change is never rolled back because a notification failed.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// BrokerNotifier publishes events to a RabbitMQ topic exchange.
type BrokerNotifier struct {
	publisher rabbitmq.Publisher
	exchange  string
}

// NewBrokerNotifier creates a notifier publishing to exchange.
func NewBrokerNotifier(publisher rabbitmq.Publisher, exchange string) *BrokerNotifier {
	return &BrokerNotifier{publisher: publisher, exchange: exchange}
}

func (n *BrokerNotifier) Notify(ctx context.Context, event Event) error {
	if len(event.Recipients) == 0 {
		return nil
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return n.publisher.Publish(ctx, n.exchange, string(event.Kind), event)
}

// LogNotifier logs events instead of delivering them. Used when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, event Event) error {
	if len(event.Recipients) == 0 {
		return nil
	}
	n.logger.InfoContext(ctx, "Notification",
		"kind", event.Kind,
		"bill_id", event.BillID,
		"actor_id", event.ActorID,
		"recipients", len(event.Recipients),
		"amount", event.Amount,
	)
	return nil
}

// Recipients returns userIDs without actorID and without duplicates,
// preserving order.
func Recipients(actorID string, userIDs ...string) []string {
	seen := map[string]bool{actorID: true, "": true}
	out := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
