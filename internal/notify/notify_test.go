package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange   string
	routingKey string
	body       any
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, exchange, routingKey string, body any) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange, routingKey, body})
	return nil
}

func (f *fakePublisher) Close() {}

func TestBrokerNotifier(t *testing.T) {
	pub := &fakePublisher{}
	n := NewBrokerNotifier(pub, "ebills_events")

	err := n.Notify(context.Background(), Event{
		Kind:       PaymentConfirmed,
		BillID:     "b-1",
		Recipients: []string{"org"},
		Amount:     "40.00",
	})
	require.NoError(t, err)
	require.Len(t, pub.sent, 1)

	got := pub.sent[0]
	assert.Equal(t, "ebills_events", got.exchange)
	assert.Equal(t, "payment.confirmed", got.routingKey)
	event, ok := got.body.(Event)
	require.True(t, ok)
	assert.False(t, event.OccurredAt.IsZero())
}

func TestBrokerNotifierSkipsEmptyRecipients(t *testing.T) {
	pub := &fakePublisher{}
	require.NoError(t, NewBrokerNotifier(pub, "x").Notify(context.Background(), Event{Kind: BillUpdated}))
	assert.Empty(t, pub.sent)
}

func TestBrokerNotifierError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	err := NewBrokerNotifier(pub, "x").Notify(context.Background(), Event{Kind: BillClosed, Recipients: []string{"a"}})
	assert.ErrorContains(t, err, "broker down")
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, n.Notify(context.Background(), Event{Kind: DebtReminder, BillID: "b-9", Recipients: []string{"a", "b"}}))
	assert.True(t, strings.Contains(buf.String(), "debt.reminder"))
	assert.True(t, strings.Contains(buf.String(), "recipients=2"))
}

func TestRecipients(t *testing.T) {
	got := Recipients("org", "a", "org", "b", "a", "")
	assert.Equal(t, []string{"a", "b"}, got)
}
