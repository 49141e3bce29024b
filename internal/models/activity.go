package models

import "github.com/mmynk/ebills/internal/money"

// Comment is a message in a bill's discussion thread.
type Comment struct {
	ID        string
	BillID    string
	AuthorID  string
	Text      string
	CreatedAt int64
}

// HistoryAction names what happened to a bill.
type HistoryAction string

const (
	ActionCreated            HistoryAction = "created"
	ActionParticipantAdded   HistoryAction = "participant_added"
	ActionParticipantRemoved HistoryAction = "participant_removed"
	ActionParticipantUpdated HistoryAction = "participant_updated"
	ActionMetaUpdated        HistoryAction = "meta_updated"
	ActionEditorRights       HistoryAction = "editor_rights"
	ActionClosed             HistoryAction = "closed"
	ActionPaymentConfirmed   HistoryAction = "payment_confirmed"
	ActionOverpayment        HistoryAction = "overpayment"
)

// HistoryEntry is one line of a bill's audit trail.
type HistoryEntry struct {
	ID        int64
	BillID    string
	ActorID   string
	Action    HistoryAction
	Details   string
	CreatedAt int64
}

// PaymentStatus tracks a payment-gateway round trip.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// Payment is a participant paying down their debt through the payment gateway.
type Payment struct {
	// ID is the order id sent to the gateway (UUID format).
	ID string

	BillID        string
	ParticipantID string
	UserID        string
	Amount        money.Money
	Status        PaymentStatus

	// Credited is the part of Amount applied to the participant's debt.
	// It falls short of Amount when the debt was settled another way
	// while the payment was pending.
	Credited money.Money

	// Reference is the gateway's transaction id, set on confirmation.
	Reference string

	CreatedAt   int64
	CompletedAt int64
}
