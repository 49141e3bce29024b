package models

import "github.com/mmynk/ebills/internal/money"

// ScenarioKind selects how a bill's cost is split. It is fixed at creation.
type ScenarioKind string

const (
	// EqualSplit divides the organizer's declared spend equally between the
	// organizer and every participant. The organizer has no participant row.
	EqualSplit ScenarioKind = "equal_split"

	// IndividualAmounts gives every participant their own debt. The organizer
	// is a participant row whose assigned amount is already paid.
	IndividualAmounts ScenarioKind = "individual_amounts"

	// SharedExpenses pools what everyone spent and splits the pool equally.
	SharedExpenses ScenarioKind = "shared_expenses"
)

// Valid reports whether k is a known scenario.
func (k ScenarioKind) Valid() bool {
	switch k {
	case EqualSplit, IndividualAmounts, SharedExpenses:
		return true
	}
	return false
}

// BillStatus is the open/closed lifecycle flag. It is set by explicit actions,
// never derived from amounts.
type BillStatus string

const (
	BillOpen   BillStatus = "open"
	BillClosed BillStatus = "closed"
)

// ParticipantStatus is derived from a participant's debt and effective paid amount.
type ParticipantStatus string

const (
	Unpaid        ParticipantStatus = "unpaid"
	PartiallyPaid ParticipantStatus = "partially_paid"
	Paid          ParticipantStatus = "paid"
)

// SettlementState summarizes participant statuses for display. It is not persisted.
type SettlementState string

const (
	Unsettled        SettlementState = "unsettled"
	PartiallySettled SettlementState = "partially settled"
	FullySettled     SettlementState = "fully settled"
)

// Bill is the aggregate root: bill metadata plus its participants.
type Bill struct {
	// ID is the unique identifier for the bill (UUID format).
	ID string

	Name        string
	Description string

	// Scenario is immutable once the bill is created.
	Scenario ScenarioKind

	// Currency is the single currency every amount on the bill is tagged with.
	Currency string

	// TotalAmount is an input for EqualSplit (the organizer's declared spend)
	// and recomputed from participants for the other scenarios.
	TotalAmount money.Money

	Status BillStatus

	// OrganizerID is the user id of the bill's creator and only admin.
	OrganizerID string

	// GroupID is the group the participants were seeded from, if any.
	GroupID string

	// Version increases on every persisted change. Used to detect
	// concurrent edits from two devices.
	Version int64

	CreatedAt int64
	UpdatedAt int64

	Participants []Participant

	// Settlement is derived by calculator.Reconcile.
	Settlement SettlementState
}

// Participant is one user's stake in a bill.
type Participant struct {
	// ParticipantID is empty until the participant is persisted.
	ParticipantID string

	UserID string

	// Assigned is the participant's share of the bill.
	Assigned money.Money

	// Paid is what the participant has paid toward their share.
	Paid money.Money

	// Spent is what the participant paid out of pocket for the group.
	// Only meaningful for SharedExpenses.
	Spent money.Money

	// Balance is the signed net position: effective paid minus share.
	// Derived.
	Balance money.Money

	// Debt is max(share - effective paid, 0). Derived.
	Debt money.Money

	// Status is derived from Debt and the effective paid amount.
	Status ParticipantStatus

	IsAdmin  bool
	IsEditor bool

	// IsNew marks a participant added during an edit that has not been saved yet.
	IsNew bool
}

// Clone returns a deep copy of the bill. Edits to the copy never reach b.
func (b *Bill) Clone() *Bill {
	if b == nil {
		return nil
	}
	c := *b
	if b.Participants != nil {
		c.Participants = make([]Participant, len(b.Participants))
		copy(c.Participants, b.Participants)
	}
	return &c
}

// ParticipantIndex returns the index of the participant with the given id.
func (b *Bill) ParticipantIndex(participantID string) int {
	if participantID == "" {
		return -1
	}
	for i := range b.Participants {
		if b.Participants[i].ParticipantID == participantID {
			return i
		}
	}
	return -1
}

// UserIndex returns the index of the participant row for userID.
func (b *Bill) UserIndex(userID string) int {
	for i := range b.Participants {
		if b.Participants[i].UserID == userID {
			return i
		}
	}
	return -1
}

// IsMember reports whether userID organizes or participates in the bill.
func (b *Bill) IsMember(userID string) bool {
	return userID != "" && (userID == b.OrganizerID || b.UserIndex(userID) >= 0)
}

// CanEdit reports whether userID may change the bill: the organizer or an editor.
func (b *Bill) CanEdit(userID string) bool {
	if userID == "" {
		return false
	}
	if userID == b.OrganizerID {
		return true
	}
	if i := b.UserIndex(userID); i >= 0 {
		return b.Participants[i].IsEditor || b.Participants[i].IsAdmin
	}
	return false
}

// IsOpen reports whether the bill still accepts edits and payments.
func (b *Bill) IsOpen() bool {
	return b.Status != BillClosed
}
