package calculator

import (
	"fmt"

	"github.com/mmynk/ebills/internal/models"
	"github.com/mmynk/ebills/internal/money"
)

// Field names a user-editable participant amount.
type Field string

const (
	FieldAssigned Field = "assignedAmount"
	FieldPaid     Field = "paidAmount"
	FieldSpent    Field = "spent"
)

// Policy encodes one scenario's splitting rules.
type Policy interface {
	Kind() models.ScenarioKind

	// OrganizerVisible reports whether the organizer has a participant row.
	OrganizerVisible() bool

	// Editable reports whether field may be edited on a participant row.
	// organizer is true for the organizer's own row.
	Editable(field Field, organizer bool) bool

	// EffectivePaid is the amount counted against the participant's share.
	EffectivePaid(p models.Participant) money.Money

	// Compute derives shares, balances and debts. Paid amounts above a share
	// are clamped where the scenario requires it.
	Compute(bill *models.Bill) (Outcome, error)

	sealed()
}

// Outcome is the result of applying a policy to a bill's raw inputs.
// Participants are in the same order as the bill's.
type Outcome struct {
	Participants []models.Participant
	Total        money.Money
	Warnings     []ClampedWarning
}

var policies = map[models.ScenarioKind]Policy{
	models.EqualSplit:        equalSplit{},
	models.IndividualAmounts: individualAmounts{},
	models.SharedExpenses:    sharedExpenses{},
}

// PolicyFor returns the policy for a scenario.
func PolicyFor(kind models.ScenarioKind) (Policy, error) {
	p, ok := policies[kind]
	if !ok {
		return nil, invalid("", "scenario", "unknown scenario %q", kind)
	}
	return p, nil
}

// ComputeAssignedAndDebt validates bill's inputs and runs its scenario policy.
// The bill itself is not modified.
func ComputeAssignedAndDebt(bill *models.Bill) (Outcome, error) {
	policy, err := PolicyFor(bill.Scenario)
	if err != nil {
		return Outcome{}, err
	}
	normalized, err := normalize(bill)
	if err != nil {
		return Outcome{}, err
	}
	if err := checkMembership(policy, normalized); err != nil {
		return Outcome{}, err
	}
	return policy.Compute(normalized)
}

// normalize returns a copy of bill whose amounts all carry the bill currency.
// Untagged amounts adopt it; differently tagged amounts are rejected.
func normalize(bill *models.Bill) (*models.Bill, error) {
	if bill.Currency == "" {
		return nil, invalid("", "currency", "bill has no currency")
	}
	b := bill.Clone()

	adopt := func(m *money.Money, userID string) error {
		if m.Currency == "" {
			*m = m.In(b.Currency)
			return nil
		}
		if m.Currency != b.Currency {
			return &CurrencyMismatchError{Expected: b.Currency, Got: m.Currency, UserID: userID}
		}
		return nil
	}

	if err := adopt(&b.TotalAmount, ""); err != nil {
		return nil, err
	}
	for i := range b.Participants {
		p := &b.Participants[i]
		for _, m := range []*money.Money{&p.Assigned, &p.Paid, &p.Spent} {
			if err := adopt(m, p.UserID); err != nil {
				return nil, err
			}
			if m.IsNegative() {
				return nil, invalid(p.UserID, "amount", "%s must not be negative", m)
			}
		}
	}
	return b, nil
}

// checkMembership enforces one row per user and the organizer's placement.
func checkMembership(policy Policy, b *models.Bill) error {
	seen := make(map[string]bool, len(b.Participants))
	admins := 0
	for _, p := range b.Participants {
		if p.UserID == "" {
			return invalid("", "userId", "participant without user id")
		}
		if seen[p.UserID] {
			return invalid(p.UserID, "userId", "user appears more than once")
		}
		seen[p.UserID] = true

		if p.IsAdmin {
			admins++
			if b.OrganizerID != "" && p.UserID != b.OrganizerID {
				return invalid(p.UserID, "isAdmin", "only the organizer can be admin")
			}
		}
	}

	if !policy.OrganizerVisible() {
		if admins > 0 || (b.OrganizerID != "" && seen[b.OrganizerID]) {
			return invalid(b.OrganizerID, "organizer", "%s bills must not list the organizer as a participant", policy.Kind())
		}
		return nil
	}
	if admins != 1 {
		return invalid("", "organizer", "%s bills need exactly one organizer row, got %d", policy.Kind(), admins)
	}
	return nil
}

// derive fills balance and debt from the share and the effective paid amount.
func derive(p *models.Participant, effective money.Money) {
	p.Balance = effective.Sub(p.Assigned)
	p.Debt = p.Assigned.Sub(effective).NonNegative()
}

// clampPaid lowers Paid to Assigned and records a warning when it was higher.
func clampPaid(p *models.Participant, warnings []ClampedWarning) []ClampedWarning {
	if p.Paid.Cmp(p.Assigned) <= 0 {
		return warnings
	}
	w := ClampedWarning{
		UserID:        p.UserID,
		ParticipantID: p.ParticipantID,
		Requested:     p.Paid,
		Applied:       p.Assigned,
	}
	p.Paid = p.Assigned
	return append(warnings, w)
}

// equalSplit: the organizer's declared spend is shared by the organizer and
// every participant. The organizer's own share is implicit and absorbs any
// leftover minor units, so every participant row gets the same share.
type equalSplit struct{}

func (equalSplit) sealed() {}

func (equalSplit) Kind() models.ScenarioKind { return models.EqualSplit }

func (equalSplit) OrganizerVisible() bool { return false }

func (equalSplit) Editable(f Field, _ bool) bool { return f == FieldPaid }

func (equalSplit) EffectivePaid(p models.Participant) money.Money { return p.Paid }

func (equalSplit) Compute(b *models.Bill) (Outcome, error) {
	if b.TotalAmount.IsNegative() {
		return Outcome{}, invalid("", "totalAmount", "%s must not be negative", b.TotalAmount)
	}

	shares, err := b.TotalAmount.Allocate(len(b.Participants) + 1)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to split total: %w", err)
	}

	var warnings []ClampedWarning
	for i := range b.Participants {
		p := &b.Participants[i]
		p.Assigned = shares[i+1]
		warnings = clampPaid(p, warnings)
		derive(p, p.Paid)
	}

	return Outcome{Participants: b.Participants, Total: b.TotalAmount, Warnings: warnings}, nil
}

// individualAmounts: every participant owes their own amount. The organizer's
// row records their own spend as already paid.
type individualAmounts struct{}

func (individualAmounts) sealed() {}

func (individualAmounts) Kind() models.ScenarioKind { return models.IndividualAmounts }

func (individualAmounts) OrganizerVisible() bool { return true }

func (individualAmounts) Editable(f Field, organizer bool) bool {
	if organizer {
		return f == FieldAssigned
	}
	return f == FieldAssigned || f == FieldPaid
}

func (individualAmounts) EffectivePaid(p models.Participant) money.Money { return p.Paid }

func (individualAmounts) Compute(b *models.Bill) (Outcome, error) {
	var warnings []ClampedWarning
	total := money.Zero(b.Currency)

	for i := range b.Participants {
		p := &b.Participants[i]
		switch {
		case p.IsAdmin:
			p.Paid = p.Assigned
		case p.Assigned.IsPositive():
			warnings = clampPaid(p, warnings)
		case p.IsNew && p.Assigned.IsZero():
			// Added during an edit and not priced yet; clampPaid zeroes any payment.
			warnings = clampPaid(p, warnings)
		default:
			return Outcome{}, invalid(p.UserID, string(FieldAssigned), "must be greater than zero")
		}
		derive(p, p.Paid)
		total = total.Add(p.Assigned)
	}

	return Outcome{Participants: b.Participants, Total: total, Warnings: warnings}, nil
}

// sharedExpenses: everyone's spend is pooled and split equally. A participant's
// balance is what they spent plus what they paid toward settling, minus their share.
type sharedExpenses struct{}

func (sharedExpenses) sealed() {}

func (sharedExpenses) Kind() models.ScenarioKind { return models.SharedExpenses }

func (sharedExpenses) OrganizerVisible() bool { return true }

func (sharedExpenses) Editable(f Field, _ bool) bool {
	return f == FieldSpent || f == FieldPaid
}

func (sharedExpenses) EffectivePaid(p models.Participant) money.Money {
	return p.Spent.Add(p.Paid)
}

func (s sharedExpenses) Compute(b *models.Bill) (Outcome, error) {
	pool := money.Zero(b.Currency)
	for _, p := range b.Participants {
		pool = pool.Add(p.Spent)
	}
	if len(b.Participants) == 0 {
		return Outcome{Participants: b.Participants, Total: pool}, nil
	}

	shares, err := pool.Allocate(len(b.Participants))
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to split shared expenses: %w", err)
	}

	// The organizer takes the first share, which carries the leftover minor units.
	next := 1
	for i := range b.Participants {
		p := &b.Participants[i]
		if p.IsAdmin {
			p.Assigned = shares[0]
		} else {
			p.Assigned = shares[next]
			next++
		}
		derive(p, s.EffectivePaid(*p))
	}

	return Outcome{Participants: b.Participants, Total: pool}, nil
}
