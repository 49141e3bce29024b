package editsession

import (
	"context"

	"github.com/mmynk/ebills/internal/calculator"
	"github.com/mmynk/ebills/internal/models"
	"github.com/mmynk/ebills/internal/money"
)

// Persister is the slice of the persistence gateway a commit needs.
//
//go:generate mockgen -destination=mocks/mock_persister.go -source=changeset.go Persister
type Persister interface {
	// AddParticipants adds users to the bill with their entered amounts and
	// returns their new participant ids in the same order.
	AddParticipants(ctx context.Context, billID string, participants []AddedParticipant) ([]string, error)
	UpdateParticipant(ctx context.Context, billID, participantID string, fields ParticipantDelta) error
	UpdateBillMeta(ctx context.Context, billID string, fields MetaDelta) error
	RemoveParticipant(ctx context.Context, billID, participantID string) error
}

// ParticipantDelta carries only the raw input fields that changed.
// A nil field is left as stored.
type ParticipantDelta struct {
	Assigned *money.Money
	Paid     *money.Money
	Spent    *money.Money
}

// IsEmpty reports whether no field changed.
func (d ParticipantDelta) IsEmpty() bool {
	return d.Assigned == nil && d.Paid == nil && d.Spent == nil
}

// Apply writes the delta's fields onto p.
func (d ParticipantDelta) Apply(p *models.Participant) {
	if d.Assigned != nil {
		p.Assigned = *d.Assigned
	}
	if d.Paid != nil {
		p.Paid = *d.Paid
	}
	if d.Spent != nil {
		p.Spent = *d.Spent
	}
}

// MetaDelta carries changed bill-level fields.
type MetaDelta struct {
	Name        *string
	Description *string
	TotalAmount *money.Money
}

// IsEmpty reports whether no field changed.
func (d MetaDelta) IsEmpty() bool {
	return d.Name == nil && d.Description == nil && d.TotalAmount == nil
}

// Apply writes the delta's fields onto b.
func (d MetaDelta) Apply(b *models.Bill) {
	if d.Name != nil {
		b.Name = *d.Name
	}
	if d.Description != nil {
		b.Description = *d.Description
	}
	if d.TotalAmount != nil {
		b.TotalAmount = *d.TotalAmount
	}
}

// AddedParticipant is a user to add, with any amounts entered before saving.
type AddedParticipant struct {
	UserID string
	Fields ParticipantDelta
}

// UpdatedParticipant is a persisted participant whose editable fields changed.
type UpdatedParticipant struct {
	ParticipantID string
	UserID        string
	Fields        ParticipantDelta
}

// ChangeSet is the minimal set of persistence calls that turns the saved
// bill into the edited one.
type ChangeSet struct {
	Added   []AddedParticipant
	Updated []UpdatedParticipant
	Removed []string // participant ids
	Meta    MetaDelta
}

// IsEmpty reports whether there is nothing to persist.
func (c ChangeSet) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Updated) == 0 && len(c.Removed) == 0 && c.Meta.IsEmpty()
}

// AddedUserIDs returns the user ids of the add batch.
func (c ChangeSet) AddedUserIDs() []string {
	ids := make([]string, 0, len(c.Added))
	for _, a := range c.Added {
		ids = append(ids, a.UserID)
	}
	return ids
}

// diff compares working with saved field by field. Only fields the scenario
// lets users edit on a row are compared; derived amounts never are.
func diff(saved, working *models.Bill, removed []string) ChangeSet {
	var cs ChangeSet
	policy, err := calculator.PolicyFor(working.Scenario)
	if err != nil {
		return cs
	}

	cs.Removed = append(cs.Removed, removed...)

	for _, p := range working.Participants {
		organizer := p.IsAdmin
		if p.IsNew || p.ParticipantID == "" {
			cs.Added = append(cs.Added, AddedParticipant{
				UserID: p.UserID,
				Fields: editedFields(policy, organizer, nil, p),
			})
			continue
		}
		i := saved.ParticipantIndex(p.ParticipantID)
		if i < 0 {
			continue
		}
		before := saved.Participants[i]
		if fields := editedFields(policy, organizer, &before, p); !fields.IsEmpty() {
			cs.Updated = append(cs.Updated, UpdatedParticipant{
				ParticipantID: p.ParticipantID,
				UserID:        p.UserID,
				Fields:        fields,
			})
		}
	}

	if working.Name != saved.Name {
		cs.Meta.Name = ptr(working.Name)
	}
	if working.Description != saved.Description {
		cs.Meta.Description = ptr(working.Description)
	}
	if working.Scenario == models.EqualSplit && !working.TotalAmount.SameAmount(saved.TotalAmount) {
		cs.Meta.TotalAmount = ptr(working.TotalAmount)
	}
	return cs
}

// editedFields returns the editable fields of after that differ from before.
// With no before row, every non-zero editable field counts as changed.
func editedFields(policy calculator.Policy, organizer bool, before *models.Participant, after models.Participant) ParticipantDelta {
	var d ParticipantDelta
	changed := func(field calculator.Field, b, a money.Money) *money.Money {
		if !policy.Editable(field, organizer) {
			return nil
		}
		if before == nil {
			if a.IsZero() {
				return nil
			}
			return ptr(a)
		}
		if a.SameAmount(b) {
			return nil
		}
		return ptr(a)
	}

	var b models.Participant
	if before != nil {
		b = *before
	}
	d.Assigned = changed(calculator.FieldAssigned, b.Assigned, after.Assigned)
	d.Paid = changed(calculator.FieldPaid, b.Paid, after.Paid)
	d.Spent = changed(calculator.FieldSpent, b.Spent, after.Spent)
	return d
}

func ptr[T any](v T) *T { return &v }
