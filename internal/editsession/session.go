// Package editsession stages interactive edits to a bill and turns them into
// the smallest set of persistence calls.
//
// A Session works on private copies: the bill passed to Begin is never
// modified. Every mutator reconciles the working copy before it returns, so
// derived amounts read from Working are never stale.
package editsession

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mmynk/ebills/internal/calculator"
	"github.com/mmynk/ebills/internal/models"
	"github.com/mmynk/ebills/internal/money"
)

// State is the session lifecycle: Idle -> Editing -> Saving -> Idle, with
// failed commits returning to Editing.
type State int

const (
	Idle State = iota
	Editing
	Saving
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MetaField names a bill-level field accepted by SetMeta.
type MetaField string

const (
	MetaName        MetaField = "name"
	MetaDescription MetaField = "description"
	MetaTotalAmount MetaField = "totalAmount"
)

// Session edits one bill.
type Session struct {
	state State

	// original is the bill as passed to Begin.
	original *models.Bill
	// saved is original plus every operation already persisted by Commit.
	saved   *models.Bill
	working *models.Bill
	// removed holds persisted participant ids dropped from working.
	removed []string

	warnings []calculator.ClampedWarning
}

// New returns an idle session.
func New() *Session {
	return &Session{}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Begin snapshots bill and starts editing a reconciled copy of it.
func (s *Session) Begin(bill *models.Bill) error {
	if s.state != Idle {
		return fmt.Errorf("cannot begin while %s", s.state)
	}
	if bill == nil {
		return errors.New("nil bill")
	}
	if !bill.IsOpen() {
		return ErrBillClosed
	}

	working := bill.Clone()
	res, err := calculator.Reconcile(working)
	if err != nil {
		return err
	}

	s.original = bill.Clone()
	s.saved = bill.Clone()
	s.working = working
	s.removed = nil
	s.warnings = res.Warnings
	s.state = Editing
	return nil
}

// Original returns a copy of the bill as it was when editing began.
func (s *Session) Original() *models.Bill {
	return s.original.Clone()
}

// Working returns a copy of the edited bill with up to date derived fields.
func (s *Session) Working() *models.Bill {
	return s.working.Clone()
}

// Warnings returns the corrections made by the most recent mutation.
func (s *Session) Warnings() []calculator.ClampedWarning {
	return slices.Clone(s.warnings)
}

// Cancel discards the working copy without persisting anything.
func (s *Session) Cancel() {
	s.original = nil
	s.saved = nil
	s.working = nil
	s.removed = nil
	s.warnings = nil
	s.state = Idle
}

// AddParticipant appends userID as a new, not yet persisted participant
// with zero amounts.
func (s *Session) AddParticipant(userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return &calculator.ValidationError{Field: "userId", Reason: "must not be empty"}
	}
	return s.mutate(func(b *models.Bill) error {
		if b.UserIndex(userID) >= 0 {
			return ErrDuplicateParticipant
		}
		if b.Scenario == models.EqualSplit && userID == b.OrganizerID {
			return ErrDuplicateParticipant
		}
		zero := money.Zero(b.Currency)
		b.Participants = append(b.Participants, models.Participant{
			UserID:   userID,
			Assigned: zero,
			Paid:     zero,
			Spent:    zero,
			IsNew:    true,
		})
		return nil
	})
}

// RemoveParticipant drops the row matching ref, a participant id or a user
// id. Persisted participants are queued for deletion on commit; new ones
// simply disappear. Asking the user to confirm is the caller's job.
func (s *Session) RemoveParticipant(ref string) error {
	var pending string
	err := s.mutate(func(b *models.Bill) error {
		i := find(b, ref)
		if i < 0 {
			return ErrParticipantNotFound
		}
		p := b.Participants[i]
		if p.IsAdmin || p.UserID == b.OrganizerID {
			return ErrOrganizerRemoval
		}
		if !p.IsNew && p.ParticipantID != "" {
			pending = p.ParticipantID
		}
		b.Participants = slices.Delete(b.Participants, i, i+1)
		return nil
	})
	if err == nil && pending != "" {
		s.removed = append(s.removed, pending)
	}
	return err
}

// SetField edits one raw amount on the row matching ref. Fields the scenario
// does not let users edit on that row fail with *InvalidFieldError.
// Invalid values fail with *calculator.ValidationError and change nothing.
func (s *Session) SetField(ref string, field calculator.Field, value money.Money) error {
	return s.mutate(func(b *models.Bill) error {
		i := find(b, ref)
		if i < 0 {
			return ErrParticipantNotFound
		}
		p := &b.Participants[i]
		organizer := p.IsAdmin || p.UserID == b.OrganizerID

		policy, err := calculator.PolicyFor(b.Scenario)
		if err != nil {
			return err
		}
		if !policy.Editable(field, organizer) {
			return &InvalidFieldError{Scenario: b.Scenario, Field: field, Organizer: organizer}
		}
		if value.IsNegative() {
			return &calculator.ValidationError{UserID: p.UserID, Field: string(field), Reason: "must not be negative"}
		}

		switch field {
		case calculator.FieldAssigned:
			// New rows may sit at zero until priced; an explicit zero is an error.
			if b.Scenario == models.IndividualAmounts && !organizer && !value.IsPositive() {
				return &calculator.ValidationError{UserID: p.UserID, Field: string(field), Reason: "must be greater than zero"}
			}
			p.Assigned = value
		case calculator.FieldPaid:
			p.Paid = value
		case calculator.FieldSpent:
			p.Spent = value
		}
		return nil
	})
}

// SetName renames the bill.
func (s *Session) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &calculator.ValidationError{Field: string(MetaName), Reason: "must not be empty"}
	}
	return s.mutate(func(b *models.Bill) error {
		b.Name = name
		return nil
	})
}

// SetDescription replaces the bill description.
func (s *Session) SetDescription(description string) error {
	return s.mutate(func(b *models.Bill) error {
		b.Description = strings.TrimSpace(description)
		return nil
	})
}

// SetTotal changes the organizer's declared spend on an equal split bill.
// The other scenarios derive their total from participants.
func (s *Session) SetTotal(total money.Money) error {
	return s.mutate(func(b *models.Bill) error {
		if b.Scenario != models.EqualSplit {
			return &InvalidFieldError{Scenario: b.Scenario, Field: calculator.Field(MetaTotalAmount), Organizer: true}
		}
		if !total.IsPositive() {
			return &calculator.ValidationError{Field: string(MetaTotalAmount), Reason: "must be greater than zero"}
		}
		b.TotalAmount = total
		return nil
	})
}

// SetMeta edits a bill-level field from its text form.
func (s *Session) SetMeta(field MetaField, value string) error {
	switch field {
	case MetaName:
		return s.SetName(value)
	case MetaDescription:
		return s.SetDescription(value)
	case MetaTotalAmount:
		if s.state != Editing {
			return ErrNotEditing
		}
		total, err := money.Parse(value, s.working.Currency)
		if err != nil {
			return &calculator.ValidationError{Field: string(field), Reason: err.Error()}
		}
		return s.SetTotal(total)
	}
	return &calculator.ValidationError{Field: string(field), Reason: "unknown bill field"}
}

// Diff returns what Commit would persist. It is empty when nothing changed.
func (s *Session) Diff() ChangeSet {
	if s.working == nil {
		return ChangeSet{}
	}
	return diff(s.saved, s.working, s.removed)
}

// Dirty reports whether there are unsaved changes.
func (s *Session) Dirty() bool {
	return !s.Diff().IsEmpty()
}

// Commit persists Diff through p: removals, then the add batch with the
// amounts entered for the new rows, then field updates, then bill metadata.
//
// On success the session returns to Idle and the committed bill is returned.
// If any call fails the session returns to Editing with the working copy
// intact and a *PartialCommitError listing what succeeded and what failed;
// a later Commit only retries what has not been saved.
func (s *Session) Commit(ctx context.Context, p Persister) (*models.Bill, error) {
	if s.state != Editing {
		return nil, ErrNotEditing
	}
	if err := s.validateForCommit(); err != nil {
		return nil, err
	}

	s.state = Saving
	cs := s.Diff()
	billID := s.working.ID
	perr := &PartialCommitError{}

	for _, participantID := range cs.Removed {
		op := Operation{Kind: OpRemoveParticipant, ParticipantID: participantID}
		if err := p.RemoveParticipant(ctx, billID, participantID); err != nil {
			perr.Failed = append(perr.Failed, FailedOperation{Operation: op, Err: err})
			continue
		}
		perr.Succeeded = append(perr.Succeeded, op)
		s.markRemoved(participantID)
	}

	if len(cs.Added) > 0 {
		op := Operation{Kind: OpAddParticipants, UserIDs: cs.AddedUserIDs()}
		ids, err := p.AddParticipants(ctx, billID, cs.Added)
		if err == nil && len(ids) != len(cs.Added) {
			err = fmt.Errorf("got %d participant ids for %d users", len(ids), len(cs.Added))
		}
		if err != nil {
			perr.Failed = append(perr.Failed, FailedOperation{Operation: op, Err: err})
		} else {
			perr.Succeeded = append(perr.Succeeded, op)
			for i, added := range cs.Added {
				s.markAdded(added, ids[i])
			}
		}
	}

	for _, u := range cs.Updated {
		op := Operation{Kind: OpUpdateParticipant, ParticipantID: u.ParticipantID}
		if err := p.UpdateParticipant(ctx, billID, u.ParticipantID, u.Fields); err != nil {
			perr.Failed = append(perr.Failed, FailedOperation{Operation: op, Err: err})
			continue
		}
		perr.Succeeded = append(perr.Succeeded, op)
		if i := s.saved.ParticipantIndex(u.ParticipantID); i >= 0 {
			u.Fields.Apply(&s.saved.Participants[i])
		}
	}

	if !cs.Meta.IsEmpty() {
		op := Operation{Kind: OpUpdateMeta}
		if err := p.UpdateBillMeta(ctx, billID, cs.Meta); err != nil {
			perr.Failed = append(perr.Failed, FailedOperation{Operation: op, Err: err})
		} else {
			perr.Succeeded = append(perr.Succeeded, op)
			cs.Meta.Apply(s.saved)
		}
	}

	if len(perr.Failed) > 0 {
		s.state = Editing
		return nil, perr
	}

	committed := s.working.Clone()
	s.Cancel()
	return committed, nil
}

// validateForCommit rejects drafts that may sit in the working copy but
// cannot be saved: new individual-amount participants without an amount.
func (s *Session) validateForCommit() error {
	if s.working.Scenario != models.IndividualAmounts {
		return nil
	}
	for _, p := range s.working.Participants {
		if p.IsNew && !p.IsAdmin && !p.Assigned.IsPositive() {
			return &calculator.ValidationError{UserID: p.UserID, Field: string(calculator.FieldAssigned), Reason: "must be greater than zero"}
		}
	}
	return nil
}

// mutate applies fn to a copy of the working bill and keeps the copy only if
// fn and reconciliation both succeed.
func (s *Session) mutate(fn func(b *models.Bill) error) error {
	if s.state != Editing {
		return ErrNotEditing
	}
	next := s.working.Clone()
	if err := fn(next); err != nil {
		return err
	}
	res, err := calculator.Reconcile(next)
	if err != nil {
		return err
	}
	s.working = next
	s.warnings = res.Warnings
	return nil
}

func (s *Session) markRemoved(participantID string) {
	s.removed = slices.DeleteFunc(s.removed, func(id string) bool { return id == participantID })
	if i := s.saved.ParticipantIndex(participantID); i >= 0 {
		s.saved.Participants = slices.Delete(s.saved.Participants, i, i+1)
	}
}

// markAdded records a persisted add: the working row gets its id, and the
// saved copy gains the row as stored.
func (s *Session) markAdded(added AddedParticipant, participantID string) {
	i := s.working.UserIndex(added.UserID)
	if i < 0 {
		return
	}
	row := &s.working.Participants[i]
	row.ParticipantID = participantID
	row.IsNew = false

	zero := money.Zero(s.working.Currency)
	stored := models.Participant{
		ParticipantID: participantID,
		UserID:        added.UserID,
		Assigned:      zero,
		Paid:          zero,
		Spent:         zero,
	}
	added.Fields.Apply(&stored)
	s.saved.Participants = append(s.saved.Participants, stored)
}

// find resolves ref as a participant id first, then as a user id.
func find(b *models.Bill, ref string) int {
	if i := b.ParticipantIndex(ref); i >= 0 {
		return i
	}
	return b.UserIndex(ref)
}
