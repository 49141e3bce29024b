package editsession

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/ebills/internal/calculator"
	"github.com/mmynk/ebills/internal/models"
)

var (
	// ErrNotEditing is returned by mutators and Commit outside the Editing state.
	ErrNotEditing = errors.New("edit session is not editing")

	// ErrBillClosed is returned by Begin for a closed bill.
	ErrBillClosed = errors.New("bill is closed")

	// ErrParticipantNotFound is returned when a participant or user id matches no row.
	ErrParticipantNotFound = errors.New("participant not found")

	// ErrDuplicateParticipant is returned when adding a user already on the bill.
	ErrDuplicateParticipant = errors.New("user is already a participant")

	// ErrOrganizerRemoval is returned when removing the organizer's own row.
	ErrOrganizerRemoval = errors.New("organizer cannot be removed")
)

// InvalidFieldError rejects an edit to a field the scenario does not let
// users change on that row.
type InvalidFieldError struct {
	Scenario  models.ScenarioKind
	Field     calculator.Field
	Organizer bool
}

func (e *InvalidFieldError) Error() string {
	row := "participant"
	if e.Organizer {
		row = "organizer"
	}
	return fmt.Sprintf("field %s is not editable on the %s row of a %s bill", e.Field, row, e.Scenario)
}

// OpKind names one persistence call made by Commit.
type OpKind string

const (
	OpRemoveParticipant OpKind = "remove_participant"
	OpAddParticipants   OpKind = "add_participants"
	OpUpdateParticipant OpKind = "update_participant"
	OpUpdateMeta        OpKind = "update_meta"
)

// Operation identifies a sub-operation of a commit.
type Operation struct {
	Kind          OpKind
	ParticipantID string   // remove/update
	UserIDs       []string // add
}

func (o Operation) String() string {
	switch o.Kind {
	case OpAddParticipants:
		return fmt.Sprintf("%s(%s)", o.Kind, strings.Join(o.UserIDs, ","))
	case OpUpdateMeta:
		return string(o.Kind)
	default:
		return fmt.Sprintf("%s(%s)", o.Kind, o.ParticipantID)
	}
}

// FailedOperation is an Operation together with the error it returned.
type FailedOperation struct {
	Operation
	Err error
}

// PartialCommitError reports a commit where at least one persistence call
// failed. The session stays in Editing with the unsaved changes kept in the
// working bill; committing again retries only the failed operations.
type PartialCommitError struct {
	Succeeded []Operation
	Failed    []FailedOperation
}

func (e *PartialCommitError) Error() string {
	parts := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Operation, f.Err))
	}
	return fmt.Sprintf("commit failed for %d of %d operations: %s",
		len(e.Failed), len(e.Failed)+len(e.Succeeded), strings.Join(parts, "; "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *PartialCommitError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		errs = append(errs, f.Err)
	}
	return errs
}
