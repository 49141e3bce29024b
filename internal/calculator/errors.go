package calculator

import (
	"fmt"

	"github.com/mmynk/ebills/internal/money"
)

// ValidationError reports invalid domain input such as a negative amount or a
// zero share where one is required. Nothing is applied when it is returned.
type ValidationError struct {
	// UserID identifies the offending participant, empty for bill-level problems.
	UserID string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.UserID == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s for participant %s: %s", e.Field, e.UserID, e.Reason)
}

func invalid(userID, field, reason string, args ...any) *ValidationError {
	return &ValidationError{UserID: userID, Field: field, Reason: fmt.Sprintf(reason, args...)}
}

// CurrencyMismatchError reports an amount tagged with a currency other than the bill's.
type CurrencyMismatchError struct {
	Expected string
	Got      string
	UserID   string
}

func (e *CurrencyMismatchError) Error() string {
	if e.UserID == "" {
		return fmt.Sprintf("currency mismatch: bill is %s, total is %s", e.Expected, e.Got)
	}
	return fmt.Sprintf("currency mismatch: bill is %s, participant %s has %s", e.Expected, e.UserID, e.Got)
}

// ClampedWarning is a non-fatal correction: a paid amount above the
// participant's share was lowered to the share.
type ClampedWarning struct {
	UserID        string
	ParticipantID string
	Requested     money.Money
	Applied       money.Money
}

func (w ClampedWarning) String() string {
	return fmt.Sprintf("paid amount for %s lowered from %s to %s", w.UserID, w.Requested, w.Applied)
}
