// Package service implements the Connect handlers for the ebills API.
//
// Handlers authenticate through the auth.Session placed in the context by
// middleware.RequireAuth, load bills through the store, run every change
// through calculator.Reconcile (directly or via an editsession.Session) and
// translate domain errors into Connect codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/ebills/internal/auth"
	"github.com/mmynk/ebills/internal/calculator"
	"github.com/mmynk/ebills/internal/editsession"
	"github.com/mmynk/ebills/internal/models"
	"github.com/mmynk/ebills/internal/money"
	"github.com/mmynk/ebills/internal/payment"
	"github.com/mmynk/ebills/internal/storage"
	"github.com/mmynk/ebills/pkg/api"
)

var (
	errNotMember    = errors.New("you are not a participant of this bill")
	errNotEditor    = errors.New("only the organizer or an editor can change this bill")
	errNotOrganizer = errors.New("only the organizer can do this")
	errBillClosed   = errors.New("bill is closed")
)

// callerSession returns the authenticated caller or an Unauthenticated error.
func callerSession(ctx context.Context) (auth.Session, error) {
	session, ok := auth.SessionFrom(ctx)
	if !ok {
		return auth.Session{}, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return session, nil
}

// toConnectError maps domain and storage errors to Connect codes.
// Errors that are already *connect.Error pass through unchanged.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}

	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}

	var (
		validationErr *calculator.ValidationError
		currencyErr   *calculator.CurrencyMismatchError
		fieldErr      *editsession.InvalidFieldError
	)
	switch {
	case errors.As(err, &validationErr),
		errors.As(err, &currencyErr),
		errors.As(err, &fieldErr),
		errors.Is(err, editsession.ErrDuplicateParticipant),
		errors.Is(err, editsession.ErrOrganizerRemoval),
		errors.Is(err, payment.ErrInvalidSignature),
		errors.Is(err, payment.ErrMalformedPayload):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, editsession.ErrParticipantNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrAlreadyExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, storage.ErrVersionConflict):
		return connect.NewError(connect.CodeAborted, err)
	case errors.Is(err, editsession.ErrBillClosed), errors.Is(err, errBillClosed):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, errNotMember), errors.Is(err, errNotEditor), errors.Is(err, errNotOrganizer):
		return connect.NewError(connect.CodePermissionDenied, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

// invalidArgument is a shorthand for request validation failures.
func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

// requireUsers fails with InvalidArgument unless every id is a registered user.
func requireUsers(ctx context.Context, users storage.UserStore, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if found[id] == nil {
			return invalidArgument("unknown user %s", id)
		}
	}
	return nil
}

// loadBill fetches a bill and derives its amounts.
func loadBill(ctx context.Context, store storage.BillStore, billID string) (*models.Bill, error) {
	if billID == "" {
		return nil, invalidArgument("billId is required")
	}
	bill, err := store.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if _, err := calculator.Reconcile(bill); err != nil {
		return nil, fmt.Errorf("bill %s does not reconcile: %w", billID, err)
	}
	return bill, nil
}

// loadMemberBill is loadBill restricted to the bill's organizer and participants.
func loadMemberBill(ctx context.Context, store storage.BillStore, billID, userID string) (*models.Bill, error) {
	bill, err := loadBill(ctx, store, billID)
	if err != nil {
		return nil, err
	}
	if !bill.IsMember(userID) {
		return nil, errNotMember
	}
	return bill, nil
}

// recordHistory appends an audit entry. Failures are logged, not returned:
// the change itself has already been persisted.
func recordHistory(ctx context.Context, store storage.ActivityStore, billID, actorID string, action models.HistoryAction, details string) {
	err := store.AppendHistory(ctx, &models.HistoryEntry{
		BillID:  billID,
		ActorID: actorID,
		Action:  action,
		Details: details,
	})
	if err != nil {
		slog.Error("Failed to record history", "bill_id", billID, "action", action, "error", err)
	}
}

// displayNames resolves names for everyone on the given bills. Lookup
// failures only cost the names.
func displayNames(ctx context.Context, dir storage.ContactDirectory, bills ...*models.Bill) map[string]string {
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, b := range bills {
		add(b.OrganizerID)
		for _, p := range b.Participants {
			add(p.UserID)
		}
	}

	names, err := dir.ResolveDisplayNames(ctx, ids)
	if err != nil {
		slog.Warn("Failed to resolve display names", "error", err)
		return map[string]string{}
	}
	return names
}

func amount(m money.Money) string {
	return m.Amount.StringFixed(money.Places)
}

func toAPIBill(bill *models.Bill, names map[string]string) api.Bill {
	participants := make([]api.Participant, len(bill.Participants))
	for i, p := range bill.Participants {
		participants[i] = api.Participant{
			ParticipantID: p.ParticipantID,
			UserID:        p.UserID,
			DisplayName:   names[p.UserID],
			Assigned:      amount(p.Assigned),
			Paid:          amount(p.Paid),
			Spent:         amount(p.Spent),
			Balance:       amount(p.Balance),
			Debt:          amount(p.Debt),
			Status:        string(p.Status),
			IsAdmin:       p.IsAdmin,
			IsEditor:      p.IsEditor,
		}
	}

	return api.Bill{
		ID:           bill.ID,
		Name:         bill.Name,
		Description:  bill.Description,
		Scenario:     string(bill.Scenario),
		Currency:     bill.Currency,
		TotalAmount:  amount(bill.TotalAmount),
		Status:       string(bill.Status),
		Settlement:   string(bill.Settlement),
		OrganizerID:  bill.OrganizerID,
		GroupID:      bill.GroupID,
		Version:      bill.Version,
		CreatedAt:    bill.CreatedAt,
		UpdatedAt:    bill.UpdatedAt,
		Participants: participants,
	}
}

func toAPIWarnings(warnings []calculator.ClampedWarning) []api.Warning {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]api.Warning, len(warnings))
	for i, w := range warnings {
		out[i] = api.Warning{
			UserID:    w.UserID,
			Requested: amount(w.Requested),
			Applied:   amount(w.Applied),
			Message:   w.String(),
		}
	}
	return out
}

func toAPITransfers(plan []calculator.Transfer) []api.Transfer {
	out := make([]api.Transfer, len(plan))
	for i, t := range plan {
		out[i] = api.Transfer{From: t.From, To: t.To, Amount: amount(t.Amount)}
	}
	return out
}

func toAPIUser(user *models.User) api.User {
	return api.User{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Phone:       user.Phone,
	}
}

func toAPIPayment(p *models.Payment) api.Payment {
	return api.Payment{
		ID:            p.ID,
		BillID:        p.BillID,
		ParticipantID: p.ParticipantID,
		Amount:        amount(p.Amount),
		Currency:      p.Amount.Currency,
		Status:        string(p.Status),
		Credited:      credited(p),
		Reference:     p.Reference,
		CreatedAt:     p.CreatedAt,
		CompletedAt:   p.CompletedAt,
	}
}

func credited(p *models.Payment) string {
	if p.Status != models.PaymentSuccess {
		return ""
	}
	return amount(p.Credited)
}

// participantIDs lists the user ids of everyone on the bill except the organizer.
func participantIDs(bill *models.Bill) []string {
	ids := make([]string, 0, len(bill.Participants))
	for _, p := range bill.Participants {
		if p.UserID != bill.OrganizerID {
			ids = append(ids, p.UserID)
		}
	}
	return ids
}
