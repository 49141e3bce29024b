// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/ebills/internal/editsession"
	"github.com/mmynk/ebills/internal/models"
	"github.com/mmynk/ebills/internal/money"
)

var (
	// ErrNotFound is returned when a bill, group, participant or payment does not exist.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict is returned when a bill was changed since it was loaded.
	ErrVersionConflict = errors.New("bill was modified concurrently")

	// ErrAlreadyExists is returned on unique constraint violations, such as a
	// duplicate email or a user added twice to the same bill.
	ErrAlreadyExists = errors.New("already exists")
)

// BillStore is the persistence gateway for bills. Participants are stored
// with their raw inputs only; derived amounts are recomputed by the caller
// with calculator.Reconcile after loading.
//
// Every write bumps the bill's version.
type BillStore interface {
	// CreateBill persists a new bill and its participants.
	// The bill and participant ids are populated by the store.
	CreateBill(ctx context.Context, bill *models.Bill) error

	// GetBill retrieves a bill with its participants.
	GetBill(ctx context.Context, billID string) (*models.Bill, error)

	// ListBillsForUser returns bills the user organizes or participates in,
	// newest first.
	ListBillsForUser(ctx context.Context, userID string) ([]*models.Bill, error)

	// ListOpenBills returns every open bill.
	ListOpenBills(ctx context.Context) ([]*models.Bill, error)

	// EditBill applies the writes fn makes through p atomically. It fails
	// with ErrVersionConflict unless the bill is still at version, and keeps
	// nothing if fn returns an error.
	EditBill(ctx context.Context, billID string, version int64, fn func(p editsession.Persister) error) error

	SetBillStatus(ctx context.Context, billID string, status models.BillStatus) error
	SetEditor(ctx context.Context, billID, participantID string, isEditor bool) error

	// DeleteBill removes a bill together with its participants, comments,
	// history and payments.
	DeleteBill(ctx context.Context, billID string) error
}

// UserStore persists accounts. Lookups return nil, nil when no user matches.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// ContactDirectory resolves user ids to display names for presentation.
type ContactDirectory interface {
	// ResolveDisplayNames returns a name for every id it knows.
	// Unknown ids are omitted.
	ResolveDisplayNames(ctx context.Context, userIDs []string) (map[string]string, error)
}

// GroupStore persists reusable member lists.
type GroupStore interface {
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)
	AddGroupMembers(ctx context.Context, groupID string, userIDs []string) error
}

// ActivityStore persists a bill's comments and history.
type ActivityStore interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, billID string) ([]*models.Comment, error)

	AppendHistory(ctx context.Context, entry *models.HistoryEntry) error
	ListHistory(ctx context.Context, billID string) ([]*models.HistoryEntry, error)
}

// PaymentStore persists payment-gateway round trips.
type PaymentStore interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)
	ListPaymentsByUser(ctx context.Context, userID string) ([]*models.Payment, error)

	// CompletePayment moves a pending payment to success or failed. For a
	// successful payment result.Credit is added to the participant's paid
	// amount in the same transaction, provided the bill is still at
	// result.BillVersion; otherwise it fails with ErrVersionConflict.
	// Payments that are no longer pending are left untouched and reported
	// with ok == false.
	CompletePayment(ctx context.Context, paymentID string, result PaymentResult) (ok bool, err error)
}

// PaymentResult is the outcome of a gateway round trip.
type PaymentResult struct {
	Status    models.PaymentStatus
	Reference string

	// Credit is what the payment settles, at most the debt left on the bill
	// at BillVersion. Only used for successful payments.
	Credit      money.Money
	BillVersion int64
}

// Store defines the interface for all storage operations.
// This abstraction allows swapping storage backends without changing the
// service layer.
type Store interface {
	BillStore
	UserStore
	ContactDirectory
	GroupStore
	ActivityStore
	PaymentStore

	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
