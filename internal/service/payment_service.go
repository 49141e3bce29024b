package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/ebills/internal/models"
	"github.com/mmynk/ebills/internal/money"
	"github.com/mmynk/ebills/internal/notify"
	"github.com/mmynk/ebills/internal/payment"
	"github.com/mmynk/ebills/internal/storage"
	"github.com/mmynk/ebills/pkg/api"
	"github.com/mmynk/ebills/pkg/api/apiconnect"
)

var _ apiconnect.PaymentServiceHandler = (*PaymentService)(nil)

// PaymentService lets participants pay their debt through the payment gateway.
type PaymentService struct {
	store    storage.Store
	gateway  payment.Gateway
	notifier notify.Notifier
}

func NewPaymentService(store storage.Store, gateway payment.Gateway, notifier notify.Notifier) *PaymentService {
	return &PaymentService{store: store, gateway: gateway, notifier: notifier}
}

const (
	// pendingPaymentTTL is how long an unconfirmed checkout keeps its
	// amount reserved against the debt.
	pendingPaymentTTL = 30 * time.Minute

	// maxCompleteAttempts bounds retries of a callback that raced a bill edit.
	maxCompleteAttempts = 3
)

// CreatePayment starts a payment against the caller's debt on a bill.
// The amount defaults to what is left of the debt after checkouts still in
// progress, and may not exceed it.
func (s *PaymentService) CreatePayment(ctx context.Context, req *connect.Request[api.CreatePaymentRequest]) (*connect.Response[api.CreatePaymentResponse], error) {
	session, err := callerSession(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreatePayment request received", "bill_id", req.Msg.BillID, "amount", req.Msg.Amount)

	bill, err := loadMemberBill(ctx, s.store, req.Msg.BillID, session.UserID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !bill.IsOpen() {
		return nil, toConnectError(errBillClosed)
	}
	i := bill.UserIndex(session.UserID)
	if i < 0 {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("the organizer has nothing to pay on this bill"))
	}
	p := bill.Participants[i]
	if !p.Debt.IsPositive() {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("nothing left to pay on this bill"))
	}

	pending, err := s.pendingAmount(ctx, session.UserID, p)
	if err != nil {
		slog.Error("Failed to list pending payments", "bill_id", bill.ID, "error", err)
		return nil, toConnectError(err)
	}
	payable := p.Debt.Sub(pending)
	if !payable.IsPositive() {
		return nil, connect.NewError(connect.CodeFailedPrecondition,
			fmt.Errorf("payments of %s in progress already cover the debt", pending))
	}

	amt := payable
	if strings.TrimSpace(req.Msg.Amount) != "" {
		amt, err = money.Parse(req.Msg.Amount, bill.Currency)
		if err != nil {
			return nil, invalidArgument("amount: %v", err)
		}
		if !amt.IsPositive() {
			return nil, invalidArgument("amount must be greater than zero")
		}
		if amt.Cmp(payable) > 0 {
			return nil, invalidArgument("amount %s is more than the %s left to pay", amt, payable)
		}
	}

	pay := &models.Payment{
		BillID:        bill.ID,
		ParticipantID: p.ParticipantID,
		UserID:        session.UserID,
		Amount:        amt,
		Status:        models.PaymentPending,
	}
	if err := s.store.CreatePayment(ctx, pay); err != nil {
		slog.Error("CreatePayment failed", "bill_id", bill.ID, "error", err)
		return nil, toConnectError(err)
	}

	checkout, err := s.gateway.Checkout(ctx, payment.Order{
		OrderID:     pay.ID,
		Amount:      amount(amt),
		Currency:    bill.Currency,
		Description: fmt.Sprintf("Payment for %s", bill.Name),
	})
	if err != nil {
		slog.Error("Payment checkout failed", "payment_id", pay.ID, "error", err)
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}

	slog.Info("Payment created", "payment_id", pay.ID, "bill_id", bill.ID, "amount", amt.String())
	return connect.NewResponse(&api.CreatePaymentResponse{
		Payment:     toAPIPayment(pay),
		CheckoutURL: checkout.URL,
		Data:        checkout.Data,
		Signature:   checkout.Signature,
	}), nil
}

// ConfirmPayment handles the gateway callback. It needs no session: the
// signature authenticates the request. Callbacks for payments that were
// already completed are acknowledged without changing anything.
func (s *PaymentService) ConfirmPayment(ctx context.Context, req *connect.Request[api.ConfirmPaymentRequest]) (*connect.Response[api.ConfirmPaymentResponse], error) {
	cb, err := s.gateway.Verify(req.Msg.Data, req.Msg.Signature)
	if err != nil {
		slog.Warn("Rejected payment callback", "error", err)
		return nil, toConnectError(err)
	}
	slog.Info("ConfirmPayment request received", "payment_id", cb.OrderID, "status", cb.Status)

	pay, err := s.store.GetPayment(ctx, cb.OrderID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := matchCallback(pay, cb); err != nil {
		slog.Warn("Payment callback does not match the order", "payment_id", pay.ID, "error", err)
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	if cb.Status != models.PaymentPending {
		completed, err := s.complete(ctx, pay, cb)
		if err != nil {
			slog.Error("CompletePayment failed", "payment_id", pay.ID, "error", err)
			return nil, toConnectError(err)
		}
		if pay, err = s.store.GetPayment(ctx, pay.ID); err != nil {
			return nil, toConnectError(err)
		}
		if completed && cb.Status == models.PaymentSuccess {
			s.onPaid(ctx, pay)
		}
	}

	bill, err := loadBill(ctx, s.store, pay.BillID)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("Payment processed", "payment_id", pay.ID, "status", pay.Status, "settlement", bill.Settlement)
	return connect.NewResponse(&api.ConfirmPaymentResponse{
		Payment: toAPIPayment(pay),
		Bill:    toAPIBill(bill, displayNames(ctx, s.store, bill)),
	}), nil
}

// pendingAmount sums the participant's checkouts that are still awaiting
// the gateway and not yet stale.
func (s *PaymentService) pendingAmount(ctx context.Context, userID string, p models.Participant) (money.Money, error) {
	total := money.Zero(p.Debt.Currency)
	payments, err := s.store.ListPaymentsByUser(ctx, userID)
	if err != nil {
		return total, err
	}
	cutoff := time.Now().Add(-pendingPaymentTTL).Unix()
	for _, pay := range payments {
		if pay.ParticipantID == p.ParticipantID && pay.Status == models.PaymentPending && pay.CreatedAt >= cutoff {
			total = total.Add(pay.Amount)
		}
	}
	return total, nil
}

// complete records the gateway's verdict. A successful payment is credited
// up to the debt left on the bill, computed at the version the credit is
// written against; a concurrent edit makes it start over.
func (s *PaymentService) complete(ctx context.Context, pay *models.Payment, cb payment.Callback) (bool, error) {
	result := storage.PaymentResult{Status: cb.Status, Reference: cb.TransactionID}
	if cb.Status != models.PaymentSuccess {
		return s.store.CompletePayment(ctx, pay.ID, result)
	}

	var err error
	for attempt := 1; attempt <= maxCompleteAttempts; attempt++ {
		var bill *models.Bill
		bill, err = loadBill(ctx, s.store, pay.BillID)
		if err != nil {
			return false, err
		}
		result.BillVersion = bill.Version
		result.Credit = money.Zero(pay.Amount.Currency)
		if i := bill.ParticipantIndex(pay.ParticipantID); i >= 0 {
			result.Credit = money.Min(pay.Amount, bill.Participants[i].Debt)
		}

		var ok bool
		ok, err = s.store.CompletePayment(ctx, pay.ID, result)
		if !errors.Is(err, storage.ErrVersionConflict) {
			return ok, err
		}
		slog.Warn("Bill changed while crediting payment, retrying", "payment_id", pay.ID, "attempt", attempt)
	}
	return false, err
}

// matchCallback checks that the gateway charged what was ordered.
func matchCallback(pay *models.Payment, cb payment.Callback) error {
	if cb.Currency != "" && cb.Currency != pay.Amount.Currency {
		return fmt.Errorf("currency %s does not match order currency %s", cb.Currency, pay.Amount.Currency)
	}
	if cb.Amount == "" {
		return nil
	}
	charged, err := money.Parse(cb.Amount, pay.Amount.Currency)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	if !charged.SameAmount(pay.Amount) {
		return fmt.Errorf("amount %s does not match order amount %s", charged, pay.Amount)
	}
	return nil
}

func (s *PaymentService) onPaid(ctx context.Context, pay *models.Payment) {
	recordHistory(ctx, s.store, pay.BillID, pay.UserID, models.ActionPaymentConfirmed, pay.Amount.String())
	if surplus := pay.Amount.Sub(pay.Credited); surplus.IsPositive() {
		slog.Warn("Payment exceeds the debt left on the bill",
			"payment_id", pay.ID, "amount", pay.Amount.String(), "credited", pay.Credited.String())
		recordHistory(ctx, s.store, pay.BillID, pay.UserID, models.ActionOverpayment, surplus.String())
	}

	bill, err := s.store.GetBill(ctx, pay.BillID)
	if err != nil {
		slog.Warn("Failed to load bill for payment notification", "bill_id", pay.BillID, "error", err)
		return
	}
	err = s.notifier.Notify(ctx, notify.Event{
		Kind:       notify.PaymentConfirmed,
		BillID:     bill.ID,
		BillName:   bill.Name,
		ActorID:    pay.UserID,
		Recipients: notify.Recipients(pay.UserID, bill.OrganizerID),
		Amount:     amount(pay.Amount),
		Currency:   pay.Amount.Currency,
	})
	if err != nil {
		slog.Warn("Failed to send notification", "kind", notify.PaymentConfirmed, "bill_id", bill.ID, "error", err)
	}
}

// ListMyPayments returns the caller's payments, newest first.
func (s *PaymentService) ListMyPayments(ctx context.Context, req *connect.Request[api.ListMyPaymentsRequest]) (*connect.Response[api.ListMyPaymentsResponse], error) {
	session, err := callerSession(ctx)
	if err != nil {
		return nil, err
	}

	payments, err := s.store.ListPaymentsByUser(ctx, session.UserID)
	if err != nil {
		slog.Error("ListMyPayments failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]api.Payment, len(payments))
	for i, p := range payments {
		out[i] = toAPIPayment(p)
	}
	return connect.NewResponse(&api.ListMyPaymentsResponse{Payments: out}), nil
}
