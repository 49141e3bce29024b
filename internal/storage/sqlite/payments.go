package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/ebills/internal/models"
	"github.com/mmynk/ebills/internal/storage"
)

const paymentColumns = `id, bill_id, participant_id, user_id, amount, currency, status,
	reference, credited, created_at, completed_at`

// CreatePayment persists a new pending payment.
func (s *SQLiteStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	// Generate ID if not set
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.CreatedAt == 0 {
		payment.CreatedAt = time.Now().Unix()
	}
	if payment.Status == "" {
		payment.Status = models.PaymentPending
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payments (id, bill_id, participant_id, user_id, amount, currency, status, reference, created_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID, payment.BillID, payment.ParticipantID, payment.UserID,
		amountString(payment.Amount), payment.Amount.Currency, payment.Status,
		payment.Reference, payment.CreatedAt, payment.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	return nil
}

// GetPayment retrieves a payment by ID.
func (s *SQLiteStore) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	payment, err := scanPayment(s.db.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE id = ?", paymentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment %s: %w", paymentID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

// ListPaymentsByUser retrieves a user's payments, newest first.
func (s *SQLiteStore) ListPaymentsByUser(ctx context.Context, userID string) ([]*models.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE user_id = ? ORDER BY created_at DESC, id",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	return payments, nil
}

// CompletePayment records the gateway's verdict on a pending payment and,
// on success, credits the participant in the same transaction.
func (s *SQLiteStore) CompletePayment(ctx context.Context, paymentID string, result storage.PaymentResult) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	credited := "0"
	if result.Status == models.PaymentSuccess && result.Credit.IsPositive() {
		credited = amountString(result.Credit)
	}

	// Only a pending payment moves, which makes repeated callbacks no-ops.
	res, err := tx.ExecContext(ctx,
		`UPDATE payments SET status = ?, reference = ?, credited = ?, completed_at = ?
		 WHERE id = ? AND status = ?`,
		result.Status, result.Reference, credited, time.Now().Unix(), paymentID, models.PaymentPending,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update payment: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	} else if n == 0 {
		if _, err := scanPayment(tx.QueryRowContext(ctx,
			"SELECT "+paymentColumns+" FROM payments WHERE id = ?", paymentID)); errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("payment %s: %w", paymentID, storage.ErrNotFound)
		} else if err != nil {
			return false, fmt.Errorf("failed to get payment: %w", err)
		}
		return false, nil
	}

	if result.Status == models.PaymentSuccess {
		payment, err := scanPayment(tx.QueryRowContext(ctx,
			"SELECT "+paymentColumns+" FROM payments WHERE id = ?", paymentID))
		if err != nil {
			return false, fmt.Errorf("failed to get payment: %w", err)
		}
		if err := creditParticipant(ctx, tx, payment, result); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// creditParticipant adds a payment's credit to the participant's paid amount, guarded
// by the bill version the credit was computed at.
func creditParticipant(ctx context.Context, tx *sql.Tx, payment *models.Payment, result storage.PaymentResult) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE bills SET version = version + 1, updated_at = ? WHERE id = ? AND version = ?",
		time.Now().Unix(), payment.BillID, result.BillVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to bump bill version: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	} else if n == 0 {
		return versionMismatch(ctx, tx, payment.BillID, result.BillVersion)
	}

	if !result.Credit.IsPositive() {
		return nil
	}

	var paid string
	err = tx.QueryRowContext(ctx,
		"SELECT paid FROM participants WHERE id = ? AND bill_id = ?",
		payment.ParticipantID, payment.BillID,
	).Scan(&paid)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("participant %s: %w", payment.ParticipantID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get participant: %w", err)
	}

	current, err := parseAmount(paid, payment.Amount.Currency)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE participants SET paid = ? WHERE id = ?",
		amountString(current.Add(result.Credit.In(payment.Amount.Currency))), payment.ParticipantID,
	)
	if err != nil {
		return fmt.Errorf("failed to credit participant: %w", err)
	}
	return nil
}

func scanPayment(row scanner) (*models.Payment, error) {
	payment := &models.Payment{}
	var amount, currency, credited string
	if err := row.Scan(&payment.ID, &payment.BillID, &payment.ParticipantID, &payment.UserID,
		&amount, &currency, &payment.Status, &payment.Reference, &credited,
		&payment.CreatedAt, &payment.CompletedAt); err != nil {
		return nil, err
	}
	var err error
	if payment.Amount, err = parseAmount(amount, currency); err != nil {
		return nil, err
	}
	if payment.Credited, err = parseAmount(credited, currency); err != nil {
		return nil, err
	}
	return payment, nil
}
