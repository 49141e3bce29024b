// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/ebills/internal/editsession"
	"github.com/mmynk/ebills/internal/models"
	"github.com/mmynk/ebills/internal/money"
	"github.com/mmynk/ebills/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas in the DSN apply to every pooled connection.
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const billColumns = `id, name, description, scenario, currency, total_amount, status,
	organizer_id, COALESCE(group_id, ''), version, created_at, updated_at`

// CreateBill persists a new bill to the database.
func (s *SQLiteStore) CreateBill(ctx context.Context, bill *models.Bill) error {
	// Generate IDs if not set
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if bill.CreatedAt == 0 {
		bill.CreatedAt = now
	}
	bill.UpdatedAt = now
	bill.Version = 1
	if bill.Status == "" {
		bill.Status = models.BillOpen
	}
	if bill.Name == "" {
		bill.Name = generateName(len(bill.Participants), time.Unix(bill.CreatedAt, 0))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var groupID any
	if bill.GroupID != "" {
		groupID = bill.GroupID
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO bills (id, name, description, scenario, currency, total_amount, status,
			organizer_id, group_id, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID, bill.Name, bill.Description, bill.Scenario, bill.Currency,
		amountString(bill.TotalAmount), bill.Status, bill.OrganizerID, groupID,
		bill.Version, bill.CreatedAt, bill.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}

	for i := range bill.Participants {
		p := &bill.Participants[i]
		if p.ParticipantID == "" {
			p.ParticipantID = uuid.New().String()
		}
		if err := insertParticipant(ctx, tx, bill.ID, p); err != nil {
			return err
		}
		p.IsNew = false
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetBill retrieves a bill by ID, including its participants in the order
// they were added.
func (s *SQLiteStore) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	bill, err := scanBill(s.db.QueryRowContext(ctx,
		"SELECT "+billColumns+" FROM bills WHERE id = ?", billID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bill %s: %w", billID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	if err := s.loadParticipants(ctx, bill); err != nil {
		return nil, err
	}
	return bill, nil
}

// ListBillsForUser returns the bills a user organizes or takes part in.
func (s *SQLiteStore) ListBillsForUser(ctx context.Context, userID string) ([]*models.Bill, error) {
	return s.listBills(ctx,
		`SELECT `+billColumns+` FROM bills
		 WHERE organizer_id = ? OR id IN (SELECT bill_id FROM participants WHERE user_id = ?)
		 ORDER BY created_at DESC, id`,
		userID, userID,
	)
}

// ListOpenBills returns every bill that is still open.
func (s *SQLiteStore) ListOpenBills(ctx context.Context) ([]*models.Bill, error) {
	return s.listBills(ctx,
		"SELECT "+billColumns+" FROM bills WHERE status = ? ORDER BY created_at, id",
		models.BillOpen,
	)
}

func (s *SQLiteStore) listBills(ctx context.Context, query string, args ...any) ([]*models.Bill, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var bills []*models.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}
	rows.Close()

	for _, bill := range bills {
		if err := s.loadParticipants(ctx, bill); err != nil {
			return nil, err
		}
	}
	return bills, nil
}

// EditBill runs fn with a persister bound to a single transaction. The
// version is bumped first, and only if the bill is still at version, so a
// commit built on a stale read fails with storage.ErrVersionConflict. If fn
// returns an error nothing it wrote is kept.
func (s *SQLiteStore) EditBill(ctx context.Context, billID string, version int64, fn func(p editsession.Persister) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Writing first takes the write lock before anything is read.
	res, err := tx.ExecContext(ctx,
		"UPDATE bills SET version = version + 1, updated_at = ? WHERE id = ? AND version = ?",
		time.Now().Unix(), billID, version,
	)
	if err != nil {
		return fmt.Errorf("failed to bump bill version: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	} else if n == 0 {
		return versionMismatch(ctx, tx, billID, version)
	}

	if err := fn(&billTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// versionMismatch explains why a conditional version bump matched no row.
func versionMismatch(ctx context.Context, q querier, billID string, version int64) error {
	var current int64
	err := q.QueryRowContext(ctx, "SELECT version FROM bills WHERE id = ?", billID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("bill %s: %w", billID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get bill version: %w", err)
	}
	return fmt.Errorf("bill %s is at version %d, not %d: %w", billID, current, version, storage.ErrVersionConflict)
}

// billTx applies edit-session writes inside EditBill's transaction.
type billTx struct {
	tx *sql.Tx
}

var _ editsession.Persister = (*billTx)(nil)

// AddParticipants inserts new rows with the amounts entered for them.
func (b *billTx) AddParticipants(ctx context.Context, billID string, added []editsession.AddedParticipant) ([]string, error) {
	var currency string
	err := b.tx.QueryRowContext(ctx, "SELECT currency FROM bills WHERE id = ?", billID).Scan(&currency)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bill %s: %w", billID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	ids := make([]string, 0, len(added))
	zero := money.Zero(currency)
	for _, a := range added {
		p := &models.Participant{
			ParticipantID: uuid.New().String(),
			UserID:        a.UserID,
			Assigned:      zero,
			Paid:          zero,
			Spent:         zero,
		}
		a.Fields.Apply(p)
		if err := insertParticipant(ctx, b.tx, billID, p); err != nil {
			return nil, err
		}
		ids = append(ids, p.ParticipantID)
	}
	return ids, nil
}

// UpdateParticipant writes only the fields present in the delta.
func (b *billTx) UpdateParticipant(ctx context.Context, billID, participantID string, fields editsession.ParticipantDelta) error {
	if fields.IsEmpty() {
		return nil
	}

	var sets []string
	var args []any
	for _, f := range []struct {
		column string
		value  *money.Money
	}{
		{"assigned", fields.Assigned},
		{"paid", fields.Paid},
		{"spent", fields.Spent},
	} {
		if f.value != nil {
			sets = append(sets, f.column+" = ?")
			args = append(args, amountString(*f.value))
		}
	}
	args = append(args, participantID, billID)

	res, err := b.tx.ExecContext(ctx,
		"UPDATE participants SET "+strings.Join(sets, ", ")+" WHERE id = ? AND bill_id = ?",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to update participant: %w", err)
	}
	return expectRow(res, "participant", participantID)
}

// UpdateBillMeta writes only the bill fields present in the delta.
func (b *billTx) UpdateBillMeta(ctx context.Context, billID string, fields editsession.MetaDelta) error {
	if fields.IsEmpty() {
		return nil
	}

	var sets []string
	var args []any
	if fields.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *fields.Name)
	}
	if fields.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *fields.Description)
	}
	if fields.TotalAmount != nil {
		sets = append(sets, "total_amount = ?")
		args = append(args, amountString(*fields.TotalAmount))
	}
	args = append(args, billID)

	res, err := b.tx.ExecContext(ctx,
		"UPDATE bills SET "+strings.Join(sets, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}
	return expectRow(res, "bill", billID)
}

// RemoveParticipant deletes a participant row.
func (b *billTx) RemoveParticipant(ctx context.Context, billID, participantID string) error {
	res, err := b.tx.ExecContext(ctx,
		"DELETE FROM participants WHERE id = ? AND bill_id = ?",
		participantID, billID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	return expectRow(res, "participant", participantID)
}

// SetBillStatus opens or closes a bill.
func (s *SQLiteStore) SetBillStatus(ctx context.Context, billID string, status models.BillStatus) error {
	return s.inTx(ctx, billID, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE bills SET status = ? WHERE id = ?", status, billID)
		if err != nil {
			return fmt.Errorf("failed to update bill status: %w", err)
		}
		return expectRow(res, "bill", billID)
	})
}

// SetEditor grants or revokes a participant's edit rights.
func (s *SQLiteStore) SetEditor(ctx context.Context, billID, participantID string, isEditor bool) error {
	return s.inTx(ctx, billID, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE participants SET is_editor = ? WHERE id = ? AND bill_id = ?",
			isEditor, participantID, billID,
		)
		if err != nil {
			return fmt.Errorf("failed to update editor rights: %w", err)
		}
		return expectRow(res, "participant", participantID)
	})
}

// DeleteBill removes a bill. Participants, comments, history and payments
// are removed by cascading foreign keys.
func (s *SQLiteStore) DeleteBill(ctx context.Context, billID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM bills WHERE id = ?", billID)
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	return expectRow(res, "bill", billID)
}

// inTx runs fn and bumps the bill's version in one transaction.
func (s *SQLiteStore) inTx(ctx context.Context, billID string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := bumpVersion(ctx, tx, billID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func bumpVersion(ctx context.Context, q querier, billID string) error {
	res, err := q.ExecContext(ctx,
		"UPDATE bills SET version = version + 1, updated_at = ? WHERE id = ?",
		time.Now().Unix(), billID,
	)
	if err != nil {
		return fmt.Errorf("failed to bump bill version: %w", err)
	}
	return expectRow(res, "bill", billID)
}

func insertParticipant(ctx context.Context, q querier, billID string, p *models.Participant) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO participants (id, bill_id, user_id, assigned, paid, spent, is_admin, is_editor)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ParticipantID, billID, p.UserID,
		amountString(p.Assigned), amountString(p.Paid), amountString(p.Spent),
		p.IsAdmin, p.IsEditor,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("participant %s on bill %s: %w", p.UserID, billID, storage.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	return nil
}

func (s *SQLiteStore) loadParticipants(ctx context.Context, bill *models.Bill) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, assigned, paid, spent, is_admin, is_editor
		 FROM participants WHERE bill_id = ? ORDER BY rowid`,
		bill.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	bill.Participants = nil
	for rows.Next() {
		var p models.Participant
		var assigned, paid, spent string
		if err := rows.Scan(&p.ParticipantID, &p.UserID, &assigned, &paid, &spent, &p.IsAdmin, &p.IsEditor); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		if p.Assigned, err = parseAmount(assigned, bill.Currency); err != nil {
			return err
		}
		if p.Paid, err = parseAmount(paid, bill.Currency); err != nil {
			return err
		}
		if p.Spent, err = parseAmount(spent, bill.Currency); err != nil {
			return err
		}
		bill.Participants = append(bill.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate participants: %w", err)
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBill(row scanner) (*models.Bill, error) {
	bill := &models.Bill{}
	var total string
	if err := row.Scan(&bill.ID, &bill.Name, &bill.Description, &bill.Scenario, &bill.Currency,
		&total, &bill.Status, &bill.OrganizerID, &bill.GroupID, &bill.Version,
		&bill.CreatedAt, &bill.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if bill.TotalAmount, err = parseAmount(total, bill.Currency); err != nil {
		return nil, err
	}
	return bill, nil
}

// amountString stores money as a fixed two-decimal string.
func amountString(m money.Money) string {
	return m.Amount.StringFixed(money.Places)
}

func parseAmount(s, currency string) (money.Money, error) {
	m, err := money.Parse(s, currency)
	if err != nil {
		return money.Money{}, fmt.Errorf("corrupt amount in database: %w", err)
	}
	return m, nil
}

func expectRow(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, storage.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// generateName creates a bill name when the organizer did not give one.
func generateName(participants int, created time.Time) string {
	date := created.Format("Jan 2, 2006")
	switch participants {
	case 0:
		return fmt.Sprintf("Bill - %s", date)
	case 1:
		return fmt.Sprintf("Bill for 1 person - %s", date)
	default:
		return fmt.Sprintf("Bill for %d people - %s", participants, date)
	}
}
