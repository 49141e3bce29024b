package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/ebills/internal/models"
)

// CreateComment adds a comment to a bill's discussion.
func (s *SQLiteStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	if comment.CreatedAt == 0 {
		comment.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO comments (id, bill_id, author_id, text, created_at) VALUES (?, ?, ?, ?, ?)",
		comment.ID, comment.BillID, comment.AuthorID, comment.Text, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// ListComments returns a bill's comments, oldest first.
func (s *SQLiteStore) ListComments(ctx context.Context, billID string) ([]*models.Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, bill_id, author_id, text, created_at FROM comments WHERE bill_id = ? ORDER BY created_at, rowid",
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		c := &models.Comment{}
		if err := rows.Scan(&c.ID, &c.BillID, &c.AuthorID, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return comments, nil
}

// AppendHistory records an entry in a bill's audit trail.
func (s *SQLiteStore) AppendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().Unix()
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO bill_history (bill_id, actor_id, action, details, created_at) VALUES (?, ?, ?, ?, ?)",
		entry.BillID, entry.ActorID, entry.Action, entry.Details, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	if entry.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to get history entry id: %w", err)
	}
	return nil
}

// ListHistory returns a bill's audit trail in the order it happened.
func (s *SQLiteStore) ListHistory(ctx context.Context, billID string) ([]*models.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, bill_id, actor_id, action, details, created_at FROM bill_history WHERE bill_id = ? ORDER BY id",
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		e := &models.HistoryEntry{}
		if err := rows.Scan(&e.ID, &e.BillID, &e.ActorID, &e.Action, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return entries, nil
}
