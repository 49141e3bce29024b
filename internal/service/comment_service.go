package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"connectrpc.com/connect"

	"github.com/mmynk/ebills/internal/models"
	"github.com/mmynk/ebills/internal/storage"
	"github.com/mmynk/ebills/pkg/api"
	"github.com/mmynk/ebills/pkg/api/apiconnect"
)

const maxCommentLength = 1000

var _ apiconnect.CommentServiceHandler = (*CommentService)(nil)

// CommentService implements the Connect CommentService: a discussion thread
// per bill, visible to its organizer and participants.
type CommentService struct {
	store storage.Store
}

func NewCommentService(store storage.Store) *CommentService {
	return &CommentService{store: store}
}

// ListComments returns a bill's comments, oldest first.
func (s *CommentService) ListComments(ctx context.Context, req *connect.Request[api.ListCommentsRequest]) (*connect.Response[api.ListCommentsResponse], error) {
	session, err := callerSession(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := loadMemberBill(ctx, s.store, req.Msg.BillID, session.UserID); err != nil {
		return nil, toConnectError(err)
	}

	comments, err := s.store.ListComments(ctx, req.Msg.BillID)
	if err != nil {
		slog.Error("ListComments failed", "bill_id", req.Msg.BillID, "error", err)
		return nil, toConnectError(err)
	}

	authors := make([]string, len(comments))
	for i, c := range comments {
		authors[i] = c.AuthorID
	}
	names, err := s.store.ResolveDisplayNames(ctx, authors)
	if err != nil {
		slog.Warn("Failed to resolve display names", "error", err)
	}

	out := make([]api.Comment, len(comments))
	for i, c := range comments {
		out[i] = toAPIComment(c, names[c.AuthorID])
	}
	return connect.NewResponse(&api.ListCommentsResponse{Comments: out}), nil
}

// CreateComment posts a comment as the caller.
func (s *CommentService) CreateComment(ctx context.Context, req *connect.Request[api.CreateCommentRequest]) (*connect.Response[api.CreateCommentResponse], error) {
	session, err := callerSession(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateComment request received", "bill_id", req.Msg.BillID)

	text := strings.TrimSpace(req.Msg.Text)
	if text == "" {
		return nil, invalidArgument("comment text is required")
	}
	if utf8.RuneCountInString(text) > maxCommentLength {
		return nil, invalidArgument("comment is longer than %d characters", maxCommentLength)
	}

	if _, err := loadMemberBill(ctx, s.store, req.Msg.BillID, session.UserID); err != nil {
		return nil, toConnectError(err)
	}

	comment := &models.Comment{
		BillID:   req.Msg.BillID,
		AuthorID: session.UserID,
		Text:     text,
	}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		slog.Error("CreateComment failed", "bill_id", req.Msg.BillID, "error", err)
		return nil, toConnectError(err)
	}

	names, _ := s.store.ResolveDisplayNames(ctx, []string{session.UserID})
	return connect.NewResponse(&api.CreateCommentResponse{
		Comment: toAPIComment(comment, names[session.UserID]),
	}), nil
}

func toAPIComment(c *models.Comment, authorName string) api.Comment {
	return api.Comment{
		ID:         c.ID,
		BillID:     c.BillID,
		AuthorID:   c.AuthorID,
		AuthorName: authorName,
		Text:       c.Text,
		CreatedAt:  c.CreatedAt,
	}
}
