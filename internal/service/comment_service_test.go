package service

import (
	"context"
	"strings"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/ebills/internal/models"
	"github.com/mmynk/ebills/pkg/api"
)

func TestComments(t *testing.T) {
	env := newTestEnv(t)
	org, alice, eve := env.user(t, "org"), env.user(t, "alice"), env.user(t, "eve")

	bill := env.createBill(t, org, &api.CreateBillRequest{
		Scenario:        string(models.EqualSplit),
		OrganizerAmount: "100",
		Participants:    []api.ParticipantInput{{UserID: alice}},
	})

	for _, c := range []struct{ user, text string }{
		{alice, "  paid you in cash  "},
		{org, "thanks!"},
	} {
		if _, err := env.comments.CreateComment(context.Background(), as(env, c.user, &api.CreateCommentRequest{
			BillID: bill.ID,
			Text:   c.text,
		})); err != nil {
			t.Fatalf("CreateComment failed: %v", err)
		}
	}

	resp, err := env.comments.ListComments(context.Background(), as(env, org, &api.ListCommentsRequest{BillID: bill.ID}))
	if err != nil {
		t.Fatalf("ListComments failed: %v", err)
	}
	comments := resp.Msg.Comments
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(comments))
	}
	if comments[0].Text != "paid you in cash" || comments[0].AuthorName != "alice" {
		t.Errorf("unexpected first comment: %+v", comments[0])
	}
	if comments[1].AuthorID != org {
		t.Errorf("expected second comment by the organizer, got %+v", comments[1])
	}

	_, err = env.comments.ListComments(context.Background(), as(env, eve, &api.ListCommentsRequest{BillID: bill.ID}))
	expectCode(t, err, connect.CodePermissionDenied)
}

func TestCreateCommentValidation(t *testing.T) {
	env := newTestEnv(t)
	org, alice, eve := env.user(t, "org"), env.user(t, "alice"), env.user(t, "eve")

	bill := env.createBill(t, org, &api.CreateBillRequest{
		Scenario:        string(models.EqualSplit),
		OrganizerAmount: "100",
		Participants:    []api.ParticipantInput{{UserID: alice}},
	})

	tests := []struct {
		name string
		user string
		req  *api.CreateCommentRequest
		code connect.Code
	}{
		{"empty", alice, &api.CreateCommentRequest{BillID: bill.ID, Text: " \n "}, connect.CodeInvalidArgument},
		{"too long", alice, &api.CreateCommentRequest{BillID: bill.ID, Text: strings.Repeat("a", maxCommentLength+1)}, connect.CodeInvalidArgument},
		{"not a member", eve, &api.CreateCommentRequest{BillID: bill.ID, Text: "hi"}, connect.CodePermissionDenied},
		{"unknown bill", alice, &api.CreateCommentRequest{BillID: "missing", Text: "hi"}, connect.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.comments.CreateComment(context.Background(), as(env, tt.user, tt.req))
			expectCode(t, err, tt.code)
		})
	}
}
