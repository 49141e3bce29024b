package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/ebills/pkg/api"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	reg, err := env.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:       "Alice@Example.com",
		Password:    "correct horse",
		DisplayName: "Alice",
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if reg.Msg.Token == "" || reg.Msg.ExpiresAt == 0 {
		t.Fatalf("expected a token, got %+v", reg.Msg)
	}
	if reg.Msg.User.DisplayName != "Alice" {
		t.Errorf("expected display name Alice, got %s", reg.Msg.User.DisplayName)
	}

	login, err := env.auth.Login(context.Background(), connect.NewRequest(&api.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct horse",
	}))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if login.Msg.User.ID != reg.Msg.User.ID {
		t.Errorf("expected user %s, got %s", reg.Msg.User.ID, login.Msg.User.ID)
	}

	req := connect.NewRequest(&api.GetCurrentUserRequest{})
	req.Header().Set("Authorization", "Bearer "+login.Msg.Token)
	me, err := env.auth.GetCurrentUser(context.Background(), req)
	if err != nil {
		t.Fatalf("GetCurrentUser failed: %v", err)
	}
	if me.Msg.User.ID != reg.Msg.User.ID {
		t.Errorf("expected current user %s, got %s", reg.Msg.User.ID, me.Msg.User.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email: "bob@example.com", Password: "password1", DisplayName: "Bob",
	})); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tests := []struct {
		name string
		req  *api.RegisterRequest
		code connect.Code
	}{
		{"duplicate email", &api.RegisterRequest{Email: "bob@example.com", Password: "password1", DisplayName: "Bob"}, connect.CodeAlreadyExists},
		{"weak password", &api.RegisterRequest{Email: "carol@example.com", Password: "short", DisplayName: "Carol"}, connect.CodeInvalidArgument},
		{"invalid email", &api.RegisterRequest{Email: "not-an-email", Password: "password1", DisplayName: "Carol"}, connect.CodeInvalidArgument},
		{"missing name", &api.RegisterRequest{Email: "carol@example.com", Password: "password1"}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), connect.NewRequest(tt.req))
			expectCode(t, err, tt.code)
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email: "dave@example.com", Password: "password1", DisplayName: "Dave",
	})); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, err := env.auth.Login(context.Background(), connect.NewRequest(&api.LoginRequest{
		Email: "dave@example.com", Password: "password2",
	}))
	expectCode(t, err, connect.CodeUnauthenticated)

	_, err = env.auth.Login(context.Background(), connect.NewRequest(&api.LoginRequest{
		Email: "nobody@example.com", Password: "password1",
	}))
	expectCode(t, err, connect.CodeUnauthenticated)
}

func TestGetCurrentUserRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.GetCurrentUser(context.Background(), connect.NewRequest(&api.GetCurrentUserRequest{}))
	expectCode(t, err, connect.CodeUnauthenticated)
}
