package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/ebills/internal/auth"
	"github.com/mmynk/ebills/internal/models"
)

type emptyMessage struct{}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	user := &models.User{ID: "user-1", Email: "a@example.com"}
	token, _, err := jwtManager.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var seen auth.Session
	next := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		seen, _ = auth.SessionFrom(ctx)
		return connect.NewResponse(&emptyMessage{}), nil
	}
	handler := RequireAuth(jwtManager)(next)

	tests := []struct {
		name   string
		header string
		code   connect.Code
	}{
		{"missing header", "", connect.CodeUnauthenticated},
		{"wrong scheme", "Basic " + token, connect.CodeUnauthenticated},
		{"bad token", "Bearer nope", connect.CodeUnauthenticated},
		{"valid token", "Bearer " + token, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = auth.Session{}
			req := connect.NewRequest(&emptyMessage{})
			if tt.header != "" {
				req.Header().Set("Authorization", tt.header)
			}

			_, err := handler(context.Background(), req)
			if tt.code == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if seen.UserID != user.ID {
					t.Errorf("expected session for %s, got %+v", user.ID, seen)
				}
				return
			}
			if connect.CodeOf(err) != tt.code {
				t.Fatalf("expected %v, got %v", tt.code, err)
			}
			if seen.UserID != "" {
				t.Error("handler must not run without a valid token")
			}
		})
	}
}

func TestMetricsInterceptor(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	ok := m.Interceptor()(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return connect.NewResponse(&emptyMessage{}), nil
	})
	failing := m.Interceptor()(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("missing"))
	})

	ok(context.Background(), connect.NewRequest(&emptyMessage{}))
	ok(context.Background(), connect.NewRequest(&emptyMessage{}))
	failing(context.Background(), connect.NewRequest(&emptyMessage{}))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	counts := make(map[string]float64)
	for _, f := range families {
		if f.GetName() != "ebills_rpc_requests_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "code" {
					counts[label.GetValue()] = metric.GetCounter().GetValue()
				}
			}
		}
	}
	if counts["ok"] != 2 || counts["not_found"] != 1 {
		t.Errorf("unexpected request counts: %v", counts)
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		code connect.Code
		want slog.Level
	}{
		{connect.CodeInvalidArgument, slog.LevelWarn},
		{connect.CodeUnauthenticated, slog.LevelWarn},
		{connect.CodeAborted, slog.LevelWarn},
		{connect.CodeInternal, slog.LevelError},
		{connect.CodeUnknown, slog.LevelError},
		{connect.CodeUnavailable, slog.LevelError},
	}
	for _, tt := range tests {
		if got := levelFor(tt.code); got != tt.want {
			t.Errorf("levelFor(%v) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestLoggingInterceptor(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := LoggingInterceptor(logger)(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("bill not found"))
	})
	ctx := auth.WithSession(context.Background(), auth.Session{UserID: "user-1"})
	if _, err := handler(ctx, connect.NewRequest(&emptyMessage{})); connect.CodeOf(err) != connect.CodeNotFound {
		t.Fatalf("expected the error to pass through, got %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"level":"WARN"`, `"code":"not_found"`, `"user_id":"user-1"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in log line %s", want, out)
		}
	}
}
