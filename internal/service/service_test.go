package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/ebills/internal/auth"
	"github.com/mmynk/ebills/internal/editsession"
	"github.com/mmynk/ebills/internal/middleware"
	"github.com/mmynk/ebills/internal/models"
	"github.com/mmynk/ebills/internal/notify"
	"github.com/mmynk/ebills/internal/payment"
	"github.com/mmynk/ebills/internal/storage/sqlite"
	"github.com/mmynk/ebills/pkg/api"
	"github.com/mmynk/ebills/pkg/api/apiconnect"
)

// recordingNotifier keeps every event it is asked to send.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Notify(_ context.Context, event notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) kinds() []notify.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	kinds := make([]notify.Kind, len(n.events))
	for i, e := range n.events {
		kinds[i] = e.Kind
	}
	return kinds
}

func (n *recordingNotifier) last(kind notify.Kind) (notify.Event, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.events) - 1; i >= 0; i-- {
		if n.events[i].Kind == kind {
			return n.events[i], true
		}
	}
	return notify.Event{}, false
}

// hookedStore lets a test step into bill edits: beforeEdit runs ahead of
// every edit and wrap replaces the persister the edit writes through.
type hookedStore struct {
	*sqlite.SQLiteStore

	mu         sync.Mutex
	beforeEdit func()
	wrap       func(editsession.Persister) editsession.Persister
}

func (s *hookedStore) EditBill(ctx context.Context, billID string, version int64, fn func(editsession.Persister) error) error {
	s.mu.Lock()
	before, wrap := s.beforeEdit, s.wrap
	s.beforeEdit = nil
	s.mu.Unlock()

	if before != nil {
		before()
	}
	return s.SQLiteStore.EditBill(ctx, billID, version, func(p editsession.Persister) error {
		if wrap != nil {
			p = wrap(p)
		}
		return fn(p)
	})
}

// setHooks installs hooks for the next edits. beforeEdit fires once.
func (s *hookedStore) setHooks(beforeEdit func(), wrap func(editsession.Persister) editsession.Persister) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforeEdit, s.wrap = beforeEdit, wrap
}

// testEnv is a running server with every service behind the real auth middleware.
type testEnv struct {
	store    *sqlite.SQLiteStore
	hooks    *hookedStore
	jwt      *auth.JWTManager
	gateway  *payment.SignedGateway
	notifier *recordingNotifier
	tokens   map[string]string

	auth     apiconnect.AuthServiceClient
	bills    apiconnect.BillServiceClient
	comments apiconnect.CommentServiceClient
	groups   apiconnect.GroupServiceClient
	payments apiconnect.PaymentServiceClient
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	env := &testEnv{
		store:    store,
		hooks:    &hookedStore{SQLiteStore: store},
		jwt:      auth.NewJWTManager("test-secret", time.Hour),
		gateway:  payment.NewSignedGateway("merchant-key", "https://pay.example/checkout"),
		notifier: &recordingNotifier{},
		tokens:   make(map[string]string),
	}

	interceptors := connect.WithInterceptors(
		middleware.RequireAuth(env.jwt,
			apiconnect.AuthServiceRegisterProcedure,
			apiconnect.AuthServiceLoginProcedure,
			apiconnect.PaymentServiceConfirmPaymentProcedure,
		),
	)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(NewAuthService(authenticator, env.jwt, store, slog.Default()), interceptors))
	mux.Handle(apiconnect.NewBillServiceHandler(NewBillService(env.hooks, env.notifier), interceptors))
	mux.Handle(apiconnect.NewCommentServiceHandler(NewCommentService(store), interceptors))
	mux.Handle(apiconnect.NewGroupServiceHandler(NewGroupService(store), interceptors))
	mux.Handle(apiconnect.NewPaymentServiceHandler(NewPaymentService(env.hooks, env.gateway, env.notifier), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	env.auth = apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL)
	env.bills = apiconnect.NewBillServiceClient(http.DefaultClient, server.URL)
	env.comments = apiconnect.NewCommentServiceClient(http.DefaultClient, server.URL)
	env.groups = apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL)
	env.payments = apiconnect.NewPaymentServiceClient(http.DefaultClient, server.URL)
	return env
}

// user registers a user directly in the store and returns its id.
func (e *testEnv) user(t *testing.T, name string) string {
	t.Helper()
	u := models.NewUser(fmt.Sprintf("%s@example.com", name), name, "x")
	if err := e.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	token, _, err := e.jwt.Generate(u)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	e.tokens[u.ID] = token
	return u.ID
}

// as builds a request authenticated as userID.
func as[T any](e *testEnv, userID string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if token, ok := e.tokens[userID]; ok {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	return req
}

func expectCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected code %v, got %v (%v)", want, got, err)
	}
}

func findParticipant(t *testing.T, bill api.Bill, userID string) api.Participant {
	t.Helper()
	for _, p := range bill.Participants {
		if p.UserID == userID {
			return p
		}
	}
	t.Fatalf("user %s is not on bill %s", userID, bill.ID)
	return api.Participant{}
}

// createBill creates a bill as organizer and fails the test on error.
func (e *testEnv) createBill(t *testing.T, organizer string, msg *api.CreateBillRequest) api.Bill {
	t.Helper()
	if msg.Currency == "" {
		msg.Currency = "UAH"
	}
	resp, err := e.bills.CreateBill(context.Background(), as(e, organizer, msg))
	if err != nil {
		t.Fatalf("CreateBill failed: %v", err)
	}
	return resp.Msg.Bill
}

func strPtr(s string) *string { return &s }

func TestRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.bills.ListBills(context.Background(), connect.NewRequest(&api.ListBillsRequest{}))
	expectCode(t, err, connect.CodeUnauthenticated)

	req := connect.NewRequest(&api.ListBillsRequest{})
	req.Header().Set("Authorization", "Bearer not-a-token")
	_, err = env.bills.ListBills(context.Background(), req)
	expectCode(t, err, connect.CodeUnauthenticated)
}
