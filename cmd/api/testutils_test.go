package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bodyshop/internal/audit"
	"bodyshop/internal/auth"
	"bodyshop/internal/domain/bookings"
	"bodyshop/internal/domain/reviews"
	"bodyshop/internal/domain/services"
	"bodyshop/internal/domain/storage"
	"bodyshop/internal/ratelimiter"

	"go.uber.org/zap"
)

var errStubNotWired = errors.New("stub method not wired")

// auditStoreMem captures audit entries in memory.
type auditStoreMem struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (s *auditStoreMem) Insert(_ context.Context, entry *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *auditStoreMem) List(_ context.Context, _ audit.Filter) ([]audit.Entry, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.Entry, len(s.entries))
	copy(out, s.entries)
	return out, len(out), nil
}

func (s *auditStoreMem) all() []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// bookingsStoreStub wires individual methods per test; unwired methods fail.
type bookingsStoreStub struct {
	getByID      func(ctx context.Context, id int64) (*bookings.Booking, error)
	getByUser    func(ctx context.Context, userID int64) ([]bookings.UserBooking, error)
	cancel       func(ctx context.Context, id int64) (string, error)
	updateStatus func(ctx context.Context, id int64, status string) (string, error)
}

func (s *bookingsStoreStub) Create(context.Context, *bookings.Booking, int, func(int64) (string, error)) error {
	return errStubNotWired
}

func (s *bookingsStoreStub) GetByID(ctx context.Context, id int64) (*bookings.Booking, error) {
	if s.getByID == nil {
		return nil, errStubNotWired
	}
	return s.getByID(ctx, id)
}

func (s *bookingsStoreStub) GetByUser(ctx context.Context, userID int64) ([]bookings.UserBooking, error) {
	if s.getByUser == nil {
		return nil, errStubNotWired
	}
	return s.getByUser(ctx, userID)
}

func (s *bookingsStoreStub) ListAdmin(context.Context, bookings.ListFilter) ([]bookings.AdminBookingRow, int, error) {
	return nil, 0, errStubNotWired
}

func (s *bookingsStoreStub) UpdateStatus(ctx context.Context, id int64, status string) (string, error) {
	if s.updateStatus == nil {
		return "", errStubNotWired
	}
	return s.updateStatus(ctx, id, status)
}

func (s *bookingsStoreStub) Cancel(ctx context.Context, id int64) (string, error) {
	if s.cancel == nil {
		return "", errStubNotWired
	}
	return s.cancel(ctx, id)
}

func (s *bookingsStoreStub) GetDropOffsForDate(context.Context, time.Time) ([]time.Time, error) {
	return nil, errStubNotWired
}

func (s *bookingsStoreStub) CountByStatus(context.Context) (map[string]int, error) {
	return nil, errStubNotWired
}

type reviewsStoreStub struct {
	updateStatus func(ctx context.Context, id int64, status string) (string, error)
}

func (s *reviewsStoreStub) Create(context.Context, *reviews.Review) error { return errStubNotWired }

func (s *reviewsStoreStub) GetByID(context.Context, int64) (*reviews.Review, error) {
	return nil, errStubNotWired
}

func (s *reviewsStoreStub) ListApproved(context.Context, int) ([]reviews.PublicReview, error) {
	return nil, errStubNotWired
}

func (s *reviewsStoreStub) ListAdmin(context.Context, reviews.ListFilter) ([]reviews.Review, int, error) {
	return nil, 0, errStubNotWired
}

func (s *reviewsStoreStub) UpdateStatus(ctx context.Context, id int64, status string) (string, error) {
	if s.updateStatus == nil {
		return "", errStubNotWired
	}
	return s.updateStatus(ctx, id, status)
}

func (s *reviewsStoreStub) Delete(context.Context, int64) (*reviews.Review, error) {
	return nil, errStubNotWired
}

func (s *reviewsStoreStub) CountPending(context.Context) (int, error) { return 0, errStubNotWired }

type servicesStoreStub struct {
	list func(ctx context.Context, activeOnly bool) ([]services.Service, error)
}

func (s *servicesStoreStub) Create(context.Context, *services.Service) error { return errStubNotWired }

func (s *servicesStoreStub) GetByID(context.Context, int64) (*services.Service, error) {
	return nil, errStubNotWired
}

func (s *servicesStoreStub) GetBySlug(context.Context, string) (*services.Service, error) {
	return nil, errStubNotWired
}

func (s *servicesStoreStub) List(ctx context.Context, activeOnly bool) ([]services.Service, error) {
	if s.list == nil {
		return nil, errStubNotWired
	}
	return s.list(ctx, activeOnly)
}

func (s *servicesStoreStub) Update(context.Context, int64, services.Changes) (services.Changes, error) {
	return nil, errStubNotWired
}

func (s *servicesStoreStub) Delete(context.Context, int64) (*services.Service, error) {
	return nil, errStubNotWired
}

// newTestApplication builds an application backed by stub stores and a real
// token verifier with throwaway secrets.
func newTestApplication(t *testing.T, store *storage.Container, auditStore *auditStoreMem) *application {
	t.Helper()

	logger := zap.NewNop().Sugar()

	cfg := config{
		addr: ":0",
		auth: authConfig{
			token: tokenConfig{
				secret:          "test-secret",
				refreshSecret:   "test-refresh-secret",
				accessTokenExp:  time.Hour,
				refreshTokenExp: 24 * time.Hour,
				iss:             "bodyshop",
			},
		},
		rateLimiter:       ratelimiter.Config{Enabled: false},
		adminEmails:       []string{"owner@kerbside.test"},
		protectedPrefixes: []string{"/v1/client", "/v1/admin", "/v1/users"},
	}

	return &application{
		config: cfg,
		logger: logger,
		store:  store,
		authenticator: auth.NewJWTAuthenticator(
			cfg.auth.token.secret,
			cfg.auth.token.refreshSecret,
			cfg.auth.token.iss,
			cfg.auth.token.accessTokenExp,
			cfg.auth.token.refreshTokenExp,
		),
		auditor: audit.NewWriter(auditStore, logger),
	}
}

func (app *application) testToken(t *testing.T, userID int64, role, email string) string {
	t.Helper()

	token, _, err := app.authenticator.GenerateTokens(userID, role, email)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}
	return token
}

func executeRequest(req *http.Request, mux http.Handler) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func checkResponseCode(t *testing.T, expected, actual int) {
	t.Helper()
	if expected != actual {
		t.Errorf("expected response code %d, got %d", expected, actual)
	}
}
