package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bodyshop/internal/authz"
	"bodyshop/internal/domain/bookings"
	"bodyshop/internal/domain/storage"
)

func pendingBookingOwnedBy(userID int64) *bookings.Booking {
	return &bookings.Booking{
		ID:        42,
		Reference: "BS-K8ZT2M",
		UserID:    userID,
		ServiceID: 1,
		DropOffAt: time.Now().Add(48 * time.Hour),
		Status:    bookings.StatusPending,
	}
}

func TestCancelBookingAsOwner(t *testing.T) {
	auditStore := &auditStoreMem{}
	cancelled := false
	store := &storage.Container{
		Bookings: &bookingsStoreStub{
			getByID: func(_ context.Context, id int64) (*bookings.Booking, error) {
				return pendingBookingOwnedBy(7), nil
			},
			cancel: func(_ context.Context, id int64) (string, error) {
				cancelled = true
				return bookings.StatusPending, nil
			},
		},
		AuditLogs: auditStore,
	}
	app := newTestApplication(t, store, auditStore)
	mux := app.mount()

	token := app.testToken(t, 7, authz.RoleClient, "kim@example.com")
	req := httptest.NewRequest(http.MethodPost, "/v1/client/bookings/42/cancel", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := executeRequest(req, mux)

	checkResponseCode(t, http.StatusOK, rr.Code)
	if !cancelled {
		t.Error("expected the booking to be cancelled")
	}

	entries := auditStore.all()
	if len(entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(entries))
	}
	if entries[0].OldValues["status"] != bookings.StatusPending ||
		entries[0].NewValues["status"] != bookings.StatusCancelled {
		t.Errorf("unexpected audit values: %+v", entries[0])
	}
	if entries[0].ActorID != 7 {
		t.Errorf("expected actor 7, got %d", entries[0].ActorID)
	}
}

func TestCancelBookingAsNonOwner(t *testing.T) {
	auditStore := &auditStoreMem{}
	store := &storage.Container{
		Bookings: &bookingsStoreStub{
			getByID: func(context.Context, int64) (*bookings.Booking, error) {
				return pendingBookingOwnedBy(7), nil
			},
			cancel: func(context.Context, int64) (string, error) {
				t.Error("cancel must not run for a non-owner")
				return "", nil
			},
		},
		AuditLogs: auditStore,
	}
	app := newTestApplication(t, store, auditStore)
	mux := app.mount()

	token := app.testToken(t, 9, authz.RoleClient, "other@example.com")
	req := httptest.NewRequest(http.MethodPost, "/v1/client/bookings/42/cancel", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := executeRequest(req, mux)

	checkResponseCode(t, http.StatusForbidden, rr.Code)

	if got := len(auditStore.all()); got != 0 {
		t.Errorf("denied cancellation must not produce audit entries, got %d", got)
	}
}

func TestCancelBookingAsStaffFallback(t *testing.T) {
	auditStore := &auditStoreMem{}
	store := &storage.Container{
		Bookings: &bookingsStoreStub{
			getByID: func(context.Context, int64) (*bookings.Booking, error) {
				return pendingBookingOwnedBy(7), nil
			},
			cancel: func(context.Context, int64) (string, error) {
				return bookings.StatusConfirmed, nil
			},
		},
		AuditLogs: auditStore,
	}
	app := newTestApplication(t, store, auditStore)
	mux := app.mount()

	token := app.testToken(t, 3, authz.RoleStaff, "staff@kerbside.test")
	req := httptest.NewRequest(http.MethodPost, "/v1/client/bookings/42/cancel", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := executeRequest(req, mux)

	checkResponseCode(t, http.StatusOK, rr.Code)
}

func TestCancelCompletedBooking(t *testing.T) {
	auditStore := &auditStoreMem{}
	store := &storage.Container{
		Bookings: &bookingsStoreStub{
			getByID: func(context.Context, int64) (*bookings.Booking, error) {
				b := pendingBookingOwnedBy(7)
				b.Status = bookings.StatusCompleted
				return b, nil
			},
			cancel: func(context.Context, int64) (string, error) {
				return "", bookings.ErrNotCancellable
			},
		},
		AuditLogs: auditStore,
	}
	app := newTestApplication(t, store, auditStore)
	mux := app.mount()

	token := app.testToken(t, 7, authz.RoleClient, "kim@example.com")
	req := httptest.NewRequest(http.MethodPost, "/v1/client/bookings/42/cancel", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := executeRequest(req, mux)

	checkResponseCode(t, http.StatusConflict, rr.Code)

	if got := len(auditStore.all()); got != 0 {
		t.Errorf("failed cancellation must not produce audit entries, got %d", got)
	}
}
