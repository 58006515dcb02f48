package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bodyshop/internal/authz"
	"bodyshop/internal/domain/services"
	"bodyshop/internal/domain/storage"
)

func TestProtectedPathWithoutCredential(t *testing.T) {
	auditStore := &auditStoreMem{}
	app := newTestApplication(t, &storage.Container{AuditLogs: auditStore}, auditStore)
	mux := app.mount()

	req := httptest.NewRequest(http.MethodGet, "/v1/client/bookings", nil)
	rr := executeRequest(req, mux)

	checkResponseCode(t, http.StatusUnauthorized, rr.Code)

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Message != "authentication required" {
		t.Errorf("expected generic missing-credential message, got %q", body.Message)
	}

	if got := len(auditStore.all()); got != 0 {
		t.Errorf("rejected request must not produce audit entries, got %d", got)
	}
}

func TestProtectedPathWithInvalidToken(t *testing.T) {
	auditStore := &auditStoreMem{}
	app := newTestApplication(t, &storage.Container{AuditLogs: auditStore}, auditStore)
	mux := app.mount()

	for _, token := range []string{"garbage", "a.b.c"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/client/bookings", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := executeRequest(req, mux)

		checkResponseCode(t, http.StatusUnauthorized, rr.Code)

		var body struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if body.Message != "invalid or expired token" {
			t.Errorf("expected generic bad-token message, got %q", body.Message)
		}
	}
}

func TestPublicPathIgnoresBadToken(t *testing.T) {
	auditStore := &auditStoreMem{}
	store := &storage.Container{
		Services: &servicesStoreStub{
			list: func(_ context.Context, activeOnly bool) ([]services.Service, error) {
				if !activeOnly {
					t.Error("anonymous catalog listing must only show active services")
				}
				return []services.Service{}, nil
			},
		},
		AuditLogs: auditStore,
	}
	app := newTestApplication(t, store, auditStore)
	mux := app.mount()

	req := httptest.NewRequest(http.MethodGet, "/v1/services", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rr := executeRequest(req, mux)

	checkResponseCode(t, http.StatusOK, rr.Code)
}

func TestBearerHeaderPreferredOverCookie(t *testing.T) {
	auditStore := &auditStoreMem{}
	app := newTestApplication(t, &storage.Container{AuditLogs: auditStore}, auditStore)

	// A stale cookie next to a valid header must not shadow it.
	token := app.testToken(t, 7, authz.RoleClient, "kim@example.com")
	req := httptest.NewRequest(http.MethodGet, "/v1/client/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "stale-garbage"})

	extracted, err := extractToken(req)
	if err != nil {
		t.Fatalf("extracting token: %v", err)
	}
	if extracted != token {
		t.Error("bearer header should win over the access_token cookie")
	}
}

func TestCookieFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/client/bookings", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "cookie-token"})

	extracted, err := extractToken(req)
	if err != nil {
		t.Fatalf("extracting token: %v", err)
	}
	if extracted != "cookie-token" {
		t.Errorf("expected cookie token, got %q", extracted)
	}
}

func TestRoleGateHidesRequiredRoles(t *testing.T) {
	auditStore := &auditStoreMem{}
	app := newTestApplication(t, &storage.Container{AuditLogs: auditStore}, auditStore)
	mux := app.mount()

	token := app.testToken(t, 7, authz.RoleClient, "kim@example.com")
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := executeRequest(req, mux)

	checkResponseCode(t, http.StatusForbidden, rr.Code)

	for _, role := range []string{authz.RoleStaff, authz.RoleAdmin} {
		if strings.Contains(rr.Body.String(), role) {
			t.Errorf("403 body leaked required role %q: %s", role, rr.Body.String())
		}
	}
}
