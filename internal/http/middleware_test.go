package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"freightdeck/internal/auth"
)

func newSessionedAuthService(t *testing.T) (*auth.Service, string) {
	t.Helper()
	svc := auth.NewService(auth.NewInMemoryRepository(), &provisionerStub{}, time.Hour)
	user, err := svc.CreateOrUpdateUser(context.Background(), &auth.GoogleClaims{
		Sub:           "sub-1",
		Email:         "owner@example.com",
		EmailVerified: true,
		Name:          "Owner",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := svc.CreateSession(context.Background(), user.ID, "test-agent", "127.0.0.1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return svc, token
}

func TestAuthMiddlewareRejectsMissingCookie(t *testing.T) {
	svc, _ := newSessionedAuthService(t)
	mw := newAuthMiddleware(svc, discardLogger())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run without a session")
	})
	req := httptest.NewRequest(http.MethodGet, "/api/shipments", nil)
	rec := httptest.NewRecorder()

	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareRejectsUnknownToken(t *testing.T) {
	svc, _ := newSessionedAuthService(t)
	mw := newAuthMiddleware(svc, discardLogger())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run with a bad session")
	})
	req := httptest.NewRequest(http.MethodGet, "/api/shipments", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "not-a-session"})
	rec := httptest.NewRecorder()

	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareInjectsUser(t *testing.T) {
	svc, token := newSessionedAuthService(t)
	mw := newAuthMiddleware(svc, discardLogger())

	var seen *auth.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/api/shipments", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	rec := httptest.NewRecorder()

	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if seen == nil || seen.Email != "owner@example.com" {
		t.Fatalf("expected user in context, got %+v", seen)
	}
}

func TestSecurityHeaders(t *testing.T) {
	mw := newSecurityHeadersMiddleware("production")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	mw(next).ServeHTTP(rec, req)

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected nosniff header")
	}
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Fatal("expected HSTS header outside development")
	}
}

func TestSecurityHeadersDevelopmentSkipsHSTS(t *testing.T) {
	mw := newSecurityHeadersMiddleware("development")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	mw(next).ServeHTTP(rec, req)

	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("HSTS must not be set in development")
	}
}
