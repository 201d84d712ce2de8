package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/civictrack/civictrack-backend/internal/auth"
	"github.com/civictrack/civictrack-backend/internal/users"
	pkgAuth "github.com/civictrack/civictrack-backend/pkg/auth"
	pkgerrors "github.com/civictrack/civictrack-backend/pkg/errors"
)

type stubAuthService struct {
	session   *auth.Session
	refreshed *auth.RefreshResult
	err       error
	loggedOut string
}

func (s *stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.Session, error) {
	return s.session, s.err
}

func (s *stubAuthService) Register(context.Context, auth.RegisterRequest) (*auth.Session, error) {
	return s.session, s.err
}

func (s *stubAuthService) Refresh(_ context.Context, token string) (*auth.RefreshResult, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "No refresh token")
	}
	return s.refreshed, s.err
}

func (s *stubAuthService) Logout(_ context.Context, token string) error {
	s.loggedOut = token
	return s.err
}

var testCookies = pkgAuth.CookieOptions{Secure: true, MaxAge: 7 * 24 * time.Hour}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == pkgAuth.RefreshCookieName {
			return c
		}
	}
	return nil
}

func TestAuthLoginSetsRefreshCookie(t *testing.T) {
	svc := &stubAuthService{session: &auth.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		User:         &users.UserDTO{Name: "Ada", Email: "ada@example.com"},
	}}
	handler := AuthLogin(svc, testCookies, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"ada@example.com","password":"secret1","role":"citizen"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	cookie := refreshCookie(rec)
	if cookie == nil || cookie.Value != "refresh" || !cookie.HttpOnly || !cookie.Secure {
		t.Fatalf("unexpected refresh cookie %+v", cookie)
	}
	if cookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("expected strict same-site, got %v", cookie.SameSite)
	}

	var data map[string]any
	decodeSuccess(t, rec, &data)
	if data["token"] != "access" {
		t.Fatalf("expected access token in body, got %v", data)
	}
	if strings.Contains(rec.Body.String(), `"refresh"`) {
		t.Fatal("refresh token must not appear in the body")
	}
}

func TestAuthLoginValidation(t *testing.T) {
	handler := AuthLogin(&stubAuthService{}, testCookies, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"not-an-email","role":"mayor"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	body := decodeError(t, rec)
	for _, want := range []string{"email must be a valid email", "password is required", "role must be a valid role"} {
		if !strings.Contains(body.Error, want) {
			t.Fatalf("expected %q in %q", want, body.Error)
		}
	}
}

func TestAuthRegisterReturnsCreated(t *testing.T) {
	svc := &stubAuthService{session: &auth.Session{AccessToken: "access", RefreshToken: "refresh"}}
	handler := AuthRegister(svc, testCookies, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"name":"Ada","email":"ada@example.com","password":"secret1","role":"citizen"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if refreshCookie(rec) == nil {
		t.Fatal("expected refresh cookie")
	}
}

func TestAuthRefreshWithoutCookieClearsIt(t *testing.T) {
	handler := AuthRefresh(&stubAuthService{}, testCookies, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	cookie := refreshCookie(rec)
	if cookie == nil || cookie.MaxAge != -1 {
		t.Fatalf("expected cleared cookie, got %+v", cookie)
	}
}

func TestAuthRefreshReturnsToken(t *testing.T) {
	handler := AuthRefresh(&stubAuthService{refreshed: &auth.RefreshResult{AccessToken: "next"}}, testCookies, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: pkgAuth.RefreshCookieName, Value: "refresh"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var data auth.RefreshResult
	decodeSuccess(t, rec, &data)
	if data.AccessToken != "next" {
		t.Fatalf("unexpected token %q", data.AccessToken)
	}
}

func TestAuthLogoutRevokesAndClears(t *testing.T) {
	svc := &stubAuthService{}
	handler := AuthLogout(svc, testCookies, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: pkgAuth.RefreshCookieName, Value: "refresh"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.loggedOut != "refresh" {
		t.Fatalf("expected refresh token to be revoked, got %q", svc.loggedOut)
	}
	if cookie := refreshCookie(rec); cookie == nil || cookie.MaxAge != -1 {
		t.Fatalf("expected cleared cookie, got %+v", cookie)
	}
	env := decodeSuccess(t, rec, nil)
	if env.Message != "Logged out successfully" {
		t.Fatalf("unexpected message %q", env.Message)
	}
}
