package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lungscreen/lungscreen/internal/domain/session"
)

func newTestSession(t *testing.T, store session.Store, role string) *session.Session {
	t.Helper()
	s := &session.Session{Username: "testuser", Role: role, ExpiresAt: time.Now().Add(time.Hour)}
	if err := store.Create(context.Background(), s); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return s
}

func runMiddleware(t *testing.T, mw echo.MiddlewareFunc, header string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen echo.Context
	err := mw(func(c echo.Context) error {
		seen = c
		return c.NoContent(http.StatusOK)
	})(c)
	return seen, err
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", httpErr.Code)
	}
}

func TestSessionMiddleware_ValidToken(t *testing.T) {
	store := session.NewMemoryStore()
	tokens := NewTokenManager([]byte("test-secret"), "lungscreen")
	s := newTestSession(t, store, RolePatient)
	token, err := tokens.Issue(s)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	c, err := runMiddleware(t, SessionMiddleware(tokens, store), "Bearer "+token)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	ctx := c.Request().Context()
	if got := UserIDFromContext(ctx); got != "testuser" {
		t.Errorf("expected user testuser, got %q", got)
	}
	if roles := RolesFromContext(ctx); len(roles) != 1 || roles[0] != RolePatient {
		t.Errorf("unexpected roles %v", roles)
	}
	if got := SessionFromContext(ctx); got == nil || got.ID != s.ID {
		t.Errorf("expected session %s on context, got %+v", s.ID, got)
	}
}

func TestSessionMiddleware_MissingHeader(t *testing.T) {
	store := session.NewMemoryStore()
	tokens := NewTokenManager([]byte("test-secret"), "lungscreen")

	_, err := runMiddleware(t, SessionMiddleware(tokens, store), "")
	assertUnauthorized(t, err)
}

func TestSessionMiddleware_BadScheme(t *testing.T) {
	store := session.NewMemoryStore()
	tokens := NewTokenManager([]byte("test-secret"), "lungscreen")

	_, err := runMiddleware(t, SessionMiddleware(tokens, store), "Basic dXNlcjpwYXNz")
	assertUnauthorized(t, err)
}

func TestSessionMiddleware_WrongSecret(t *testing.T) {
	store := session.NewMemoryStore()
	s := newTestSession(t, store, RolePatient)
	token, _ := NewTokenManager([]byte("other-secret"), "lungscreen").Issue(s)

	tokens := NewTokenManager([]byte("test-secret"), "lungscreen")
	_, err := runMiddleware(t, SessionMiddleware(tokens, store), "Bearer "+token)
	assertUnauthorized(t, err)
}

func TestSessionMiddleware_LoggedOutSession(t *testing.T) {
	store := session.NewMemoryStore()
	tokens := NewTokenManager([]byte("test-secret"), "lungscreen")
	s := newTestSession(t, store, RolePatient)
	token, _ := tokens.Issue(s)

	if err := store.Delete(context.Background(), s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err := runMiddleware(t, SessionMiddleware(tokens, store), "Bearer "+token)
	assertUnauthorized(t, err)
}

func TestTokenManager_Expired(t *testing.T) {
	tokens := NewTokenManager([]byte("test-secret"), "lungscreen")
	s := &session.Session{Username: "u", Role: RolePatient, ExpiresAt: time.Now().Add(time.Minute)}
	s.ID = [16]byte{1}
	token, err := tokens.Issue(s)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tokens.now = func() time.Time { return time.Now().Add(time.Hour) }
	if _, err := tokens.Parse(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenManager_RoundTrip(t *testing.T) {
	tokens := NewTokenManager([]byte("test-secret"), "lungscreen")
	s := &session.Session{Username: "admin", Role: RoleAdmin, ExpiresAt: time.Now().Add(time.Hour)}
	s.ID = [16]byte{7}
	token, _ := tokens.Issue(s)

	claims, err := tokens.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "admin" || claims.Role != RoleAdmin {
		t.Errorf("unexpected claims %+v", claims)
	}
	id, err := claims.SessionID()
	if err != nil || id != s.ID {
		t.Errorf("expected session id %s, got %s (%v)", s.ID, id, err)
	}
}

func TestTokenManager_NoSecret(t *testing.T) {
	tokens := NewTokenManager(nil, "")
	s := &session.Session{Username: "u", ExpiresAt: time.Now().Add(time.Hour)}
	if _, err := tokens.Issue(s); err == nil {
		t.Error("expected error without a signing secret")
	}
}
