package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dicegame/dice-api/internal/core/domain"
	"github.com/dicegame/dice-api/internal/core/service"
)

const testSecret = "middleware-test-secret-0123456789abcdef"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var testPolicy = Policy{
	Key(http.MethodPost, "/auth/login"):          {Public: true},
	Key(http.MethodGet, "/health"):               {Public: true},
	Key(http.MethodPost, "/players/:id/disable"): {Roles: []string{domain.RoleAdmin}},
}

func newTokens(t *testing.T) *service.TokenService {
	t.Helper()
	tokens, err := service.NewTokenService(testSecret, time.Hour, "")
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	return tokens
}

func issue(t *testing.T, tokens *service.TokenService, subject string, roles ...string) string {
	t.Helper()
	token, err := tokens.Issue(subject, roles, testNow)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return token
}

// run executes the middleware for a request to the route pattern path.
func run(t *testing.T, tokens *service.TokenService, method, path, authHeader string, now time.Time) (domain.Principal, bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)

	var got domain.Principal
	called := false
	mw := Auth(AuthConfig{Verifier: tokens, Policy: testPolicy, Now: func() time.Time { return now }})
	err := mw(func(c echo.Context) error {
		called = true
		got = domain.PrincipalFrom(c.Request().Context())
		if p, ok := c.Get(PrincipalKey).(domain.Principal); ok && p.Subject != got.Subject {
			t.Fatalf("echo context and request context disagree: %q vs %q", p.Subject, got.Subject)
		}
		return c.NoContent(http.StatusOK)
	})(c)
	return got, called, err
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	tokens := newTokens(t)
	token := issue(t, tokens, "user-1", domain.RolePlayer)

	p, called, err := run(t, tokens, http.MethodGet, "/resources", "Bearer "+token, testNow)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatal("next not called")
	}
	if p.Subject != "user-1" || !p.HasRole(domain.RolePlayer) {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	tokens := newTokens(t)
	token := issue(t, tokens, "user-1")

	for _, scheme := range []string{"bearer", "BEARER", "BeArEr"} {
		if _, called, err := run(t, tokens, http.MethodGet, "/resources", scheme+" "+token, testNow); err != nil || !called {
			t.Errorf("%s: want success, got called=%v err=%v", scheme, called, err)
		}
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	tokens := newTokens(t)

	_, called, err := run(t, tokens, http.MethodGet, "/resources", "", testNow)
	if called {
		t.Fatal("should not reach next")
	}
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("want ErrUnauthenticated, got %v", err)
	}
}

func TestAuthMiddleware_PublicRouteAnonymous(t *testing.T) {
	tokens := newTokens(t)

	p, called, err := run(t, tokens, http.MethodPost, "/auth/login", "", testNow)
	if err != nil || !called {
		t.Fatalf("public route must pass without token: called=%v err=%v", called, err)
	}
	if !p.Anonymous() {
		t.Errorf("want anonymous principal, got %+v", p)
	}
}

func TestAuthMiddleware_PublicRouteWithInvalidTokenRejected(t *testing.T) {
	tokens := newTokens(t)

	_, called, err := run(t, tokens, http.MethodPost, "/auth/login", "Bearer nope", testNow)
	if called {
		t.Fatal("should not reach next")
	}
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	tokens := newTokens(t)
	for _, h := range []string{"Token abc", "Bearer", "Bearer   ", "abc"} {
		_, called, err := run(t, tokens, http.MethodGet, "/resources", h, testNow)
		if called || !errors.Is(err, domain.ErrUnauthenticated) {
			t.Errorf("%q: want ErrUnauthenticated, got called=%v err=%v", h, called, err)
		}
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	tokens := newTokens(t)
	token := issue(t, tokens, "user-1")

	_, called, err := run(t, tokens, http.MethodGet, "/resources", "Bearer "+token, testNow.Add(time.Hour))
	if called {
		t.Fatal("should not reach next")
	}
	if !errors.Is(err, domain.ErrExpiredToken) {
		t.Fatalf("want ErrExpiredToken, got %v", err)
	}
}

func TestAuthMiddleware_ForeignToken(t *testing.T) {
	tokens := newTokens(t)
	other, _ := service.NewTokenService("another-secret-another-secret-1234", time.Hour, "")
	token := issue(t, other, "user-1")

	_, _, err := run(t, tokens, http.MethodGet, "/resources", "Bearer "+token, testNow)
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestAuthMiddleware_RoleRequired(t *testing.T) {
	tokens := newTokens(t)
	player := issue(t, tokens, "user-1", domain.RolePlayer)
	admin := issue(t, tokens, "root", domain.RolePlayer, domain.RoleAdmin)

	if _, called, err := run(t, tokens, http.MethodPost, "/players/:id/disable", "Bearer "+player, testNow); called || !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("player: want ErrForbidden, got called=%v err=%v", called, err)
	}
	if _, called, err := run(t, tokens, http.MethodPost, "/players/:id/disable", "Bearer "+admin, testNow); !called || err != nil {
		t.Errorf("admin: want success, got called=%v err=%v", called, err)
	}
}

// Through a real router the middleware sees the registered route pattern.
func TestAuthMiddleware_WithRouter(t *testing.T) {
	tokens := newTokens(t)
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if errors.Is(err, domain.ErrUnauthenticated) {
			_ = c.NoContent(http.StatusUnauthorized)
			return
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
	e.Use(Auth(AuthConfig{Verifier: tokens, Policy: testPolicy, Now: func() time.Time { return testNow }}))

	storeCalls := 0
	e.GET("/resources/:id", func(c echo.Context) error {
		storeCalls++
		return c.String(http.StatusOK, domain.PrincipalFrom(c.Request().Context()).Subject)
	})
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/resources/g1", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", rec.Code)
	}
	if storeCalls != 0 {
		t.Fatal("handler must not run for unauthenticated requests")
	}

	req := httptest.NewRequest(http.MethodGet, "/resources/g1", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+issue(t, tokens, "user-9"))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "user-9" {
		t.Fatalf("want 200 user-9, got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("public route: want 200, got %d", rec.Code)
	}
}
