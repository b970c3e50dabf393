package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/learnlocal/backend/internal/models"
)

func request(t *testing.T, authHeader string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func TestMiddleware_ValidTokenPopulatesContext(t *testing.T) {
	userID := uuid.New()
	token, err := generateToken(userID, models.RoleStudent)
	if err != nil {
		t.Fatal(err)
	}

	c := request(t, "Bearer "+token)
	called := false
	handler := Middleware(func(c echo.Context) error {
		called = true
		return nil
	})

	if err := handler(c); err != nil {
		t.Fatalf("expected handler to run, got %v", err)
	}
	if !called {
		t.Fatal("next handler not called")
	}

	got, err := GetUserIDFromContext(c)
	if err != nil {
		t.Fatal(err)
	}
	if got != userID {
		t.Fatalf("expected %s, got %s", userID, got)
	}
	if role, _ := c.Get(string(RoleKey)).(string); role != models.RoleStudent {
		t.Fatalf("expected role on context, got %q", role)
	}
}

func TestMiddleware_RejectsMissingAndMalformedHeaders(t *testing.T) {
	handler := Middleware(func(c echo.Context) error { return nil })

	for _, header := range []string{"", "Token abc", "Bearer", "Bearer not.a.token"} {
		err := handler(request(t, header))
		httpErr, ok := err.(*echo.HTTPError)
		if !ok {
			t.Fatalf("header %q: expected HTTPError, got %v", header, err)
		}
		if httpErr.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, httpErr.Code)
		}
	}
}

func TestOptionalMiddleware_PassesAnonymousThrough(t *testing.T) {
	c := request(t, "")
	called := false
	handler := OptionalMiddleware(func(c echo.Context) error {
		called = true
		return nil
	})

	if err := handler(c); err != nil {
		t.Fatalf("anonymous request should pass, got %v", err)
	}
	if !called {
		t.Fatal("next handler not called")
	}
	if _, err := GetUserIDFromContext(c); err == nil {
		t.Fatal("anonymous request should carry no user id")
	}
}

func TestOptionalMiddleware_BadTokenStillRejected(t *testing.T) {
	handler := OptionalMiddleware(func(c echo.Context) error { return nil })
	err := handler(request(t, "Bearer garbage"))
	if err == nil {
		t.Fatal("a present but invalid token must be rejected")
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(models.RoleOrganization)(func(c echo.Context) error { return nil })

	c := request(t, "")
	c.Set(string(RoleKey), models.RoleStudent)
	err := handler(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for wrong role, got %v", err)
	}

	c = request(t, "")
	c.Set(string(RoleKey), models.RoleOrganization)
	if err := handler(c); err != nil {
		t.Fatalf("expected pass for matching role, got %v", err)
	}
}
