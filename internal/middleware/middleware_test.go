package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/config"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/session"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/testutil"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "6f1c2a9e-3b7d-4c1e-9a2f-5d8e7b6a4c3d",
		"email": "pat@example.com",
		"exp":   exp.Unix(),
	})
	s, err := tok.SignedString([]byte(testutil.TestSecret))
	require.NoError(t, err)
	return s
}

func whoami(c *fiber.Ctx) error {
	user, err := session.User(c)
	if err != nil {
		return c.SendString("anonymous")
	}
	return c.SendString(user.Email)
}

func body(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestJWTProtected(t *testing.T) {
	cfg := &config.Config{JWTSecret: testutil.TestSecret}
	app := fiber.New()
	app.Get("/me", middleware.JWTProtected(cfg), whoami)

	code, _ := body(t, app, httptest.NewRequest("GET", "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, code)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, time.Now().Add(time.Hour)))
	code, text := body(t, app, req)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "pat@example.com", text)

	req = httptest.NewRequest("GET", "/me", nil)
	req.AddCookie(&http.Cookie{Name: session.AccessCookie, Value: signed(t, time.Now().Add(time.Hour))})
	code, _ = body(t, app, req)
	assert.Equal(t, http.StatusOK, code)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, time.Now().Add(-time.Minute)))
	code, _ = body(t, app, req)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestOptionalAuth(t *testing.T) {
	cfg := &config.Config{JWTSecret: testutil.TestSecret}
	app := fiber.New()
	app.Get("/who", middleware.OptionalAuth(cfg), whoami)

	_, text := body(t, app, httptest.NewRequest("GET", "/who", nil))
	assert.Equal(t, "anonymous", text)

	req := httptest.NewRequest("GET", "/who", nil)
	req.AddCookie(&http.Cookie{Name: session.AccessCookie, Value: "garbage"})
	code, text := body(t, app, req)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "anonymous", text)

	req = httptest.NewRequest("GET", "/who", nil)
	req.AddCookie(&http.Cookie{Name: session.AccessCookie, Value: signed(t, time.Now().Add(time.Hour))})
	_, text = body(t, app, req)
	assert.Equal(t, "pat@example.com", text)
}

func TestAdminRequired_IDList(t *testing.T) {
	cfg := &config.Config{JWTSecret: testutil.TestSecret, AdminUserIDs: " 6F1C2A9E-3B7D-4C1E-9A2F-5D8E7B6A4C3D "}
	app := fiber.New()
	app.Get("/admin", middleware.OptionalAuth(cfg), middleware.AdminRequired(testutil.NewIdentity(), cfg), whoami)

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, time.Now().Add(time.Hour)))
	code, _ := body(t, app, req)
	assert.Equal(t, http.StatusOK, code)

	// No token configured means the header grants nothing.
	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("X-Admin-Token", "")
	code, _ = body(t, app, req)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestSecurityHeaders(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.SecurityHeaders())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", resp.Header.Get("Referrer-Policy"))
}
