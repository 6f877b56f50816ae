// Package session reads the signed-in user from a request and manages the
// session cookies.
package session

import (
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AccessCookie  = "session"
	RefreshCookie = "refresh_token"

	// LocalsKey is where the JWT middleware stores the verified token.
	LocalsKey = "user"
)

var errNoToken = errors.New("invalid token in context")

func token(c *fiber.Ctx) (*jwt.Token, jwt.MapClaims, error) {
	tok, ok := c.Locals(LocalsKey).(*jwt.Token)
	if !ok || tok == nil {
		return nil, nil, errNoToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, nil, errors.New("invalid claims")
	}
	return tok, claims, nil
}

// UserID extracts the user UUID from JWT claims in context.
func UserID(c *fiber.Ctx) (uuid.UUID, error) {
	_, claims, err := token(c)
	if err != nil {
		return uuid.Nil, err
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}
	return uuid.Parse(sub)
}

// User returns the signed-in user from the verified token, or
// services.ErrUnauthenticated.
func User(c *fiber.Ctx) (*services.AuthUser, error) {
	id, err := UserID(c)
	if err != nil {
		return nil, services.ErrUnauthenticated
	}
	_, claims, _ := token(c)
	email, _ := claims["email"].(string)
	return &services.AuthUser{ID: id, Email: email}, nil
}

// AccessToken returns the raw verified access token, or "".
func AccessToken(c *fiber.Ctx) string {
	tok, _, err := token(c)
	if err != nil {
		return ""
	}
	return tok.Raw
}

func RefreshToken(c *fiber.Ctx) string {
	return c.Cookies(RefreshCookie)
}

// SetCookies stores sess in HttpOnly cookies.
func SetCookies(c *fiber.Ctx, sess *services.Session, secure bool, refreshTTL time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     AccessCookie,
		Value:    sess.AccessToken,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Cookie(&fiber.Cookie{
		Name:     RefreshCookie,
		Value:    sess.RefreshToken,
		Path:     "/",
		Expires:  time.Now().Add(refreshTTL),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearCookies expires both session cookies.
func ClearCookies(c *fiber.Ctx, secure bool) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HTTPOnly: true,
			Secure:   secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
}
