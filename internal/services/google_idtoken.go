package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// GoogleClaims are the ID token claims used to link or create a user.
type GoogleClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	jwt.RegisteredClaims
}

// GoogleVerifier checks Google Sign-In ID tokens (One Tap credentials).
type GoogleVerifier struct {
	clientID string
	keyfunc  jwt.Keyfunc
}

func NewGoogleVerifier(clientID string, kf jwt.Keyfunc) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, keyfunc: kf}
}

func (v *GoogleVerifier) Verify(idToken string) (*GoogleClaims, error) {
	claims := &GoogleClaims{}
	_, err := jwt.ParseWithClaims(idToken, claims, v.keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	issuerOK := false
	for _, iss := range googleIssuers {
		if claims.Issuer == iss {
			issuerOK = true
			break
		}
	}
	if !issuerOK {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: missing sub or email", ErrInvalidToken)
	}
	return claims, nil
}

// JWKSRetry bounds the initial JWKS download.
type JWKSRetry struct {
	Attempts int
	Backoff  time.Duration
}

var DefaultJWKSRetry = JWKSRetry{Attempts: 5, Backoff: 2 * time.Second}

// LoadGoogleJWKS downloads Google's signing keys, retrying up to r.Attempts
// times with linear backoff. The returned JWKS refreshes in the background
// until ctx is cancelled.
func LoadGoogleJWKS(ctx context.Context, url string, r JWKSRetry) (*keyfunc.JWKS, error) {
	if r.Attempts < 1 {
		r.Attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= r.Attempts; attempt++ {
		jwks, err := keyfunc.Get(url, keyfunc.Options{
			Ctx:               ctx,
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  5 * time.Minute,
			RefreshTimeout:    10 * time.Second,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				slog.Warn("google jwks refresh failed", "error", err)
			},
		})
		if err == nil {
			return jwks, nil
		}
		lastErr = err
		slog.Warn("google jwks fetch failed", "attempt", attempt, "max_attempts", r.Attempts, "error", err)

		if attempt == r.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.Backoff * time.Duration(attempt)):
		}
	}
	return nil, fmt.Errorf("loading google jwks after %d attempts: %w", r.Attempts, lastErr)
}
