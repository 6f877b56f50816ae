package services

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/models"
	"github.com/google/uuid"
)

const ProviderGoogle = "google"

// IdentityGateway issues and inspects sessions. Handlers and services depend on
// this interface only; AuthService is the postgres-backed implementation.
type IdentityGateway interface {
	SignUp(ctx context.Context, email, password, redirectTo string) (*SignUpResult, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignInWithIDToken(ctx context.Context, provider, idToken string) (*Session, error)

	// OAuthStartURL returns the provider consent URL; next is restored on return.
	OAuthStartURL(ctx context.Context, provider, next string) (string, error)
	// OAuthReturn completes the provider round trip and returns the local
	// /auth/callback URL carrying a one-time code.
	OAuthReturn(ctx context.Context, code, state string) (string, error)
	ExchangeCodeForSession(ctx context.Context, code string) (*Session, error)

	GetUser(ctx context.Context, accessToken string) (*AuthUser, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	SignOut(ctx context.Context, refreshToken string) error
	ResendVerification(ctx context.Context, email, redirectTo string) error
}

// AuthUser is the signed-in user as seen by the rest of the application.
type AuthUser struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	GivenName  string    `json:"given_name,omitempty"`
	FamilyName string    `json:"family_name,omitempty"`
	FullName   string    `json:"full_name,omitempty"`
	Verified   bool      `json:"email_verified"`
	Admin      bool      `json:"-"`
}

func (u *AuthUser) NameParts() (given, family string) {
	m := models.User{GivenName: u.GivenName, FamilyName: u.FamilyName, FullName: u.FullName}
	return m.NameParts()
}

func authUserFrom(u *models.User) *AuthUser {
	return &AuthUser{
		ID:         u.ID,
		Email:      u.Email,
		GivenName:  u.GivenName,
		FamilyName: u.FamilyName,
		FullName:   u.FullName,
		Verified:   u.EmailVerified(),
		Admin:      u.Role == "admin",
	}
}

type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         AuthUser  `json:"user"`
}

// SignUpResult carries either a fresh session or, when email verification is
// required, the pending user with no session.
type SignUpResult struct {
	User                *AuthUser
	Session             *Session
	VerificationPending bool
}
