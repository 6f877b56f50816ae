package services

import "errors"

var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailNotVerified    = errors.New("email address has not been verified")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrInvalidCode         = errors.New("invalid or expired code")
	ErrUnsupportedProvider = errors.New("unsupported identity provider")
	ErrUserNotFound        = errors.New("user not found")
	ErrUnauthenticated     = errors.New("not signed in")
	ErrIdentityConflict    = errors.New("account is linked to a different sign-in")

	ErrNotFound      = errors.New("record not found")
	ErrDuplicate     = errors.New("duplicate record")
	ErrInvalidRole   = errors.New("invalid role")
	ErrAlreadyJoined = errors.New("already joined the waitlist")
)
