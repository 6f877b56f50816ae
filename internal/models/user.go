package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	AuthProviderEmail  = "email"
	AuthProviderGoogle = "google"
)

// User is the identity record owned by the auth service. Onboarding roles live
// in user_roles; Role here only separates admins from everyone else.
type User struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email           string     `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password        string     `gorm:"not null;default:''" json:"-"`
	Role            string     `gorm:"size:20;default:'user'" json:"-"`
	AuthProvider    string     `gorm:"size:50;default:'email'" json:"auth_provider"`
	GoogleSubject   *string    `gorm:"size:255;uniqueIndex" json:"-"`
	GivenName       string     `gorm:"size:120" json:"given_name,omitempty"`
	FamilyName      string     `gorm:"size:120" json:"family_name,omitempty"`
	FullName        string     `gorm:"size:255" json:"full_name,omitempty"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NameParts returns first and last name from OAuth metadata, falling back to
// splitting the full name on whitespace.
func (u *User) NameParts() (given, family string) {
	given, family = u.GivenName, u.FamilyName
	if given != "" && family != "" {
		return given, family
	}
	parts := strings.Fields(u.FullName)
	switch {
	case len(parts) >= 2:
		if given == "" {
			given = parts[0]
		}
		if family == "" {
			family = strings.Join(parts[1:], " ")
		}
	case len(parts) == 1:
		if given == "" {
			given = parts[0]
		}
	}
	return given, family
}

func (u *User) EmailVerified() bool {
	return u.EmailVerifiedAt != nil
}
