package models

import (
	"time"

	"github.com/google/uuid"
)

// WaitlistSubmission is an insert-only lead captured from the landing page.
type WaitlistSubmission struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"size:255" json:"name"`
	Email     string    `gorm:"size:255;not null;uniqueIndex:idx_waitlist_email_role,priority:1" json:"email"`
	Phone     *string   `gorm:"size:30" json:"phone"`
	Role      *string   `gorm:"size:20;uniqueIndex:idx_waitlist_email_role,priority:2" json:"role"`
	Source    string    `gorm:"size:50;not null;default:'landing_page'" json:"source"`
	Notes     *string   `gorm:"type:text" json:"notes"`
	UserAgent *string   `gorm:"type:text" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
