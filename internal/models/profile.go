package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile holds cross-role identity attributes, one row per user.
type Profile struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	FullName  string    `gorm:"size:255" json:"full_name"`
	City      *string   `gorm:"size:255" json:"city"`
	UpdatedAt time.Time `json:"updated_at"`
}
