package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is an onboarding role. A user may hold several at once.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleWorker   Role = "worker"
	RoleBusiness Role = "business"
)

// Roles lists every role in display order.
var Roles = []Role{RoleCustomer, RoleWorker, RoleBusiness}

// ParseRole returns the role named by s and whether it is one of the known roles.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleCustomer, RoleWorker, RoleBusiness:
		return r, true
	}
	return "", false
}

// RoleOrDefault parses s and falls back to customer for unknown values.
func RoleOrDefault(s string) Role {
	if r, ok := ParseRole(s); ok {
		return r
	}
	return RoleCustomer
}

// Stage is onboarding progress for one role. Stages only move forward.
type Stage string

const (
	StageEnabled     Stage = "enabled"
	StageBasicsDone  Stage = "basics_done"
	StageProfileDone Stage = "profile_done"
)

// Rank orders stages; unknown stages rank below enabled.
func (s Stage) Rank() int {
	switch s {
	case StageEnabled:
		return 1
	case StageBasicsDone:
		return 2
	case StageProfileDone:
		return 3
	}
	return 0
}

func (s Stage) Valid() bool { return s.Rank() > 0 }

// Complete reports whether the role has finished onboarding.
func (s Stage) Complete() bool { return s == StageProfileDone }

// UserRole is one row per (user, role) tracking onboarding stage.
type UserRole struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Role      Role      `gorm:"size:20;primaryKey" json:"role"`
	Stage     Stage     `gorm:"size:20;not null;index" json:"stage"`
	EnabledAt time.Time `gorm:"not null" json:"enabled_at"`
}

func (UserRole) TableName() string { return "user_roles" }
