package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RoleProfile is the role-specific profile row. Exactly one concrete type
// exists per role: *WorkerProfile, *CustomerProfile, *BusinessProfile.
type RoleProfile interface {
	ProfileRole() Role
	OwnerID() uuid.UUID
}

type RateType string

const (
	RateHourly RateType = "hourly"
	RateFixed  RateType = "fixed"
)

// Availability is stored as JSON so the portal can grow structured hours later.
type Availability struct {
	Note string `json:"note,omitempty"`
}

type WorkerProfile struct {
	UserID          uuid.UUID                        `gorm:"type:uuid;primaryKey" json:"user_id"`
	Headline        *string                          `gorm:"size:255" json:"headline"`
	Bio             *string                          `gorm:"type:text" json:"bio"`
	Trades          datatypes.JSONSlice[string]      `gorm:"type:jsonb" json:"trades"`
	Certifications  datatypes.JSONSlice[string]      `gorm:"type:jsonb" json:"certifications"`
	YearsExperience *int                             `json:"years_experience"`
	RateType        *RateType                        `gorm:"size:20" json:"rate_type"`
	RateCents       *int64                           `json:"rate_cents"`
	ServiceRadiusKm *int                             `json:"service_radius_km"`
	ServiceArea     *string                          `gorm:"size:255" json:"service_area"`
	PortfolioURLs   datatypes.JSONSlice[string]      `gorm:"type:jsonb" json:"portfolio_urls"`
	Availability    datatypes.JSONType[Availability] `gorm:"type:jsonb" json:"availability"`
	UpdatedAt       time.Time                        `json:"updated_at"`
}

func (*WorkerProfile) ProfileRole() Role    { return RoleWorker }
func (p *WorkerProfile) OwnerID() uuid.UUID { return p.UserID }

type CustomerProfile struct {
	UserID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	DefaultCity            *string   `gorm:"size:255" json:"default_city"`
	PreferredContactMethod string    `gorm:"size:20;default:'app'" json:"preferred_contact_method"`
	UpdatedAt              time.Time `json:"updated_at"`
}

func (*CustomerProfile) ProfileRole() Role    { return RoleCustomer }
func (p *CustomerProfile) OwnerID() uuid.UUID { return p.UserID }

type BusinessProfile struct {
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	CompanyName *string   `gorm:"size:255" json:"company_name"`
	Website     *string   `gorm:"size:512" json:"website"`
	HQCity      *string   `gorm:"column:hq_city;size:255" json:"hq_city"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (*BusinessProfile) ProfileRole() Role    { return RoleBusiness }
func (p *BusinessProfile) OwnerID() uuid.UUID { return p.UserID }
