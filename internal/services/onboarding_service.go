package services

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/models"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/validation"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// BasicsInput is step one of the wizard.
type BasicsInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Location  string `json:"location"`
}

// Validate checks required-field presence only.
func (in BasicsInput) Validate() error {
	fe := validation.FieldErrors{}
	fe.Required("first_name", "First name", in.FirstName)
	fe.Required("last_name", "Last name", in.LastName)
	fe.Required("email", "Email", in.Email)
	fe.Required("location", "Location", in.Location)
	return fe.Err()
}

// ProfileInput is step two of the wizard. Which fields matter depends on the
// role being set up.
type ProfileInput struct {
	// customer
	Location string `json:"location"`

	// worker
	Headline        string   `json:"headline"`
	About           string   `json:"about"`
	Specialties     string   `json:"specialties"`
	Credentials     string   `json:"credentials"`
	YearsExperience *int     `json:"years_experience"`
	HourlyRate      *float64 `json:"hourly_rate"`
	ServiceRadiusKm *int     `json:"service_radius_km"`

	// business
	CompanyName string `json:"company_name"`
	Portfolio   string `json:"portfolio"`
	ServiceArea string `json:"service_area"`
}

// profileStepColumns are the columns step two owns. Anything else on the row,
// such as the worker's rate type, service area, portfolio and availability,
// is edited from the portal and survives a resubmitted wizard.
var profileStepColumns = map[models.Role][]string{
	models.RoleWorker: {
		"headline", "bio", "trades", "certifications",
		"years_experience", "rate_cents", "service_radius_km", "updated_at",
	},
	models.RoleCustomer: {"default_city", "updated_at"},
	models.RoleBusiness: {"company_name", "website", "hq_city", "updated_at"},
}

// RoleProfile maps the form onto the role's profile row.
func (in ProfileInput) RoleProfile(userID uuid.UUID, role models.Role) (models.RoleProfile, error) {
	now := time.Now().UTC()
	switch role {
	case models.RoleWorker:
		p := &models.WorkerProfile{
			UserID:          userID,
			Headline:        optional(in.Headline),
			Bio:             optional(in.About),
			Trades:          splitList(in.Specialties),
			Certifications:  splitList(in.Credentials),
			YearsExperience: in.YearsExperience,
			ServiceRadiusKm: in.ServiceRadiusKm,
			UpdatedAt:       now,
		}
		if in.HourlyRate != nil {
			cents := int64(math.Round(*in.HourlyRate * 100))
			p.RateCents = &cents
		}
		return p, nil
	case models.RoleCustomer:
		return &models.CustomerProfile{
			UserID:                 userID,
			DefaultCity:            optional(in.Location),
			PreferredContactMethod: "app",
			UpdatedAt:              now,
		}, nil
	case models.RoleBusiness:
		return &models.BusinessProfile{
			UserID:      userID,
			CompanyName: optional(in.CompanyName),
			Website:     optional(in.Portfolio),
			HQCity:      optional(in.ServiceArea),
			UpdatedAt:   now,
		}, nil
	}
	return nil, ErrInvalidRole
}

// Prefill is everything the wizard pages need to render for one role.
type Prefill struct {
	Role      models.Role        `json:"role"`
	Stage     models.Stage       `json:"stage,omitempty"`
	NextStep  Destination        `json:"next_step"`
	FirstName string             `json:"first_name"`
	LastName  string             `json:"last_name"`
	Email     string             `json:"email"`
	Location  string             `json:"location"`
	Profile   models.RoleProfile `json:"profile,omitempty"`
}

type OnboardingService struct {
	store    ProfileStore
	identity IdentityGateway
	events   EventPublisher
}

func NewOnboardingService(store ProfileStore, identity IdentityGateway, events EventPublisher) *OnboardingService {
	return &OnboardingService{store: store, identity: identity, events: events}
}

// StartRole records that the user picked a role. An existing row keeps its stage.
func (s *OnboardingService) StartRole(ctx context.Context, user *AuthUser, role models.Role) (Destination, error) {
	if err := s.store.EnableRole(ctx, user.ID, role); err != nil {
		return Destination{}, err
	}
	return Onboarding(role), nil
}

func (s *OnboardingService) SubmitBasics(ctx context.Context, user *AuthUser, role models.Role, in BasicsInput) (Destination, error) {
	if err := in.Validate(); err != nil {
		return Destination{}, err
	}

	profile := &models.Profile{
		UserID:    user.ID,
		FullName:  strings.TrimSpace(strings.TrimSpace(in.FirstName) + " " + strings.TrimSpace(in.LastName)),
		City:      optional(in.Location),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.store.UpsertProfile(ctx, profile); err != nil {
		return Destination{}, err
	}

	if err := s.advance(ctx, user.ID, role, models.StageBasicsDone); err != nil {
		return Destination{}, err
	}
	publish(ctx, s.events, EventOnboardingBasicsDone, stageEvent{UserID: user.ID, Role: role})

	return SetupProfile(role), nil
}

func (s *OnboardingService) SubmitProfile(ctx context.Context, user *AuthUser, role models.Role, in ProfileInput) (Destination, error) {
	rp, err := in.RoleProfile(user.ID, role)
	if err != nil {
		return Destination{}, err
	}
	if err := s.store.UpsertRoleProfile(ctx, rp, profileStepColumns[role]...); err != nil {
		return Destination{}, err
	}

	if err := s.advance(ctx, user.ID, role, models.StageProfileDone); err != nil {
		return Destination{}, err
	}
	publish(ctx, s.events, EventOnboardingProfileDone, stageEvent{UserID: user.ID, Role: role})

	return Portal(role), nil
}

// PreviousFromProfile goes back to the basics step without writing anything.
func (s *OnboardingService) PreviousFromProfile(role models.Role) Destination {
	return Onboarding(role)
}

// PreviousFromBasics abandons onboarding by ending the session.
func (s *OnboardingService) PreviousFromBasics(ctx context.Context, refreshToken string) (Destination, error) {
	home := Unresolved("/")
	if err := s.identity.SignOut(ctx, refreshToken); err != nil {
		return home, err
	}
	return home, nil
}

// Prefill gathers the wizard defaults. Lookups here are auxiliary, so store
// errors are logged and the affected fields left blank.
func (s *OnboardingService) Prefill(ctx context.Context, user *AuthUser, role models.Role) *Prefill {
	first, last := user.NameParts()
	out := &Prefill{
		Role:      role,
		FirstName: first,
		LastName:  last,
		Email:     user.Email,
	}

	if rec, err := s.store.GetRoleStage(ctx, user.ID, role); err == nil {
		out.Stage = rec.Stage
	} else if !errors.Is(err, ErrNotFound) {
		slog.WarnContext(ctx, "prefill stage lookup failed", "action", "prefill", "user_id", user.ID.String(), "role", string(role), "error", err)
	}
	out.NextStep = NextStep(out.Stage, role)

	if p, err := s.store.GetProfile(ctx, user.ID); err == nil {
		if p.City != nil {
			out.Location = *p.City
		}
	} else if !errors.Is(err, ErrNotFound) {
		slog.WarnContext(ctx, "prefill profile lookup failed", "action", "prefill", "user_id", user.ID.String(), "error", err)
	}

	if rp, err := s.store.GetRoleProfile(ctx, user.ID, role); err == nil {
		out.Profile = rp
	} else if !errors.Is(err, ErrNotFound) {
		slog.WarnContext(ctx, "prefill role profile lookup failed", "action", "prefill", "user_id", user.ID.String(), "role", string(role), "error", err)
	}

	return out
}

func (s *OnboardingService) advance(ctx context.Context, userID uuid.UUID, role models.Role, stage models.Stage) error {
	return s.store.UpsertRoleStage(ctx, &models.UserRole{
		UserID:    userID,
		Role:      role,
		Stage:     stage,
		EnabledAt: time.Now().UTC(),
	})
}

type stageEvent struct {
	UserID uuid.UUID   `json:"user_id"`
	Role   models.Role `json:"role"`
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// splitList turns "Plumbing, HVAC,, Roofing" into [Plumbing HVAC Roofing].
func splitList(s string) datatypes.JSONSlice[string] {
	out := datatypes.JSONSlice[string]{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
