package services

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/models"
	"gorm.io/datatypes"
)

type Tab struct {
	Label string `json:"label"`
	// Key is set on tabs that switch the main panel.
	Key string `json:"key,omitempty"`
}

const (
	TabFind   = "find"
	TabWorker = "worker"
)

var roleTabs = map[models.Role][]Tab{
	models.RoleCustomer: {
		{Label: "Post Work", Key: TabFind},
		{Label: "My Tasks", Key: TabWorker},
		{Label: "Profile"},
		{Label: "Messages"},
	},
	models.RoleWorker: {
		{Label: "Search Jobs", Key: TabFind},
		{Label: "My Work", Key: TabWorker},
		{Label: "Availability"},
		{Label: "Profile"},
		{Label: "Messages"},
	},
	models.RoleBusiness: {
		{Label: "Projects", Key: TabFind},
		{Label: "Workers", Key: TabWorker},
		{Label: "Applications"},
		{Label: "Messages"},
	},
}

// Tabs returns the portal tab set and the initially selected tab for role.
func Tabs(role models.Role) ([]Tab, string) {
	def := TabFind
	if role == models.RoleWorker {
		def = TabWorker
	}
	return roleTabs[role], def
}

type RoleSummary struct {
	Role  models.Role  `json:"role"`
	Stage models.Stage `json:"stage"`
}

// Shell describes the portal for one role.
type Shell struct {
	Role       models.Role   `json:"role"`
	Stage      models.Stage  `json:"stage,omitempty"`
	NextStep   Destination   `json:"next_step"`
	Email      string        `json:"email"`
	Tabs       []Tab         `json:"tabs"`
	DefaultTab string        `json:"default_tab"`
	Roles      []RoleSummary `json:"roles"`
}

// WorkerForm is the portal's worker profile editor.
type WorkerForm struct {
	Specialties     string   `json:"specialties"`
	YearsExperience *int     `json:"years_experience"`
	HourlyRate      *float64 `json:"hourly_rate"`
	ServiceArea     string   `json:"service_area"`
	Credentials     string   `json:"credentials"`
	Portfolio       string   `json:"portfolio"`
	About           string   `json:"about"`
	Availability    string   `json:"availability"`
}

type PortalService struct {
	store ProfileStore
}

func NewPortalService(store ProfileStore) *PortalService {
	return &PortalService{store: store}
}

// Shell picks the role from the query when valid, else the first completed
// role, else customer. Lookups fail open.
func (s *PortalService) Shell(ctx context.Context, user *AuthUser, requested string) *Shell {
	rows, err := s.store.ListRoleStages(ctx, user.ID, "")
	if err != nil {
		slog.WarnContext(ctx, "portal role lookup failed", "action", "portal", "user_id", user.ID.String(), "error", err)
	}

	role, ok := models.ParseRole(requested)
	if !ok {
		role = models.RoleCustomer
		for _, r := range rows {
			if r.Stage.Complete() {
				role = r.Role
				break
			}
		}
	}

	shell := &Shell{Role: role, Email: user.Email, Roles: make([]RoleSummary, 0, len(rows))}
	for _, r := range rows {
		shell.Roles = append(shell.Roles, RoleSummary{Role: r.Role, Stage: r.Stage})
		if r.Role == role {
			shell.Stage = r.Stage
		}
	}
	shell.NextStep = NextStep(shell.Stage, role)
	shell.Tabs, shell.DefaultTab = Tabs(role)
	return shell
}

// WorkerForm loads the worker profile in form shape; a missing row yields an
// empty form.
func (s *PortalService) WorkerForm(ctx context.Context, user *AuthUser) (*WorkerForm, error) {
	wp, err := s.workerProfile(ctx, user)
	if err != nil {
		return nil, err
	}
	if wp == nil {
		return &WorkerForm{}, nil
	}

	form := &WorkerForm{
		Specialties:     strings.Join(wp.Trades, ", "),
		YearsExperience: wp.YearsExperience,
		Credentials:     strings.Join(wp.Certifications, ", "),
		Availability:    wp.Availability.Data().Note,
	}
	if wp.RateCents != nil {
		rate := math.Round(float64(*wp.RateCents) / 100)
		form.HourlyRate = &rate
	}
	if wp.ServiceArea != nil {
		form.ServiceArea = *wp.ServiceArea
	}
	if len(wp.PortfolioURLs) > 0 {
		form.Portfolio = wp.PortfolioURLs[0]
	}
	if wp.Bio != nil {
		form.About = *wp.Bio
	}
	return form, nil
}

// SaveWorkerForm upserts the worker profile from the portal form. Columns the
// form does not carry keep their stored values; the role stage is untouched.
func (s *PortalService) SaveWorkerForm(ctx context.Context, user *AuthUser, form WorkerForm) (*WorkerForm, error) {
	wp, err := s.workerProfile(ctx, user)
	if err != nil {
		return nil, err
	}
	if wp == nil {
		wp = &models.WorkerProfile{UserID: user.ID}
	}

	hourly := models.RateHourly
	wp.Bio = optional(form.About)
	wp.Trades = splitList(form.Specialties)
	wp.Certifications = splitList(form.Credentials)
	wp.YearsExperience = form.YearsExperience
	wp.RateType = &hourly
	wp.RateCents = nil
	if form.HourlyRate != nil {
		cents := int64(math.Round(math.Max(0, *form.HourlyRate) * 100))
		wp.RateCents = &cents
	}
	wp.ServiceArea = optional(form.ServiceArea)
	wp.Availability = datatypes.NewJSONType(models.Availability{Note: strings.TrimSpace(form.Availability)})
	wp.PortfolioURLs = datatypes.JSONSlice[string]{}
	if p := strings.TrimSpace(form.Portfolio); p != "" {
		wp.PortfolioURLs = append(wp.PortfolioURLs, p)
	}
	wp.UpdatedAt = time.Now().UTC()

	if err := s.store.UpsertRoleProfile(ctx, wp); err != nil {
		return nil, err
	}
	return s.WorkerForm(ctx, user)
}

func (s *PortalService) workerProfile(ctx context.Context, user *AuthUser) (*models.WorkerProfile, error) {
	rp, err := s.store.GetRoleProfile(ctx, user.ID, models.RoleWorker)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	wp, ok := rp.(*models.WorkerProfile)
	if !ok {
		return nil, ErrInvalidRole
	}
	return wp, nil
}
