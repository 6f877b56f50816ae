package services

import (
	"context"
	"errors"
	"strings"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/models"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/validation"
)

const waitlistSourceLanding = "landing_page"

type WaitlistInput struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Role   string `json:"role"`
	Notes  string `json:"notes"`
	Source string `json:"source"`
}

func (in WaitlistInput) Validate() error {
	fe := validation.FieldErrors{}
	fe.Required("name", "Name", in.Name)
	validation.Email(fe, in.Email)
	if !validation.ValidPhone(in.Phone) {
		fe.Add("phone", "Please enter a valid phone number or leave it blank.")
	}
	if r := strings.TrimSpace(in.Role); r != "" {
		if _, ok := models.ParseRole(r); !ok {
			fe.Add("role", "Choose customer, worker or business")
		}
	}
	return fe.Err()
}

type WaitlistService struct {
	store  ProfileStore
	events EventPublisher
}

func NewWaitlistService(store ProfileStore, events EventPublisher) *WaitlistService {
	return &WaitlistService{store: store, events: events}
}

// Join inserts one submission. A repeat of the same email and role returns
// ErrAlreadyJoined.
func (s *WaitlistService) Join(ctx context.Context, in WaitlistInput, userAgent string) (*models.WaitlistSubmission, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = waitlistSourceLanding
	}
	sub := &models.WaitlistSubmission{
		Name:      strings.TrimSpace(in.Name),
		Email:     normalizeEmail(in.Email),
		Phone:     optional(in.Phone),
		Role:      optional(in.Role),
		Source:    source,
		Notes:     optional(in.Notes),
		UserAgent: optional(userAgent),
	}

	if err := s.store.InsertWaitlist(ctx, sub); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, ErrAlreadyJoined
		}
		return nil, err
	}

	publish(ctx, s.events, EventWaitlistJoined, sub)
	return sub, nil
}

// List pages through submissions, newest first.
func (s *WaitlistService) List(ctx context.Context, limit, offset int) ([]models.WaitlistSubmission, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListWaitlist(ctx, limit, offset)
}
