package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/models"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/services"
)

// Response states the client renders specially.
const (
	StateAccountExists       = "account_exists"
	StateVerificationPending = "verification_pending"
)

// Follow-up actions offered with a state.
const (
	ActionSignIn = "sign_in"
	ActionRetry  = "retry"
	ActionResend = "resend"
)

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Next     string `json:"next"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Next     string `json:"next"`
}

// OneTapRequest carries a Google One Tap credential. Context is "sign_in"
// or "sign_up" depending on the page the prompt was shown on.
type OneTapRequest struct {
	Credential string `json:"credential"`
	Next       string `json:"next"`
	Context    string `json:"context"`
}

type ResendRequest struct {
	Email string `json:"email"`
	Next  string `json:"next"`
}

type AuthResponse struct {
	User        *services.AuthUser    `json:"user,omitempty"`
	Redirect    string                `json:"redirect"`
	Destination *services.Destination `json:"destination,omitempty"`
	ExpiresAt   *time.Time            `json:"expires_at,omitempty"`
	State       string                `json:"state,omitempty"`
	Message     string                `json:"message,omitempty"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Verified  bool   `json:"verified"`
}

type NavigationResponse struct {
	Redirect string `json:"redirect"`
}

type OnboardingResponse struct {
	Prefill  *services.Prefill `json:"prefill"`
	Redirect string            `json:"redirect"`
}

type WaitlistListResponse struct {
	Items  []models.WaitlistSubmission `json:"items"`
	Total  int64                       `json:"total"`
	Offset int                         `json:"offset"`
}

type ClientConfigResponse struct {
	GoogleClientID string        `json:"google_client_id,omitempty"`
	MapsAPIKey     string        `json:"maps_api_key,omitempty"`
	SiteURL        string        `json:"site_url"`
	GoogleEnabled  bool          `json:"google_enabled"`
	Roles          []models.Role `json:"roles"`
}

// ErrorResponse is the body of every non-2xx JSON reply. Fields holds
// field-scoped validation messages.
type ErrorResponse struct {
	Error   bool                `json:"error"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
	State   string              `json:"state,omitempty"`
	Actions []string            `json:"actions,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
