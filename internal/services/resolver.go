package services

import (
	"context"
	"errors"
	"log/slog"
	"net/url"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/models"
	"github.com/google/uuid"
)

type DestinationKind string

const (
	DestPortal       DestinationKind = "portal"
	DestOnboarding   DestinationKind = "onboarding"
	DestSetupProfile DestinationKind = "setup_profile"
	DestSignUp       DestinationKind = "sign_up"
	DestSignIn       DestinationKind = "sign_in"
	DestUnresolved   DestinationKind = "unresolved"
)

// Destination is where the browser should land next.
type Destination struct {
	Kind DestinationKind `json:"kind"`
	Role models.Role     `json:"role,omitempty"`
	Next string          `json:"next,omitempty"`
}

func Portal(role models.Role) Destination {
	return Destination{Kind: DestPortal, Role: role}
}

func Onboarding(role models.Role) Destination {
	return Destination{Kind: DestOnboarding, Role: role}
}

func SetupProfile(role models.Role) Destination {
	return Destination{Kind: DestSetupProfile, Role: role}
}

func Unresolved(next string) Destination {
	return Destination{Kind: DestUnresolved, Next: next}
}

// Path renders the destination as a site-relative URL.
func (d Destination) Path() string {
	switch d.Kind {
	case DestPortal:
		return "/portal?role=" + url.QueryEscape(string(d.Role))
	case DestOnboarding:
		return "/onboarding?role=" + url.QueryEscape(string(d.Role))
	case DestSetupProfile:
		return "/setup-profile?role=" + url.QueryEscape(string(d.Role))
	case DestSignUp:
		return "/auth/sign-up?next=" + url.QueryEscape(d.Next)
	case DestSignIn:
		return "/auth/sign-in?next=" + url.QueryEscape(d.Next)
	}
	if d.Next == "" {
		return "/"
	}
	return d.Next
}

// stageTable is the single stage-to-destination mapping. AfterAuth is used
// when a sign-in lands on a role that already has a row: every recorded stage
// resumes in the portal. Wizard is the step the onboarding pages show.
var stageTable = map[models.Stage]struct {
	AfterAuth DestinationKind
	Wizard    DestinationKind
}{
	models.StageEnabled:     {AfterAuth: DestPortal, Wizard: DestOnboarding},
	models.StageBasicsDone:  {AfterAuth: DestPortal, Wizard: DestSetupProfile},
	models.StageProfileDone: {AfterAuth: DestPortal, Wizard: DestPortal},
}

// ResolveRequest is the input to Resolver.Resolve. Build it with one of the
// per-call-site constructors below rather than by hand.
type ResolveRequest struct {
	User *AuthUser
	// Role is the requested role; empty means no preference.
	Role models.Role
	// Next is the caller's fallback path.
	Next string
	// AnyCompleted lets a miss on Role fall back to the first completed role.
	// Without a requested role the completed-role lookup always runs.
	AnyCompleted bool
	// ExactOnly skips the completed-role lookup entirely.
	ExactOnly bool
	// SignIn sends unauthenticated users to sign-in instead of sign-up.
	SignIn bool
}

// CallbackRequest is used after /auth/callback exchanges its code.
func CallbackRequest(user *AuthUser, next string) ResolveRequest {
	return postAuthRequest(user, orDefault(next, "/"), false)
}

// PasswordSignInRequest is used after an email and password sign-in.
func PasswordSignInRequest(user *AuthUser, next string) ResolveRequest {
	return postAuthRequest(user, orDefault(next, "/portal"), true)
}

// OneTapSignInRequest is used after a Google credential on the sign-in page.
func OneTapSignInRequest(user *AuthUser, next string) ResolveRequest {
	return postAuthRequest(user, orDefault(next, "/portal"), true)
}

// postAuthRequest only falls back to a completed role when next is a generic
// landing page. Any other next is honoured unless its role already has a row,
// so signing in on the way to a new role's onboarding keeps that destination.
func postAuthRequest(user *AuthUser, next string, signIn bool) ResolveRequest {
	generic := genericLanding(next)
	return ResolveRequest{
		User:         user,
		Role:         RoleFromPath(next),
		Next:         next,
		AnyCompleted: generic,
		ExactOnly:    !generic,
		SignIn:       signIn,
	}
}

func genericLanding(next string) bool {
	return next == "/" || next == "/portal"
}

// SignUpOneTapRequest is used after a Google credential on the sign-up page.
// Only an exact row for the requested role skips onboarding.
func SignUpOneTapRequest(user *AuthUser, next string) ResolveRequest {
	next = orDefault(next, "/select-role")
	return ResolveRequest{User: user, Role: RoleFromPath(next), Next: next, ExactOnly: true}
}

// Resolver decides post-authentication navigation. It only reads.
type Resolver struct {
	store ProfileStore
}

func NewResolver(store ProfileStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve never fails: lookup errors fall back to req.Next.
func (r *Resolver) Resolve(ctx context.Context, req ResolveRequest) Destination {
	if req.User == nil {
		kind := DestSignUp
		if req.SignIn {
			kind = DestSignIn
		}
		return Destination{Kind: kind, Next: req.Next}
	}

	if req.Role != "" {
		rec, err := r.store.GetRoleStage(ctx, req.User.ID, req.Role)
		switch {
		case err == nil:
			if row, ok := stageTable[rec.Stage]; ok {
				return Destination{Kind: row.AfterAuth, Role: rec.Role}
			}
		case errors.Is(err, ErrNotFound):
		default:
			slog.DebugContext(ctx, "role stage lookup failed", "action", "resolve", "user_id", req.User.ID.String(), "role", string(req.Role), "error", err)
			return Unresolved(req.Next)
		}
	}

	if req.ExactOnly || (req.Role != "" && !req.AnyCompleted) {
		return Unresolved(req.Next)
	}

	done, err := r.store.ListRoleStages(ctx, req.User.ID, models.StageProfileDone)
	if err != nil {
		slog.DebugContext(ctx, "completed role lookup failed", "action", "resolve", "user_id", req.User.ID.String(), "error", err)
		return Unresolved(req.Next)
	}
	if len(done) > 0 {
		return Portal(done[0].Role)
	}
	return Unresolved(req.Next)
}

// Stage returns the stored stage for the role, or "" when the role has no row.
func (r *Resolver) Stage(ctx context.Context, userID uuid.UUID, role models.Role) (models.Stage, error) {
	rec, err := r.store.GetRoleStage(ctx, userID, role)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return rec.Stage, nil
}

// NextStep is the wizard step for a role at the given stage. A role with no
// row starts at onboarding.
func NextStep(stage models.Stage, role models.Role) Destination {
	if row, ok := stageTable[stage]; ok {
		return Destination{Kind: row.Wizard, Role: role}
	}
	return Onboarding(role)
}

// RoleFromPath extracts a known role from the role query parameter of a
// site-relative path such as /portal?role=worker.
func RoleFromPath(path string) models.Role {
	u, err := url.Parse(path)
	if err != nil {
		return ""
	}
	role, _ := models.ParseRole(u.Query().Get("role"))
	return role
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
