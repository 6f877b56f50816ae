package handlers

import (
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/config"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/dto"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/models"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/services"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/session"
	"github.com/gofiber/fiber/v2"
)

type OnboardingHandler struct {
	onboarding *services.OnboardingService
	identity   services.IdentityGateway
	cfg        *config.Config
}

func NewOnboardingHandler(onboarding *services.OnboardingService, identity services.IdentityGateway, cfg *config.Config) *OnboardingHandler {
	return &OnboardingHandler{onboarding: onboarding, identity: identity, cfg: cfg}
}

// roleParam reads ?role=, defaulting unknown values to customer.
func roleParam(c *fiber.Ctx) models.Role {
	return models.RoleOrDefault(c.Query("role"))
}

// SelectRole enables the chosen role for a signed-in user and sends them to
// onboarding; anonymous visitors go to sign-up first.
func (h *OnboardingHandler) SelectRole(c *fiber.Ctx) error {
	role := roleParam(c)

	user, err := session.User(c)
	if err != nil {
		target := services.Onboarding(role).Path()
		dest := services.Destination{Kind: services.DestSignUp, Next: target}
		return c.JSON(dto.NavigationResponse{Redirect: dest.Path()})
	}

	dest, err := h.onboarding.StartRole(c.UserContext(), user, role)
	if err != nil {
		return internalError(c, "select_role", err)
	}
	return c.JSON(dto.NavigationResponse{Redirect: dest.Path()})
}

// Get returns prefill values for either wizard step.
func (h *OnboardingHandler) Get(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	pf := h.onboarding.Prefill(c.UserContext(), user, roleParam(c))
	return c.JSON(dto.OnboardingResponse{Prefill: pf, Redirect: pf.NextStep.Path()})
}

func (h *OnboardingHandler) SubmitBasics(c *fiber.Ctx) error {
	user, err := session.User(c)
	if err != nil {
		return unauthorized(c)
	}

	var in services.BasicsInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}

	dest, err := h.onboarding.SubmitBasics(c.UserContext(), user, roleParam(c), in)
	if ok, ferr := fieldErrors(c, err); ok {
		return ferr
	}
	if err != nil {
		return internalError(c, "submit_basics", err)
	}
	return c.JSON(dto.NavigationResponse{Redirect: dest.Path()})
}

// PreviousFromBasics leaves the wizard by signing out.
func (h *OnboardingHandler) PreviousFromBasics(c *fiber.Ctx) error {
	dest, err := h.onboarding.PreviousFromBasics(c.UserContext(), session.RefreshToken(c))
	if err != nil {
		slog.WarnContext(c.UserContext(), "sign out failed", "action", "previous_basics", "error", err)
	}
	session.ClearCookies(c, h.cfg.CookieSecure)
	return c.JSON(dto.NavigationResponse{Redirect: dest.Path()})
}

func (h *OnboardingHandler) SubmitProfile(c *fiber.Ctx) error {
	user, err := session.User(c)
	if err != nil {
		return unauthorized(c)
	}

	var in services.ProfileInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}

	dest, err := h.onboarding.SubmitProfile(c.UserContext(), user, roleParam(c), in)
	if ok, ferr := fieldErrors(c, err); ok {
		return ferr
	}
	if err != nil {
		return internalError(c, "submit_profile", err)
	}
	return c.JSON(dto.NavigationResponse{Redirect: dest.Path()})
}

func (h *OnboardingHandler) PreviousFromProfile(c *fiber.Ctx) error {
	return c.JSON(dto.NavigationResponse{Redirect: h.onboarding.PreviousFromProfile(roleParam(c)).Path()})
}

// currentUser loads the full account for name prefill, falling back to the
// token claims when the lookup fails.
func (h *OnboardingHandler) currentUser(c *fiber.Ctx) (*services.AuthUser, error) {
	claims, err := session.User(c)
	if err != nil {
		return nil, err
	}
	full, err := h.identity.GetUser(c.UserContext(), session.AccessToken(c))
	if err != nil {
		slog.WarnContext(c.UserContext(), "user lookup failed", "action", "prefill", "user_id", claims.ID.String(), "error", err)
		return claims, nil
	}
	return full, nil
}
