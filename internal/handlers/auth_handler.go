package handlers

import (
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/config"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/dto"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/services"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/session"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/validation"
	"github.com/gofiber/fiber/v2"
)

const oneTapSignUp = "sign_up"

type AuthHandler struct {
	identity services.IdentityGateway
	resolver *services.Resolver
	cfg      *config.Config
}

func NewAuthHandler(identity services.IdentityGateway, resolver *services.Resolver, cfg *config.Config) *AuthHandler {
	return &AuthHandler{identity: identity, resolver: resolver, cfg: cfg}
}

func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	fe := validation.FieldErrors{}
	validation.Email(fe, req.Email)
	for _, msg := range validation.Password(req.Password) {
		fe.Add("password", msg)
	}
	if ok, err := fieldErrors(c, fe.Err()); ok {
		return err
	}

	next := safeNext(req.Next, "/select-role")
	res, err := h.identity.SignUp(c.UserContext(), req.Email, req.Password, next)
	if err != nil {
		return h.gatewayError(c, "sign_up", err)
	}

	if res.Session == nil {
		if !res.VerificationPending {
			return accountExists(c)
		}
		return c.JSON(dto.AuthResponse{
			User:    res.User,
			State:   dto.StateVerificationPending,
			Message: "We sent a verification link to " + res.User.Email + ". Open it to verify your email and finish creating your account.",
		})
	}

	session.SetCookies(c, res.Session, h.cfg.CookieSecure, h.cfg.JWTRefreshExpiry)
	return c.Status(fiber.StatusCreated).JSON(dto.AuthResponse{
		User:      &res.Session.User,
		Redirect:  next,
		ExpiresAt: &res.Session.ExpiresAt,
	})
}

func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	fe := validation.FieldErrors{}
	validation.Email(fe, req.Email)
	fe.Required("password", "Password", req.Password)
	if ok, err := fieldErrors(c, fe.Err()); ok {
		return err
	}

	sess, err := h.identity.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return h.gatewayError(c, "sign_in", err)
	}

	session.SetCookies(c, sess, h.cfg.CookieSecure, h.cfg.JWTRefreshExpiry)
	dest := h.resolver.Resolve(c.UserContext(), services.PasswordSignInRequest(&sess.User, safeNext(req.Next, "/portal")))
	return c.JSON(authResponse(sess, dest))
}

// OneTap signs in with a Google credential. Without a credential, or when
// the credential is rejected, the client is sent through the OAuth redirect
// flow instead. A Google identity that collides with another account gets the
// account_exists state.
func (h *AuthHandler) OneTap(c *fiber.Ctx) error {
	var req dto.OneTapRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	signUp := req.Context == oneTapSignUp
	next := safeNext(req.Next, "/portal")
	if signUp {
		next = safeNext(req.Next, "/select-role")
	}

	if req.Credential == "" {
		return c.JSON(dto.AuthResponse{Redirect: oauthStartPath(next)})
	}

	sess, err := h.identity.SignInWithIDToken(c.UserContext(), services.ProviderGoogle, req.Credential)
	if errors.Is(err, services.ErrUnsupportedProvider) {
		return badRequest(c, "Google sign-in is not available")
	}
	if errors.Is(err, services.ErrIdentityConflict) {
		return accountExists(c)
	}
	if err != nil {
		slog.WarnContext(c.UserContext(), "one tap failed, falling back to redirect",
			"request_id", requestID(c), "action", "one_tap", "error", err)
		return c.JSON(dto.AuthResponse{Redirect: oauthStartPath(next)})
	}

	session.SetCookies(c, sess, h.cfg.CookieSecure, h.cfg.JWTRefreshExpiry)

	req2 := services.OneTapSignInRequest(&sess.User, next)
	if signUp {
		req2 = services.SignUpOneTapRequest(&sess.User, next)
	}
	dest := h.resolver.Resolve(c.UserContext(), req2)
	return c.JSON(authResponse(sess, dest))
}

func (h *AuthHandler) OAuthStart(c *fiber.Ctx) error {
	target, err := h.identity.OAuthStartURL(c.UserContext(), services.ProviderGoogle, safeNext(c.Query("next"), "/"))
	if errors.Is(err, services.ErrUnsupportedProvider) {
		return badRequest(c, "Google sign-in is not available")
	}
	if err != nil {
		return internalError(c, "oauth_start", err)
	}
	return c.Redirect(target, fiber.StatusTemporaryRedirect)
}

func (h *AuthHandler) OAuthReturn(c *fiber.Ctx) error {
	if e := c.Query("error"); e != "" {
		slog.InfoContext(c.UserContext(), "oauth cancelled", "action", "oauth_return", "error", e)
		return c.Redirect("/auth/sign-in", fiber.StatusTemporaryRedirect)
	}

	target, err := h.identity.OAuthReturn(c.UserContext(), c.Query("code"), c.Query("state"))
	if err != nil {
		slog.WarnContext(c.UserContext(), "oauth return rejected",
			"request_id", requestID(c), "action", "oauth_return", "error", err)
		return c.Redirect("/auth/sign-in", fiber.StatusTemporaryRedirect)
	}
	return c.Redirect(target, fiber.StatusTemporaryRedirect)
}

// Callback exchanges a one-time code for a session and redirects. A failed
// exchange still redirects to next.
func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	next := safeNext(c.Query("next"), "/")

	if code := c.Query("code"); code != "" {
		sess, err := h.identity.ExchangeCodeForSession(c.UserContext(), code)
		if err != nil {
			slog.DebugContext(c.UserContext(), "code exchange failed", "action", "callback", "error", err)
		} else {
			session.SetCookies(c, sess, h.cfg.CookieSecure, h.cfg.JWTRefreshExpiry)
			next = h.resolver.Resolve(c.UserContext(), services.CallbackRequest(&sess.User, next)).Path()
		}
	}
	return c.Redirect(next, fiber.StatusTemporaryRedirect)
}

// SignOut revokes the refresh token, clears cookies and always lands on /.
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	if err := h.identity.SignOut(c.UserContext(), session.RefreshToken(c)); err != nil {
		slog.WarnContext(c.UserContext(), "sign out failed", "action", "sign_out", "error", err)
	}
	session.ClearCookies(c, h.cfg.CookieSecure)
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token := session.RefreshToken(c)
	if token == "" {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = c.BodyParser(&body)
		token = body.RefreshToken
	}
	if token == "" {
		return unauthorized(c)
	}

	sess, err := h.identity.Refresh(c.UserContext(), token)
	if errors.Is(err, services.ErrInvalidToken) {
		session.ClearCookies(c, h.cfg.CookieSecure)
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Session expired, please sign in again",
		})
	}
	if err != nil {
		return internalError(c, "refresh", err)
	}

	session.SetCookies(c, sess, h.cfg.CookieSecure, h.cfg.JWTRefreshExpiry)
	return c.JSON(dto.AuthResponse{User: &sess.User, ExpiresAt: &sess.ExpiresAt})
}

func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	var req dto.ResendRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	fe := validation.FieldErrors{}
	validation.Email(fe, req.Email)
	if ok, err := fieldErrors(c, fe.Err()); ok {
		return err
	}

	if err := h.identity.ResendVerification(c.UserContext(), req.Email, safeNext(req.Next, "/onboarding")); err != nil {
		return internalError(c, "resend_verification", err)
	}
	return c.JSON(fiber.Map{"message": "If that address needs verifying, a new link is on its way."})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := h.identity.GetUser(c.UserContext(), session.AccessToken(c))
	if errors.Is(err, services.ErrInvalidToken) || errors.Is(err, services.ErrUserNotFound) {
		return unauthorized(c)
	}
	if err != nil {
		return internalError(c, "me", err)
	}

	first, last := user.NameParts()
	return c.JSON(dto.UserResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		FirstName: first,
		LastName:  last,
		Verified:  user.Verified,
	})
}

// gatewayError maps identity failures onto responses: duplicates become the
// account_exists state, messages naming a field become field errors.
func (h *AuthHandler) gatewayError(c *fiber.Ctx, action string, err error) error {
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		return accountExists(c)
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid email or password",
		})
	case errors.Is(err, services.ErrEmailNotVerified):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error:   true,
			Message: "Please verify your email before signing in.",
			State:   dto.StateVerificationPending,
			Actions: []string{dto.ActionResend},
		})
	}

	msg := err.Error()
	if validation.LooksDuplicate(msg) {
		return accountExists(c)
	}
	if field, fieldMsg := validation.Classify(msg); field != "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   true,
			Message: fieldMsg,
			Fields:  map[string][]string{field: {fieldMsg}},
		})
	}
	return internalError(c, action, err)
}

func accountExists(c *fiber.Ctx) error {
	return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
		Error:   true,
		Message: "An account with this email already exists.",
		State:   dto.StateAccountExists,
		Actions: []string{dto.ActionSignIn, dto.ActionRetry},
	})
}

func authResponse(sess *services.Session, dest services.Destination) dto.AuthResponse {
	return dto.AuthResponse{
		User:        &sess.User,
		Redirect:    dest.Path(),
		Destination: &dest,
		ExpiresAt:   &sess.ExpiresAt,
	}
}

func oauthStartPath(next string) string {
	return "/api/auth/oauth/google?next=" + url.QueryEscape(strings.TrimSpace(next))
}
