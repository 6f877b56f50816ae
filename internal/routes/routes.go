package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/config"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func perIP(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
}

func Setup(
	app *fiber.App,
	cfg *config.Config,
	identity services.IdentityGateway,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	configHandler *handlers.ConfigHandler,
	onboardingHandler *handlers.OnboardingHandler,
	portalHandler *handlers.PortalHandler,
	waitlistHandler *handlers.WaitlistHandler,
) {
	protected := middleware.JWTProtected(cfg)
	optional := middleware.OptionalAuth(cfg)

	// Browser navigation endpoints answer with redirects, not JSON.
	app.Get("/auth/callback", authHandler.Callback)
	app.Get("/auth/sign-out", authHandler.SignOut)
	app.Post("/auth/sign-out", authHandler.SignOut)

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(perIP(60))

	api.Get("/health", healthHandler.Check)
	api.Get("/config", configHandler.GetConfig)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(perIP(10))
	auth.Post("/sign-up", authHandler.SignUp)
	auth.Post("/sign-in", authHandler.SignIn)
	auth.Post("/one-tap", authHandler.OneTap)
	auth.Get("/oauth/google", authHandler.OAuthStart)
	auth.Get("/oauth/google/return", authHandler.OAuthReturn)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/resend-verification", authHandler.ResendVerification)
	auth.Get("/me", protected, authHandler.Me)

	api.Get("/navigation/select-role", optional, onboardingHandler.SelectRole)

	api.Get("/onboarding", protected, onboardingHandler.Get)
	api.Post("/onboarding/basics", protected, onboardingHandler.SubmitBasics)
	api.Post("/onboarding/basics/previous", optional, onboardingHandler.PreviousFromBasics)
	api.Get("/setup-profile", protected, onboardingHandler.Get)
	api.Post("/setup-profile", protected, onboardingHandler.SubmitProfile)
	api.Post("/setup-profile/previous", optional, onboardingHandler.PreviousFromProfile)

	api.Get("/portal", protected, portalHandler.Shell)
	api.Get("/portal/worker-profile", protected, portalHandler.WorkerProfile)
	api.Put("/portal/worker-profile", protected, portalHandler.SaveWorkerProfile)

	api.Post("/waitlist", waitlistHandler.Join)

	// Admin: a verified admin session or the X-Admin-Token header
	admin := api.Group("/admin", optional, middleware.AdminRequired(identity, cfg))
	admin.Get("/waitlist", waitlistHandler.List)
}
