package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/config"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/database"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/logging"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/routes"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Structured logging (JSON to stdout, optional rotating file)
	baseLog := logging.Setup(cfg.LogLevel, cfg.LogFile)

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(baseLog.With(pgLogHandler)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Background work (JWKS refresh) stops with this context.
	bgCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	// One-time codes
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancelPing := context.WithTimeout(bgCtx, 3*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis unreachable, OAuth and verification codes will fail", "addr", cfg.RedisAddr, "error", err)
	}
	cancelPing()

	// Domain events
	var events services.EventPublisher = services.NoopPublisher{}
	if cfg.AMQPURL != "" {
		pub, err := services.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			slog.Error("amqp connection failed, events disabled", "error", err)
		} else {
			events = pub
			slog.Info("publishing domain events", "exchange", cfg.AMQPExchange)
		}
	}

	// Google sign-in
	var authOpts []services.AuthOption
	if cfg.GoogleEnabled() {
		jwks, err := services.LoadGoogleJWKS(bgCtx, cfg.GoogleJWKSURL, services.DefaultJWKSRetry)
		if err != nil {
			slog.Error("google keys unavailable, one tap disabled", "error", err)
		} else {
			authOpts = append(authOpts, services.WithGoogleVerifier(services.NewGoogleVerifier(cfg.GoogleClientID, jwks.Keyfunc)))
		}
		if cfg.GoogleClientSecret != "" && cfg.GoogleRedirectURL != "" {
			authOpts = append(authOpts, services.WithOAuthProvider(
				services.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)))
		}
	}

	// Services
	store := services.NewGormProfileStore(database.DB)
	authService := services.NewAuthService(database.DB, cfg, services.NewRedisCodeStore(rdb), services.LogMailer{}, authOpts...)
	resolver := services.NewResolver(store)
	onboardingService := services.NewOnboardingService(store, authService, events)
	portalService := services.NewPortalService(store)
	waitlistService := services.NewWaitlistService(store, events)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, resolver, cfg)
	healthHandler := handlers.NewHealthHandler(database.Ping)
	configHandler := handlers.NewConfigHandler(cfg)
	onboardingHandler := handlers.NewOnboardingHandler(onboardingService, authService, cfg)
	portalHandler := handlers.NewPortalHandler(portalService)
	waitlistHandler := handlers.NewWaitlistHandler(waitlistService)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Env,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	// Routes
	routes.Setup(app, cfg, authService, authHandler, healthHandler, configHandler, onboardingHandler, portalHandler, waitlistHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	cancelBackground()
	close(cleanupDone)
	if err := events.Close(); err != nil {
		slog.Error("event publisher close error", "error", err)
	}
	if err := rdb.Close(); err != nil {
		slog.Error("redis close error", "error", err)
	}
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.ErrorContext(c.UserContext(), "unhandled server error",
			"request_id", c.Locals("requestid"),
			"method", c.Method(),
			"path", c.Path(),
			"error", err.Error(),
		)
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
