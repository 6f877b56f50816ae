package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Database
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"tradeportal"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	// Sessions
	JWTSecret        string        `envconfig:"JWT_SECRET" required:"true"`
	JWTAccessExpiry  time.Duration `envconfig:"JWT_ACCESS_EXPIRY" default:"15m"`
	JWTRefreshExpiry time.Duration `envconfig:"JWT_REFRESH_EXPIRY" default:"168h"`
	BcryptCost       int           `envconfig:"BCRYPT_COST" default:"10"`
	CookieSecure     bool          `envconfig:"COOKIE_SECURE" default:"false"`

	// Sign-up with REQUIRE_EMAIL_VERIFICATION=true returns no session until the
	// emailed link is followed.
	RequireEmailVerification bool          `envconfig:"REQUIRE_EMAIL_VERIFICATION" default:"false"`
	VerificationTTL          time.Duration `envconfig:"VERIFICATION_TTL" default:"24h"`

	// Google (One Tap + OAuth redirect)
	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `envconfig:"GOOGLE_REDIRECT_URL"`
	GoogleJWKSURL      string `envconfig:"GOOGLE_JWKS_URL" default:"https://www.googleapis.com/oauth2/v3/certs"`

	// Public values handed to the browser through /api/config
	MapsAPIKey string `envconfig:"GOOGLE_MAPS_API_KEY"`
	SiteURL    string `envconfig:"SITE_URL" default:"http://localhost:3000"`

	// One-time codes
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Domain events; empty disables publishing
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"tradeportal.events"`

	// Admin
	AdminEmails  string `envconfig:"ADMIN_EMAILS"`
	AdminUserIDs string `envconfig:"ADMIN_USER_IDS"`
	AdminToken   string `envconfig:"ADMIN_TOKEN"`

	// Server
	Port        string `envconfig:"PORT" default:"8080"`
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	Env         string `envconfig:"APP_ENV" default:"development"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile     string `envconfig:"LOG_FILE"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// GoogleEnabled reports whether Google sign-in has been configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}
