package services

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/config"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService implements IdentityGateway on top of the users and
// refresh_tokens tables.
type AuthService struct {
	db     *gorm.DB
	cfg    *config.Config
	codes  CodeStore
	mailer Mailer
	google *GoogleVerifier
	oauth  OAuthProvider
}

type AuthOption func(*AuthService)

// WithGoogleVerifier enables One Tap sign-in.
func WithGoogleVerifier(v *GoogleVerifier) AuthOption {
	return func(s *AuthService) { s.google = v }
}

// WithOAuthProvider enables the Google redirect flow.
func WithOAuthProvider(p OAuthProvider) AuthOption {
	return func(s *AuthService) { s.oauth = p }
}

func NewAuthService(db *gorm.DB, cfg *config.Config, codes CodeStore, mailer Mailer, opts ...AuthOption) *AuthService {
	s := &AuthService{db: db, cfg: cfg, codes: codes, mailer: mailer}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ IdentityGateway = (*AuthService)(nil)

func (s *AuthService) SignUp(ctx context.Context, email, password, redirectTo string) (*SignUpResult, error) {
	email = normalizeEmail(email)

	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New(),
		Email:        email,
		Password:     string(hash),
		AuthProvider: models.AuthProviderEmail,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.cfg.RequireEmailVerification {
		if err := s.sendVerification(ctx, &user, redirectTo); err != nil {
			return nil, err
		}
		return &SignUpResult{User: authUserFrom(&user), VerificationPending: true}, nil
	}

	sess, err := s.newSession(ctx, &user)
	if err != nil {
		return nil, err
	}
	return &SignUpResult{User: &sess.User, Session: sess}, nil
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	// Google-only accounts have no password.
	if user.Password == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if s.cfg.RequireEmailVerification && !user.EmailVerified() {
		return nil, ErrEmailNotVerified
	}

	return s.newSession(ctx, &user)
}

func (s *AuthService) SignInWithIDToken(ctx context.Context, provider, idToken string) (*Session, error) {
	if provider != ProviderGoogle || s.google == nil {
		return nil, ErrUnsupportedProvider
	}
	if idToken == "" {
		return nil, fmt.Errorf("%w: empty credential", ErrInvalidToken)
	}

	claims, err := s.google.Verify(idToken)
	if err != nil {
		slog.WarnContext(ctx, "google id token rejected", "action", "one_tap", "error", err)
		return nil, err
	}

	user, err := s.linkGoogleUser(ctx, &OAuthProfile{
		Subject:       claims.Subject,
		Email:         normalizeEmail(claims.Email),
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		GivenName:     claims.GivenName,
		FamilyName:    claims.FamilyName,
	})
	if err != nil {
		return nil, err
	}
	return s.newSession(ctx, user)
}

func (s *AuthService) OAuthStartURL(ctx context.Context, provider, next string) (string, error) {
	if provider != ProviderGoogle || s.oauth == nil {
		return "", ErrUnsupportedProvider
	}

	state, err := newCode(24)
	if err != nil {
		return "", err
	}
	if err := s.codes.Put(ctx, state, CodePayload{Kind: CodeOAuthState, Next: next}, oauthStateTTL); err != nil {
		return "", err
	}
	return s.oauth.AuthCodeURL(state), nil
}

func (s *AuthService) OAuthReturn(ctx context.Context, code, state string) (string, error) {
	if s.oauth == nil {
		return "", ErrUnsupportedProvider
	}

	st, err := s.codes.Take(ctx, state, CodeOAuthState)
	if err != nil {
		return "", err
	}

	profile, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return "", err
	}

	user, err := s.linkGoogleUser(ctx, profile)
	if err != nil {
		return "", err
	}

	authCode, err := newCode(32)
	if err != nil {
		return "", err
	}
	if err := s.codes.Put(ctx, authCode, CodePayload{Kind: CodeAuth, UserID: user.ID}, authCodeTTL); err != nil {
		return "", err
	}

	next := st.Next
	if next == "" {
		next = "/"
	}
	return CallbackURL("", authCode, next), nil
}

func (s *AuthService) ExchangeCodeForSession(ctx context.Context, code string) (*Session, error) {
	p, err := s.codes.Take(ctx, code, CodeAuth, CodeVerify)
	if err != nil {
		return nil, err
	}

	if p.Kind == CodeVerify {
		err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("id = ? AND email_verified_at IS NULL", p.UserID).
			Update("email_verified_at", time.Now().UTC()).Error
		if err != nil {
			return nil, fmt.Errorf("marking email verified: %w", err)
		}
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", p.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return s.newSession(ctx, &user)
}

func (s *AuthService) GetUser(ctx context.Context, accessToken string) (*AuthUser, error) {
	userID, err := ParseAccessToken(s.cfg.JWTSecret, accessToken)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return authUserFrom(&user), nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	db := s.db.WithContext(ctx)

	var stored models.RefreshToken
	if err := db.Where("token_hash = ? AND revoked = false", hashToken(refreshToken)).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	// Rotation: the presented token is spent either way. Only the request that
	// flips revoked may go on to mint a session.
	res := db.Model(&stored).Where("revoked = false").Update("revoked", true)
	if res.Error != nil {
		return nil, fmt.Errorf("revoking refresh token: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		return nil, ErrInvalidToken
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	var user models.User
	if err := db.First(&user, "id = ?", stored.UserID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return s.newSession(ctx, &user)
}

func (s *AuthService) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", hashToken(refreshToken)).
		Update("revoked", true).Error
}

// ResendVerification re-sends the sign-up link. Unknown and already verified
// addresses succeed silently so the endpoint does not reveal accounts.
func (s *AuthService) ResendVerification(ctx context.Context, email, redirectTo string) error {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking up user: %w", err)
	}
	if user.EmailVerified() {
		return nil
	}
	return s.sendVerification(ctx, &user, redirectTo)
}

func (s *AuthService) sendVerification(ctx context.Context, user *models.User, redirectTo string) error {
	code, err := newCode(32)
	if err != nil {
		return err
	}
	if err := s.codes.Put(ctx, code, CodePayload{Kind: CodeVerify, UserID: user.ID, Next: redirectTo}, s.cfg.VerificationTTL); err != nil {
		return err
	}

	next := redirectTo
	if next == "" {
		next = "/select-role"
	}
	link := CallbackURL(s.cfg.SiteURL, code, next)
	if err := s.mailer.SendVerification(ctx, user.Email, link); err != nil {
		return fmt.Errorf("sending verification email: %w", err)
	}
	return nil
}

// linkGoogleUser finds the user by Google subject, then by email when Google
// vouches for it, creating one when neither matches, and fills in any missing
// Google metadata. An email match is never linked while unverified or when the
// row already carries another subject.
func (s *AuthService) linkGoogleUser(ctx context.Context, p *OAuthProfile) (*models.User, error) {
	db := s.db.WithContext(ctx)
	email := normalizeEmail(p.Email)

	var user models.User
	err := db.Where("google_subject = ?", p.Subject).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = db.Where("email = ?", email).First(&user).Error
		if err == nil && (!p.EmailVerified || (user.GoogleSubject != nil && *user.GoogleSubject != p.Subject)) {
			slog.WarnContext(ctx, "refusing to link Google account", "action", "link_google",
				"user_id", user.ID.String(), "email_verified", p.EmailVerified)
			return nil, ErrIdentityConflict
		}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sub := p.Subject
		user = models.User{
			ID:            uuid.New(),
			Email:         email,
			AuthProvider:  models.AuthProviderGoogle,
			GoogleSubject: &sub,
			GivenName:     p.GivenName,
			FamilyName:    p.FamilyName,
			FullName:      p.Name,
		}
		if p.EmailVerified {
			now := time.Now().UTC()
			user.EmailVerifiedAt = &now
		}
		if err := db.Create(&user).Error; err != nil {
			if isUniqueViolation(err) {
				return nil, ErrIdentityConflict
			}
			return nil, fmt.Errorf("failed to create Google user: %w", err)
		}
		return &user, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	updates := map[string]interface{}{}
	if user.GoogleSubject == nil {
		sub := p.Subject
		user.GoogleSubject = &sub
		updates["google_subject"] = sub
	}
	if user.GivenName == "" && p.GivenName != "" {
		user.GivenName = p.GivenName
		updates["given_name"] = p.GivenName
	}
	if user.FamilyName == "" && p.FamilyName != "" {
		user.FamilyName = p.FamilyName
		updates["family_name"] = p.FamilyName
	}
	if user.FullName == "" && p.Name != "" {
		user.FullName = p.Name
		updates["full_name"] = p.Name
	}
	if user.EmailVerifiedAt == nil && p.EmailVerified {
		now := time.Now().UTC()
		user.EmailVerifiedAt = &now
		updates["email_verified_at"] = now
	}
	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("linking Google account: %w", err)
		}
	}
	return &user, nil
}

func (s *AuthService) newSession(ctx context.Context, user *models.User) (*Session, error) {
	expiresAt := time.Now().Add(s.cfg.JWTAccessExpiry)
	accessToken, err := s.generateAccessToken(user, expiresAt)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		User:         *authUserFrom(user),
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"iat":   time.Now().Unix(),
		"exp":   expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	rawToken, err := newCode(32)
	if err != nil {
		return "", err
	}

	record := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

// ParseAccessToken validates an HS256 access token and returns its subject.
func ParseAccessToken(secret, accessToken string) (uuid.UUID, error) {
	token, err := jwt.Parse(accessToken, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

// CallbackURL builds the /auth/callback link that exchanges code and then
// navigates to next. base may be empty for a site-relative URL.
func CallbackURL(base, code, next string) string {
	q := url.Values{}
	q.Set("code", code)
	q.Set("next", next)
	return strings.TrimRight(base, "/") + "/auth/callback?" + q.Encode()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
