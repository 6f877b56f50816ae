package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/services"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TestSecret signs access tokens issued by Identity.
const TestSecret = "test-secret"

type identityUser struct {
	user     services.AuthUser
	password string
}

// Identity is an in-memory IdentityGateway. Access tokens are real HS256
// JWTs signed with TestSecret so the JWT middleware accepts them.
type Identity struct {
	mu       sync.Mutex
	users    map[string]*identityUser
	codes    map[string]uuid.UUID
	refresh  map[string]uuid.UUID
	idTokens map[string]services.AuthUser

	// RequireVerification makes SignUp return no session.
	RequireVerification bool
	// SignUpErr, when set, is returned by SignUp.
	SignUpErr error
	// IDTokenErr, when set, is returned by SignInWithIDToken.
	IDTokenErr error
	// OAuthURL is returned by OAuthStartURL; empty means unsupported.
	OAuthURL  string
	SignedOut []string
}

var _ services.IdentityGateway = (*Identity)(nil)

func NewIdentity() *Identity {
	return &Identity{
		users:    map[string]*identityUser{},
		codes:    map[string]uuid.UUID{},
		refresh:  map[string]uuid.UUID{},
		idTokens: map[string]services.AuthUser{},
	}
}

// AddUser registers an account and returns it.
func (f *Identity) AddUser(email, password string) services.AuthUser {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := services.AuthUser{ID: uuid.New(), Email: strings.ToLower(email), Verified: true}
	f.users[u.Email] = &identityUser{user: u, password: password}
	return u
}

// AddIDToken makes credential sign in as user.
func (f *Identity) AddIDToken(credential string, user services.AuthUser) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.idTokens[credential] = user
	f.users[user.Email] = &identityUser{user: user}
}

// AddCode registers a one-time code for user.
func (f *Identity) AddCode(code string, user services.AuthUser) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[code] = user.ID
	if _, ok := f.users[user.Email]; !ok {
		f.users[user.Email] = &identityUser{user: user}
	}
}

func (f *Identity) SignUp(_ context.Context, email, password, _ string) (*services.SignUpResult, error) {
	if f.SignUpErr != nil {
		return nil, f.SignUpErr
	}

	f.mu.Lock()
	email = strings.ToLower(strings.TrimSpace(email))
	if _, ok := f.users[email]; ok {
		f.mu.Unlock()
		return nil, services.ErrEmailTaken
	}
	u := services.AuthUser{ID: uuid.New(), Email: email}
	f.users[email] = &identityUser{user: u, password: password}
	f.mu.Unlock()

	if f.RequireVerification {
		return &services.SignUpResult{User: &u, VerificationPending: true}, nil
	}
	sess := f.session(u)
	return &services.SignUpResult{User: &sess.User, Session: sess}, nil
}

func (f *Identity) SignIn(_ context.Context, email, password string) (*services.Session, error) {
	f.mu.Lock()
	iu, ok := f.users[strings.ToLower(strings.TrimSpace(email))]
	f.mu.Unlock()
	if !ok || iu.password == "" || iu.password != password {
		return nil, services.ErrInvalidCredentials
	}
	return f.session(iu.user), nil
}

func (f *Identity) SignInWithIDToken(_ context.Context, provider, idToken string) (*services.Session, error) {
	if provider != services.ProviderGoogle {
		return nil, services.ErrUnsupportedProvider
	}
	if f.IDTokenErr != nil {
		return nil, f.IDTokenErr
	}
	f.mu.Lock()
	u, ok := f.idTokens[idToken]
	f.mu.Unlock()
	if !ok {
		return nil, services.ErrInvalidToken
	}
	return f.session(u), nil
}

func (f *Identity) OAuthStartURL(_ context.Context, _, next string) (string, error) {
	if f.OAuthURL == "" {
		return "", services.ErrUnsupportedProvider
	}
	return f.OAuthURL + "?next=" + next, nil
}

func (f *Identity) OAuthReturn(_ context.Context, code, _ string) (string, error) {
	if code == "" {
		return "", services.ErrInvalidCode
	}
	return services.CallbackURL("", code, "/"), nil
}

func (f *Identity) ExchangeCodeForSession(_ context.Context, code string) (*services.Session, error) {
	f.mu.Lock()
	id, ok := f.codes[code]
	delete(f.codes, code)
	f.mu.Unlock()
	if !ok {
		return nil, services.ErrInvalidCode
	}
	u, err := f.byID(id)
	if err != nil {
		return nil, err
	}
	return f.session(*u), nil
}

func (f *Identity) GetUser(_ context.Context, accessToken string) (*services.AuthUser, error) {
	id, err := services.ParseAccessToken(TestSecret, accessToken)
	if err != nil {
		return nil, err
	}
	return f.byID(id)
}

func (f *Identity) Refresh(_ context.Context, refreshToken string) (*services.Session, error) {
	f.mu.Lock()
	id, ok := f.refresh[refreshToken]
	delete(f.refresh, refreshToken)
	f.mu.Unlock()
	if !ok {
		return nil, services.ErrInvalidToken
	}
	u, err := f.byID(id)
	if err != nil {
		return nil, err
	}
	return f.session(*u), nil
}

func (f *Identity) SignOut(_ context.Context, refreshToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SignedOut = append(f.SignedOut, refreshToken)
	delete(f.refresh, refreshToken)
	return nil
}

func (f *Identity) ResendVerification(context.Context, string, string) error {
	return nil
}

// AccessToken returns a valid access token for user.
func (f *Identity) AccessToken(user services.AuthUser) string {
	return f.session(user).AccessToken
}

func (f *Identity) byID(id uuid.UUID) (*services.AuthUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, iu := range f.users {
		if iu.user.ID == id {
			u := iu.user
			return &u, nil
		}
	}
	return nil, services.ErrUserNotFound
}

func (f *Identity) session(u services.AuthUser) *services.Session {
	exp := time.Now().Add(time.Hour)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   u.ID.String(),
		"email": u.Email,
		"iat":   time.Now().Unix(),
		"exp":   exp.Unix(),
	})
	signed, _ := tok.SignedString([]byte(TestSecret))

	refresh := "refresh-" + uuid.NewString()
	f.mu.Lock()
	f.refresh[refresh] = u.ID
	f.mu.Unlock()

	return &services.Session{AccessToken: signed, RefreshToken: refresh, ExpiresAt: exp, User: u}
}
