package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type CodeKind string

const (
	CodeOAuthState CodeKind = "oauth_state"
	CodeAuth       CodeKind = "auth"
	CodeVerify     CodeKind = "verify"
)

const (
	oauthStateTTL = 10 * time.Minute
	authCodeTTL   = 5 * time.Minute
)

// CodePayload is what a one-time code stands for.
type CodePayload struct {
	Kind   CodeKind  `json:"kind"`
	UserID uuid.UUID `json:"user_id,omitempty"`
	Next   string    `json:"next,omitempty"`
}

// CodeStore keeps single-use codes. Take removes the code, so a second Take
// with the same code returns ErrInvalidCode. A code whose kind is not in kinds
// is consumed and rejected.
type CodeStore interface {
	Put(ctx context.Context, code string, payload CodePayload, ttl time.Duration) error
	Take(ctx context.Context, code string, kinds ...CodeKind) (*CodePayload, error)
}

const codeKeyPrefix = "tradeportal:code:"

type RedisCodeStore struct {
	rdb *redis.Client
}

func NewRedisCodeStore(rdb *redis.Client) *RedisCodeStore {
	return &RedisCodeStore{rdb: rdb}
}

func (s *RedisCodeStore) Put(ctx context.Context, code string, payload CodePayload, ttl time.Duration) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, codeKeyPrefix+hashToken(code), b, ttl).Err(); err != nil {
		return fmt.Errorf("storing %s code: %w", payload.Kind, err)
	}
	return nil
}

func (s *RedisCodeStore) Take(ctx context.Context, code string, kinds ...CodeKind) (*CodePayload, error) {
	if code == "" {
		return nil, ErrInvalidCode
	}

	b, err := s.rdb.GetDel(ctx, codeKeyPrefix+hashToken(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrInvalidCode
	}
	if err != nil {
		return nil, fmt.Errorf("consuming code: %w", err)
	}

	var p CodePayload
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decoding code payload: %w", err)
	}
	if !p.Kind.in(kinds) {
		return nil, ErrInvalidCode
	}
	return &p, nil
}

func (k CodeKind) in(kinds []CodeKind) bool {
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

// newCode returns a url-safe random string with n bytes of entropy.
func newCode(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
