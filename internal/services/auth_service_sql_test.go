package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/config"
)

func TestRefreshRevokesOnlyUnrevokedTokens(t *testing.T) {
	db, rec := dryRunDB(t)
	svc := NewAuthService(db, &config.Config{JWTSecret: "s"}, nil, LogMailer{})

	// Nothing is written under DryRun, so the revoke flips no row and no
	// session may be minted.
	_, err := svc.Refresh(context.Background(), "refresh-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	stmts := rec.all()
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], `FROM "refresh_tokens" WHERE token_hash = '`+hashToken("refresh-token")+`' AND revoked = false`)
	assert.Contains(t, stmts[1], `UPDATE "refresh_tokens" SET "revoked"=true WHERE revoked = false`)
}

func TestLinkGoogleUserLooksUpBySubjectFirst(t *testing.T) {
	db, rec := dryRunDB(t)
	svc := NewAuthService(db, &config.Config{}, nil, LogMailer{})

	_, _ = svc.linkGoogleUser(context.Background(), &OAuthProfile{Subject: "1098765", Email: "ada@example.com"})

	stmts := rec.all()
	require.NotEmpty(t, stmts)
	assert.Contains(t, stmts[0], `WHERE google_subject = '1098765'`)
	assert.NotContains(t, stmts[0], "email")
}
