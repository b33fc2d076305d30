package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siak-warlock/internal/models"
	appErrors "github.com/noah-isme/siak-warlock/pkg/errors"
)

func newTestAuthService() *AuthService {
	return NewAuthService(nil, nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "warlock"})
}

func TestAuthServiceIssueAndValidate(t *testing.T) {
	svc := newTestAuthService()

	resp, err := svc.IssueToken(models.TokenRequest{Subject: "discord-bot"})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "discord-bot", claims.Subject)
	assert.Equal(t, "warlock", claims.Issuer)
	assert.True(t, claims.HasScope(models.ScopeChallengeReply))
	assert.NotEmpty(t, claims.ID)
}

func TestAuthServiceRejectsInvalidRequests(t *testing.T) {
	svc := newTestAuthService()

	_, err := svc.IssueToken(models.TokenRequest{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.IssueToken(models.TokenRequest{Subject: "bot", Scopes: []string{"admin"}})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = NewAuthService(nil, nil, AuthConfig{}).IssueToken(models.TokenRequest{Subject: "bot"})
	assert.True(t, errors.Is(err, appErrors.ErrPreconditionFailed))
}

func TestAuthServiceValidateTokenFailures(t *testing.T) {
	svc := newTestAuthService()
	resp, err := svc.IssueToken(models.TokenRequest{Subject: "bot", TTL: time.Minute})
	require.NoError(t, err)

	other := NewAuthService(nil, nil, AuthConfig{AccessTokenSecret: "other", Issuer: "warlock"})
	_, err = other.ValidateToken(resp.AccessToken)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	foreign := NewAuthService(nil, nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "someone-else"})
	_, err = foreign.ValidateToken(resp.AccessToken)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.ValidateToken(resp.AccessToken)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &models.JWTClaims{Scopes: []string{models.ScopeChallengeReply}})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(raw)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}
