package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/eco-exchange/internal/config"
	"github.com/spec-kit/eco-exchange/internal/domain"
	apperrors "github.com/spec-kit/eco-exchange/pkg/util"
)

func newAuthFixture(t *testing.T) (*AuthService, *fakeAccountRepo) {
	t.Helper()
	accounts := newFakeAccountRepo()
	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 15,
		BcryptCost:            bcrypt.MinCost,
	}}
	return NewAuthService(cfg, accounts), accounts
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthFixture(t)

	account, token, exp, err := svc.Register(context.Background(), "Ravi", "Ravi@Example.com", "s3cret", domain.RoleProducer)

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.False(t, exp.IsZero())
	assert.Equal(t, "ravi@example.com", account.Email)
	assert.Equal(t, domain.RoleProducer, account.Role)
	assert.Equal(t, initialReputation, account.Reputation)
	assert.Equal(t, domain.AccountStatusActive, account.Status)

	logged, token, _, err := svc.Login(context.Background(), "ravi@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, account.ID, logged.ID)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, claims.AccountID)
	assert.Equal(t, domain.RoleProducer, claims.Role)
}

func TestRegisterRejectsUnknownRoleAndDuplicates(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, _, _, err := svc.Register(context.Background(), "x", "x@example.com", "pw", "ADMIN")
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))

	_, _, _, err = svc.Register(context.Background(), "a", "dup@example.com", "pw", domain.RoleBuyer)
	require.NoError(t, err)

	_, _, _, err = svc.Register(context.Background(), "b", "DUP@example.com", "pw2", domain.RoleCollector)
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, _, _, err := svc.Login(context.Background(), "ghost@example.com", "pw")
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.CodeOf(err))

	_, _, _, err = svc.Register(context.Background(), "c", "c@example.com", "right", domain.RoleBuyer)
	require.NoError(t, err)

	_, _, _, err = svc.Login(context.Background(), "c@example.com", "wrong")
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.CodeOf(err))
}
