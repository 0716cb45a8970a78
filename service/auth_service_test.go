package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"fintrack/auth"
	"fintrack/repository"
)

func newTestAuthService(t *testing.T) (*AuthService, *auth.TokenIssuer) {
	t.Helper()
	tokens, err := auth.NewTokenIssuer("test-secret-test-secret", time.Hour)
	require.NoError(t, err)
	return NewAuthService(repository.NewUserRepositoryMemory(), tokens, auth.NewHasher(bcrypt.MinCost)), tokens
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc, tokens := newTestAuthService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, " Nimal ", "Nimal@Example.com ", "password123")
	require.NoError(t, err)
	assert.Equal(t, "Nimal", session.User.Name)
	assert.Equal(t, "nimal@example.com", session.User.Email)

	userID, err := tokens.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, userID)

	login, err := svc.Login(ctx, "NIMAL@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "A", "a@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "B", "A@example.com", "password456")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name, user, email, password string
	}{
		{"missing name", "", "a@example.com", "password123"},
		{"bad email", "A", "not-an-email", "password123"},
		{"short password", "A", "a@example.com", "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.user, tt.email, tt.password)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestAuthService_LoginFailures(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "A", "a@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "a@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
