package service

import (
	"context"
	"errors"
	"testing"

	"geodir/internal/common"
	"geodir/internal/common/security"
	"geodir/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(email, password string, active bool) *model.User {
	hash, _ := security.HashPassword(password)
	return &model.User{
		ID:             uuid.NewString(),
		Email:          email,
		Name:           "Test User",
		HashedPassword: hash,
		Role:           model.RoleUser,
		IsActive:       active,
	}
}

func TestAuthService_Register(t *testing.T) {
	initTestConfig()
	userRepo := newMockUserRepository()
	svc := NewAuthService(userRepo)
	ctx := context.Background()

	t.Run("successful registration", func(t *testing.T) {
		resp, err := svc.Register(ctx, RegisterRequest{
			Email:    "Alice@Example.com",
			Password: "secret123",
			Name:     "Alice",
		})
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", resp.User.Email)
		assert.Equal(t, model.RoleUser, resp.User.Role)
		assert.True(t, resp.User.IsActive)
		assert.Empty(t, resp.User.HashedPassword)
		assert.NotEmpty(t, resp.Token)

		// The token must independently verify and carry the subject.
		tok, err := jwtauth.VerifyToken(security.TokenAuth, resp.Token)
		require.NoError(t, err)
		claims, err := tok.AsMap(ctx)
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID, claims["user_id"])
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterRequest{
			Email:    "alice@example.com",
			Password: "another1",
			Name:     "Alice Again",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrConflict)
	})

	t.Run("duplicate email differing only in case is a conflict", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterRequest{
			Email:    "ALICE@example.com",
			Password: "another1",
			Name:     "Alice Again",
		})
		assert.ErrorIs(t, err, common.ErrConflict)
	})

	t.Run("every violated field is reported", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterRequest{
			Email:    "not-an-email",
			Password: "abc",
			Name:     "  ",
		})
		require.Error(t, err)
		var vErr *common.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.Fields, "email")
		assert.Contains(t, vErr.Fields, "password")
		assert.Contains(t, vErr.Fields, "name")
	})
}

func TestAuthService_Login(t *testing.T) {
	initTestConfig()
	userRepo := newMockUserRepository()
	svc := NewAuthService(userRepo)
	ctx := context.Background()

	userRepo.add(newTestUser("bob@example.com", "correct-horse", true))
	userRepo.add(newTestUser("gone@example.com", "whatever1", false))

	t.Run("successful login", func(t *testing.T) {
		resp, err := svc.Login(ctx, LoginRequest{Email: "Bob@Example.com ", Password: "correct-horse"})
		require.NoError(t, err)
		assert.Equal(t, "bob@example.com", resp.User.Email)
		assert.Empty(t, resp.User.HashedPassword)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		_, errWrongPassword := svc.Login(ctx, LoginRequest{Email: "bob@example.com", Password: "nope"})
		_, errUnknownEmail := svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "nope"})
		assert.ErrorIs(t, errWrongPassword, common.ErrUnauthorized)
		assert.ErrorIs(t, errUnknownEmail, common.ErrUnauthorized)
		assert.Equal(t, errWrongPassword, errUnknownEmail)
	})

	t.Run("inactive user cannot log in", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginRequest{Email: "gone@example.com", Password: "whatever1"})
		assert.ErrorIs(t, err, common.ErrUnauthorized)
	})
}

func TestAuthService_VerifySession(t *testing.T) {
	initTestConfig()
	userRepo := newMockUserRepository()
	svc := NewAuthService(userRepo)
	ctx := context.Background()

	user := newTestUser("carol@example.com", "password1", true)
	user.Role = model.RoleAdmin
	userRepo.add(user)

	t.Run("resolves an active subject with its current role", func(t *testing.T) {
		actor, err := svc.VerifySession(ctx, map[string]interface{}{"user_id": user.ID})
		require.NoError(t, err)
		assert.Equal(t, user.ID, actor.ID)
		assert.Equal(t, model.RoleAdmin, actor.Role)
	})

	t.Run("missing subject claim", func(t *testing.T) {
		_, err := svc.VerifySession(ctx, map[string]interface{}{})
		assert.ErrorIs(t, err, common.ErrUnauthorized)
	})

	t.Run("subject no longer resolvable", func(t *testing.T) {
		_, err := svc.VerifySession(ctx, map[string]interface{}{"user_id": uuid.NewString()})
		assert.ErrorIs(t, err, common.ErrUnauthorized)
	})

	t.Run("deactivated subject is rejected", func(t *testing.T) {
		inactive := newTestUser("dan@example.com", "password1", false)
		userRepo.add(inactive)
		_, err := svc.VerifySession(ctx, map[string]interface{}{"user_id": inactive.ID})
		assert.ErrorIs(t, err, common.ErrUnauthorized)
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	initTestConfig()
	userRepo := newMockUserRepository()
	svc := NewAuthService(userRepo)
	ctx := context.Background()

	user := newTestUser("erin@example.com", "old-password", true)
	userRepo.add(user)

	t.Run("wrong current password is a validation failure", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, "not-the-password", "new-password")
		require.Error(t, err)
		var vErr *common.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.Fields, "current_password")
	})

	t.Run("short new password is rejected", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, "old-password", "tiny")
		var vErr *common.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.Fields, "new_password")
	})

	t.Run("successful change", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, "old-password", "new-password")
		require.NoError(t, err)

		_, err = svc.Login(ctx, LoginRequest{Email: "erin@example.com", Password: "old-password"})
		assert.True(t, errors.Is(err, common.ErrUnauthorized))
		_, err = svc.Login(ctx, LoginRequest{Email: "erin@example.com", Password: "new-password"})
		assert.NoError(t, err)
	})
}
