package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"geodir/internal/common"
	"geodir/internal/common/security"
	"geodir/internal/domain/model"
	"geodir/internal/domain/repository"
	"geodir/internal/platform/config"

	"github.com/google/uuid"
)

type AuthService struct {
	userRepo repository.UserRepository
}

func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// NormalizeEmail lower-cases and trims an address; every lookup and every
// stored email goes through this so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Email = NormalizeEmail(req.Email)

	vErr := common.NewValidationError()
	if req.Email == "" {
		vErr.Add("email", "email is required")
	} else if !validEmail(req.Email) {
		vErr.Add("email", "email is not a valid address")
	}
	if len(req.Password) < config.AppConfig.MinPasswordLength {
		vErr.Add("password", fmt.Sprintf("password must be at least %d characters", config.AppConfig.MinPasswordLength))
	}
	if strings.TrimSpace(req.Name) == "" {
		vErr.Add("name", "name is required")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Email:          req.Email,
		Name:           strings.TrimSpace(req.Name),
		HashedPassword: hashedPassword,
		Role:           model.RoleUser, // Default role
		IsActive:       true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Repo returns common.ErrConflict for a duplicate email.
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := security.GenerateToken(user.ID)
	if err != nil {
		// The user row is already persisted; a retry via login still works.
		log.Printf("ERROR: token issuance failed for newly registered user %s: %v", user.ID, err)
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = "" // Clear password before returning
	return &AuthResponse{User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = NormalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Indistinguishable from a wrong password, prevents enumeration.
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.IsActive {
		return nil, common.ErrUnauthorized
	}
	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.ErrUnauthorized
	}

	token, err := security.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token}, nil
}

// VerifySession resolves a verified token subject to an active user. A stale
// subject (deleted or deactivated user) is rejected the same way as a bad
// token.
func (s *AuthService) VerifySession(ctx context.Context, claims map[string]interface{}) (Actor, error) {
	userID, err := security.GetUserIDFromClaims(claims)
	if err != nil {
		return Actor{}, common.ErrUnauthorized
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return Actor{}, common.ErrUnauthorized
		}
		return Actor{}, fmt.Errorf("failed to resolve session subject: %w", err)
	}
	if !user.IsActive {
		return Actor{}, common.ErrUnauthorized
	}
	return Actor{ID: user.ID, Role: user.Role}, nil
}

// ChangePassword re-verifies the current password against the stored hash
// before accepting the new one, independent of session validity.
func (s *AuthService) ChangePassword(ctx context.Context, actorID, currentPassword, newPassword string) error {
	vErr := common.NewValidationError()
	if currentPassword == "" {
		vErr.Add("current_password", "current password is required")
	}
	if len(newPassword) < config.AppConfig.MinPasswordLength {
		vErr.Add("new_password", fmt.Sprintf("password must be at least %d characters", config.AppConfig.MinPasswordLength))
	}
	if vErr.HasErrors() {
		return vErr
	}

	user, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(currentPassword, user.HashedPassword) {
		vErr.Add("current_password", "current password does not match")
		return vErr
	}

	hashedPassword, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, hashedPassword)
}
