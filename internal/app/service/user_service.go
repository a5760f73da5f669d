package service

import (
	"context"
	"fmt"
	"strings"

	"geodir/internal/common"
	"geodir/internal/common/security"
	"geodir/internal/domain/model"
	"geodir/internal/domain/repository"
	"geodir/internal/platform/config"

	"github.com/google/uuid"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// validateID rejects identifiers that are not structurally valid references
// before any store round trip.
func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		vErr := common.NewValidationError()
		vErr.Add("id", "identifier is not a valid uuid")
		return vErr
	}
	return nil
}

type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type AdminUpdateUserRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (s *UserService) GetProfile(ctx context.Context, actorID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	user.HashedPassword = ""
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, actorID string, req UpdateProfileRequest) (*model.User, error) {
	vErr := common.NewValidationError()
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		vErr.Add("name", "name must not be empty")
	}
	if req.Email != nil {
		normalized := NormalizeEmail(*req.Email)
		if !validEmail(normalized) {
			vErr.Add("email", "email is not a valid address")
		}
		req.Email = &normalized
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	patch := repository.UserPatch{Name: req.Name, Email: req.Email}
	user, err := s.userRepo.Update(ctx, actorID, patch)
	if err != nil {
		return nil, err
	}
	user.HashedPassword = ""
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].HashedPassword = ""
	}
	return users, nil
}

func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*model.User, error) {
	req.Email = NormalizeEmail(req.Email)
	if req.Role == "" {
		req.Role = model.RoleUser
	}

	vErr := common.NewValidationError()
	if req.Email == "" || !validEmail(req.Email) {
		vErr.Add("email", "email is not a valid address")
	}
	if len(req.Password) < config.AppConfig.MinPasswordLength {
		vErr.Add("password", fmt.Sprintf("password must be at least %d characters", config.AppConfig.MinPasswordLength))
	}
	if strings.TrimSpace(req.Name) == "" {
		vErr.Add("name", "name is required")
	}
	if req.Role != model.RoleUser && req.Role != model.RoleAdmin {
		vErr.Add("role", "role must be user or admin")
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
		Role:           req.Role,
		IsActive:       true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.HashedPassword = ""
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id string, req AdminUpdateUserRequest) (*model.User, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	vErr := common.NewValidationError()
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		vErr.Add("name", "name must not be empty")
	}
	if req.Email != nil {
		normalized := NormalizeEmail(*req.Email)
		if !validEmail(normalized) {
			vErr.Add("email", "email is not a valid address")
		}
		req.Email = &normalized
	}
	if req.Role != nil && *req.Role != model.RoleUser && *req.Role != model.RoleAdmin {
		vErr.Add("role", "role must be user or admin")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	patch := repository.UserPatch{Name: req.Name, Email: req.Email, Role: req.Role, IsActive: req.IsActive}
	user, err := s.userRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	user.HashedPassword = ""
	return user, nil
}

// DeleteUser removes the record permanently. Users are hard-deleted, unlike
// locations which are only ever soft-deleted.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, id)
}
