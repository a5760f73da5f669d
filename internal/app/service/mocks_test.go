package service

import (
	"context"
	"strings"
	"time"

	"geodir/internal/common"
	"geodir/internal/common/security"
	"geodir/internal/domain/model"
	"geodir/internal/domain/repository"
	"geodir/internal/platform/config"
)

func initTestConfig() {
	config.AppConfig = &config.Config{
		JWTKey:                []byte("test-secret-key"),
		JWTExp:                time.Hour,
		MinPasswordLength:     6,
		SearchCacheTTLSeconds: 60,
	}
	security.InitJWT()
}

// mockUserRepository is an in-memory UserRepository.
type mockUserRepository struct {
	users       map[string]*model.User
	emailIndex  map[string]*model.User
	createError error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:      make(map[string]*model.User),
		emailIndex: make(map[string]*model.User),
	}
}

func (r *mockUserRepository) add(user *model.User) {
	copied := *user
	r.users[copied.ID] = &copied
	r.emailIndex[copied.Email] = &copied
}

func (r *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	if r.createError != nil {
		return r.createError
	}
	if _, exists := r.emailIndex[user.Email]; exists {
		return common.ErrConflict
	}
	r.add(user)
	return nil
}

func (r *mockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, ok := r.emailIndex[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *mockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *mockUserRepository) List(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	for _, u := range r.users {
		users = append(users, *u)
	}
	return users, nil
}

func (r *mockUserRepository) Update(ctx context.Context, id string, patch repository.UserPatch) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if patch.Email != nil && *patch.Email != user.Email {
		if _, exists := r.emailIndex[*patch.Email]; exists {
			return nil, common.ErrConflict
		}
		delete(r.emailIndex, user.Email)
		user.Email = *patch.Email
		r.emailIndex[user.Email] = user
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}
	user.UpdatedAt = time.Now()
	copied := *user
	return &copied, nil
}

func (r *mockUserRepository) UpdatePassword(ctx context.Context, id string, hashedPassword string) error {
	user, ok := r.users[id]
	if !ok {
		return common.ErrNotFound
	}
	user.HashedPassword = hashedPassword
	return nil
}

func (r *mockUserRepository) Delete(ctx context.Context, id string) error {
	user, ok := r.users[id]
	if !ok {
		return common.ErrNotFound
	}
	delete(r.emailIndex, user.Email)
	delete(r.users, id)
	return nil
}

// mockLocationRepository is an in-memory LocationRepository. Its Update
// applies the same merge semantics as the COALESCE statement in the pg
// implementation.
type mockLocationRepository struct {
	locations  map[string]*model.Location
	lastFilter *repository.LocationFilter
	lastLimit  int
}

func newMockLocationRepository() *mockLocationRepository {
	return &mockLocationRepository{locations: make(map[string]*model.Location)}
}

func (r *mockLocationRepository) Create(ctx context.Context, l *model.Location) error {
	copied := *l
	copied.CreatedAt = time.Now()
	copied.UpdatedAt = copied.CreatedAt
	r.locations[copied.ID] = &copied
	return nil
}

func (r *mockLocationRepository) FindByID(ctx context.Context, id string) (*model.Location, error) {
	l, ok := r.locations[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *l
	return &copied, nil
}

func (r *mockLocationRepository) List(ctx context.Context, filter repository.LocationFilter) ([]model.Location, error) {
	r.lastFilter = &filter
	locations := []model.Location{}
	for _, l := range r.locations {
		if !l.IsActive {
			continue
		}
		if filter.Category != "" && l.Category != filter.Category {
			continue
		}
		locations = append(locations, *l)
	}
	return locations, nil
}

func (r *mockLocationRepository) SearchSubstring(ctx context.Context, term string, limit int) ([]model.Location, error) {
	r.lastLimit = limit
	lower := strings.ToLower(term)
	locations := []model.Location{}
	for _, l := range r.locations {
		if !l.IsActive {
			continue
		}
		if strings.Contains(strings.ToLower(l.Name), lower) ||
			strings.Contains(strings.ToLower(l.Category), lower) ||
			strings.Contains(strings.ToLower(l.Address.City), lower) {
			locations = append(locations, *l)
		}
		if len(locations) == limit {
			break
		}
	}
	return locations, nil
}

func (r *mockLocationRepository) Update(ctx context.Context, id string, patch repository.LocationPatch) (*model.Location, error) {
	l, ok := r.locations[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if patch.Name != nil {
		l.Name = *patch.Name
	}
	if patch.Slug != nil {
		l.Slug = *patch.Slug
	}
	if patch.Description != nil {
		l.Description = *patch.Description
	}
	if patch.Category != nil {
		l.Category = *patch.Category
	}
	if patch.Longitude != nil {
		l.Longitude = *patch.Longitude
	}
	if patch.Latitude != nil {
		l.Latitude = *patch.Latitude
	}
	if patch.Street != nil {
		l.Address.Street = *patch.Street
	}
	if patch.City != nil {
		l.Address.City = *patch.City
	}
	if patch.State != nil {
		l.Address.State = *patch.State
	}
	if patch.Country != nil {
		l.Address.Country = *patch.Country
	}
	if patch.PostalCode != nil {
		l.Address.PostalCode = *patch.PostalCode
	}
	if patch.Phone != nil {
		l.Contact.Phone = *patch.Phone
	}
	if patch.ContactEmail != nil {
		l.Contact.Email = *patch.ContactEmail
	}
	if patch.Website != nil {
		l.Contact.Website = *patch.Website
	}
	if patch.IsActive != nil {
		l.IsActive = *patch.IsActive
	}
	l.UpdatedAt = time.Now()
	copied := *l
	return &copied, nil
}
