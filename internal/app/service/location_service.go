package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"geodir/internal/common"
	"geodir/internal/domain/model"
	"geodir/internal/domain/repository"
	"geodir/internal/platform/config"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/redis/go-redis/v9"
)

// searchResultCap bounds the type-ahead endpoint; it is a lookup aid, not a
// full listing.
const searchResultCap = 10

type LocationService struct {
	locationRepo repository.LocationRepository
	cache        *redis.Client // nil disables the type-ahead cache
}

func NewLocationService(locationRepo repository.LocationRepository, cache *redis.Client) *LocationService {
	return &LocationService{locationRepo: locationRepo, cache: cache}
}

type CreateLocationRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	Longitude   *float64      `json:"longitude"`
	Latitude    *float64      `json:"latitude"`
	Address     model.Address `json:"address"`
	Contact     model.Contact `json:"contact"`
}

type AddressPatch struct {
	Street     *string `json:"street,omitempty"`
	City       *string `json:"city,omitempty"`
	State      *string `json:"state,omitempty"`
	Country    *string `json:"country,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
}

type ContactPatch struct {
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
	Website *string `json:"website,omitempty"`
}

// UpdateLocationRequest is a merge patch: absent fields are never touched.
type UpdateLocationRequest struct {
	Name        *string       `json:"name,omitempty"`
	Description *string       `json:"description,omitempty"`
	Category    *string       `json:"category,omitempty"`
	Longitude   *float64      `json:"longitude,omitempty"`
	Latitude    *float64      `json:"latitude,omitempty"`
	Address     *AddressPatch `json:"address,omitempty"`
	Contact     *ContactPatch `json:"contact,omitempty"`
}

// ListLocationsQuery filters combine independently; radius is in kilometers
// and converted to meters before it reaches the store.
type ListLocationsQuery struct {
	Category  string
	Search    string
	Latitude  *float64
	Longitude *float64
	RadiusKm  *float64
}

func validateCoordinates(vErr *common.ValidationError, lng, lat float64) {
	if lng < -180 || lng > 180 {
		vErr.Add("longitude", "longitude must be between -180 and 180")
	}
	if lat < -90 || lat > 90 {
		vErr.Add("latitude", "latitude must be between -90 and 90")
	}
}

func (s *LocationService) Create(ctx context.Context, actor Actor, req CreateLocationRequest) (*model.Location, error) {
	vErr := common.NewValidationError()
	if strings.TrimSpace(req.Name) == "" {
		vErr.Add("name", "name is required")
	}
	if strings.TrimSpace(req.Category) == "" {
		vErr.Add("category", "category is required")
	}
	if req.Longitude == nil {
		vErr.Add("longitude", "longitude is required")
	}
	if req.Latitude == nil {
		vErr.Add("latitude", "latitude is required")
	}
	if req.Longitude != nil && req.Latitude != nil {
		validateCoordinates(vErr, *req.Longitude, *req.Latitude)
	}
	if req.Contact.Email != "" && !validEmail(NormalizeEmail(req.Contact.Email)) {
		vErr.Add("contact.email", "contact email is not a valid address")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	location := &model.Location{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Slug:        slug.Make(req.Name),
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		Longitude:   *req.Longitude,
		Latitude:    *req.Latitude,
		Address:     req.Address,
		Contact:     req.Contact,
		CreatedByID: actor.ID,
		IsActive:    true,
	}
	if err := s.locationRepo.Create(ctx, location); err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}
	return location, nil
}

// Get fetches by identifier regardless of soft-delete state; listings apply
// the active filter, single-record fetch does not.
func (s *LocationService) Get(ctx context.Context, id string) (*model.Location, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return s.locationRepo.FindByID(ctx, id)
}

func (s *LocationService) List(ctx context.Context, query ListLocationsQuery) ([]model.Location, error) {
	filter := repository.LocationFilter{
		Category: strings.TrimSpace(query.Category),
		Search:   strings.TrimSpace(query.Search),
	}

	// The proximity filter only applies when the center point and radius are
	// all present, as in the source behavior.
	if query.Latitude != nil && query.Longitude != nil && query.RadiusKm != nil {
		vErr := common.NewValidationError()
		validateCoordinates(vErr, *query.Longitude, *query.Latitude)
		if *query.RadiusKm <= 0 {
			vErr.Add("radius", "radius must be a positive number of kilometers")
		}
		if vErr.HasErrors() {
			return nil, vErr
		}
		filter.Near = &repository.ProximityFilter{
			Longitude:    *query.Longitude,
			Latitude:     *query.Latitude,
			RadiusMeters: *query.RadiusKm * 1000, // km → m, the store works in meters
		}
	}

	return s.locationRepo.List(ctx, filter)
}

// Search is the type-ahead path: substring matching, capped results, no
// relevance ranking. Distinct from List's indexed text search by design.
func (s *LocationService) Search(ctx context.Context, term string) ([]model.Location, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		vErr := common.NewValidationError()
		vErr.Add("q", "search term is required")
		return nil, vErr
	}

	cacheKey := "search:" + strings.ToLower(term)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var locations []model.Location
			if err := json.Unmarshal([]byte(cached), &locations); err == nil {
				return locations, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("WARN: search cache read failed for %q: %v", term, err)
		}
	}

	locations, err := s.locationRepo.SearchSubstring(ctx, term, searchResultCap)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(locations); err == nil {
			ttl := time.Duration(config.AppConfig.SearchCacheTTLSeconds) * time.Second
			if err := s.cache.Set(ctx, cacheKey, payload, ttl).Err(); err != nil {
				log.Printf("WARN: search cache write failed for %q: %v", term, err)
			}
		}
	}
	return locations, nil
}

func (s *LocationService) Update(ctx context.Context, actor Actor, id string, req UpdateLocationRequest) (*model.Location, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	existing, err := s.locationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err // common.ErrNotFound or store failure
	}

	if decision := AuthorizeOwnerOrAdmin(actor, existing.CreatedByID); !decision.Permitted {
		return nil, fmt.Errorf("%s: %w", decision.Reason, common.ErrForbidden)
	}

	vErr := common.NewValidationError()
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		vErr.Add("name", "name must not be empty")
	}
	if req.Category != nil && strings.TrimSpace(*req.Category) == "" {
		vErr.Add("category", "category must not be empty")
	}
	// Coordinates move together: a point cannot be updated one axis at a time.
	if (req.Longitude == nil) != (req.Latitude == nil) {
		vErr.Add("coordinates", "longitude and latitude must be supplied together")
	}
	if req.Longitude != nil && req.Latitude != nil {
		validateCoordinates(vErr, *req.Longitude, *req.Latitude)
	}
	if req.Contact != nil && req.Contact.Email != nil && *req.Contact.Email != "" && !validEmail(NormalizeEmail(*req.Contact.Email)) {
		vErr.Add("contact.email", "contact email is not a valid address")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	patch := repository.LocationPatch{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Longitude:   req.Longitude,
		Latitude:    req.Latitude,
	}
	if req.Name != nil {
		newSlug := slug.Make(*req.Name)
		patch.Slug = &newSlug
	}
	if req.Address != nil {
		patch.Street = req.Address.Street
		patch.City = req.Address.City
		patch.State = req.Address.State
		patch.Country = req.Address.Country
		patch.PostalCode = req.Address.PostalCode
	}
	if req.Contact != nil {
		patch.Phone = req.Contact.Phone
		patch.ContactEmail = req.Contact.Email
		patch.Website = req.Contact.Website
	}

	return s.locationRepo.Update(ctx, id, patch)
}

// SoftDelete marks the record inactive; it never removes the row and deleting
// an already-inactive record succeeds silently.
func (s *LocationService) SoftDelete(ctx context.Context, actor Actor, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	existing, err := s.locationRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if decision := AuthorizeOwnerOrAdmin(actor, existing.CreatedByID); !decision.Permitted {
		return fmt.Errorf("%s: %w", decision.Reason, common.ErrForbidden)
	}

	inactive := false
	if _, err := s.locationRepo.Update(ctx, id, repository.LocationPatch{IsActive: &inactive}); err != nil {
		return err
	}
	return nil
}
