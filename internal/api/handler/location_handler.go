package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"geodir/internal/api/middleware"
	"geodir/internal/app/service"
	"geodir/internal/common"
	"geodir/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type LocationHandler struct {
	locationService *service.LocationService
	authService     *service.AuthService
}

func NewLocationHandler(ls *service.LocationService, as *service.AuthService) *LocationHandler {
	return &LocationHandler{locationService: ls, authService: as}
}

func (h *LocationHandler) RegisterRoutes(r chi.Router) {
	// Reads are public.
	r.Get("/", h.listLocations)
	r.Get("/search", h.searchLocations)
	r.Get("/{locationID}", h.getLocation)

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator(h.authService))
		authed.Post("/", h.createLocation)
		authed.Put("/{locationID}", h.updateLocation)
		authed.Delete("/{locationID}", h.deleteLocation)
	})
}

func (h *LocationHandler) createLocation(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	location, err := h.locationService.Create(r.Context(), actor, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, location)
}

func (h *LocationHandler) getLocation(w http.ResponseWriter, r *http.Request) {
	location, err := h.locationService.Get(r.Context(), chi.URLParam(r, "locationID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, location)
}

func (h *LocationHandler) listLocations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := service.ListLocationsQuery{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}

	if v := q.Get("lat"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			query.Latitude = &lat
		}
	}
	if v := q.Get("lng"); v != "" {
		if lng, err := strconv.ParseFloat(v, 64); err == nil {
			query.Longitude = &lng
		}
	}
	if v := q.Get("radius"); v != "" {
		if radius, err := strconv.ParseFloat(v, 64); err == nil {
			query.RadiusKm = &radius
		}
	}

	locations, err := h.locationService.List(r.Context(), query)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	type LocationListResponse struct {
		Count     int              `json:"count"`
		Locations []model.Location `json:"locations"`
	}
	common.RespondWithJSON(w, http.StatusOK, LocationListResponse{Count: len(locations), Locations: locations})
}

func (h *LocationHandler) searchLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.locationService.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	type SearchResponse struct {
		Count     int              `json:"count"`
		Locations []model.Location `json:"locations"`
	}
	common.RespondWithJSON(w, http.StatusOK, SearchResponse{Count: len(locations), Locations: locations})
}

func (h *LocationHandler) updateLocation(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.UpdateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	location, err := h.locationService.Update(r.Context(), actor, chi.URLParam(r, "locationID"), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, location)
}

func (h *LocationHandler) deleteLocation(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	if err := h.locationService.SoftDelete(r.Context(), actor, chi.URLParam(r, "locationID")); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "location deleted"})
}
