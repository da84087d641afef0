package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mahatati/mahatati/internal/api/middleware"
	"github.com/mahatati/mahatati/internal/api/models"
	"github.com/mahatati/mahatati/internal/api/response"
	"github.com/mahatati/mahatati/internal/auth"
	"github.com/mahatati/mahatati/internal/station"
)

// OwnerStationHandler handles a station owner's own stations.
type OwnerStationHandler struct {
	stations *station.Service
}

// NewOwnerStationHandler creates a new OwnerStationHandler.
func NewOwnerStationHandler(stations *station.Service) *OwnerStationHandler {
	return &OwnerStationHandler{stations: stations}
}

// List handles GET /v1/me/stations.
func (h *OwnerStationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	result, err := h.stations.ListOwned(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}

// Create handles POST /v1/me/stations.
func (h *OwnerStationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	var input models.StationCreateRequest
	if !response.DecodeJSON(w, r, &input) {
		return
	}

	st, err := h.stations.Create(r.Context(), userID, &input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Created(w, r, "/v1/stations/"+st.ID, st)
}

// Update handles PUT /v1/me/stations/{stationId}.
func (h *OwnerStationHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	var input models.StationUpdateRequest
	if !response.DecodeJSON(w, r, &input) {
		return
	}

	st, err := h.stations.Update(r.Context(), userID, chi.URLParam(r, "stationId"), &input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, st)
}

// ToggleActive handles POST /v1/me/stations/{stationId}/toggle-active.
func (h *OwnerStationHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	st, err := h.stations.ToggleActive(r.Context(), userID, chi.URLParam(r, "stationId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, st)
}

// Delete handles DELETE /v1/me/stations/{stationId}.
func (h *OwnerStationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	// Administrators delete through /v1/admin; here only ownership counts.
	owner := *principal
	owner.Role = auth.RoleOwner
	if err := h.stations.Delete(r.Context(), &owner, chi.URLParam(r, "stationId")); err != nil {
		writeError(w, r, err)
		return
	}

	response.NoContent(w, r)
}
