package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mahatati/mahatati/internal/api/middleware"
	"github.com/mahatati/mahatati/internal/api/models"
	"github.com/mahatati/mahatati/internal/api/response"
	"github.com/mahatati/mahatati/internal/station"
)

// AdminHandler handles the administrator dashboard. Routes must sit behind
// Auth and RequireAdmin.
type AdminHandler struct {
	stations *station.Service
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(stations *station.Service) *AdminHandler {
	return &AdminHandler{stations: stations}
}

// ListStations handles GET /v1/admin/stations?q=&verification=.
func (h *AdminHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := station.QueryParams{
		SearchTerm:   q.Get("q"),
		Verification: station.ParseVerificationFilter(q.Get("verification")),
	}

	result, err := h.stations.AdminList(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}

// SetVerification handles PUT /v1/admin/stations/{stationId}/verification.
func (h *AdminHandler) SetVerification(w http.ResponseWriter, r *http.Request) {
	var input models.VerificationDecisionRequest
	if !response.DecodeJSON(w, r, &input) {
		return
	}

	st, err := h.stations.SetVerification(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "stationId"),
		input.Status,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, st)
}

// DeleteStation handles DELETE /v1/admin/stations/{stationId}.
func (h *AdminHandler) DeleteStation(w http.ResponseWriter, r *http.Request) {
	err := h.stations.Delete(r.Context(), middleware.GetPrincipal(r.Context()), chi.URLParam(r, "stationId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.NoContent(w, r)
}
