package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mahatati/mahatati/internal/api/response"
	"github.com/mahatati/mahatati/internal/station"
)

// StationHandler serves the public directory.
type StationHandler struct {
	stations *station.Service
}

// NewStationHandler creates a new StationHandler.
func NewStationHandler(stations *station.Service) *StationHandler {
	return &StationHandler{stations: stations}
}

// Search handles GET /v1/stations?q=&status=&fuel=.
func (h *StationHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := station.QueryParams{
		SearchTerm: q.Get("q"),
		Status:     station.ParseStatusFilter(q.Get("status")),
		Fuel:       station.ParseFuelFilter(q.Get("fuel")),
	}

	result, err := h.stations.Search(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}

// Get handles GET /v1/stations/{stationId}.
func (h *StationHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.stations.Get(r.Context(), chi.URLParam(r, "stationId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, st)
}
