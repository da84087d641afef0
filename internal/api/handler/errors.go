// Package handler provides HTTP handlers for the Mahatati API.
package handler

import (
	"errors"
	"net/http"

	"github.com/mahatati/mahatati/internal/api/response"
	"github.com/mahatati/mahatati/internal/profile"
	"github.com/mahatati/mahatati/internal/station"
)

// writeError maps service errors to problem responses. Anything
// unrecognised becomes a 500 without leaking the cause.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var stationErr *station.ValidationError
	var profileErr *profile.ValidationError

	switch {
	case errors.As(err, &stationErr):
		response.BadRequest(w, r, "validation failed", stationErr.Errors)
	case errors.As(err, &profileErr):
		response.BadRequest(w, r, "validation failed", profileErr.Errors)
	case errors.Is(err, station.ErrStationNotFound):
		response.NotFound(w, r, "station not found")
	case errors.Is(err, station.ErrNotAuthorized):
		response.Forbidden(w, r, "you do not have access to this station")
	case errors.Is(err, station.ErrInvalidTransition):
		response.Conflict(w, r, "verification status cannot change that way")
	default:
		response.InternalError(w, r, "internal server error")
	}
}
