package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"yogastudio/internal/database"

	"github.com/rs/zerolog"
)

const msgInternal = "Internal server error"

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// errorResponse maps a service error to the status and message clients see.
// The second return is false for failures that must not leak their details.
func errorResponse(err error) (int, string, bool) {
	switch {
	case errors.Is(err, database.ErrUserNotFound):
		return http.StatusNotFound, "User not found", true
	case errors.Is(err, database.ErrClassNotFound):
		return http.StatusNotFound, "Class not found", true
	case errors.Is(err, database.ErrBookingNotFound):
		return http.StatusNotFound, "Booking not found", true
	case errors.Is(err, database.ErrSubscriptionTypeNotFound):
		return http.StatusNotFound, "Subscription type not found", true
	case errors.Is(err, database.ErrNoSubscriptionTypes):
		return http.StatusNotFound, "No subscription types found for this class", true
	case errors.Is(err, database.ErrClassFinished):
		// The client app matches on this exact text, typo included.
		return http.StatusBadRequest, "Class elready finished", true
	case errors.Is(err, database.ErrAlreadyBooked):
		return http.StatusBadRequest, "User already booked this class", true
	case errors.Is(err, database.ErrCapacityExceeded):
		return http.StatusBadRequest, "No available spots left", true
	case errors.Is(err, database.ErrCannotCancelPast):
		return http.StatusBadRequest, "Cannot cancel past class", true
	case errors.Is(err, database.ErrValidation):
		return http.StatusBadRequest, err.Error(), true
	default:
		return http.StatusInternalServerError, msgInternal, false
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, message, known := errorResponse(err)
	if !known {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, status, message)
}
