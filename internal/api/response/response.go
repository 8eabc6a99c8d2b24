// Package response provides utilities for HTTP response handling.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/nightwalk/nightwalk/internal/api/middleware"
	"github.com/nightwalk/nightwalk/internal/api/models"
)

// JSON writes a JSON response with the given status code.
// Includes X-Request-Id header for correlation.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	requestID := middleware.GetRequestID(r.Context())
	if requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// BadRequest writes a 400 response with a plain error string.
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	JSON(w, r, http.StatusBadRequest, models.ErrorResponse{Error: message})
}

// OutOfRange writes a 400 response for an endpoint pair beyond the
// walking-route distance limit.
func OutOfRange(w http.ResponseWriter, r *http.Request, maxKm, actualKm float64) {
	JSON(w, r, http.StatusBadRequest, models.OutOfRangeResponse{
		Error:            models.ErrorCodeOutOfRange,
		Message:          "destination is too far from origin for a walking route",
		MaxDistanceKm:    maxKm,
		ActualDistanceKm: actualKm,
	})
}

// InternalError writes a 500 response. The message must never carry internal
// diagnostic detail.
func InternalError(w http.ResponseWriter, r *http.Request, message string) {
	JSON(w, r, http.StatusInternalServerError, models.ErrorResponse{
		Error:   models.ErrorCodeInternal,
		Message: message,
	})
}

// TooManyRequests writes a 429 response.
func TooManyRequests(w http.ResponseWriter, r *http.Request, message string) {
	JSON(w, r, http.StatusTooManyRequests, models.ErrorResponse{
		Error:   models.ErrorCodeRateLimited,
		Message: message,
	})
}
