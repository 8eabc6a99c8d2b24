// Package models provides request and response models for the safe-routes API.
package models

// Error codes returned to clients.
const (
	ErrorCodeOutOfRange  = "DESTINATION_OUT_OF_RANGE"
	ErrorCodeInternal    = "INTERNAL_ERROR"
	ErrorCodeRateLimited = "RATE_LIMITED"
)

// ErrorResponse is the envelope for validation and internal failures.
// Message is omitted for plain validation errors, where Error carries the
// human-readable text itself.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// OutOfRangeResponse is returned when the requested endpoints are farther
// apart than the walking-route limit. It carries both the limit and the
// actual straight-line distance so the client can explain the rejection.
type OutOfRangeResponse struct {
	Error            string  `json:"error"`
	Message          string  `json:"message"`
	MaxDistanceKm    float64 `json:"maxDistanceKm"`
	ActualDistanceKm float64 `json:"actualDistanceKm"`
}
