package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/nightwalk/nightwalk/internal/api/response"
	"github.com/nightwalk/nightwalk/internal/geo"
	"github.com/nightwalk/nightwalk/internal/routes"
)

// RouteService computes safe walking routes between two coordinates.
type RouteService interface {
	GetRoutes(ctx context.Context, origin, dest geo.Coordinate) (*routes.Response, error)
}

// RouteHandler handles the safe-routes endpoint.
type RouteHandler struct {
	service RouteService
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(service RouteService) *RouteHandler {
	return &RouteHandler{service: service}
}

// GetSafeRoutes handles GET /safe-routes - compute up to k diverse safe
// walking routes between origin and destination.
func (h *RouteHandler) GetSafeRoutes(w http.ResponseWriter, r *http.Request) {
	origin, err := parseCoordinate(r, "origin_lat", "origin_lng")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	dest, err := parseCoordinate(r, "dest_lat", "dest_lng")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}

	resp, err := h.service.GetRoutes(r.Context(), origin, dest)
	if err != nil {
		var rangeErr *routes.OutOfRangeError
		switch {
		case errors.As(err, &rangeErr):
			response.OutOfRange(w, r, rangeErr.MaxDistanceKm, rangeErr.ActualDistanceKm)
		case errors.Is(err, routes.ErrInvalidCoordinates):
			response.BadRequest(w, r, "coordinates out of valid range")
		default:
			response.InternalError(w, r, "route computation failed")
		}
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=60")
	response.JSON(w, r, http.StatusOK, resp)
}

// parseCoordinate reads a lat/lng query parameter pair. Both parameters must
// be present and numeric; range validation happens in the route service.
func parseCoordinate(r *http.Request, latParam, lngParam string) (geo.Coordinate, error) {
	latRaw := r.URL.Query().Get(latParam)
	lngRaw := r.URL.Query().Get(lngParam)
	if latRaw == "" || lngRaw == "" {
		return geo.Coordinate{}, errors.New(latParam + " and " + lngParam + " are required")
	}

	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return geo.Coordinate{}, errors.New(latParam + " must be a number")
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil {
		return geo.Coordinate{}, errors.New(lngParam + " must be a number")
	}

	return geo.Coordinate{Lat: lat, Lng: lng}, nil
}
