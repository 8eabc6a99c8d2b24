package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightwalk/nightwalk/internal/api"
	"github.com/nightwalk/nightwalk/internal/geo"
	"github.com/nightwalk/nightwalk/internal/routes"
)

type stubRouteService struct {
	resp *routes.Response
	err  error

	lastOrigin geo.Coordinate
	lastDest   geo.Coordinate
}

func (s *stubRouteService) GetRoutes(_ context.Context, origin, dest geo.Coordinate) (*routes.Response, error) {
	s.lastOrigin = origin
	s.lastDest = dest
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func newTestRouter(svc *stubRouteService) http.Handler {
	return api.NewRouter(api.RouterConfig{
		Version:      "test",
		BuildTime:    "now",
		Logger:       zerolog.Nop(),
		RouteService: svc,
	})
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_SafeRoutes_Success(t *testing.T) {
	svc := &stubRouteService{resp: &routes.Response{
		Routes: []routes.RouteResult{{
			ID:             "route-1",
			Path:           []routes.Point{{Lat: 51.5072, Lng: -0.1276}, {Lat: 51.5074, Lng: -0.1280}},
			DistanceMeters: 310,
			Safety:         routes.SafetyBreakdown{Score: 82, Label: "very safe", Color: "#2ECC71"},
		}},
	}}
	router := newTestRouter(svc)

	rec := get(t, router, "/safe-routes?origin_lat=51.5072&origin_lng=-0.1276&dest_lat=51.5074&dest_lng=-0.1280")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, 51.5072, svc.lastOrigin.Lat)
	assert.Equal(t, -0.1280, svc.lastDest.Lng)

	var body struct {
		Routes []routes.RouteResult `json:"routes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Routes, 1)
	assert.Equal(t, "route-1", body.Routes[0].ID)
	assert.Equal(t, 82, body.Routes[0].Safety.Score)
}

func TestRouter_SafeRoutes_EmptyRoutesIsOK(t *testing.T) {
	svc := &stubRouteService{resp: &routes.Response{Routes: []routes.RouteResult{}}}
	router := newTestRouter(svc)

	rec := get(t, router, "/safe-routes?origin_lat=51.5072&origin_lng=-0.1276&dest_lat=51.5074&dest_lng=-0.1280")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"routes":[]`)
}

func TestRouter_SafeRoutes_MissingParams(t *testing.T) {
	svc := &stubRouteService{}
	router := newTestRouter(svc)

	rec := get(t, router, "/safe-routes?origin_lat=51.5072")

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "origin_lng")
}

func TestRouter_SafeRoutes_NonNumericParams(t *testing.T) {
	svc := &stubRouteService{}
	router := newTestRouter(svc)

	rec := get(t, router, "/safe-routes?origin_lat=abc&origin_lng=-0.1276&dest_lat=51.5074&dest_lng=-0.1280")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "origin_lat must be a number")
}

func TestRouter_SafeRoutes_InvalidCoordinates(t *testing.T) {
	svc := &stubRouteService{err: routes.ErrInvalidCoordinates}
	router := newTestRouter(svc)

	rec := get(t, router, "/safe-routes?origin_lat=95&origin_lng=-0.1276&dest_lat=51.5074&dest_lng=-0.1280")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "coordinates out of valid range")
}

func TestRouter_SafeRoutes_OutOfRange(t *testing.T) {
	svc := &stubRouteService{err: &routes.OutOfRangeError{MaxDistanceKm: 20, ActualDistanceKm: 25.3}}
	router := newTestRouter(svc)

	rec := get(t, router, "/safe-routes?origin_lat=51.5&origin_lng=-0.1&dest_lat=51.7&dest_lng=-0.1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error            string  `json:"error"`
		Message          string  `json:"message"`
		MaxDistanceKm    float64 `json:"maxDistanceKm"`
		ActualDistanceKm float64 `json:"actualDistanceKm"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "DESTINATION_OUT_OF_RANGE", body.Error)
	assert.Equal(t, 20.0, body.MaxDistanceKm)
	assert.Equal(t, 25.3, body.ActualDistanceKm)
	assert.NotEmpty(t, body.Message)
}

func TestRouter_SafeRoutes_UpstreamFailure(t *testing.T) {
	svc := &stubRouteService{err: errors.New("overpass: all mirrors down")}
	router := newTestRouter(svc)

	rec := get(t, router, "/safe-routes?origin_lat=51.5072&origin_lng=-0.1276&dest_lat=51.5074&dest_lng=-0.1280")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	// Internal detail never leaks to the client.
	assert.NotContains(t, rec.Body.String(), "overpass")
}

func TestRouter_OpsEndpoints(t *testing.T) {
	router := newTestRouter(&stubRouteService{})

	for _, target := range []string{"/v1/ops/health", "/v1/ops/ready"} {
		rec := get(t, router, target)
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Contains(t, rec.Body.String(), `"status":"OK"`, target)
	}
}

func TestRouter_SecurityHeaders(t *testing.T) {
	router := newTestRouter(&stubRouteService{})

	rec := get(t, router, "/v1/ops/health")

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(&stubRouteService{})

	rec := get(t, router, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
