package overpass_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightwalk/nightwalk/internal/geo"
	"github.com/nightwalk/nightwalk/internal/geodata"
	"github.com/nightwalk/nightwalk/internal/geodata/overpass"
)

const sampleResponse = `{
  "elements": [
    {"type": "way", "id": 100, "nodes": [1, 2], "tags": {"highway": "residential", "lit": "yes", "name": "Villiers Street"}},
    {"type": "way", "id": 101, "nodes": [2, 3], "tags": {"building": "yes"}},
    {"type": "node", "id": 1, "lat": 51.5072, "lon": -0.1276},
    {"type": "node", "id": 2, "lat": 51.5080, "lon": -0.1281},
    {"type": "node", "id": 3, "lat": 51.5085, "lon": -0.1290},
    {"type": "node", "id": 4, "lat": 51.5074, "lon": -0.1278, "tags": {"highway": "street_lamp"}},
    {"type": "node", "id": 5, "lat": 51.5075, "lon": -0.1279, "tags": {"man_made": "surveillance"}},
    {"type": "node", "id": 6, "lat": 51.5076, "lon": -0.1280, "tags": {"amenity": "cafe", "opening_hours": "Mo-Su 08:00-23:00"}},
    {"type": "node", "id": 7, "lat": 51.5077, "lon": -0.1281, "tags": {"highway": "bus_stop"}}
  ]
}`

func testBox() geo.BoundingBox {
	return geo.BoundingBox{South: 51.50, North: 51.52, West: -0.14, East: -0.12}
}

func TestClient_FetchElements(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		query := r.Form.Get("data")
		assert.Contains(t, query, `way["highway"]`)
		assert.Contains(t, query, `node["highway"="street_lamp"]`)
		assert.Contains(t, query, `node["man_made"="surveillance"]`)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, sampleResponse)
	}))
	defer server.Close()

	client := overpass.NewClient(overpass.ClientConfig{
		Mirrors: []string{server.URL},
		Logger:  zerolog.New(io.Discard),
	})

	elements, err := client.FetchElements(context.Background(), testBox())
	require.NoError(t, err)

	require.Len(t, elements.Roads, 1, "non-highway ways must be dropped")
	assert.Equal(t, "residential", elements.Roads[0].Highway())
	assert.True(t, elements.Roads[0].Lit())
	assert.Equal(t, "Villiers Street", elements.Roads[0].Name())

	assert.Len(t, elements.Lamps, 1)
	assert.Len(t, elements.Cameras, 1)
	assert.Len(t, elements.Places, 1)
	assert.Len(t, elements.TransitStops, 1)
	assert.Len(t, elements.Nodes, 7)
}

func TestClient_RotatesMirrorsOnTransientFailure(t *testing.T) {
	var badCalls, goodCalls atomic.Int32

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		badCalls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		goodCalls.Add(1)
		_, _ = io.WriteString(w, sampleResponse)
	}))
	defer good.Close()

	client := overpass.NewClient(overpass.ClientConfig{
		Mirrors: []string{bad.URL, good.URL},
		Logger:  zerolog.New(io.Discard),
	})

	elements, err := client.FetchElements(context.Background(), testBox())
	require.NoError(t, err)
	assert.Len(t, elements.Roads, 1)
	assert.Equal(t, int32(1), badCalls.Load())
	assert.Equal(t, int32(1), goodCalls.Load())
}

func TestClient_AllMirrorsDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := overpass.NewClient(overpass.ClientConfig{
		Mirrors:     []string{server.URL},
		MaxAttempts: 2,
		Logger:      zerolog.New(io.Discard),
	})

	_, err := client.FetchElements(context.Background(), testBox())
	require.ErrorIs(t, err, geodata.ErrUpstreamUnavailable)
}

func TestClient_PermanentClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := overpass.NewClient(overpass.ClientConfig{
		Mirrors: []string{server.URL},
		Logger:  zerolog.New(io.Discard),
	})

	_, err := client.FetchElements(context.Background(), testBox())
	require.ErrorIs(t, err, geodata.ErrBadResponse)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_AbortTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(5 * time.Second):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := overpass.NewClient(overpass.ClientConfig{
		Mirrors:      []string{server.URL},
		AbortTimeout: 50 * time.Millisecond,
		Logger:       zerolog.New(io.Discard),
	})

	_, err := client.FetchElements(context.Background(), testBox())
	require.ErrorIs(t, err, geodata.ErrFetchTimeout)
}
