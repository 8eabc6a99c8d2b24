// Package police provides a client for the UK Police street-crime API.
package police

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nightwalk/nightwalk/internal/crime"
	"github.com/nightwalk/nightwalk/internal/geo"
	"github.com/nightwalk/nightwalk/internal/provider/resilience"
)

const (
	// DefaultBaseURL is the base URL for the police data API.
	DefaultBaseURL = "https://data.police.uk/api"

	// ProviderName identifies this provider.
	ProviderName = "police-uk"
)

// ClientConfig holds configuration for the police API client.
type ClientConfig struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (must implement HTTPDoer).
	// If nil, a default resilient client with a circuit breaker is created.
	HTTPClient HTTPDoer

	// Timeout for individual API requests (default: 15s).
	Timeout time.Duration
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a UK Police street-crime API client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a new police API client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            ProviderName,
			Timeout:         timeout,
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		})
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return ProviderName
}

// API response types (from the police data API).

type crimeRecord struct {
	Category string        `json:"category"`
	Location crimeLocation `json:"location"`
}

type crimeLocation struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// FetchIncidents retrieves all street crimes within the bounding box and
// annotates each with its severity weight.
func (c *Client) FetchIncidents(ctx context.Context, bbox geo.BoundingBox) ([]crime.Incident, error) {
	url := fmt.Sprintf("%s/crimes-street/all-crime?poly=%s", c.baseURL, polyParam(bbox))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", crime.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", crime.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var records []crimeRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode crime response: %w", err)
	}

	incidents := make([]crime.Incident, 0, len(records))
	for _, rec := range records {
		lat, latErr := strconv.ParseFloat(rec.Location.Latitude, 64)
		lng, lngErr := strconv.ParseFloat(rec.Location.Longitude, 64)
		if latErr != nil || lngErr != nil {
			continue
		}
		incidents = append(incidents, crime.Incident{
			Coordinate: geo.Coordinate{Lat: lat, Lng: lng},
			Category:   rec.Category,
			Severity:   crime.SeverityFor(rec.Category),
		})
	}

	return incidents, nil
}

// polyParam encodes the bounding box as the API's lat,lng:lat,lng polygon
// parameter, clockwise from the south-west corner.
func polyParam(bbox geo.BoundingBox) string {
	corners := [][2]float64{
		{bbox.South, bbox.West},
		{bbox.North, bbox.West},
		{bbox.North, bbox.East},
		{bbox.South, bbox.East},
	}

	parts := make([]string, len(corners))
	for i, c := range corners {
		parts[i] = fmt.Sprintf("%.5f,%.5f", c[0], c[1])
	}
	return strings.Join(parts, ":")
}
