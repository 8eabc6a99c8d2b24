// Package overpass provides a client for Overpass API mirrors.
package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/nightwalk/nightwalk/internal/geo"
	"github.com/nightwalk/nightwalk/internal/geodata"
	"github.com/nightwalk/nightwalk/internal/provider/resilience"
)

// ProviderName identifies this provider.
const ProviderName = "overpass"

// DefaultMirrors is the fixed list of public Overpass mirrors, tried in
// rotation when a mirror answers 429 or 5xx.
var DefaultMirrors = []string{
	"https://overpass-api.de/api/interpreter",
	"https://overpass.kumi.systems/api/interpreter",
	"https://maps.mail.ru/osm/tools/overpass/api/interpreter",
}

// ClientConfig holds configuration for the Overpass client.
type ClientConfig struct {
	// Mirrors is the list of interpreter endpoints (defaults to DefaultMirrors).
	Mirrors []string

	// RequestTimeout is the timeout for a single mirror request (default: 30s).
	RequestTimeout time.Duration

	// AbortTimeout bounds the whole fetch across all retries (default: 105s).
	AbortTimeout time.Duration

	// MaxAttempts is the total number of mirror attempts (default: 2 rounds
	// through the mirror list).
	MaxAttempts int

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches categorized map elements from Overpass mirrors.
type Client struct {
	mirrors      []string
	httpClient   *http.Client
	abortTimeout time.Duration
	maxAttempts  int
	logger       zerolog.Logger
}

// NewClient creates a new Overpass client.
func NewClient(cfg ClientConfig) *Client {
	mirrors := cfg.Mirrors
	if len(mirrors) == 0 {
		mirrors = DefaultMirrors
	}

	requestTimeout := cfg.RequestTimeout
	if requestTimeout == 0 {
		requestTimeout = 30 * time.Second
	}

	abortTimeout := cfg.AbortTimeout
	if abortTimeout == 0 {
		abortTimeout = 105 * time.Second
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 2 * len(mirrors)
	}

	return &Client{
		mirrors:      mirrors,
		httpClient:   &http.Client{Timeout: requestTimeout},
		abortTimeout: abortTimeout,
		maxAttempts:  maxAttempts,
		logger:       cfg.Logger,
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return ProviderName
}

// FetchElements runs one combined query for all element categories the
// safety model needs, so a route request costs a single upstream round trip.
// Transient mirror failures rotate to the next mirror with backoff; the
// whole operation is bounded by the abort timeout.
func (c *Client) FetchElements(ctx context.Context, bbox geo.BoundingBox) (*geodata.Elements, error) {
	ctx, cancel := context.WithTimeout(ctx, c.abortTimeout)
	defer cancel()

	query := buildQuery(bbox)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.maxAttempts-1)), ctx)

	var elements *geodata.Elements
	attempt := 0

	operation := func() error {
		mirror := c.mirrors[attempt%len(c.mirrors)]
		attempt++

		result, err := c.query(ctx, mirror, query)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return backoff.Permanent(geodata.ErrFetchTimeout)
			}
			var permanent *permanentStatusError
			if errors.As(err, &permanent) {
				return backoff.Permanent(fmt.Errorf("%w: mirror %s status %d",
					geodata.ErrBadResponse, mirror, permanent.status))
			}

			c.logger.Warn().
				Err(err).
				Str("mirror", mirror).
				Int("attempt", attempt).
				Msg("overpass mirror failed, rotating")
			return err
		}

		elements = result
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		if errors.Is(err, geodata.ErrFetchTimeout) || errors.Is(err, geodata.ErrBadResponse) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, geodata.ErrFetchTimeout
		}
		return nil, fmt.Errorf("%w: %v", geodata.ErrUpstreamUnavailable, err)
	}

	return elements, nil
}

// permanentStatusError marks a non-retryable upstream status (4xx except 429).
type permanentStatusError struct {
	status int
}

func (e *permanentStatusError) Error() string {
	return "permanent upstream status " + http.StatusText(e.status)
}

// query executes the Overpass QL query against one mirror and parses the result.
func (c *Client) query(ctx context.Context, mirror, query string) (*geodata.Elements, error) {
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, mirror,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resilience.IsTransientStatus(resp.StatusCode) {
			return nil, fmt.Errorf("mirror status %d", resp.StatusCode)
		}
		return nil, &permanentStatusError{status: resp.StatusCode}
	}

	var body overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &permanentStatusError{status: resp.StatusCode}
	}

	return categorize(body.Elements), nil
}

// buildQuery assembles the combined Overpass QL query for all categories.
func buildQuery(bbox geo.BoundingBox) string {
	b := fmt.Sprintf("%f,%f,%f,%f", bbox.South, bbox.West, bbox.North, bbox.East)
	return fmt.Sprintf(`[out:json][timeout:90];
(
  way["highway"](%[1]s);
  node["highway"="street_lamp"](%[1]s);
  node["man_made"="surveillance"](%[1]s);
  node["amenity"](%[1]s);
  node["shop"](%[1]s);
  node["public_transport"="stop_position"](%[1]s);
  node["highway"="bus_stop"](%[1]s);
);
out body;
>;
out skel qt;`, b)
}

// Overpass API response types.

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type  string            `json:"type"`
	ID    int64             `json:"id"`
	Lat   float64           `json:"lat,omitempty"`
	Lon   float64           `json:"lon,omitempty"`
	Nodes []int64           `json:"nodes,omitempty"`
	Tags  map[string]string `json:"tags,omitempty"`
}

// categorize splits the flat element list into the sets the graph builder
// consumes. Every node lands in the index; tagged nodes additionally land in
// their category.
func categorize(raw []overpassElement) *geodata.Elements {
	out := &geodata.Elements{
		Nodes: make(map[int64]geodata.Node),
	}

	for _, el := range raw {
		switch el.Type {
		case "node":
			node := geodata.Node{ID: el.ID, Lat: el.Lat, Lng: el.Lon, Tags: el.Tags}
			out.Nodes[el.ID] = node

			switch {
			case el.Tags["highway"] == "street_lamp":
				out.Lamps = append(out.Lamps, node)
			case el.Tags["man_made"] == "surveillance":
				out.Cameras = append(out.Cameras, node)
			case el.Tags["amenity"] != "" || el.Tags["shop"] != "":
				out.Places = append(out.Places, node)
			case el.Tags["public_transport"] == "stop_position" || el.Tags["highway"] == "bus_stop":
				out.TransitStops = append(out.TransitStops, node)
			}
		case "way":
			if el.Tags["highway"] == "" {
				continue
			}
			out.Roads = append(out.Roads, geodata.Way{
				ID:      el.ID,
				NodeIDs: el.Nodes,
				Tags:    el.Tags,
			})
		}
	}

	return out
}
