// Package crime provides street-crime incident data for a bounding box,
// annotated with pedestrian-danger severity weights and cached for a day
// (the upstream dataset updates monthly).
package crime

import (
	"context"
	"errors"

	"github.com/nightwalk/nightwalk/internal/geo"
)

// ErrUpstreamUnavailable indicates the crime API could not be reached after
// exhausting retries. Callers degrade to an empty incident list; crime data
// absence must never block routing.
var ErrUpstreamUnavailable = errors.New("crime-data service unavailable")

// Provider defines the interface for crime-data providers.
type Provider interface {
	// FetchIncidents retrieves incidents within the bounding box.
	FetchIncidents(ctx context.Context, bbox geo.BoundingBox) ([]Incident, error)
	// Name returns the provider identifier for logging.
	Name() string
}

// Incident is a single crime record with a derived severity weight.
type Incident struct {
	Coordinate geo.Coordinate
	Category   string
	// Severity is in [0.2, 1.0] and reflects danger to a pedestrian at
	// street level, not legal severity.
	Severity float64
}

// defaultSeverity is applied to categories missing from the table.
const defaultSeverity = 0.4

// categorySeverity maps upstream incident categories to pedestrian-danger
// weights. Violent and weapons-related crime dominates; property and drug
// crime matters less to someone walking past; nuisance barely registers.
var categorySeverity = map[string]float64{
	"violent-crime":         1.0,
	"possession-of-weapons": 0.95,
	"robbery":               0.9,
	"public-order":          0.6,
	"burglary":              0.5,
	"vehicle-crime":         0.4,
	"drugs":                 0.45,
	"criminal-damage-arson": 0.5,
	"theft-from-the-person": 0.6,
	"other-theft":           0.35,
	"bicycle-theft":         0.3,
	"shoplifting":           0.2,
	"anti-social-behaviour": 0.25,
	"other-crime":           0.4,
}

// SeverityFor returns the pedestrian-danger weight for an incident category.
func SeverityFor(category string) float64 {
	if s, ok := categorySeverity[category]; ok {
		return s
	}
	return defaultSeverity
}
