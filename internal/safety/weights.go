package safety

// Weights is the time-of-day weight vector applied to the six per-edge
// component scores. Every vector sums to 1.0.
type Weights struct {
	RoadType   float64
	Lighting   float64
	Crime      float64
	CCTV       float64
	OpenPlaces float64
	Traffic    float64
}

// Sum returns the total of all components, used to verify the 1.0 invariant.
func (w Weights) Sum() float64 {
	return w.RoadType + w.Lighting + w.Crime + w.CCTV + w.OpenPlaces + w.Traffic
}

// Hour-bucket weight vectors. The product is built for night walks, so the
// night buckets lean hard on lighting and crime; the daytime fallback is
// rarely exercised but must exist.
var (
	lateNightWeights = Weights{
		RoadType:   0.10,
		Lighting:   0.30,
		Crime:      0.30,
		CCTV:       0.10,
		OpenPlaces: 0.08,
		Traffic:    0.12,
	}

	eveningWeights = Weights{
		RoadType:   0.15,
		Lighting:   0.25,
		Crime:      0.25,
		CCTV:       0.10,
		OpenPlaces: 0.10,
		Traffic:    0.15,
	}

	daytimeWeights = Weights{
		RoadType:   0.25,
		Lighting:   0.05,
		Crime:      0.25,
		CCTV:       0.10,
		OpenPlaces: 0.15,
		Traffic:    0.20,
	}
)

// WeightsForHour returns the weight vector for an hour of day (0-23):
// late night (00:00-05:00), evening (18:00-24:00), daytime otherwise.
func WeightsForHour(hour int) Weights {
	switch {
	case hour < 5:
		return lateNightWeights
	case hour >= 18:
		return eveningWeights
	default:
		return daytimeWeights
	}
}

// nightDiscountForHour scales the open-places score: a cafe that is closed
// offers no eyes on the street. After 22:00 (and through the small hours)
// most places are shut; early evening some are.
func nightDiscountForHour(hour int) float64 {
	switch {
	case hour >= 22 || hour < 6:
		return 0.4
	case hour >= 18:
		return 0.7
	default:
		return 1.0
	}
}
