package polyline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightwalk/nightwalk/pkg/polyline"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	coords := []polyline.Coordinate{
		{Lat: 51.50720, Lng: -0.12760},
		{Lat: 51.50741, Lng: -0.12801},
		{Lat: 51.50933, Lng: -0.13101},
		{Lat: 51.51002, Lng: -0.12995},
	}

	decoded := polyline.Decode(polyline.Encode(coords))

	require.Len(t, decoded, len(coords))
	for i := range coords {
		assert.InDelta(t, coords[i].Lat, decoded[i].Lat, 1e-5)
		assert.InDelta(t, coords[i].Lng, decoded[i].Lng, 1e-5)
	}
}

func TestEncode_GoogleReferenceExample(t *testing.T) {
	// Reference example from the polyline algorithm documentation.
	coords := []polyline.Coordinate{
		{Lat: 38.5, Lng: -120.2},
		{Lat: 40.7, Lng: -120.95},
		{Lat: 43.252, Lng: -126.453},
	}

	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", polyline.Encode(coords))
}

func TestDecode_GoogleReferenceExample(t *testing.T) {
	coords := polyline.Decode("_p~iF~ps|U_ulLnnqC_mqNvxq`@")

	require.Len(t, coords, 3)
	assert.InDelta(t, 38.5, coords[0].Lat, 1e-5)
	assert.InDelta(t, -120.2, coords[0].Lng, 1e-5)
	assert.InDelta(t, 43.252, coords[2].Lat, 1e-5)
	assert.InDelta(t, -126.453, coords[2].Lng, 1e-5)
}

func TestEncodeDecode_NegativeDeltas(t *testing.T) {
	coords := []polyline.Coordinate{
		{Lat: 51.51002, Lng: 0.00010},
		{Lat: 51.50720, Lng: -0.00010},
	}

	decoded := polyline.Decode(polyline.Encode(coords))

	require.Len(t, decoded, 2)
	assert.InDelta(t, coords[1].Lat, decoded[1].Lat, 1e-5)
	assert.InDelta(t, coords[1].Lng, decoded[1].Lng, 1e-5)
}

func TestEncode_Empty(t *testing.T) {
	assert.Equal(t, "", polyline.Encode(nil))
	assert.Nil(t, polyline.Decode(""))
}
