package datastructure_test

import (
	"testing"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"

	"github.com/stretchr/testify/assert"
)

func TestHaversine(t *testing.T) {
	cases := []struct {
		latOne, longOne, latTwo, longTwo float64
		expectedDist                     float64
	}{
		{
			latOne:       -7.557155997491524,
			longOne:      110.77170252731288,
			latTwo:       -7.550209300671982,
			longTwo:      110.78942094938256,
			expectedDist: 2100,
		},
		{
			latOne:       -7.546196863318374,
			longOne:      110.7775170972345,
			latTwo:       -7.550209300671982,
			longTwo:      110.78942094938256,
			expectedDist: 1380,
		},
		{
			latOne:       -7.759889166547908,
			longOne:      110.36689459108496,
			latTwo:       -7.760335932763678,
			longTwo:      110.37671195413539,
			expectedDist: 1080,
		},
		{
			latOne:       -7.700002453207869,
			longOne:      110.37712514761436,
			latTwo:       -7.760335932763678,
			longTwo:      110.37671195413539,
			expectedDist: 6700,
		},
	}

	t.Run("success haversine distance", func(t *testing.T) {
		for _, c := range cases {
			a := datastructure.NewCoordinate(c.latOne, c.longOne)
			b := datastructure.NewCoordinate(c.latTwo, c.longTwo)
			assert.InDelta(t, c.expectedDist, a.Distance(b), 100)
			assert.InDelta(t, a.Distance(b), b.Distance(a), 1e-9)
		}
	})
}

func TestCoordinateCompare(t *testing.T) {
	a := datastructure.NewCoordinate(6.9214, 122.0790)
	b := datastructure.NewCoordinate(6.9214, 122.0791)
	c := datastructure.NewCoordinate(6.9215, 122.0700)

	assert.Equal(t, -1, datastructure.Compare(a, b))
	assert.Equal(t, 1, datastructure.Compare(b, a))
	assert.Equal(t, -1, datastructure.Compare(b, c))
	assert.Equal(t, 0, datastructure.Compare(a, datastructure.NewCoordinate(6.9214+1e-12, 122.0790)))
	assert.True(t, a.Equal(a))
}

func TestPolylineRoundTrip(t *testing.T) {
	path := []datastructure.Coordinate{
		{Lat: 6.92140, Lon: 122.07900},
		{Lat: 6.91570, Lon: 122.08200},
		{Lat: 6.91000, Lon: 122.08500},
	}
	decoded, err := datastructure.DecodePolyline(datastructure.CreatePolyline(path))
	assert.Nil(t, err)
	assert.Len(t, decoded, 3)
	for i := range path {
		assert.InDelta(t, path[i].Lat, decoded[i].Lat, 1e-5)
		assert.InDelta(t, path[i].Lon, decoded[i].Lon, 1e-5)
	}
}

func TestParseTravelMode(t *testing.T) {
	m, err := datastructure.ParseTravelMode("Foot")
	assert.Nil(t, err)
	assert.Equal(t, datastructure.Walking, m)

	_, err = datastructure.ParseTravelMode("hovercraft")
	assert.Error(t, err)

	assert.False(t, datastructure.Motorway.DefaultModes().Allows(datastructure.Walking))
	assert.False(t, datastructure.Footway.DefaultModes().Allows(datastructure.Car))
	assert.True(t, datastructure.Residential.DefaultModes().Allows(datastructure.Walking))
}

func TestSourceID(t *testing.T) {
	cases := []struct {
		id     string
		source string
	}{
		{datastructure.PartID("w9", 0), "w9"},
		{datastructure.PartID("r-2", 12), "r-2"},
		{"4012345", "4012345"},
		{"a#b", "a#b"},
		{"#3", "#3"},
		{"x#", "x#"},
	}
	for _, tc := range cases {
		seg := datastructure.RoadSegment{ID: tc.id}
		assert.Equal(t, tc.source, seg.SourceID(), tc.id)
	}
}
