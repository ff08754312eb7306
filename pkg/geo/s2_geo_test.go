package geo

import (
	"testing"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"

	"github.com/stretchr/testify/assert"
)

func TestPointLinePerpendicularDistance(t *testing.T) {
	a := datastructure.NewCoordinate(6.9100, 122.0800)
	b := datastructure.NewCoordinate(6.9200, 122.0800)
	// ~110 m east of the meridian segment
	p := datastructure.NewCoordinate(6.9150, 122.0810)

	dist := PointLinePerpendicularDistance(a, b, p)
	assert.InDelta(t, 110.4, dist, 1.0)

	// beyond the segment end the distance is to the endpoint
	q := datastructure.NewCoordinate(6.9300, 122.0800)
	assert.InDelta(t, b.Distance(q), PointLinePerpendicularDistance(a, b, q), 0.5)
}

func TestGetDestinationPoint(t *testing.T) {
	lat, lon := GetDestinationPoint(6.9214, 122.0790, 90, 1.0)
	dest := datastructure.NewCoordinate(lat, lon)
	assert.InDelta(t, 1000, datastructure.NewCoordinate(6.9214, 122.0790).Distance(dest), 1)
	assert.InDelta(t, 1.0, CalculateHaversineDistance(6.9214, 122.0790, lat, lon), 0.001)
}

func TestBoundingBoxAround(t *testing.T) {
	c := datastructure.NewCoordinate(6.9214, 122.0790)
	bb := BoundingBoxAround(c, 100)
	assert.True(t, bb.Contains(c))
	lat, lon := GetDestinationPoint(c.Lat, c.Lon, 0, 0.09)
	assert.True(t, bb.Contains(datastructure.NewCoordinate(lat, lon)))
	lat, lon = GetDestinationPoint(c.Lat, c.Lon, 0, 0.2)
	assert.False(t, bb.Contains(datastructure.NewCoordinate(lat, lon)))
}
