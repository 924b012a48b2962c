package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/solar-crm/pkg/solar"
)

var testBox = &solar.LatLngBox{
	SW: solar.LatLng{Latitude: 37.4448, Longitude: -122.1393},
	NE: solar.LatLng{Latitude: 37.4451, Longitude: -122.1389},
}

func TestDistanceMeters(t *testing.T) {
	austin := solar.LatLng{Latitude: 30.2672, Longitude: -97.7431}
	dallas := solar.LatLng{Latitude: 32.7767, Longitude: -96.7970}

	// Austin to Dallas is roughly 290km.
	assert.InDelta(t, 290_000, DistanceMeters(austin, dallas), 10_000)
	assert.InDelta(t, DistanceMeters(austin, dallas), DistanceMeters(dallas, austin), 1e-6)
	assert.InDelta(t, 0, DistanceMeters(austin, austin), 1e-9)

	// One thousandth of a degree of latitude is about 111m.
	a := solar.LatLng{Latitude: 37.444, Longitude: -122.139}
	b := solar.LatLng{Latitude: 37.445, Longitude: -122.139}
	assert.InDelta(t, 111.2, DistanceMeters(a, b), 0.5)
}

func TestInBoundingBox(t *testing.T) {
	tests := []struct {
		name string
		p    solar.LatLng
		want bool
	}{
		{"center", solar.LatLng{Latitude: 37.4449439, Longitude: -122.1391165}, true},
		{"corner", solar.LatLng{Latitude: 37.4448, Longitude: -122.1393}, true},
		{"north", solar.LatLng{Latitude: 37.4460, Longitude: -122.1391}, false},
		{"east", solar.LatLng{Latitude: 37.4449, Longitude: -122.1380}, false},
		{"swapped axes", solar.LatLng{Latitude: -122.1391, Longitude: 37.4449}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InBoundingBox(testBox, tt.p))
		})
	}

	assert.False(t, InBoundingBox(nil, solar.LatLng{Latitude: 1, Longitude: 1}))
}

func TestEdgeDistanceMeters(t *testing.T) {
	inside := solar.LatLng{Latitude: 37.4449, Longitude: -122.1391}
	assert.InDelta(t, 0, EdgeDistanceMeters(testBox, inside), 1e-9)

	// 0.0004 degrees north of the box edge.
	north := solar.LatLng{Latitude: 37.4455, Longitude: -122.1391}
	assert.InDelta(t, 44.5, EdgeDistanceMeters(testBox, north), 0.5)

	// Diagonal from the north-east corner measures to the corner.
	corner := solar.LatLng{Latitude: 37.4461, Longitude: -122.1379}
	assert.InDelta(t, DistanceMeters(corner, testBox.NE), EdgeDistanceMeters(testBox, corner), 1e-9)

	assert.True(t, math.IsInf(EdgeDistanceMeters(nil, inside), 1))
}

func TestMatchBuilding(t *testing.T) {
	bi := &solar.BuildingInsight{
		Center:      solar.LatLng{Latitude: 37.4449439, Longitude: -122.1391165},
		BoundingBox: testBox,
	}

	m := MatchBuilding(bi.Center, bi)
	assert.Equal(t, ClassRooftop, m.Class)
	assert.True(t, m.InBoundingBox)
	assert.InDelta(t, 0, m.CenterMeters, 1e-9)
	assert.InDelta(t, 0, m.EdgeMeters, 1e-9)

	m = MatchBuilding(solar.LatLng{Latitude: 37.4455, Longitude: -122.1391}, bi)
	assert.Equal(t, ClassAdjacent, m.Class)
	assert.False(t, m.InBoundingBox)

	m = MatchBuilding(solar.LatLng{Latitude: 37.4500, Longitude: -122.1391}, bi)
	assert.Equal(t, ClassDistant, m.Class)
	assert.Greater(t, m.CenterMeters, 500.0)

	noBox := &solar.BuildingInsight{Center: bi.Center}
	m = MatchBuilding(solar.LatLng{Latitude: 37.4450, Longitude: -122.1391}, noBox)
	assert.Equal(t, ClassDistant, m.Class)
	assert.False(t, m.InBoundingBox)
}
