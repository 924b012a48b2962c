// Package geo provides spatial checks between a requested site and the building
// the Solar API matched to it.
package geo

import (
	"math"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/solar-crm/pkg/solar"
)

// earthRadiusMeters is the IUGG mean Earth radius.
const earthRadiusMeters = 6371008.8

// DistanceMeters is the great-circle distance between two coordinates.
func DistanceMeters(a, b solar.LatLng) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

func bounds(box *solar.LatLngBox) *geom.Bounds {
	return geom.NewBounds(geom.XY).Set(
		box.SW.Longitude, box.SW.Latitude,
		box.NE.Longitude, box.NE.Latitude,
	)
}

// InBoundingBox reports whether p lies inside box, edges included. A nil box
// contains nothing.
func InBoundingBox(box *solar.LatLngBox, p solar.LatLng) bool {
	if box == nil {
		return false
	}
	return bounds(box).OverlapsPoint(geom.XY, geom.Coord{p.Longitude, p.Latitude})
}

// EdgeDistanceMeters is the distance from p to the nearest point of box. It is
// zero inside the box and +Inf for a nil box.
func EdgeDistanceMeters(box *solar.LatLngBox, p solar.LatLng) float64 {
	if box == nil {
		return math.Inf(1)
	}
	b := bounds(box)
	nearest := solar.LatLng{
		Latitude:  clamp(p.Latitude, b.Min(1), b.Max(1)),
		Longitude: clamp(p.Longitude, b.Min(0), b.Max(0)),
	}
	return DistanceMeters(p, nearest)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Match is the spatial relation between a site and its matched building.
type Match struct {
	Class         string  `json:"class"`
	CenterMeters  float64 `json:"centerMeters"`
	EdgeMeters    float64 `json:"edgeMeters"`
	InBoundingBox bool    `json:"inBoundingBox"`
}

// MatchBuilding measures site against the building's center and bounding box.
func MatchBuilding(site solar.LatLng, bi *solar.BuildingInsight) Match {
	m := Match{
		CenterMeters:  DistanceMeters(site, bi.Center),
		EdgeMeters:    EdgeDistanceMeters(bi.BoundingBox, site),
		InBoundingBox: InBoundingBox(bi.BoundingBox, site),
	}
	m.Class = Classify(m.InBoundingBox, m.CenterMeters, m.EdgeMeters)
	return m
}
