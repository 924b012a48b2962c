// Package sizing re-derives solar panel configurations for a caller's panel
// model from a building's roof geometry.
//
// The Solar API sizes its own configurations for a fixed reference panel.
// Here the API is only a geometry and irradiance source: the usable array
// area is divided by the chosen panel's footprint, candidates are taken at
// fixed fractions of that maximum, and each candidate is spread across roof
// segments in proportion to segment area.
package sizing

import (
	"math"
	"slices"

	"github.com/rotisserie/eris"

	"github.com/sells-group/solar-crm/pkg/solar"
)

// DaysPerYear converts between annual sunshine hours and peak sun hours per day.
const DaysPerYear = 365

// CandidateFractions are the shares of the maximum panel count offered as
// configurations, smallest first.
var CandidateFractions = []float64{0.25, 0.5, 0.75, 1.0}

// MaxPanelsLimit caps the panel count a roof may be sized for.
const MaxPanelsLimit = math.MaxInt32

var (
	// ErrDegeneratePanel is returned when a panel's footprint is not a positive area.
	ErrDegeneratePanel = eris.New("panel dimensions must produce a positive area")
	// ErrTooManyPanels is returned when the roof would hold more than
	// MaxPanelsLimit panels.
	ErrTooManyPanels = eris.New("panel footprint is too small for the roof area")
)

// PanelSpec is the physical and electrical spec of the panel being quoted.
type PanelSpec struct {
	CapacityWatts float64 `json:"panelCapacityWatts"`
	HeightMeters  float64 `json:"panelHeightMeters"`
	WidthMeters   float64 `json:"panelWidthMeters"`
}

// Area is the panel footprint in square meters.
func (p PanelSpec) Area() float64 {
	return p.HeightMeters * p.WidthMeters
}

// Geometry is the part of a building insight the sizing math reads.
type Geometry struct {
	MaxArrayAreaMeters2     float64
	MaxSunshineHoursPerYear float64
	Segments                []solar.RoofSegmentStat
}

// GeometryOf extracts the sizing inputs from a solar potential.
func GeometryOf(sp *solar.SolarPotential) Geometry {
	return Geometry{
		MaxArrayAreaMeters2:     sp.MaxArrayAreaMeters2,
		MaxSunshineHoursPerYear: sp.MaxSunshineHoursPerYear,
		Segments:                sp.RoofSegmentStats,
	}
}

// Options tunes candidate generation.
type Options struct {
	// DedupeCounts drops candidates whose panel count repeats an earlier one.
	// Small roofs can floor 25%, 50% and 75% to the same count.
	DedupeCounts bool
}

// Result is a full recalculation for one building and panel.
type Result struct {
	Panel              PanelSpec
	PanelAreaMeters2   float64
	MaxPanels          int
	PeakSunHoursPerDay float64
	Configs            []solar.PanelConfig
}

// Recalculate sizes configurations for spec on the roof described by geom.
func Recalculate(geom Geometry, spec PanelSpec, opts Options) (*Result, error) {
	area := spec.Area()
	if !(area > 0) || math.IsInf(area, 0) {
		return nil, eris.Wrapf(ErrDegeneratePanel, "%gm x %gm", spec.HeightMeters, spec.WidthMeters)
	}
	if q := geom.MaxArrayAreaMeters2 / area; math.IsNaN(q) || q > MaxPanelsLimit {
		return nil, eris.Wrapf(ErrTooManyPanels, "%gm2 / %gm2", geom.MaxArrayAreaMeters2, area)
	}

	res := &Result{
		Panel:              spec,
		PanelAreaMeters2:   area,
		MaxPanels:          MaxPanels(geom.MaxArrayAreaMeters2, area),
		PeakSunHoursPerDay: geom.MaxSunshineHoursPerYear / DaysPerYear,
	}

	counts := CandidateCounts(res.MaxPanels)
	if opts.DedupeCounts {
		counts = slices.Compact(counts)
	}

	res.Configs = make([]solar.PanelConfig, 0, len(counts))
	for _, n := range counts {
		res.Configs = append(res.Configs, solar.PanelConfig{
			PanelsCount:          n,
			YearlyEnergyDcKwh:    res.YearlyEnergyDcKwh(n),
			RoofSegmentSummaries: Allocate(n, geom.Segments, geom.MaxArrayAreaMeters2, res.YearlyEnergyDcKwh),
		})
	}
	return res, nil
}

// MaxPanels is how many panels of panelArea fit in arrayArea, capped at
// MaxPanelsLimit.
func MaxPanels(arrayArea, panelArea float64) int {
	if panelArea <= 0 || arrayArea <= 0 {
		return 0
	}
	q := math.Floor(arrayArea / panelArea)
	if q > MaxPanelsLimit {
		return MaxPanelsLimit
	}
	return int(q)
}

// CandidateCounts returns the floored CandidateFractions of maxPanels,
// skipping any that floor to zero. Counts are non-decreasing.
func CandidateCounts(maxPanels int) []int {
	counts := make([]int, 0, len(CandidateFractions))
	for _, f := range CandidateFractions {
		n := int(math.Floor(float64(maxPanels) * f))
		if n <= 0 {
			continue
		}
		counts = append(counts, n)
	}
	return counts
}

// YearlyEnergyDcKwh is the annual DC output of n panels of the result's panel.
func (r *Result) YearlyEnergyDcKwh(n int) float64 {
	return YearlyEnergyDcKwh(n, r.Panel.CapacityWatts, r.PeakSunHoursPerDay)
}

// YearlyEnergyDcKwh is the annual DC output of n panels rated at watts under
// peakSunHours of full sun per day.
func YearlyEnergyDcKwh(n int, watts, peakSunHours float64) float64 {
	return float64(n) * watts * peakSunHours * DaysPerYear / 1000
}
