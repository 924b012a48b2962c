package sizing

import (
	"math"

	"github.com/sells-group/solar-crm/pkg/solar"
)

// Allocate spreads total panels across segments in proportion to each
// segment's share of maxArea. Each share is floored on its own, so the
// summaries can add up to fewer than total; the remainder is not
// redistributed. Segments that receive no panels are omitted, and
// SegmentIndex keeps the segment's position in segments.
func Allocate(total int, segments []solar.RoofSegmentStat, maxArea float64, energy func(n int) float64) []solar.RoofSegmentSummary {
	summaries := make([]solar.RoofSegmentSummary, 0, len(segments))
	if total <= 0 || maxArea <= 0 {
		return summaries
	}

	for i, seg := range segments {
		n := int(math.Floor(float64(total) * (seg.AreaMeters2() / maxArea)))
		if n <= 0 {
			continue
		}
		summaries = append(summaries, solar.RoofSegmentSummary{
			PitchDegrees:      seg.PitchDegrees,
			AzimuthDegrees:    seg.AzimuthDegrees,
			PanelsCount:       n,
			YearlyEnergyDcKwh: energy(n),
			SegmentIndex:      i,
		})
	}
	return summaries
}
