package sizing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/solar-crm/pkg/solar"
)

func perPanel(kwh float64) func(int) float64 {
	return func(n int) float64 { return float64(n) * kwh }
}

func TestAllocate_Proportional(t *testing.T) {
	segs := []solar.RoofSegmentStat{segment(20, 180, 60), segment(18, 0, 40)}

	got := Allocate(25, segs, 100, perPanel(10))

	require.Len(t, got, 2)
	assert.Equal(t, solar.RoofSegmentSummary{
		PitchDegrees: 20, AzimuthDegrees: 180, PanelsCount: 15, YearlyEnergyDcKwh: 150, SegmentIndex: 0,
	}, got[0])
	assert.Equal(t, solar.RoofSegmentSummary{
		PitchDegrees: 18, AzimuthDegrees: 0, PanelsCount: 10, YearlyEnergyDcKwh: 100, SegmentIndex: 1,
	}, got[1])
}

func TestAllocate_FlooringLeavesRemainder(t *testing.T) {
	segs := []solar.RoofSegmentStat{segment(20, 180, 60), segment(18, 0, 40)}

	got := Allocate(12, segs, 100, perPanel(1))

	require.Len(t, got, 2)
	assert.Equal(t, 7, got[0].PanelsCount)
	assert.Equal(t, 4, got[1].PanelsCount)
	assert.Equal(t, 11, got[0].PanelsCount+got[1].PanelsCount)
}

func TestAllocate_DropsEmptySegmentsKeepsIndex(t *testing.T) {
	segs := []solar.RoofSegmentStat{
		segment(5, 90, 1),
		segment(20, 180, 70),
		segment(40, 270, 0),
		segment(18, 0, 29),
	}

	got := Allocate(10, segs, 100, perPanel(1))

	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].SegmentIndex)
	assert.Equal(t, 7, got[0].PanelsCount)
	assert.Equal(t, 3, got[1].SegmentIndex)
	assert.Equal(t, 2, got[1].PanelsCount)
}

func TestAllocate_Degenerate(t *testing.T) {
	segs := []solar.RoofSegmentStat{segment(20, 180, 60)}

	assert.Empty(t, Allocate(0, segs, 100, perPanel(1)))
	assert.Empty(t, Allocate(10, segs, 0, perPanel(1)))
	assert.Empty(t, Allocate(10, nil, 100, perPanel(1)))
}
