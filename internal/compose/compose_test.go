package compose

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/solar-crm/internal/sizing"
	"github.com/sells-group/solar-crm/pkg/solar"
)

func loadInsight(t *testing.T) *solar.BuildingInsight {
	t.Helper()
	data, err := os.ReadFile("../../pkg/solar/testdata/building_insight.json")
	require.NoError(t, err)
	bi, err := solar.ParseBuildingInsight(data)
	require.NoError(t, err)
	return bi
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func recalc(t *testing.T, bi *solar.BuildingInsight, spec sizing.PanelSpec) *sizing.Result {
	t.Helper()
	res, err := sizing.Recalculate(sizing.GeometryOf(bi.SolarPotential), spec, sizing.Options{})
	require.NoError(t, err)
	return res
}

func TestCustom_OverridesSizingFields(t *testing.T) {
	bi := loadInsight(t)
	res := recalc(t, bi, sizing.PanelSpec{CapacityWatts: 450, HeightMeters: 2, WidthMeters: 1})

	out, err := Custom(bi, res)
	require.NoError(t, err)

	assert.Equal(t, "buildings/ChIJh0CMPQW7j4ARLrRiVvmg6Vs", out.Name)
	assert.Equal(t, "94303", out.PostalCode)
	assert.Equal(t, "HIGH", out.ImageryQuality)
	require.NotNil(t, out.ImageryDate)
	assert.Equal(t, solar.Date{Year: 2022, Month: 8, Day: 14}, *out.ImageryDate)

	sp := out.SolarPotential
	assert.InDelta(t, 450.0, decode[float64](t, sp["panelCapacityWatts"]), 1e-9)
	assert.InDelta(t, 2.0, decode[float64](t, sp["panelHeightMeters"]), 1e-9)
	assert.InDelta(t, 1.0, decode[float64](t, sp["panelWidthMeters"]), 1e-9)
	assert.Equal(t, 50, decode[int](t, sp["maxArrayPanelsCount"]))
	assert.True(t, decode[bool](t, sp["customCalculation"]))

	configs := decode[[]solar.PanelConfig](t, sp["solarPanelConfigs"])
	require.Len(t, configs, 4)
	assert.Equal(t, 12, configs[0].PanelsCount)
	assert.Equal(t, 50, configs[3].PanelsCount)

	orig := decode[OriginalPanelSpecs](t, sp["originalPanelSpecs"])
	assert.Equal(t, OriginalPanelSpecs{PanelCapacityWatts: 400, PanelHeightMeters: 1.879, PanelWidthMeters: 1.045}, orig)
}

func TestCustom_PassesThroughUnmodeledFields(t *testing.T) {
	bi := loadInsight(t)
	out, err := Custom(bi, recalc(t, bi, sizing.PanelSpec{CapacityWatts: 450, HeightMeters: 2, WidthMeters: 1}))
	require.NoError(t, err)

	sp := out.SolarPotential
	assert.JSONEq(t, `{"areaMeters2": 140.3}`, string(sp["buildingStats"]))
	assert.Contains(t, sp, "solarPanels")
	assert.Contains(t, sp, "wholeRoofStats")
	assert.Contains(t, sp, "roofSegmentStats")
	assert.InDelta(t, 1460.0, decode[float64](t, sp["maxSunshineHoursPerYear"]), 1e-9)
	assert.InDelta(t, 100.0, decode[float64](t, sp["maxArrayAreaMeters2"]), 1e-9)
}

func TestCustom_RemapsFinancialAnalyses(t *testing.T) {
	bi := loadInsight(t)
	out, err := Custom(bi, recalc(t, bi, sizing.PanelSpec{CapacityWatts: 450, HeightMeters: 2, WidthMeters: 1}))
	require.NoError(t, err)

	var analyses []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out.SolarPotential["financialAnalyses"], &analyses))
	require.Len(t, analyses, 4)

	idx := func(i int) int { return decode[int](t, analyses[i]["panelConfigIndex"]) }
	assert.Equal(t, -1, idx(0))
	assert.Equal(t, 0, idx(1))
	assert.Equal(t, 3, idx(2))
	assert.Equal(t, -1, idx(3), "index 7 has no custom configuration")
	assert.JSONEq(t, `{"currencyCode":"USD","units":"30"}`, string(analyses[2]["monthlyBill"]))
	assert.True(t, decode[bool](t, analyses[2]["defaultBill"]))
}

func TestCustom_NoConfigurations(t *testing.T) {
	bi := loadInsight(t)
	// A 20m x 20m panel does not fit on 100m2.
	res := recalc(t, bi, sizing.PanelSpec{CapacityWatts: 450, HeightMeters: 20, WidthMeters: 20})
	out, err := Custom(bi, res)
	require.NoError(t, err)

	assert.JSONEq(t, `[]`, string(out.SolarPotential["solarPanelConfigs"]))
	assert.Equal(t, 0, decode[int](t, out.SolarPotential["maxArrayPanelsCount"]))

	var analyses []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out.SolarPotential["financialAnalyses"], &analyses))
	for i := range analyses {
		assert.Equal(t, -1, decode[int](t, analyses[i]["panelConfigIndex"]))
	}
}

func TestCustom_DoesNotMutateInsight(t *testing.T) {
	bi := loadInsight(t)
	_, err := Custom(bi, recalc(t, bi, sizing.PanelSpec{CapacityWatts: 450, HeightMeters: 2, WidthMeters: 1}))
	require.NoError(t, err)

	assert.Equal(t, 7, bi.SolarPotential.FinancialAnalyses[3].PanelConfigIndex)
	assert.Len(t, bi.SolarPotential.SolarPanelConfigs, 6)
	assert.InDelta(t, 400.0, bi.SolarPotential.PanelCapacityWatts, 1e-9)
}

func TestCustom_NoSolarPotential(t *testing.T) {
	_, err := Custom(&solar.BuildingInsight{Name: "buildings/x"}, &sizing.Result{})
	assert.True(t, errors.Is(err, solar.ErrNoSolarPotential))
}

func TestRemapAnalyses(t *testing.T) {
	in := []solar.FinancialAnalysis{{PanelConfigIndex: -1}, {PanelConfigIndex: 0}, {PanelConfigIndex: 3}, {PanelConfigIndex: 4}, {PanelConfigIndex: 7}}

	out := RemapAnalyses(in, 4)

	got := make([]int, len(out))
	for i, fa := range out {
		got[i] = fa.PanelConfigIndex
	}
	assert.Equal(t, []int{-1, 0, 3, -1, -1}, got)
	assert.Equal(t, 7, in[4].PanelConfigIndex)
}
