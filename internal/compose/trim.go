package compose

import (
	"encoding/json"

	"github.com/sells-group/solar-crm/pkg/solar"
)

// Limits on the lists returned by the plain insight endpoint.
const (
	MaxTrimmedConfigs  = 5
	MaxTrimmedAnalyses = 3
)

// TrimmedPotential is the bounded subset of solarPotential.
type TrimmedPotential struct {
	MaxArrayPanelsCount        int                         `json:"maxArrayPanelsCount"`
	MaxArrayAreaMeters2        float64                     `json:"maxArrayAreaMeters2"`
	MaxSunshineHoursPerYear    float64                     `json:"maxSunshineHoursPerYear"`
	CarbonOffsetFactorKgPerMwh float64                     `json:"carbonOffsetFactorKgPerMwh"`
	PanelCapacityWatts         float64                     `json:"panelCapacityWatts"`
	PanelHeightMeters          float64                     `json:"panelHeightMeters"`
	PanelWidthMeters           float64                     `json:"panelWidthMeters"`
	PanelLifetimeYears         int                         `json:"panelLifetimeYears"`
	WholeRoofStats             *solar.SizeAndSunshineStats `json:"wholeRoofStats,omitempty"`
	RoofSegmentStats           []solar.RoofSegmentStat     `json:"roofSegmentStats"`
	SolarPanelConfigs          []solar.PanelConfig         `json:"solarPanelConfigs"`
	FinancialAnalyses          []solar.FinancialAnalysis   `json:"financialAnalyses"`
}

// TrimmedResponse is the plain insight response: a bounded view plus the
// untouched upstream document for diagnostics.
type TrimmedResponse struct {
	Building
	SolarPotential TrimmedPotential `json:"solarPotential"`
	RawData        json.RawMessage  `json:"rawData"`
}

// Trimmed builds the plain insight response.
func Trimmed(bi *solar.BuildingInsight) (*TrimmedResponse, error) {
	sp := bi.SolarPotential
	if sp == nil {
		return nil, solar.ErrNoSolarPotential
	}

	raw := bi.Raw
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}

	return &TrimmedResponse{
		Building: buildingOf(bi),
		SolarPotential: TrimmedPotential{
			MaxArrayPanelsCount:        sp.MaxArrayPanelsCount,
			MaxArrayAreaMeters2:        sp.MaxArrayAreaMeters2,
			MaxSunshineHoursPerYear:    sp.MaxSunshineHoursPerYear,
			CarbonOffsetFactorKgPerMwh: sp.CarbonOffsetFactorKgPerMwh,
			PanelCapacityWatts:         sp.PanelCapacityWatts,
			PanelHeightMeters:          sp.PanelHeightMeters,
			PanelWidthMeters:           sp.PanelWidthMeters,
			PanelLifetimeYears:         sp.PanelLifetimeYears,
			WholeRoofStats:             sp.WholeRoofStats,
			RoofSegmentStats:           nonNil(sp.RoofSegmentStats),
			SolarPanelConfigs:          nonNil(head(sp.SolarPanelConfigs, MaxTrimmedConfigs)),
			FinancialAnalyses:          nonNil(head(sp.FinancialAnalyses, MaxTrimmedAnalyses)),
		},
		RawData: raw,
	}, nil
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
