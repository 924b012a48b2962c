// Package compose shapes building insights into API responses.
package compose

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/solar-crm/internal/sizing"
	"github.com/sells-group/solar-crm/pkg/solar"
)

// Building is the building metadata echoed verbatim in every response.
type Building struct {
	Name                 string           `json:"name"`
	Center               solar.LatLng     `json:"center"`
	BoundingBox          *solar.LatLngBox `json:"boundingBox,omitempty"`
	PostalCode           string           `json:"postalCode,omitempty"`
	AdministrativeArea   string           `json:"administrativeArea,omitempty"`
	RegionCode           string           `json:"regionCode,omitempty"`
	ImageryDate          *solar.Date      `json:"imageryDate,omitempty"`
	ImageryProcessedDate *solar.Date      `json:"imageryProcessedDate,omitempty"`
	ImageryQuality       string           `json:"imageryQuality,omitempty"`
}

func buildingOf(bi *solar.BuildingInsight) Building {
	return Building{
		Name:                 bi.Name,
		Center:               bi.Center,
		BoundingBox:          bi.BoundingBox,
		PostalCode:           bi.PostalCode,
		AdministrativeArea:   bi.AdministrativeArea,
		RegionCode:           bi.RegionCode,
		ImageryDate:          bi.ImageryDate,
		ImageryProcessedDate: bi.ImageryProcessedDate,
		ImageryQuality:       bi.ImageryQuality,
	}
}

// CustomResponse is a building insight re-sized for the caller's panel.
type CustomResponse struct {
	Building
	// SolarPotential holds every upstream solarPotential field, with the
	// sizing fields replaced by the recalculated ones.
	SolarPotential map[string]json.RawMessage `json:"solarPotential"`
}

// OriginalPanelSpecs records the reference panel the upstream sized for.
type OriginalPanelSpecs struct {
	PanelCapacityWatts float64 `json:"panelCapacityWatts"`
	PanelHeightMeters  float64 `json:"panelHeightMeters"`
	PanelWidthMeters   float64 `json:"panelWidthMeters"`
}

// Custom builds the response for a recalculation. Financial analyses keep
// their position; one whose panelConfigIndex points past the new
// configuration list gets -1.
func Custom(bi *solar.BuildingInsight, res *sizing.Result) (*CustomResponse, error) {
	sp := bi.SolarPotential
	if sp == nil {
		return nil, solar.ErrNoSolarPotential
	}

	potential := make(map[string]json.RawMessage, len(sp.Fields)+8)
	for k, v := range sp.Fields {
		potential[k] = v
	}

	analyses := RemapAnalyses(sp.FinancialAnalyses, len(res.Configs))

	overrides := []struct {
		key string
		val any
	}{
		{"panelCapacityWatts", res.Panel.CapacityWatts},
		{"panelHeightMeters", res.Panel.HeightMeters},
		{"panelWidthMeters", res.Panel.WidthMeters},
		{"maxArrayPanelsCount", res.MaxPanels},
		{"solarPanelConfigs", res.Configs},
		{"financialAnalyses", analyses},
		{"customCalculation", true},
		{"originalPanelSpecs", OriginalPanelSpecs{
			PanelCapacityWatts: sp.PanelCapacityWatts,
			PanelHeightMeters:  sp.PanelHeightMeters,
			PanelWidthMeters:   sp.PanelWidthMeters,
		}},
	}
	for _, o := range overrides {
		raw, err := json.Marshal(o.val)
		if err != nil {
			return nil, eris.Wrapf(err, "compose: encode %s", o.key)
		}
		potential[o.key] = raw
	}

	return &CustomResponse{
		Building:       buildingOf(bi),
		SolarPotential: potential,
	}, nil
}

// RemapAnalyses copies analyses, pointing any index at or past configCount to -1.
func RemapAnalyses(analyses []solar.FinancialAnalysis, configCount int) []solar.FinancialAnalysis {
	out := make([]solar.FinancialAnalysis, len(analyses))
	for i, fa := range analyses {
		if fa.PanelConfigIndex >= configCount {
			fa.PanelConfigIndex = -1
		}
		out[i] = fa
	}
	return out
}
