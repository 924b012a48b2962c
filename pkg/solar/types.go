package solar

import (
	"encoding/json"
	"math"

	"github.com/rotisserie/eris"
)

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LatLngBox is a bounding box given by its south-west and north-east corners.
type LatLngBox struct {
	SW LatLng `json:"sw"`
	NE LatLng `json:"ne"`
}

// Date is a calendar date as the API encodes it.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// SizeAndSunshineStats describes the area and insolation of a roof or roof segment.
type SizeAndSunshineStats struct {
	AreaMeters2       float64   `json:"areaMeters2"`
	SunshineQuantiles []float64 `json:"sunshineQuantiles,omitempty"`
	GroundAreaMeters2 float64   `json:"groundAreaMeters2,omitempty"`
}

// RoofSegmentStat is one planar section of the roof.
type RoofSegmentStat struct {
	PitchDegrees              float64              `json:"pitchDegrees"`
	AzimuthDegrees            float64              `json:"azimuthDegrees"`
	Stats                     SizeAndSunshineStats `json:"stats"`
	Center                    *LatLng              `json:"center,omitempty"`
	BoundingBox               *LatLngBox           `json:"boundingBox,omitempty"`
	PlaneHeightAtCenterMeters float64              `json:"planeHeightAtCenterMeters,omitempty"`
}

// AreaMeters2 is the segment's roof area.
func (s RoofSegmentStat) AreaMeters2() float64 { return s.Stats.AreaMeters2 }

// RoofSegmentSummary is the share of a panel configuration placed on one segment.
type RoofSegmentSummary struct {
	PitchDegrees      float64 `json:"pitchDegrees"`
	AzimuthDegrees    float64 `json:"azimuthDegrees"`
	PanelsCount       int     `json:"panelsCount"`
	YearlyEnergyDcKwh float64 `json:"yearlyEnergyDcKwh"`
	SegmentIndex      int     `json:"segmentIndex"`
}

// PanelConfig is one candidate installation size.
type PanelConfig struct {
	PanelsCount          int                  `json:"panelsCount"`
	YearlyEnergyDcKwh    float64              `json:"yearlyEnergyDcKwh"`
	RoofSegmentSummaries []RoofSegmentSummary `json:"roofSegmentSummaries"`
}

// FinancialAnalysis is one bill-size scenario. Only the index into
// solarPanelConfigs is modeled; every other field is kept verbatim.
type FinancialAnalysis struct {
	// PanelConfigIndex is -1 when no configuration fits the bill. An omitted
	// value is the proto default 0.
	PanelConfigIndex int

	Fields map[string]json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FinancialAnalysis) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	f.Fields = fields
	f.PanelConfigIndex = 0
	if raw, ok := fields["panelConfigIndex"]; ok {
		if err := json.Unmarshal(raw, &f.PanelConfigIndex); err != nil {
			return eris.Wrap(err, "financialAnalyses: panelConfigIndex")
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler. PanelConfigIndex always wins over
// the value held in Fields.
func (f FinancialAnalysis) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(f.Fields)+1)
	for k, v := range f.Fields {
		out[k] = v
	}
	idx, err := json.Marshal(f.PanelConfigIndex)
	if err != nil {
		return nil, err
	}
	out["panelConfigIndex"] = idx
	return json.Marshal(out)
}

// SolarPotential is the solar section of a building insight.
type SolarPotential struct {
	MaxArrayPanelsCount        int                   `json:"maxArrayPanelsCount"`
	MaxArrayAreaMeters2        float64               `json:"maxArrayAreaMeters2"`
	MaxSunshineHoursPerYear    float64               `json:"maxSunshineHoursPerYear"`
	CarbonOffsetFactorKgPerMwh float64               `json:"carbonOffsetFactorKgPerMwh,omitempty"`
	PanelCapacityWatts         float64               `json:"panelCapacityWatts"`
	PanelHeightMeters          float64               `json:"panelHeightMeters"`
	PanelWidthMeters           float64               `json:"panelWidthMeters"`
	PanelLifetimeYears         int                   `json:"panelLifetimeYears,omitempty"`
	WholeRoofStats             *SizeAndSunshineStats `json:"wholeRoofStats,omitempty"`
	RoofSegmentStats           []RoofSegmentStat     `json:"roofSegmentStats"`
	SolarPanelConfigs          []PanelConfig         `json:"solarPanelConfigs,omitempty"`
	FinancialAnalyses          []FinancialAnalysis   `json:"financialAnalyses,omitempty"`

	// Fields holds every key of the upstream object, modeled or not.
	Fields map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *SolarPotential) UnmarshalJSON(data []byte) error {
	type plain SolarPotential
	var typed plain
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*p = SolarPotential(typed)
	p.Fields = fields
	return nil
}

// Validate rejects geometry the sizing math cannot use.
func (p *SolarPotential) Validate() error {
	if !finite(p.MaxArrayAreaMeters2) || p.MaxArrayAreaMeters2 <= 0 {
		return eris.Errorf("maxArrayAreaMeters2 is invalid: %v", p.MaxArrayAreaMeters2)
	}
	if !finite(p.MaxSunshineHoursPerYear) || p.MaxSunshineHoursPerYear < 0 {
		return eris.Errorf("maxSunshineHoursPerYear is invalid: %v", p.MaxSunshineHoursPerYear)
	}
	for i, seg := range p.RoofSegmentStats {
		if !finite(seg.AreaMeters2()) || seg.AreaMeters2() < 0 {
			return eris.Errorf("roofSegmentStats[%d].stats.areaMeters2 is invalid: %v", i, seg.AreaMeters2())
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// BuildingInsight is the findClosest response for one coordinate.
type BuildingInsight struct {
	Name                 string          `json:"name"`
	Center               LatLng          `json:"center"`
	BoundingBox          *LatLngBox      `json:"boundingBox,omitempty"`
	ImageryDate          *Date           `json:"imageryDate,omitempty"`
	ImageryProcessedDate *Date           `json:"imageryProcessedDate,omitempty"`
	ImageryQuality       string          `json:"imageryQuality,omitempty"`
	PostalCode           string          `json:"postalCode,omitempty"`
	AdministrativeArea   string          `json:"administrativeArea,omitempty"`
	StatisticalArea      string          `json:"statisticalArea,omitempty"`
	RegionCode           string          `json:"regionCode,omitempty"`
	SolarPotential       *SolarPotential `json:"solarPotential,omitempty"`

	// Raw is the untouched upstream document.
	Raw json.RawMessage `json:"-"`
}

// ParseBuildingInsight decodes and validates a findClosest response body.
// A document without solarPotential yields ErrNoSolarPotential; anything
// undecodable or invalid yields a malformed *UpstreamError.
func ParseBuildingInsight(body []byte) (*BuildingInsight, error) {
	var bi BuildingInsight
	if err := json.Unmarshal(body, &bi); err != nil {
		return nil, &UpstreamError{StatusCode: 200, Message: err.Error(), Malformed: true}
	}
	if bi.SolarPotential == nil {
		return nil, ErrNoSolarPotential
	}
	if err := bi.SolarPotential.Validate(); err != nil {
		return nil, &UpstreamError{StatusCode: 200, Message: err.Error(), Malformed: true}
	}
	bi.Raw = append(json.RawMessage(nil), body...)
	return &bi, nil
}
