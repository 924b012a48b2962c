// Package service runs the sizing pipeline: validate, fetch the building
// insight once, recalculate panel configurations, allocate them to roof
// segments and compose the response.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/solar-crm/internal/catalog"
	"github.com/sells-group/solar-crm/internal/compose"
	"github.com/sells-group/solar-crm/internal/metrics"
	"github.com/sells-group/solar-crm/internal/resilience"
	"github.com/sells-group/solar-crm/internal/sizing"
	"github.com/sells-group/solar-crm/pkg/solar"
)

// Observer receives pipeline measurements. *metrics.Collector implements it.
type Observer interface {
	ObserveUpstream(upstream, outcome string, d time.Duration)
	ObserveSizing(maxPanels, configs int)
}

// InsightRequest asks for the building insight nearest a coordinate.
type InsightRequest struct {
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	RequiredQuality string  `json:"requiredQuality,omitempty"`
}

// RecomputeRequest asks for configurations sized for a specific panel.
// PanelModel names a catalog entry whose values fill any dimension left zero.
type RecomputeRequest struct {
	Latitude           float64 `json:"latitude"`
	Longitude          float64 `json:"longitude"`
	PanelCapacityWatts float64 `json:"panelCapacityWatts"`
	PanelHeightMeters  float64 `json:"panelHeightMeters"`
	PanelWidthMeters   float64 `json:"panelWidthMeters"`
	PanelModel         string  `json:"panelModel,omitempty"`
	RequiredQuality    string  `json:"requiredQuality,omitempty"`
}

// Spec returns the requested panel.
func (r RecomputeRequest) Spec() sizing.PanelSpec {
	return sizing.PanelSpec{
		CapacityWatts: r.PanelCapacityWatts,
		HeightMeters:  r.PanelHeightMeters,
		WidthMeters:   r.PanelWidthMeters,
	}
}

// Recomputation is a composed response together with the sizing result it
// was built from.
type Recomputation struct {
	Response *compose.CustomResponse
	Insight  *solar.BuildingInsight
	Sizing   *sizing.Result
}

// Option configures a Service.
type Option func(*Service)

// WithCatalog enables panelModel lookups.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Service) {
		s.catalog = c
	}
}

// WithObserver sets the measurement sink.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		s.observer = o
	}
}

// WithSizingOptions sets candidate generation options.
func WithSizingOptions(o sizing.Options) Option {
	return func(s *Service) {
		s.sizing = o
	}
}

// WithDefaultQuality sets the imagery quality used when a request names none.
func WithDefaultQuality(q string) Option {
	return func(s *Service) {
		if q != "" {
			s.quality = q
		}
	}
}

// Service is safe for concurrent use.
type Service struct {
	solar    solar.Client
	catalog  *catalog.Catalog
	observer Observer
	sizing   sizing.Options
	quality  string
}

// New creates a Service around client. A nil client behaves like a client
// without an API key.
func New(client solar.Client, opts ...Option) *Service {
	s := &Service{
		solar:   client,
		quality: solar.DefaultQuality,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insight fetches the building insight for a coordinate and trims it.
func (s *Service) Insight(ctx context.Context, req InsightRequest) (*compose.TrimmedResponse, error) {
	if req.Latitude == 0 || req.Longitude == 0 {
		return nil, invalid(MsgInsightRequired)
	}
	if err := checkCoordinate(req.Latitude, req.Longitude); err != nil {
		return nil, err
	}

	bi, err := s.fetch(ctx, solar.LatLng{Latitude: req.Latitude, Longitude: req.Longitude}, req.RequiredQuality)
	if err != nil {
		return nil, err
	}

	out, err := compose.Trimmed(bi)
	if err != nil {
		return nil, classify(err, MsgFetchFailed)
	}
	return out, nil
}

// Recompute fetches the building insight for a coordinate and resizes its
// panel configurations for the requested panel.
func (s *Service) Recompute(ctx context.Context, req RecomputeRequest) (*Recomputation, error) {
	if req.Latitude == 0 || req.Longitude == 0 {
		return nil, invalid(MsgRecomputeRequired)
	}
	req, err := s.resolvePanel(req)
	if err != nil {
		return nil, err
	}
	if req.PanelCapacityWatts == 0 || req.PanelHeightMeters == 0 || req.PanelWidthMeters == 0 {
		return nil, invalid(MsgRecomputeRequired)
	}
	if err := checkCoordinate(req.Latitude, req.Longitude); err != nil {
		return nil, err
	}
	spec := req.Spec()
	if err := checkPanel(spec); err != nil {
		return nil, err
	}

	bi, err := s.fetch(ctx, solar.LatLng{Latitude: req.Latitude, Longitude: req.Longitude}, req.RequiredQuality)
	if err != nil {
		return nil, err
	}
	if err := bi.SolarPotential.Validate(); err != nil {
		return nil, fail(ErrUpstream, MsgCalculateFailed, err)
	}

	res, err := sizing.Recalculate(sizing.GeometryOf(bi.SolarPotential), spec, s.sizing)
	if err != nil {
		if errors.Is(err, sizing.ErrDegeneratePanel) {
			return nil, fail(ErrValidation, "Panel dimensions must produce a positive area", err)
		}
		if errors.Is(err, sizing.ErrTooManyPanels) {
			return nil, fail(ErrValidation, MsgPanelTooSmall, err)
		}
		return nil, fail(ErrUpstream, MsgCalculateFailed, err)
	}

	resp, err := compose.Custom(bi, res)
	if err != nil {
		return nil, classify(err, MsgCalculateFailed)
	}

	if s.observer != nil {
		s.observer.ObserveSizing(res.MaxPanels, len(res.Configs))
	}
	zap.L().Debug("service: recomputed panel configs",
		zap.String("building", bi.Name),
		zap.Float64("panel_area_m2", res.PanelAreaMeters2),
		zap.Int("max_panels", res.MaxPanels),
		zap.Int("configs", len(res.Configs)),
	)

	return &Recomputation{Response: resp, Insight: bi, Sizing: res}, nil
}

// Panel resolves a catalog model.
func (s *Service) Panel(model string) (catalog.Panel, error) {
	if s.catalog == nil {
		return catalog.Panel{}, catalog.ErrUnknownModel
	}
	return s.catalog.Lookup(model)
}

func (s *Service) resolvePanel(req RecomputeRequest) (RecomputeRequest, error) {
	if strings.TrimSpace(req.PanelModel) == "" {
		return req, nil
	}
	p, err := s.Panel(req.PanelModel)
	if err != nil {
		return req, fail(ErrValidation, fmt.Sprintf("Unknown panel model: %s", req.PanelModel), err)
	}
	if req.PanelCapacityWatts == 0 {
		req.PanelCapacityWatts = p.CapacityWatts
	}
	if req.PanelHeightMeters == 0 {
		req.PanelHeightMeters = p.HeightMeters
	}
	if req.PanelWidthMeters == 0 {
		req.PanelWidthMeters = p.WidthMeters
	}
	return req, nil
}

func (s *Service) fetch(ctx context.Context, loc solar.LatLng, quality string) (*solar.BuildingInsight, error) {
	if s.solar == nil {
		return nil, fail(ErrNotConfigured, MsgNotConfigured, solar.ErrMissingAPIKey)
	}
	if quality == "" {
		quality = s.quality
	}

	start := time.Now()
	bi, err := s.solar.FindClosest(ctx, loc, quality)
	s.observe(err, time.Since(start))
	if err != nil {
		zap.L().Warn("service: building insight lookup failed",
			zap.Float64("latitude", loc.Latitude),
			zap.Float64("longitude", loc.Longitude),
			zap.String("quality", quality),
			zap.Error(err),
		)
		return nil, classify(err, MsgFetchFailed)
	}
	if bi.SolarPotential == nil {
		return nil, fail(ErrNotFound, MsgNotFound, solar.ErrNoSolarPotential)
	}
	return bi, nil
}

func (s *Service) observe(err error, d time.Duration) {
	if s.observer == nil {
		return
	}
	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
	case errors.Is(err, solar.ErrNoSolarPotential):
		outcome = metrics.OutcomeNotFound
	case errors.Is(err, resilience.ErrCircuitOpen):
		outcome = metrics.OutcomeCircuitOpen
	default:
		outcome = metrics.OutcomeError
	}
	s.observer.ObserveUpstream("solar", outcome, d)
}

// classify maps client errors onto the service's error kinds.
func classify(err error, msg string) error {
	switch {
	case errors.Is(err, solar.ErrMissingAPIKey):
		return fail(ErrNotConfigured, MsgNotConfigured, err)
	case errors.Is(err, solar.ErrNoSolarPotential):
		return fail(ErrNotFound, MsgNotFound, err)
	default:
		return fail(ErrUpstream, msg, err)
	}
}

func checkCoordinate(lat, lng float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return invalid("Latitude must be between -90 and 90")
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return invalid("Longitude must be between -180 and 180")
	}
	return nil
}

func checkPanel(p sizing.PanelSpec) error {
	for _, v := range []float64{p.CapacityWatts, p.HeightMeters, p.WidthMeters} {
		if !(v > 0) || math.IsInf(v, 0) {
			return invalid("Panel capacity and dimensions must be positive numbers")
		}
	}
	return nil
}
