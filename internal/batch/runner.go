package batch

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/solar-crm/internal/geo"
	"github.com/sells-group/solar-crm/internal/resilience"
	"github.com/sells-group/solar-crm/internal/service"
	"github.com/sells-group/solar-crm/internal/sizing"
	"github.com/sells-group/solar-crm/pkg/geocode"
	"github.com/sells-group/solar-crm/pkg/solar"
)

// Recomputer runs one recalculation. *service.Service implements it.
type Recomputer interface {
	Recompute(ctx context.Context, req service.RecomputeRequest) (*service.Recomputation, error)
}

// Panel is the panel applied to every site in a run.
type Panel struct {
	Model           string  `json:"model,omitempty"`
	CapacityWatts   float64 `json:"capacityWatts,omitempty"`
	HeightMeters    float64 `json:"heightMeters,omitempty"`
	WidthMeters     float64 `json:"widthMeters,omitempty"`
	RequiredQuality string  `json:"requiredQuality,omitempty"`
}

// ConfigSummary is one sized configuration for a site.
type ConfigSummary struct {
	PanelsCount       int     `json:"panelsCount"`
	YearlyEnergyDcKwh float64 `json:"yearlyEnergyDcKwh"`
	SegmentsUsed      int     `json:"segmentsUsed"`
	SegmentPanels     int     `json:"segmentPanels"`
}

// Outcome is the result for one site.
type Outcome struct {
	Site           Site              `json:"site"`
	Location       solar.LatLng      `json:"location"`
	Geocoded       bool              `json:"geocoded"`
	GeocodeQuality string            `json:"geocodeQuality,omitempty"`
	Building       string            `json:"building,omitempty"`
	PostalCode     string            `json:"postalCode,omitempty"`
	ImageryQuality string            `json:"imageryQuality,omitempty"`
	Match          *geo.Match        `json:"match,omitempty"`
	Panel          *sizing.PanelSpec `json:"panel,omitempty"`
	MaxPanels      int               `json:"maxPanels"`
	Configs        []ConfigSummary   `json:"configs,omitempty"`
	Error          string            `json:"error,omitempty"`
	ErrorType      string            `json:"errorType,omitempty"`
}

// OK reports whether the site was sized.
func (o Outcome) OK() bool { return o.Error == "" }

// fail records err; transient failures are worth rerunning.
func (o *Outcome) fail(err error) {
	o.Error = err.Error()
	o.ErrorType = resilience.ClassifyError(err)
}

// Report is a finished batch run.
type Report struct {
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Panel      Panel     `json:"panel"`
	Total      int       `json:"total"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Runner sizes sites concurrently.
type Runner struct {
	svc         Recomputer
	geocoder    geocode.Client
	concurrency int
}

// NewRunner creates a Runner. geocoder may be nil, in which case sites
// without coordinates fail.
func NewRunner(svc Recomputer, geocoder geocode.Client, concurrency int) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{svc: svc, geocoder: geocoder, concurrency: concurrency}
}

// Run sizes every site with panel. A failing site is recorded in its
// Outcome and never stops the others. Outcomes keep the input order.
func (r *Runner) Run(ctx context.Context, sites []Site, panel Panel) (*Report, error) {
	if len(sites) == 0 {
		return nil, eris.New("batch: no sites")
	}

	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Panel:     panel,
		Total:     len(sites),
		Outcomes:  make([]Outcome, len(sites)),
	}
	log := zap.L().With(zap.String("run_id", report.RunID))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	var succeeded, failed atomic.Int64
	for i, site := range sites {
		i, site := i, site
		g.Go(func() error {
			out := r.size(gCtx, site, panel)
			report.Outcomes[i] = out
			if !out.OK() {
				failed.Add(1)
				log.Warn("batch: site failed",
					zap.String("site", site.ID),
					zap.String("error", out.Error),
					zap.String("error_type", out.ErrorType),
				)
				return nil // don't abort batch on individual failure
			}
			succeeded.Add(1)
			if out.Match.Class == geo.ClassDistant {
				log.Warn("batch: site is far from matched building",
					zap.String("site", site.ID),
					zap.String("building", out.Building),
					zap.Float64("edge_meters", out.Match.EdgeMeters),
				)
			}
			log.Debug("batch: site sized",
				zap.String("site", site.ID),
				zap.String("building", out.Building),
				zap.Int("max_panels", out.MaxPanels),
			)
			return nil
		})
	}
	_ = g.Wait()

	report.Succeeded = int(succeeded.Load())
	report.Failed = int(failed.Load())
	report.FinishedAt = time.Now().UTC()

	log.Info("batch: run complete",
		zap.Int("total", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

func (r *Runner) size(ctx context.Context, site Site, panel Panel) Outcome {
	out := Outcome{Site: site}

	loc, err := r.locate(ctx, site, &out)
	if err != nil {
		out.fail(err)
		return out
	}
	out.Location = loc

	rc, err := r.svc.Recompute(ctx, service.RecomputeRequest{
		Latitude:           loc.Latitude,
		Longitude:          loc.Longitude,
		PanelCapacityWatts: panel.CapacityWatts,
		PanelHeightMeters:  panel.HeightMeters,
		PanelWidthMeters:   panel.WidthMeters,
		PanelModel:         panel.Model,
		RequiredQuality:    panel.RequiredQuality,
	})
	if err != nil {
		out.fail(err)
		return out
	}

	bi := rc.Insight
	out.Building = bi.Name
	out.PostalCode = bi.PostalCode
	out.ImageryQuality = bi.ImageryQuality
	match := geo.MatchBuilding(loc, bi)
	out.Match = &match
	out.Panel = &rc.Sizing.Panel
	out.MaxPanels = rc.Sizing.MaxPanels
	for _, c := range rc.Sizing.Configs {
		sum := ConfigSummary{
			PanelsCount:       c.PanelsCount,
			YearlyEnergyDcKwh: c.YearlyEnergyDcKwh,
			SegmentsUsed:      len(c.RoofSegmentSummaries),
		}
		for _, s := range c.RoofSegmentSummaries {
			sum.SegmentPanels += s.PanelsCount
		}
		out.Configs = append(out.Configs, sum)
	}
	return out
}

func (r *Runner) locate(ctx context.Context, site Site, out *Outcome) (solar.LatLng, error) {
	if site.HasCoordinates() {
		return solar.LatLng{Latitude: site.Latitude, Longitude: site.Longitude}, nil
	}
	if site.Address == "" {
		return solar.LatLng{}, eris.New("site has neither coordinates nor an address")
	}
	if r.geocoder == nil {
		return solar.LatLng{}, eris.New("site has no coordinates and geocoding is not configured")
	}

	res, err := r.geocoder.Geocode(ctx, geocode.AddressInput{Line: site.Address})
	if err != nil {
		return solar.LatLng{}, eris.Wrap(err, "geocode address")
	}
	if !res.Matched {
		return solar.LatLng{}, eris.Errorf("address not found: %s", site.Address)
	}

	out.Geocoded = true
	out.GeocodeQuality = res.Quality
	return solar.LatLng{Latitude: res.Latitude, Longitude: res.Longitude}, nil
}
