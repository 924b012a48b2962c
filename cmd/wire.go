package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/solar-crm/internal/catalog"
	"github.com/sells-group/solar-crm/internal/config"
	"github.com/sells-group/solar-crm/internal/metrics"
	"github.com/sells-group/solar-crm/internal/resilience"
	"github.com/sells-group/solar-crm/internal/service"
	"github.com/sells-group/solar-crm/internal/sizing"
	"github.com/sells-group/solar-crm/pkg/geocode"
	"github.com/sells-group/solar-crm/pkg/solar"
)

// appEnv bundles the dependencies every command shares.
type appEnv struct {
	Breakers *resilience.Registry
	Catalog  *catalog.Catalog
	Metrics  *metrics.Collector
	Solar    solar.Client
	Geocoder geocode.Client
	Service  *service.Service
}

// initEnv builds clients and the service from configuration. The collector
// may be nil.
func initEnv(c *config.Config, mc *metrics.Collector) (*appEnv, error) {
	cat, err := loadCatalog(c.Catalog)
	if err != nil {
		return nil, err
	}

	breakers := resilience.NewRegistry(resilience.FromConfig(c.Circuit.FailureThreshold, c.Circuit.ResetTimeoutSecs))

	solarClient := solar.NewClient(c.Solar.Key,
		solar.WithBaseURL(c.Solar.BaseURL),
		solar.WithHTTPClient(&http.Client{Timeout: seconds(c.Solar.TimeoutSecs, 30)}),
		solar.WithRateLimit(c.Solar.RateLimit),
		solar.WithBreaker(breakers.Get("solar")),
	)
	if c.Solar.Key == "" {
		zap.L().Warn("solar api key not configured; lookups will fail")
	}

	env := &appEnv{
		Breakers: breakers,
		Catalog:  cat,
		Metrics:  mc,
		Solar:    solarClient,
		Geocoder: newGeocoder(c, breakers),
	}

	opts := []service.Option{
		service.WithCatalog(cat),
		service.WithSizingOptions(sizingOptions(c)),
		service.WithDefaultQuality(c.Solar.RequiredQuality),
	}
	if mc != nil {
		opts = append(opts, service.WithObserver(mc))
	}
	env.Service = service.New(solarClient, opts...)

	return env, nil
}

func newGeocoder(c *config.Config, breakers *resilience.Registry) geocode.Client {
	key := c.Geocode.APIKey(c.Solar)
	if key == "" {
		return nil
	}
	return geocode.NewClient(key,
		geocode.WithBaseURL(c.Geocode.BaseURL),
		geocode.WithHTTPClient(&http.Client{Timeout: seconds(c.Geocode.TimeoutSecs, 15)}),
		geocode.WithRateLimit(c.Geocode.RateLimit),
		geocode.WithBreaker(breakers.Get("geocode")),
		geocode.WithCache(),
	)
}

func loadCatalog(c config.CatalogConfig) (*catalog.Catalog, error) {
	if c.Path == "" {
		return catalog.Default()
	}
	cat, err := catalog.Load(c.Path)
	if err != nil {
		return nil, eris.Wrap(err, "load panel catalog")
	}
	zap.L().Info("loaded panel catalog", zap.String("path", c.Path), zap.Int("panels", cat.Len()))
	return cat, nil
}

func sizingOptions(c *config.Config) sizing.Options {
	return sizing.Options{DedupeCounts: c.Sizing.DedupeCounts}
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}

// resolveLocation returns lat/lng as given, or geocodes address when no
// coordinate was passed.
func resolveLocation(ctx context.Context, env *appEnv, lat, lng float64, address string) (float64, float64, error) {
	if lat != 0 || lng != 0 || address == "" {
		return lat, lng, nil
	}
	if env.Geocoder == nil {
		return 0, 0, eris.New("--address needs a Google Maps API key (geocode.key or solar.key)")
	}
	res, err := env.Geocoder.Geocode(ctx, geocode.AddressInput{Line: address})
	if err != nil {
		return 0, 0, eris.Wrap(err, "geocode address")
	}
	if !res.Matched {
		return 0, 0, eris.Errorf("address not found: %s", address)
	}
	zap.L().Info("geocoded address",
		zap.String("address", address),
		zap.String("formatted", res.FormattedAddress),
		zap.String("quality", res.Quality),
	)
	return res.Latitude, res.Longitude, nil
}

// writeJSONOutput writes v as indented JSON to path, or to w when path is empty.
func writeJSONOutput(w io.Writer, path string, v any) error {
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrap(err, "create output file")
		}
		defer f.Close() //nolint:errcheck
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode output")
}
