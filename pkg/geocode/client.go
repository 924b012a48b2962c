// Package geocode resolves customer street addresses to coordinates with the
// Google Geocoding API.
package geocode

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sells-group/solar-crm/internal/resilience"
)

// Client geocodes addresses.
type Client interface {
	// Geocode resolves a one-line address. An address Google cannot place
	// returns a Result with Matched=false and a nil error.
	Geocode(ctx context.Context, addr AddressInput) (*Result, error)
}

// AddressInput represents an address to geocode.
type AddressInput struct {
	Street  string
	City    string
	State   string
	ZipCode string
	// Line is a free-form address used as-is when set.
	Line string
}

// OneLine formats the address for the API.
func (a AddressInput) OneLine() string {
	if s := strings.TrimSpace(a.Line); s != "" {
		return s
	}
	var parts []string
	for _, p := range []string{a.Street, a.City, strings.TrimSpace(a.State + " " + a.ZipCode)} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Result holds the geocoding output for an address.
type Result struct {
	Latitude         float64
	Longitude        float64
	FormattedAddress string
	Quality          string // "rooftop", "range", "centroid", "approximate"
	Matched          bool
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithBaseURL overrides the Geocoding API endpoint.
func WithBaseURL(u string) Option {
	return func(g *geocoder) {
		if u != "" {
			g.baseURL = u
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second rate limit. Zero disables it.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		if rps <= 0 {
			g.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCache memoizes results for the lifetime of the client.
func WithCache() Option {
	return func(g *geocoder) {
		g.cache = newMemoryCache()
	}
}

// WithBreaker routes every call through b.
func WithBreaker(b *resilience.Breaker) Option {
	return func(g *geocoder) {
		g.breaker = b
	}
}

type geocoder struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	breaker    *resilience.Breaker
	cache      *memoryCache
}

// NewClient creates a new geocoding Client with the given options.
func NewClient(apiKey string, opts ...Option) Client {
	g := &geocoder{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    googleGeocodeURL,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(25, 25),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *geocoder) Geocode(ctx context.Context, addr AddressInput) (*Result, error) {
	var key string
	if g.cache != nil {
		key = cacheKey(addr)
		if r, ok := g.cache.get(key); ok {
			return r, nil
		}
	}

	var (
		result *Result
		err    error
	)
	if g.breaker == nil {
		result, err = g.geocodeGoogle(ctx, addr)
	} else {
		result, err = resilience.Call(ctx, g.breaker, func(ctx context.Context) (*Result, error) {
			return g.geocodeGoogle(ctx, addr)
		})
	}
	if err != nil {
		return nil, err
	}

	if g.cache != nil {
		g.cache.put(key, result)
	}
	return result, nil
}
