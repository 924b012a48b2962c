// Package solar is a client for the Google Solar API buildingInsights endpoint.
package solar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/solar-crm/internal/resilience"
)

const defaultBaseURL = "https://solar.googleapis.com/v1"

// DefaultQuality is the imagery quality requested when the caller names none.
const DefaultQuality = "HIGH"

var (
	// ErrMissingAPIKey means the service was started without a Solar API key.
	ErrMissingAPIKey = eris.New("solar: api key not configured")

	// ErrNoSolarPotential means the API found a building but has no solar
	// data for it.
	ErrNoSolarPotential = eris.New("solar: no solar potential for location")
)

// UpstreamError is a non-success or unusable response from the API.
type UpstreamError struct {
	StatusCode int
	Status     string
	Message    string
	// Malformed is set when the API answered 200 with a body that could not be used.
	Malformed bool
}

func (e *UpstreamError) Error() string {
	if e.Malformed {
		return "solar: malformed response: " + e.Message
	}
	if e.Status != "" {
		return fmt.Sprintf("solar: unexpected status %d (%s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("solar: unexpected status %d: %s", e.StatusCode, e.Message)
}

// Client looks up building insights.
type Client interface {
	FindClosest(ctx context.Context, loc LatLng, quality string) (*BuildingInsight, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithBreaker routes every call through b.
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *httpClient) {
		c.breaker = b
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
}

// NewClient creates a Solar API client. An empty apiKey is accepted here and
// reported as ErrMissingAPIKey on first use.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) FindClosest(ctx context.Context, loc LatLng, quality string) (*BuildingInsight, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if quality == "" {
		quality = DefaultQuality
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "solar: rate limit")
		}
	}

	if c.breaker == nil {
		return c.findClosest(ctx, loc, quality)
	}
	return resilience.Call(ctx, c.breaker, func(ctx context.Context) (*BuildingInsight, error) {
		return c.findClosest(ctx, loc, quality)
	})
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *httpClient) findClosest(ctx context.Context, loc LatLng, quality string) (*BuildingInsight, error) {
	params := url.Values{
		"location.latitude":  {strconv.FormatFloat(loc.Latitude, 'f', -1, 64)},
		"location.longitude": {strconv.FormatFloat(loc.Longitude, 'f', -1, 64)},
		"requiredQuality":    {quality},
		"key":                {c.apiKey},
	}
	reqURL := c.baseURL + "/buildingInsights:findClosest?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "solar: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// The URL carries the key; keep it out of error messages.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		if ctx.Err() != nil {
			return nil, eris.Wrap(err, "solar: send request")
		}
		return nil, resilience.NewTransientError(eris.Wrap(err, "solar: send request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "solar: read response"), 0)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upErr := &UpstreamError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		var env errorEnvelope
		if json.Unmarshal(body, &env) == nil && env.Error.Message != "" {
			upErr.Message = env.Error.Message
			upErr.Status = env.Error.Status
		}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(upErr, resp.StatusCode)
		}
		return nil, upErr
	}

	return ParseBuildingInsight(body)
}
