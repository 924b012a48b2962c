package solar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/solar-crm/internal/resilience"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/building_insight.json")
	require.NoError(t, err)
	return data
}

func TestFindClosest_Success(t *testing.T) {
	fixture := loadFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/buildingInsights:findClosest", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "37.4449", q.Get("location.latitude"))
		assert.Equal(t, "-122.1391", q.Get("location.longitude"))
		assert.Equal(t, "HIGH", q.Get("requiredQuality"))
		assert.Equal(t, "test-key", q.Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(fixture)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	bi, err := client.FindClosest(context.Background(), LatLng{Latitude: 37.4449, Longitude: -122.1391}, "")

	require.NoError(t, err)
	assert.Equal(t, "buildings/ChIJh0CMPQW7j4ARLrRiVvmg6Vs", bi.Name)
	assert.Equal(t, "94303", bi.PostalCode)
	assert.Equal(t, "HIGH", bi.ImageryQuality)
	require.NotNil(t, bi.ImageryDate)
	assert.Equal(t, 2022, bi.ImageryDate.Year)

	sp := bi.SolarPotential
	require.NotNil(t, sp)
	assert.InDelta(t, 100.0, sp.MaxArrayAreaMeters2, 1e-9)
	assert.InDelta(t, 1460.0, sp.MaxSunshineHoursPerYear, 1e-9)
	require.Len(t, sp.RoofSegmentStats, 2)
	assert.InDelta(t, 60.0, sp.RoofSegmentStats[0].AreaMeters2(), 1e-9)
	assert.InDelta(t, 40.0, sp.RoofSegmentStats[1].AreaMeters2(), 1e-9)
	assert.Len(t, sp.SolarPanelConfigs, 6)
	require.Len(t, sp.FinancialAnalyses, 4)
	assert.Equal(t, -1, sp.FinancialAnalyses[0].PanelConfigIndex)
	assert.Equal(t, 0, sp.FinancialAnalyses[1].PanelConfigIndex)
	assert.Equal(t, 7, sp.FinancialAnalyses[3].PanelConfigIndex)

	assert.Contains(t, sp.Fields, "solarPanels")
	assert.Contains(t, sp.Fields, "buildingStats")
	assert.JSONEq(t, string(fixture), string(bi.Raw))
}

func TestFindClosest_PassesQuality(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "MEDIUM", r.URL.Query().Get("requiredQuality"))
		_, _ = w.Write(loadFixture(t))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.FindClosest(context.Background(), LatLng{Latitude: 1, Longitude: 2}, "MEDIUM")
	require.NoError(t, err)
}

func TestFindClosest_MissingKey(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))
	bi, err := client.FindClosest(context.Background(), LatLng{Latitude: 1, Longitude: 2}, "")

	assert.Nil(t, bi)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
	assert.Equal(t, int32(0), calls.Load())
}

func TestFindClosest_NoSolarPotential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name":"buildings/abc","center":{"latitude":1,"longitude":2}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	bi, err := client.FindClosest(context.Background(), LatLng{Latitude: 1, Longitude: 2}, "")

	assert.Nil(t, bi)
	assert.True(t, errors.Is(err, ErrNoSolarPotential))
}

func TestFindClosest_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission","status":"PERMISSION_DENIED"}}`))
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	bi, err := client.FindClosest(context.Background(), LatLng{Latitude: 1, Longitude: 2}, "")

	assert.Nil(t, bi)
	require.Error(t, err)
	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, 403, upErr.StatusCode)
	assert.Equal(t, "PERMISSION_DENIED", upErr.Status)
	assert.Equal(t, "The caller does not have permission", upErr.Message)
	assert.False(t, resilience.IsTransient(err))
	assert.NotContains(t, err.Error(), "bad-key")
}

func TestFindClosest_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("backend unavailable"))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.FindClosest(context.Background(), LatLng{Latitude: 1, Longitude: 2}, "")

	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "backend unavailable")
}

func TestFindClosest_MalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"wrong type", `{"solarPotential":{"maxArrayAreaMeters2":"lots"}}`},
		{"negative area", `{"solarPotential":{"maxArrayAreaMeters2":-5,"maxSunshineHoursPerYear":1000}}`},
		{"zero area", `{"solarPotential":{"maxArrayAreaMeters2":0,"maxSunshineHoursPerYear":1000}}`},
		{"missing area", `{"solarPotential":{"maxSunshineHoursPerYear":1000}}`},
		{"negative sunshine", `{"solarPotential":{"maxArrayAreaMeters2":5,"maxSunshineHoursPerYear":-1}}`},
		{"negative segment", `{"solarPotential":{"maxArrayAreaMeters2":5,"maxSunshineHoursPerYear":1,"roofSegmentStats":[{"stats":{"areaMeters2":-2}}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL))
			bi, err := client.FindClosest(context.Background(), LatLng{Latitude: 1, Longitude: 2}, "")

			assert.Nil(t, bi)
			var upErr *UpstreamError
			require.True(t, errors.As(err, &upErr), "got %v", err)
			assert.True(t, upErr.Malformed)
		})
	}
}

func TestFindClosest_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	bi, err := client.FindClosest(ctx, LatLng{Latitude: 1, Longitude: 2}, "")

	assert.Error(t, err)
	assert.Nil(t, bi)
	assert.False(t, resilience.IsTransient(err))
}

func TestFindClosest_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	breaker := resilience.NewBreaker("solar", resilience.BreakerConfig{FailureThreshold: 2, CoolDown: time.Hour})
	client := NewClient("test-key", WithBaseURL(srv.URL), WithBreaker(breaker))

	for i := 0; i < 2; i++ {
		_, err := client.FindClosest(context.Background(), LatLng{Latitude: 1, Longitude: 2}, "")
		require.Error(t, err)
	}
	_, err := client.FindClosest(context.Background(), LatLng{Latitude: 1, Longitude: 2}, "")

	assert.True(t, errors.Is(err, resilience.ErrCircuitOpen))
	assert.Equal(t, int32(2), calls.Load())
}

func TestFindClosest_NotFoundDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name":"buildings/abc"}`))
	}))
	defer srv.Close()

	breaker := resilience.NewBreaker("solar", resilience.BreakerConfig{FailureThreshold: 1, CoolDown: time.Hour})
	client := NewClient("test-key", WithBaseURL(srv.URL), WithBreaker(breaker))

	for i := 0; i < 3; i++ {
		_, err := client.FindClosest(context.Background(), LatLng{Latitude: 1, Longitude: 2}, "")
		assert.True(t, errors.Is(err, ErrNoSolarPotential))
	}
	assert.Equal(t, resilience.StateClosed, breaker.State())
}

func TestFinancialAnalysis_MarshalOverridesIndex(t *testing.T) {
	var fa FinancialAnalysis
	require.NoError(t, fa.UnmarshalJSON([]byte(`{"panelConfigIndex":9,"defaultBill":true}`)))
	fa.PanelConfigIndex = -1

	out, err := fa.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"panelConfigIndex":-1,"defaultBill":true}`, string(out))
}
