package arcgis

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/map-insights/internal/model"
)

func TestGeocode_FirstCandidate(t *testing.T) {
	var got *http.Request
	srv := jsonServer(t, http.StatusOK, `{
		"candidates": [
			{"address": "Paris, Île-de-France, FRA", "score": 100, "location": {"x": 2.35, "y": 48.86}},
			{"address": "Paris, Texas", "score": 90, "location": {"x": -95.55, "y": 33.66}}
		]
	}`, func(r *http.Request) { got = r })

	c := newTestClient(t, srv)
	coord, err := c.Geocode(context.Background(), "  Paris  ")
	require.NoError(t, err)
	assert.Equal(t, model.Coordinate{Longitude: 2.35, Latitude: 48.86}, coord)

	require.NotNil(t, got)
	assert.Equal(t, "/geocode", got.URL.Path)
	assert.Equal(t, "Paris", got.URL.Query().Get("SingleLine"))
	assert.Equal(t, "test-token", got.URL.Query().Get("token"))
	assert.Equal(t, "json", got.URL.Query().Get("f"))
}

func TestGeocode_NoCandidates(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"candidates": []}`, nil)

	_, err := newTestClient(t, srv).Geocode(context.Background(), "nowhere")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestGeocode_ShapeMismatch(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing candidates", `{"spatialReference": {"wkid": 4326}}`},
		{"missing location", `{"candidates": [{"address": "x"}]}`},
		{"not json", `<html>oops</html>`},
		{"wrong type", `{"candidates": "none"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := jsonServer(t, http.StatusOK, tt.body, nil)
			_, err := newTestClient(t, srv).Geocode(context.Background(), "Paris")
			require.Error(t, err)
			assert.Equal(t, model.KindParse, model.KindOf(err))
		})
	}
}

func TestGeocode_HTTPError(t *testing.T) {
	srv := jsonServer(t, http.StatusForbidden, `{}`, nil)

	_, err := newTestClient(t, srv).Geocode(context.Background(), "Paris")
	require.Error(t, err)
	assert.Equal(t, model.KindNetwork, model.KindOf(err))
	assert.Contains(t, err.Error(), "status 403")
}

func TestGeocode_ServiceErrorEnvelope(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"error": {"code": 498, "message": "Invalid token."}}`, nil)

	_, err := newTestClient(t, srv).Geocode(context.Background(), "Paris")
	require.Error(t, err)
	assert.Equal(t, model.KindNetwork, model.KindOf(err))
	assert.Contains(t, err.Error(), "Invalid token")
}

func TestGeocode_MissingToken(t *testing.T) {
	var calls atomic.Int32
	srv := jsonServer(t, http.StatusOK, `{"candidates": []}`, func(*http.Request) { calls.Add(1) })

	c := newTestClient(t, srv)
	c.tokens = StaticToken("")
	_, err := c.Geocode(context.Background(), "Paris")
	require.Error(t, err)
	assert.Equal(t, model.KindNetwork, model.KindOf(err))
	assert.Contains(t, err.Error(), "not configured")
	assert.Equal(t, int32(0), calls.Load())
}

func TestGeocode_BreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := jsonServer(t, http.StatusServiceUnavailable, `{}`, func(*http.Request) { calls.Add(1) })

	c := newTestClient(t, srv)
	for i := 0; i < 2; i++ {
		_, err := c.Geocode(context.Background(), "Paris")
		require.Error(t, err)
	}
	require.Equal(t, int32(2), calls.Load())

	_, err := c.Geocode(context.Background(), "Paris")
	require.Error(t, err)
	assert.Equal(t, model.KindNetwork, model.KindOf(err))
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Equal(t, int32(2), calls.Load(), "open breaker must not reach the provider")
}

func TestGeocode_Cache(t *testing.T) {
	var calls atomic.Int32
	srv := jsonServer(t, http.StatusOK, `{"candidates": [{"location": {"x": 2.35, "y": 48.86}}]}`,
		func(*http.Request) { calls.Add(1) })

	c := newTestClient(t, srv, WithGeocodeCache(time.Minute))
	first, err := c.Geocode(context.Background(), "Paris")
	require.NoError(t, err)
	second, err := c.Geocode(context.Background(), "  paris ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeocode_CacheSkipsFailures(t *testing.T) {
	var calls atomic.Int32
	srv := jsonServer(t, http.StatusOK, `{"candidates": []}`, func(*http.Request) { calls.Add(1) })

	c := newTestClient(t, srv, WithGeocodeCache(time.Minute))
	_, _ = c.Geocode(context.Background(), "nowhere")
	_, _ = c.Geocode(context.Background(), "nowhere")
	assert.Equal(t, int32(2), calls.Load())
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "380 New York St Redlands", NormalizeQuery("  380  New York St\tRedlands "))
	// "e" + combining acute composes to a single rune.
	assert.Equal(t, "Caf\u00e9", NormalizeQuery("Cafe\u0301"))
}
