package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/map-insights/internal/config"
	"github.com/sells-group/map-insights/internal/geometry"
	"github.com/sells-group/map-insights/internal/model"
	"github.com/sells-group/map-insights/pkg/arcgis/mocks"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.ArcGIS.Token = "tok"
	c.ArcGIS.PlacesRadius = 7
	c.ArcGIS.TimeoutSecs = 5
	c.ArcGIS.RateLimit = 100
	c.Resilience.FailureThreshold = 5
	c.Resilience.ResetTimeoutSecs = 30
	c.Server.Port = 8080
	c.Server.SessionIdleSecs = 60
	c.Server.SweepIntervalSecs = 60
	c.Map.DefaultCenterLon = -116.546459
	c.Map.DefaultCenterLat = 33.821037
	return c
}

func TestRunGeocode(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("Geocode", mock.Anything, "Paris France").
		Return(model.Coordinate{Longitude: 2.35, Latitude: 48.85}, nil).Once()

	var buf bytes.Buffer
	require.NoError(t, runGeocode(context.Background(), client, "Paris France", &buf))

	var out struct {
		Query    string           `json:"query"`
		Location model.Coordinate `json:"location"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "Paris France", out.Query)
	assert.Equal(t, 2.35, out.Location.Longitude)
}

func TestRunGeocode_Error(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("Geocode", mock.Anything, "zzzz").
		Return(model.Coordinate{}, model.NewNotFoundError("geocode", "no candidates")).Once()

	var buf bytes.Buffer
	err := runGeocode(context.Background(), client, "zzzz", &buf)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Empty(t, buf.String())
}

func TestRunEnrich(t *testing.T) {
	client := mocks.NewMockClient(t)
	point := model.Coordinate{Longitude: -116.5, Latitude: 33.8}
	client.On("Enrich", mock.Anything, point).
		Return(&model.DemographicSnapshot{TotalPopulation: 500}, nil).Once()

	var buf bytes.Buffer
	require.NoError(t, runEnrich(context.Background(), client, point, &buf))
	assert.Contains(t, buf.String(), `"total_population": 500`)
}

func TestRunPlaces(t *testing.T) {
	client := mocks.NewMockClient(t)
	point := model.Coordinate{Longitude: 2.35, Latitude: 48.85}
	client.On("PlacesNear", mock.Anything, point, 12.0).
		Return([]model.PlaceResult{{ID: "p1", Name: "Louvre"}}, nil).Once()

	var buf bytes.Buffer
	require.NoError(t, runPlaces(context.Background(), client, point, 12, &buf))
	assert.Contains(t, buf.String(), `"Louvre"`)
	assert.Contains(t, buf.String(), `"radius": 12`)
}

func TestRadiusCommand(t *testing.T) {
	var buf bytes.Buffer
	radiusCmd.SetOut(&buf)
	t.Cleanup(func() { radiusCmd.SetOut(nil) })

	require.NoError(t, radiusCmd.RunE(radiusCmd, []string{"14"}))

	var out map[string]float64
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 14.0, out["zoom"])
	assert.InDelta(t, geometry.BaseRadius, out["radius_pixels"], 1e-9)
}

func TestRadiusCommand_BadZoom(t *testing.T) {
	err := radiusCmd.RunE(radiusCmd, []string{"high"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse zoom")
}

func TestConfigCommand_RedactsToken(t *testing.T) {
	old := cfg
	cfg = testConfig(t)
	cfg.ArcGIS.Token = "super-secret"
	t.Cleanup(func() { cfg = old })

	var buf bytes.Buffer
	configCmd.SetOut(&buf)
	t.Cleanup(func() { configCmd.SetOut(nil) })

	require.NoError(t, configCmd.RunE(configCmd, nil))
	assert.NotContains(t, buf.String(), "super-secret")
	assert.Contains(t, buf.String(), "<redacted>")
}

func TestGeocodeCommand_RequiresToken(t *testing.T) {
	old := cfg
	cfg = testConfig(t)
	cfg.ArcGIS.Token = ""
	t.Cleanup(func() { cfg = old })

	err := geocodeCmd.RunE(geocodeCmd, []string{"Paris"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arcgis.token is required")
}

func TestNewArcGISClient_UsesConfig(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("token")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"address":"Paris","score":100,"location":{"x":2.35,"y":48.85}}]}`))
	}))
	t.Cleanup(srv.Close)

	c := testConfig(t)
	c.ArcGIS.GeocodeURL = srv.URL

	var buf bytes.Buffer
	require.NoError(t, runGeocode(context.Background(), newArcGISClient(c, newBreakers(c)), "Paris", &buf))
	assert.Equal(t, "tok", gotToken)
	assert.Contains(t, buf.String(), "48.85")
}

func TestSessionOptions(t *testing.T) {
	c := testConfig(t)
	c.ArcGIS.PlacesRadius = 11
	c.Fetch.CancelSuperseded = true
	c.Map.Styles = map[string]string{"Streets": "https://tiles.example.com/streets.json"}

	opts, err := sessionOptions(c)
	require.NoError(t, err)
	assert.Equal(t, 11.0, opts.PlacesRadius)
	assert.True(t, opts.CancelSuperseded)
	assert.Equal(t, model.Coordinate{Longitude: -116.546459, Latitude: 33.821037}, opts.DefaultCenter)
	assert.Equal(t, "https://tiles.example.com/streets.json", opts.StyleURLs[model.StyleStreets])
	assert.Equal(t, model.DefaultStyleURLs[model.StylePlaces], opts.StyleURLs[model.StylePlaces])
	// Defaults are not mutated.
	assert.NotEqual(t, "https://tiles.example.com/streets.json", model.DefaultStyleURLs[model.StyleStreets])
}

func TestSessionOptions_UnknownStyle(t *testing.T) {
	c := testConfig(t)
	c.Map.Styles = map[string]string{"satellite": "https://example.com"}

	_, err := sessionOptions(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)
}
