package arcgis

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/map-insights/internal/model"
)

const enrichBody = `{
	"results": [{
		"paramName": "GeoEnrichmentResult",
		"value": {
			"FeatureSet": [{
				"features": [
					{"attributes": {"TOTPOP": 500, "AVGHHSZ": 2.61, "TOTMALES": 240, "TOTFEMALES": 260}},
					{"attributes": {"TOTPOP": 9, "AVGHHSZ": 1, "TOTMALES": 4, "TOTFEMALES": 5}}
				]
			}]
		}
	}]
}`

func TestEnrich_FirstFeature(t *testing.T) {
	var got *http.Request
	srv := jsonServer(t, http.StatusOK, enrichBody, func(r *http.Request) { got = r })

	snap, err := newTestClient(t, srv).Enrich(context.Background(), model.Coordinate{Longitude: -116.5, Latitude: 33.8})
	require.NoError(t, err)
	assert.Equal(t, &model.DemographicSnapshot{
		TotalPopulation:  500,
		AvgHouseholdSize: 2.61,
		TotalMales:       240,
		TotalFemales:     260,
	}, snap)

	require.NotNil(t, got)
	assert.Equal(t, "/enrich", got.URL.Path)
	var areas []map[string]map[string]float64
	require.NoError(t, json.Unmarshal([]byte(got.URL.Query().Get("studyAreas")), &areas))
	require.Len(t, areas, 1)
	assert.InDelta(t, -116.5, areas[0]["geometry"]["x"], 1e-9)
	assert.InDelta(t, 33.8, areas[0]["geometry"]["y"], 1e-9)
	assert.Equal(t, "test-token", got.URL.Query().Get("token"))
}

func TestEnrich_NoFeatures(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"results":[{"value":{"FeatureSet":[{"features":[]}]}}]}`, nil)

	_, err := newTestClient(t, srv).Enrich(context.Background(), model.Coordinate{})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestEnrich_ShapeMismatch(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no results", `{"results": []}`},
		{"no value", `{"results": [{}]}`},
		{"no feature set", `{"results": [{"value": {"FeatureSet": []}}]}`},
		{"no features field", `{"results": [{"value": {"FeatureSet": [{}]}}]}`},
		{"missing attribute", `{"results":[{"value":{"FeatureSet":[{"features":[{"attributes":{"TOTPOP":1}}]}]}}]}`},
		{"string attribute", `{"results":[{"value":{"FeatureSet":[{"features":[{"attributes":{"TOTPOP":"many"}}]}]}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := jsonServer(t, http.StatusOK, tt.body, nil)
			_, err := newTestClient(t, srv).Enrich(context.Background(), model.Coordinate{})
			require.Error(t, err)
			assert.Equal(t, model.KindParse, model.KindOf(err))
		})
	}
}

func TestEnrich_ServerError(t *testing.T) {
	srv := jsonServer(t, http.StatusBadGateway, `bad gateway`, nil)

	_, err := newTestClient(t, srv).Enrich(context.Background(), model.Coordinate{})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNetwork)
}
