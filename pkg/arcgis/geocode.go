package arcgis

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/map-insights/internal/metrics"
	"github.com/sells-group/map-insights/internal/model"
)

type geocodeResponse struct {
	Candidates *[]geocodeCandidate `json:"candidates"`
}

type geocodeCandidate struct {
	Address  string  `json:"address"`
	Score    float64 `json:"score"`
	Location *struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	} `json:"location"`
}

// NormalizeQuery trims and NFC-normalises a free-text address so visually
// identical queries share a cache entry.
func NormalizeQuery(q string) string {
	return norm.NFC.String(strings.Join(strings.Fields(q), " "))
}

// Geocode implements Client.
func (c *httpClient) Geocode(ctx context.Context, query string) (model.Coordinate, error) {
	query = NormalizeQuery(query)
	key := strings.ToLower(query)

	if c.geocodes != nil {
		if v, ok := c.geocodes.Get(key); ok {
			metrics.GeocodeCacheHitsTotal.Inc()
			zap.L().Debug("arcgis: geocode cache hit", zap.String("query", query))
			return v.(model.Coordinate), nil
		}
	}

	body, err := c.fetch(ctx, ProviderGeocode, c.geocodeURL, url.Values{
		"SingleLine": {query},
	})
	if err != nil {
		return model.Coordinate{}, err
	}

	var resp geocodeResponse
	if err := decode(ProviderGeocode, body, &resp); err != nil {
		return model.Coordinate{}, err
	}
	if resp.Candidates == nil {
		return model.Coordinate{}, shapeError(ProviderGeocode, "response has no candidates field")
	}
	if len(*resp.Candidates) == 0 {
		return model.Coordinate{}, model.NewNotFoundError(ProviderGeocode, "location not found")
	}

	first := (*resp.Candidates)[0]
	if first.Location == nil || first.Location.X == nil || first.Location.Y == nil {
		return model.Coordinate{}, shapeError(ProviderGeocode, "candidate has no location")
	}

	coord := model.Coordinate{Longitude: *first.Location.X, Latitude: *first.Location.Y}
	if c.geocodes != nil {
		c.geocodes.SetDefault(key, coord)
	}
	return coord, nil
}
