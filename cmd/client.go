package main

import (
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/map-insights/internal/config"
	"github.com/sells-group/map-insights/internal/explorer"
	"github.com/sells-group/map-insights/internal/metrics"
	"github.com/sells-group/map-insights/internal/model"
	"github.com/sells-group/map-insights/internal/resilience"
	"github.com/sells-group/map-insights/pkg/arcgis"
)

// newBreakers builds the per-provider circuit breakers, exporting every
// state change as a metric.
func newBreakers(c *config.Config) *resilience.Registry {
	bcfg := resilience.FromConfig(c.Resilience.FailureThreshold, c.Resilience.ResetTimeoutSecs)
	bcfg.OnStateChange = func(name string, from, to resilience.State) {
		metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		zap.L().Warn("circuit breaker state changed",
			zap.String("provider", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}
	return resilience.NewRegistry(bcfg)
}

// newArcGISClient builds the provider client from config. The token is read
// through a TokenSource so it never appears in code.
func newArcGISClient(c *config.Config, breakers *resilience.Registry) arcgis.Client {
	return arcgis.NewClient(arcgis.StaticToken(c.ArcGIS.Token),
		arcgis.WithHTTPClient(&http.Client{Timeout: c.ArcGIS.Timeout()}),
		arcgis.WithGeocodeURL(c.ArcGIS.GeocodeURL),
		arcgis.WithEnrichURL(c.ArcGIS.EnrichURL),
		arcgis.WithPlacesURL(c.ArcGIS.PlacesURL),
		arcgis.WithRateLimit(c.ArcGIS.RateLimit),
		arcgis.WithBreakers(breakers),
		arcgis.WithGeocodeCache(c.Cache.GeocodeTTL()),
	)
}

// sessionOptions maps config onto explorer session options.
func sessionOptions(c *config.Config) (explorer.Options, error) {
	opts := explorer.DefaultOptions()
	opts.PlacesRadius = c.ArcGIS.PlacesRadius
	opts.CancelSuperseded = c.Fetch.CancelSuperseded
	opts.DefaultCenter = model.Coordinate{
		Longitude: c.Map.DefaultCenterLon,
		Latitude:  c.Map.DefaultCenterLat,
	}

	if len(c.Map.Styles) > 0 {
		urls := make(map[model.BasemapStyle]string, len(model.DefaultStyleURLs))
		for s, u := range model.DefaultStyleURLs {
			urls[s] = u
		}
		for name, u := range c.Map.Styles {
			style, err := model.ParseBasemapStyle(name)
			if err != nil {
				return explorer.Options{}, eris.Wrapf(err, "map.styles: key %q", name)
			}
			urls[style] = u
		}
		opts.StyleURLs = urls
	}
	return opts, nil
}
