// Package arcgis wraps the three ArcGIS location services the explorer relies
// on: address geocoding, demographic enrichment and places-near-point. Every
// call returns either a typed result or a categorised *model.Error.
package arcgis

import (
	"context"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/map-insights/internal/model"
	"github.com/sells-group/map-insights/internal/resilience"
)

const (
	DefaultGeocodeURL = "https://geocode-api.arcgis.com/arcgis/rest/services/World/GeocodeServer/findAddressCandidates"
	DefaultEnrichURL  = "https://geoenrich.arcgis.com/arcgis/rest/services/World/geoenrichmentserver/GeoEnrichment/enrich"
	DefaultPlacesURL  = "https://places-api.arcgis.com/arcgis/rest/services/places-service/v1/places/near-point"

	// DefaultPlacesRadius is the near-point search radius in provider units.
	DefaultPlacesRadius = 7.0
)

// Provider names used for breakers, metrics and spans.
const (
	ProviderGeocode = "geocode"
	ProviderEnrich  = "enrich"
	ProviderPlaces  = "places"
)

// Client performs the explorer's location lookups.
type Client interface {
	// Geocode resolves a single-line address to the first candidate.
	Geocode(ctx context.Context, query string) (model.Coordinate, error)

	// Enrich returns the demographic attributes of the first feature for point.
	Enrich(ctx context.Context, point model.Coordinate) (*model.DemographicSnapshot, error)

	// PlacesNear lists places within radius of point, nearest first.
	PlacesNear(ctx context.Context, point model.Coordinate, radius float64) ([]model.PlaceResult, error)
}

// TokenSource supplies the API token for each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource backed by a fixed configured value.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token(_ context.Context) (string, error) {
	if t == "" {
		return "", eris.New("arcgis: api token not configured")
	}
	return string(t), nil
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithGeocodeURL overrides the findAddressCandidates endpoint.
func WithGeocodeURL(u string) Option {
	return func(c *httpClient) {
		c.geocodeURL = u
	}
}

// WithEnrichURL overrides the GeoEnrichment endpoint.
func WithEnrichURL(u string) Option {
	return func(c *httpClient) {
		c.enrichURL = u
	}
}

// WithPlacesURL overrides the places near-point endpoint.
func WithPlacesURL(u string) Option {
	return func(c *httpClient) {
		c.placesURL = u
	}
}

// WithRateLimit caps requests per second across all three services.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithBreakers guards each provider with a breaker from r.
func WithBreakers(r *resilience.Registry) Option {
	return func(c *httpClient) {
		c.breakers = r
	}
}

// WithGeocodeCache memoises successful geocodes for ttl. A zero ttl disables
// the cache.
func WithGeocodeCache(ttl time.Duration) Option {
	return func(c *httpClient) {
		if ttl <= 0 {
			c.geocodes = nil
			return
		}
		c.geocodes = cache.New(ttl, 2*ttl)
	}
}

type httpClient struct {
	tokens     TokenSource
	http       *http.Client
	geocodeURL string
	enrichURL  string
	placesURL  string
	limiter    *rate.Limiter
	breakers   *resilience.Registry
	geocodes   *cache.Cache
}

// NewClient creates an ArcGIS client that authenticates with tokens.
func NewClient(tokens TokenSource, opts ...Option) Client {
	c := &httpClient{
		tokens:     tokens,
		http:       &http.Client{Timeout: 10 * time.Second},
		geocodeURL: DefaultGeocodeURL,
		enrichURL:  DefaultEnrichURL,
		placesURL:  DefaultPlacesURL,
		limiter:    rate.NewLimiter(10, 10),
		breakers:   resilience.NewRegistry(resilience.DefaultBreakerConfig()),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}
