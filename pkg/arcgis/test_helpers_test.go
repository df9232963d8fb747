package arcgis

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/sells-group/map-insights/internal/resilience"
)

// newTestClient points all three services at srv with limiting disabled.
func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *httpClient {
	t.Helper()
	c := NewClient(StaticToken("test-token"), append([]Option{
		WithHTTPClient(srv.Client()),
		WithGeocodeURL(srv.URL + "/geocode"),
		WithEnrichURL(srv.URL + "/enrich"),
		WithPlacesURL(srv.URL + "/places"),
		WithBreakers(resilience.NewRegistry(resilience.BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour})),
	}, opts...)...).(*httpClient)
	c.limiter = rate.NewLimiter(rate.Inf, 1)
	return c
}

// jsonServer answers every request with status and body.
func jsonServer(t *testing.T, status int, body string, inspect func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inspect != nil {
			inspect(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}
