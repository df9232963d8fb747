package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sells-group/map-insights/internal/metrics"
	"github.com/sells-group/map-insights/internal/model"
	"github.com/sells-group/map-insights/internal/resilience"
)

const tracerName = "github.com/sells-group/map-insights/pkg/arcgis"

// serviceError is the error envelope ArcGIS REST services return with a
// 200 status.
type serviceError struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// fetch performs an authenticated GET against endpoint and returns the raw
// body. Transport failures, non-2xx statuses and service error envelopes all
// come back as network errors.
func (c *httpClient) fetch(ctx context.Context, provider, endpoint string, params url.Values) ([]byte, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "arcgis."+provider, trace.WithAttributes(
		attribute.String("arcgis.provider", provider),
	))
	defer span.End()

	start := time.Now()
	metrics.ProviderRequestsTotal.WithLabelValues(provider).Inc()

	body, err := c.doFetch(ctx, provider, endpoint, params)

	dur := time.Since(start)
	metrics.ProviderDurationMs.WithLabelValues(provider).Observe(float64(dur.Milliseconds()))
	if err != nil {
		metrics.ProviderFailuresTotal.WithLabelValues(provider, string(model.KindOf(err))).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		zap.L().Warn("arcgis: request failed",
			zap.String("provider", provider),
			zap.Duration("duration", dur),
			zap.Error(err),
		)
		return nil, err
	}

	zap.L().Debug("arcgis: response",
		zap.String("provider", provider),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", dur),
	)
	return body, nil
}

func (c *httpClient) doFetch(ctx context.Context, provider, endpoint string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, model.NewNetworkError(provider, eris.Wrap(err, "arcgis: rate limit"))
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, model.NewNetworkError(provider, eris.Wrap(err, "arcgis: token"))
	}

	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("f", "json")
	q.Set("token", token)

	body, err := resilience.Call(ctx, c.breakers.Get(provider), func(ctx context.Context) ([]byte, error) {
		return c.roundTrip(ctx, endpoint+"?"+q.Encode())
	})
	if err != nil {
		return nil, model.NewNetworkError(provider, err)
	}
	return body, nil
}

func (c *httpClient) roundTrip(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "arcgis: build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "arcgis: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "arcgis: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := eris.Errorf("arcgis: unexpected status %d", resp.StatusCode)
		if resilience.IsTransientStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	var env serviceError
	if json.Unmarshal(body, &env) == nil && env.Error != nil {
		svcErr := eris.Errorf("arcgis: service error %d: %s", env.Error.Code, env.Error.Message)
		if resilience.IsTransientStatus(env.Error.Code) {
			return nil, resilience.NewTransientError(svcErr, env.Error.Code)
		}
		return nil, svcErr
	}

	return body, nil
}

// decode unmarshals body into out, reporting a parse error for op.
func decode(op string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return model.NewParseError(op, eris.Wrap(err, "arcgis: parse response"))
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func shapeError(op, format string, args ...any) error {
	return model.NewParseError(op, eris.New(fmt.Sprintf("arcgis: "+format, args...)))
}
