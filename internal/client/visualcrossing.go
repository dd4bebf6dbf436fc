package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/weatherwise/weathercore/internal/models"
	"github.com/weatherwise/weathercore/internal/observability"
)

// DefaultTimelineURL is the Visual Crossing timeline endpoint root.
const DefaultTimelineURL = "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline"

const providerVisualCrossing = "visualcrossing"

// VisualCrossingClient is the secondary provider. Its timeline API takes the
// free-text location directly (no separate geocoding call) and its response
// is already the canonical shape, so the transform is a plain decode.
type VisualCrossingClient struct {
	apiKey  string
	baseURL string
	doer    httpDoer
	logger  *zap.Logger
}

// NewVisualCrossingClient creates the secondary provider client. An empty
// apiKey yields an unconfigured client.
func NewVisualCrossingClient(apiKey, baseURL string, res ResilienceConfig, logger *zap.Logger) *VisualCrossingClient {
	if baseURL == "" {
		baseURL = DefaultTimelineURL
	}
	if res.BreakerName == "" {
		res.BreakerName = providerVisualCrossing
	}
	return &VisualCrossingClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		doer:    newHTTPDoer(res),
		logger:  logger,
	}
}

// Configured reports whether a credential is present.
func (c *VisualCrossingClient) Configured() bool {
	return c.apiKey != ""
}

// FetchTimeline fetches current conditions and the daily forecast between
// start and end (inclusive) for a free-text location.
func (c *VisualCrossingClient) FetchTimeline(ctx context.Context, location string, start, end time.Time) (models.WeatherData, error) {
	reqURL := fmt.Sprintf("%s/%s/%s/%s",
		c.baseURL,
		url.PathEscape(location),
		start.Format("2006-01-02"),
		end.Format("2006-01-02"),
	)
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("unitGroup", "metric")
	params.Set("include", "current")
	params.Set("contentType", "json")

	startedAt := time.Now()
	req, err := http.NewRequest(http.MethodGet, reqURL+"?"+params.Encode(), nil)
	if err != nil {
		return models.WeatherData{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.do(ctx, req)
	if err != nil {
		observability.ProviderCallsTotal.WithLabelValues(providerVisualCrossing, string(CategorizeError(err))).Inc()
		return models.WeatherData{}, err
	}
	defer resp.Body.Close()
	observability.ProviderDuration.WithLabelValues(providerVisualCrossing).Observe(time.Since(startedAt).Seconds())

	// Visual Crossing answers 400, not 404, for an unresolvable location.
	if err := classifyStatus(resp.StatusCode, http.StatusBadRequest); err != nil {
		observability.ProviderCallsTotal.WithLabelValues(providerVisualCrossing, string(CategorizeError(err))).Inc()
		if err == ErrLocationNotFound {
			return models.WeatherData{}, fmt.Errorf("%w: %s", ErrLocationNotFound, location)
		}
		return models.WeatherData{}, err
	}
	observability.ProviderCallsTotal.WithLabelValues(providerVisualCrossing, "success").Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.WeatherData{}, fmt.Errorf("read response body: %w", err)
	}
	var data models.WeatherData
	if err := json.Unmarshal(body, &data); err != nil {
		return models.WeatherData{}, fmt.Errorf("parse response: %w", err)
	}
	if data.Address == "" {
		data.Address = location
	}
	return data, nil
}
