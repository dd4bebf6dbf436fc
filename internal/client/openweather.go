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

// Default OpenWeatherMap endpoints. One Call 3.0 returns current conditions
// plus the multi-day forecast in a single request, which is what keeps the
// free tier workable.
const (
	DefaultOneCallURL = "https://api.openweathermap.org/data/3.0/onecall"
	DefaultGeoURL     = "https://api.openweathermap.org/geo/1.0/direct"
)

const providerOpenWeather = "openweather"

// Coordinates is a geocoded location.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// OpenWeatherClient is the primary provider: free-text geocoding plus the
// One Call current+forecast endpoint, both metric units.
type OpenWeatherClient struct {
	apiKey     string
	oneCallURL string
	geoURL     string
	doer       httpDoer
	logger     *zap.Logger
}

// NewOpenWeatherClient creates the primary provider client. An empty apiKey
// yields an unconfigured client (Configured() == false); the orchestrator
// then skips straight to the fallback or demo path.
func NewOpenWeatherClient(apiKey, oneCallURL, geoURL string, res ResilienceConfig, logger *zap.Logger) *OpenWeatherClient {
	if oneCallURL == "" {
		oneCallURL = DefaultOneCallURL
	}
	if geoURL == "" {
		geoURL = DefaultGeoURL
	}
	if res.BreakerName == "" {
		res.BreakerName = providerOpenWeather
	}
	return &OpenWeatherClient{
		apiKey:     apiKey,
		oneCallURL: oneCallURL,
		geoURL:     geoURL,
		doer:       newHTTPDoer(res),
		logger:     logger,
	}
}

// Configured reports whether a credential is present.
func (c *OpenWeatherClient) Configured() bool {
	return c.apiKey != ""
}

type geoResult struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Geocode resolves a free-text location to coordinates. An empty result set
// is a location-not-found condition.
func (c *OpenWeatherClient) Geocode(ctx context.Context, location string) (Coordinates, error) {
	params := url.Values{}
	params.Set("q", location)
	params.Set("limit", "1")
	params.Set("appid", c.apiKey)

	var results []geoResult
	if err := c.getJSON(ctx, c.geoURL+"?"+params.Encode(), &results); err != nil {
		return Coordinates{}, err
	}
	if len(results) == 0 {
		return Coordinates{}, fmt.Errorf("%w: %s", ErrLocationNotFound, location)
	}
	return Coordinates{Lat: results[0].Lat, Lon: results[0].Lon}, nil
}

// oneCallResponse is the subset of the One Call 3.0 payload we consume.
type oneCallResponse struct {
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	Timezone       string  `json:"timezone"`
	TimezoneOffset float64 `json:"timezone_offset"`
	Current        struct {
		Dt         int64        `json:"dt"`
		Sunrise    int64        `json:"sunrise"`
		Sunset     int64        `json:"sunset"`
		Temp       float64      `json:"temp"`
		FeelsLike  float64      `json:"feels_like"`
		Pressure   float64      `json:"pressure"`
		Humidity   float64      `json:"humidity"`
		UVI        float64      `json:"uvi"`
		Clouds     float64      `json:"clouds"`
		Visibility float64      `json:"visibility"`
		WindSpeed  float64      `json:"wind_speed"`
		WindDeg    float64      `json:"wind_deg"`
		WindGust   float64      `json:"wind_gust"`
		Weather    []owmWeather `json:"weather"`
	} `json:"current"`
	Daily []owmDaily `json:"daily"`
}

type owmWeather struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owmDaily struct {
	Dt        int64   `json:"dt"`
	Sunrise   int64   `json:"sunrise"`
	Sunset    int64   `json:"sunset"`
	MoonPhase float64 `json:"moon_phase"`
	Temp      struct {
		Day float64 `json:"day"`
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	} `json:"temp"`
	FeelsLike struct {
		Day float64 `json:"day"`
	} `json:"feels_like"`
	Pressure  float64      `json:"pressure"`
	Humidity  float64      `json:"humidity"`
	WindSpeed float64      `json:"wind_speed"`
	WindDeg   float64      `json:"wind_deg"`
	WindGust  float64      `json:"wind_gust"`
	Clouds    float64      `json:"clouds"`
	Pop       float64      `json:"pop"`
	Rain      float64      `json:"rain"`
	Snow      float64      `json:"snow"`
	UVI       float64      `json:"uvi"`
	Weather   []owmWeather `json:"weather"`
}

// FetchForecast fetches current conditions plus the daily forecast for coords
// and transforms the payload into the canonical shape. location is the
// original query string, kept as the payload address.
func (c *OpenWeatherClient) FetchForecast(ctx context.Context, location string, coords Coordinates) (models.WeatherData, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", coords.Lat))
	params.Set("lon", fmt.Sprintf("%f", coords.Lon))
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	// Trim the payload to what the dashboard renders.
	params.Set("exclude", "minutely,hourly,alerts")

	var resp oneCallResponse
	if err := c.getJSON(ctx, c.oneCallURL+"?"+params.Encode(), &resp); err != nil {
		return models.WeatherData{}, err
	}

	address := fmt.Sprintf("%.2f, %.2f", coords.Lat, coords.Lon)
	return transformOneCall(resp, location, address), nil
}

// getJSON performs one resilient GET and decodes the response body.
func (c *OpenWeatherClient) getJSON(ctx context.Context, rawURL string, out any) error {
	start := time.Now()
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.do(ctx, req)
	if err != nil {
		observability.ProviderCallsTotal.WithLabelValues(providerOpenWeather, string(CategorizeError(err))).Inc()
		return err
	}
	defer resp.Body.Close()
	observability.ProviderDuration.WithLabelValues(providerOpenWeather).Observe(time.Since(start).Seconds())

	if err := classifyStatus(resp.StatusCode, http.StatusNotFound); err != nil {
		observability.ProviderCallsTotal.WithLabelValues(providerOpenWeather, string(CategorizeError(err))).Inc()
		return err
	}
	observability.ProviderCallsTotal.WithLabelValues(providerOpenWeather, "success").Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// transformOneCall maps the One Call payload to the canonical shape.
// Temperatures arrive in Celsius (units=metric) and are passed through
// untouched. Fields One Call does not provide (solar, snow depth, daily
// visibility) are zero or a documented stand-in.
func transformOneCall(resp oneCallResponse, location, address string) models.WeatherData {
	days := make([]models.WeatherDay, 0, len(resp.Daily))
	for i, d := range resp.Daily {
		if i >= 8 {
			break
		}
		var precipType []string
		if d.Rain > 0 {
			precipType = []string{"rain"}
		} else if d.Snow > 0 {
			precipType = []string{"snow"}
		}
		day := models.WeatherDay{
			WeatherConditions: models.WeatherConditions{
				Datetime:      time.Unix(d.Dt, 0).UTC().Format("2006-01-02"),
				DatetimeEpoch: d.Dt,
				Temp:          d.Temp.Day,
				FeelsLike:     d.FeelsLike.Day,
				Humidity:      d.Humidity,
				Precip:        d.Rain + d.Snow,
				PrecipProb:    d.Pop * 100, // One Call reports 0-1
				PrecipType:    precipType,
				Snow:          d.Snow,
				WindGust:      windGust(d.WindGust, d.WindSpeed),
				WindSpeed:     d.WindSpeed,
				WindDir:       d.WindDeg,
				Pressure:      d.Pressure,
				CloudCover:    d.Clouds,
				Visibility:    10000, // not provided per day
				UVIndex:       d.UVI,
				Sunrise:       time.Unix(d.Sunrise, 0).UTC().Format(time.RFC3339),
				Sunset:        time.Unix(d.Sunset, 0).UTC().Format(time.RFC3339),
				MoonPhase:     d.MoonPhase,
			},
			TempMax: d.Temp.Max,
			TempMin: d.Temp.Min,
		}
		if len(d.Weather) > 0 {
			day.Conditions = d.Weather[0].Main
			day.Description = d.Weather[0].Description
			day.Icon = d.Weather[0].Icon
		}
		days = append(days, day)
	}

	cur := resp.Current
	current := models.WeatherConditions{
		Datetime:      time.Unix(cur.Dt, 0).UTC().Format(time.RFC3339),
		DatetimeEpoch: cur.Dt,
		Temp:          cur.Temp,
		FeelsLike:     cur.FeelsLike,
		Humidity:      cur.Humidity,
		WindGust:      windGust(cur.WindGust, cur.WindSpeed),
		WindSpeed:     cur.WindSpeed,
		WindDir:       cur.WindDeg,
		Pressure:      cur.Pressure,
		CloudCover:    cur.Clouds,
		Visibility:    cur.Visibility,
		UVIndex:       cur.UVI,
		Sunrise:       time.Unix(cur.Sunrise, 0).UTC().Format(time.RFC3339),
		Sunset:        time.Unix(cur.Sunset, 0).UTC().Format(time.RFC3339),
	}
	if len(cur.Weather) > 0 {
		current.Conditions = cur.Weather[0].Main
		current.Description = cur.Weather[0].Description
		current.Icon = cur.Weather[0].Icon
	}

	return models.WeatherData{
		QueryCost:         1,
		Latitude:          resp.Lat,
		Longitude:         resp.Lon,
		ResolvedAddress:   address,
		Address:           location,
		Timezone:          resp.Timezone,
		TZOffset:          resp.TimezoneOffset / 3600,
		Days:              days,
		CurrentConditions: &current,
	}
}

func windGust(gust, speed float64) float64 {
	if gust > 0 {
		return gust
	}
	return speed
}
