// Package service implements the weather fetch orchestrator: cache lookup,
// deduplicated fetch, provider failover (primary -> secondary -> demo data),
// canonical transform, cache write, and usage accounting.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weatherwise/weathercore/internal/cache"
	"github.com/weatherwise/weathercore/internal/client"
	"github.com/weatherwise/weathercore/internal/dedup"
	"github.com/weatherwise/weathercore/internal/demo"
	"github.com/weatherwise/weathercore/internal/images"
	"github.com/weatherwise/weathercore/internal/models"
	"github.com/weatherwise/weathercore/internal/observability"
	"github.com/weatherwise/weathercore/internal/offline"
	"github.com/weatherwise/weathercore/internal/usage"
)

// Cache TTLs. Weather goes stale in minutes; coordinates never move, so
// geocode results are cached a full day.
const (
	DefaultWeatherTTL = 30 * time.Minute
	DefaultGeocodeTTL = 24 * time.Hour
	DefaultDemoDelay  = 500 * time.Millisecond
)

// PrimaryProvider is the two-step primary upstream: geocode, then a combined
// current+forecast fetch.
type PrimaryProvider interface {
	Configured() bool
	Geocode(ctx context.Context, location string) (client.Coordinates, error)
	FetchForecast(ctx context.Context, location string, coords client.Coordinates) (models.WeatherData, error)
}

// SecondaryProvider is the fallback upstream, taking the free-text location
// and a date range directly.
type SecondaryProvider interface {
	Configured() bool
	FetchTimeline(ctx context.Context, location string, start, end time.Time) (models.WeatherData, error)
}

// ImageProvider resolves a representative photo URL for a destination.
type ImageProvider interface {
	Configured() bool
	LocationImageURL(ctx context.Context, location string) (string, error)
}

// Service is the orchestrator. Construct with NewService; all fields are
// required except offline and imageClient, which may be nil.
type Service struct {
	primary     PrimaryProvider
	secondary   SecondaryProvider
	imageClient ImageProvider
	cache       *cache.Manager
	offline     *offline.Store
	usage       *usage.Tracker
	dedup       *dedup.Deduplicator
	logger      *zap.Logger
	now         func() time.Time

	weatherTTL time.Duration
	geocodeTTL time.Duration
	demoDelay  time.Duration

	mu    sync.Mutex
	saved map[string]bool // locations pinned for offline use, as supplied
}

// Config carries the orchestrator's dependencies and tunables. Zero
// durations use the package defaults.
type Config struct {
	Primary     PrimaryProvider
	Secondary   SecondaryProvider
	ImageClient ImageProvider
	Cache       *cache.Manager
	Offline     *offline.Store
	Usage       *usage.Tracker
	Logger      *zap.Logger

	WeatherTTL time.Duration
	GeocodeTTL time.Duration
	DemoDelay  time.Duration
}

// NewService creates the orchestrator.
func NewService(cfg Config) *Service {
	if cfg.WeatherTTL <= 0 {
		cfg.WeatherTTL = DefaultWeatherTTL
	}
	if cfg.GeocodeTTL <= 0 {
		cfg.GeocodeTTL = DefaultGeocodeTTL
	}
	if cfg.DemoDelay <= 0 {
		cfg.DemoDelay = DefaultDemoDelay
	}
	return &Service{
		primary:     cfg.Primary,
		secondary:   cfg.Secondary,
		imageClient: cfg.ImageClient,
		cache:       cfg.Cache,
		offline:     cfg.Offline,
		usage:       cfg.Usage,
		dedup:       dedup.New(),
		logger:      cfg.Logger,
		now:         time.Now,
		weatherTTL:  cfg.WeatherTTL,
		geocodeTTL:  cfg.GeocodeTTL,
		demoDelay:   cfg.DemoDelay,
		saved:       make(map[string]bool),
	}
}

// normalizeLocation produces the cache/dedup key form of a location. The
// offline store deliberately keeps the location as supplied.
func normalizeLocation(location string) string {
	return strings.ToLower(strings.TrimSpace(location))
}

func weatherCacheKey(location string) string {
	return "weather-" + normalizeLocation(location)
}

func geocodeCacheKey(location string) string {
	return "geocode-" + normalizeLocation(location)
}

// FetchCurrentAndForecast returns current conditions plus the 7-day forecast
// for location. With no provider configured it serves the static demo
// dataset after an artificial delay. Otherwise: cache, then a deduplicated
// fetch through the failover chain. Concurrent callers for the same location
// share one in-flight fetch and one outcome.
func (s *Service) FetchCurrentAndForecast(ctx context.Context, location string) (models.WeatherData, error) {
	if !s.primary.Configured() && !s.secondary.Configured() {
		if s.logger != nil {
			s.logger.Info("demo mode, serving static data", zap.String("location", location))
		}
		select {
		case <-ctx.Done():
			return models.WeatherData{}, ctx.Err()
		case <-time.After(s.demoDelay):
		}
		return demo.Get(location), nil
	}

	if data, ok := cache.Get[models.WeatherData](s.cache, weatherCacheKey(location)); ok {
		return data, nil
	}
	observability.CacheMissesTotal.Inc()

	requestID := uuid.NewString()
	if s.logger != nil {
		s.logger.Debug("cache miss, fetching upstream",
			zap.String("location", location), zap.String("request_id", requestID))
	}

	// The flight deliberately outlives the caller: a consumer that stops
	// waiting does not abort the fetch, and the completed result still
	// populates the cache for the next caller.
	flightCtx := context.WithoutCancel(ctx)
	data, shared, err := dedup.Do(s.dedup, dedup.WeatherKeyPrefix+normalizeLocation(location), func() (models.WeatherData, error) {
		return s.fetchUpstream(flightCtx, location, requestID)
	})
	if err != nil {
		return models.WeatherData{}, err
	}
	if shared && s.logger != nil {
		s.logger.Debug("joined in-flight fetch", zap.String("location", location))
	}
	return data, nil
}

// fetchUpstream walks the failover chain. Every successful fetch ends with a
// cache write, an optional offline write-through, and a usage increment
// inside the respective fetch helper.
func (s *Service) fetchUpstream(ctx context.Context, location, requestID string) (models.WeatherData, error) {
	if s.primary.Configured() {
		data, err := s.fetchPrimary(ctx, location)
		if err == nil {
			return data, nil
		}
		if s.logger != nil {
			s.logger.Warn("primary provider failed",
				zap.String("location", location),
				zap.String("request_id", requestID),
				zap.String("category", string(client.CategorizeError(err))),
				zap.Error(err))
		}
		if !s.secondary.Configured() {
			return models.WeatherData{}, fmt.Errorf("fetch weather for %s: %w", location, err)
		}
		observability.ProviderFailoverTotal.Inc()
		data, err2 := s.fetchSecondary(ctx, location)
		if err2 != nil {
			// Both providers failed; surface the most recent error.
			return models.WeatherData{}, fmt.Errorf("fetch weather for %s: %w", location, err2)
		}
		return data, nil
	}

	if !s.secondary.Configured() {
		return models.WeatherData{}, fmt.Errorf("fetch weather for %s: %w", location, client.ErrNoProvider)
	}
	data, err := s.fetchSecondary(ctx, location)
	if err != nil {
		return models.WeatherData{}, fmt.Errorf("fetch weather for %s: %w", location, err)
	}
	return data, nil
}

// geocode resolves location coordinates through the 24h cache and its own
// dedup key family, so a pending geocode never merges with a weather fetch.
func (s *Service) geocode(ctx context.Context, location string) (client.Coordinates, error) {
	key := geocodeCacheKey(location)
	if coords, ok := cache.Get[client.Coordinates](s.cache, key); ok {
		return coords, nil
	}

	coords, _, err := dedup.Do(s.dedup, dedup.GeocodeKeyPrefix+normalizeLocation(location), func() (client.Coordinates, error) {
		coords, err := s.primary.Geocode(ctx, location)
		if err != nil {
			return client.Coordinates{}, err
		}
		s.usage.RecordCall()
		cache.Set(s.cache, key, coords, s.geocodeTTL)
		return coords, nil
	})
	return coords, err
}

func (s *Service) fetchPrimary(ctx context.Context, location string) (models.WeatherData, error) {
	coords, err := s.geocode(ctx, location)
	if err != nil {
		return models.WeatherData{}, err
	}
	data, err := s.primary.FetchForecast(ctx, location, coords)
	if err != nil {
		return models.WeatherData{}, err
	}
	s.usage.RecordCall()
	cache.Set(s.cache, weatherCacheKey(location), data, s.weatherTTL)
	s.persistOffline(location, data)
	return data, nil
}

func (s *Service) fetchSecondary(ctx context.Context, location string) (models.WeatherData, error) {
	start := s.now()
	data, err := s.secondary.FetchTimeline(ctx, location, start, start.AddDate(0, 0, 7))
	if err != nil {
		return models.WeatherData{}, err
	}
	s.usage.RecordCall()
	cache.Set(s.cache, weatherCacheKey(location), data, s.weatherTTL)
	s.persistOffline(location, data)
	return data, nil
}

// persistOffline writes through to the offline store for pinned locations.
// Failures are logged, never surfaced: offline persistence must not break a
// successful fetch.
func (s *Service) persistOffline(location string, data models.WeatherData) {
	if s.offline == nil {
		return
	}
	s.mu.Lock()
	pinned := s.saved[location]
	s.mu.Unlock()
	if !pinned {
		return
	}
	if err := s.offline.CacheWeather(location, data); err != nil {
		if s.logger != nil {
			s.logger.Warn("offline write failed", zap.String("location", location), zap.Error(err))
		}
	}
}

// SaveOffline pins location for offline use and stores its current weather
// immediately (fetching if needed).
func (s *Service) SaveOffline(ctx context.Context, location string) error {
	if s.offline == nil {
		return fmt.Errorf("offline store not configured")
	}
	s.mu.Lock()
	s.saved[location] = true
	s.mu.Unlock()

	data, err := s.FetchCurrentAndForecast(ctx, location)
	if err != nil {
		return err
	}
	return s.offline.CacheWeather(location, data)
}

// RemoveOffline unpins location and drops its offline records.
func (s *Service) RemoveOffline(location string) error {
	if s.offline == nil {
		return nil
	}
	s.mu.Lock()
	delete(s.saved, location)
	s.mu.Unlock()

	if err := s.offline.RemoveWeather(location); err != nil {
		return err
	}
	return s.offline.RemoveImage(location)
}

// OfflineWeather returns the pinned snapshot for location if one is stored
// and fresh enough (maxAge <= 0 uses the store default).
func (s *Service) OfflineWeather(location string, maxAge time.Duration) (models.WeatherData, bool, error) {
	if s.offline == nil {
		return models.WeatherData{}, false, nil
	}
	return s.offline.Weather(location, maxAge)
}

// LocationImage returns a photo URL for the destination, preferring the
// offline cache, then the image provider, then a deterministic gradient.
// Never fails; the gradient is always available.
func (s *Service) LocationImage(ctx context.Context, location string) string {
	if s.offline != nil {
		if url, ok, err := s.offline.Image(location, 0); err == nil && ok {
			return url
		}
	}
	if s.imageClient != nil && s.imageClient.Configured() {
		flightCtx := context.WithoutCancel(ctx)
		url, _, err := dedup.Do(s.dedup, dedup.ImageKeyPrefix+normalizeLocation(location), func() (string, error) {
			return s.imageClient.LocationImageURL(flightCtx, location)
		})
		if err == nil {
			if s.offline != nil {
				if cacheErr := s.offline.CacheImage(location, url); cacheErr != nil && s.logger != nil {
					s.logger.Warn("image cache write failed", zap.String("location", location), zap.Error(cacheErr))
				}
			}
			return url
		}
		if s.logger != nil {
			s.logger.Debug("image lookup failed, using gradient", zap.String("location", location), zap.Error(err))
		}
	}
	return images.Gradient(location)
}

// APIUsage returns current quota consumption, rolled over if midnight passed.
func (s *Service) APIUsage() models.UsageStats {
	return s.usage.Stats()
}

// ClearWeatherCache drops both cache tiers for every weather and geocode key.
func (s *Service) ClearWeatherCache() {
	s.cache.Clear()
	if s.logger != nil {
		s.logger.Info("weather cache cleared")
	}
}
