// Command weathercore is the composition root: it wires the durable stores,
// provider clients, and orchestrator, then fetches weather for the locations
// given on the command line. With REFRESH_INTERVAL set it keeps refreshing
// (and sweeping expired entries) until interrupted, acting as a cache warmer
// for the dashboard.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/weatherwise/weathercore/internal/cache"
	"github.com/weatherwise/weathercore/internal/client"
	"github.com/weatherwise/weathercore/internal/config"
	"github.com/weatherwise/weathercore/internal/demo"
	"github.com/weatherwise/weathercore/internal/images"
	"github.com/weatherwise/weathercore/internal/kvstore"
	"github.com/weatherwise/weathercore/internal/maintenance"
	"github.com/weatherwise/weathercore/internal/observability"
	"github.com/weatherwise/weathercore/internal/offline"
	"github.com/weatherwise/weathercore/internal/service"
	"github.com/weatherwise/weathercore/internal/usage"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	locations := os.Args[1:]
	if len(locations) == 0 {
		locations = demo.Cities()
	}

	store, err := kvstore.NewBadgerStore(cfg.StoreDir)
	if err != nil {
		logger.Fatal("durable store", zap.Error(err))
	}
	defer store.Close()

	offlineStore, err := offline.Open(cfg.OfflineDB, logger)
	if err != nil {
		logger.Fatal("offline store", zap.Error(err))
	}
	defer offlineStore.Close()

	res := client.ResilienceConfig{
		Timeout:        cfg.HTTPTimeout,
		RateLimit:      rate.Limit(cfg.RateLimitRPS),
		BreakerTrips:   uint32(cfg.BreakerTrips),
		BreakerTimeout: cfg.BreakerTimeout,
	}
	primary := client.NewOpenWeatherClient(cfg.OpenWeatherAPIKey, cfg.OneCallURL, cfg.GeoURL, res, logger)
	secondary := client.NewVisualCrossingClient(cfg.VisualCrossingAPIKey, cfg.TimelineURL, res, logger)
	imageClient := images.NewPexelsClient(cfg.PexelsAPIKey, "", cfg.HTTPTimeout, logger)
	if !primary.Configured() && !secondary.Configured() {
		logger.Info("no provider credential configured, running in demo mode")
	}

	cacheManager := cache.NewManager(store, logger)
	tracker := usage.NewTracker(store, cfg.DailyQuota, logger)

	svc := service.NewService(service.Config{
		Primary:     primary,
		Secondary:   secondary,
		ImageClient: imageClient,
		Cache:       cacheManager,
		Offline:     offlineStore,
		Usage:       tracker,
		Logger:      logger,
		WeatherTTL:  cfg.WeatherTTL,
		GeocodeTTL:  cfg.GeocodeTTL,
		DemoDelay:   cfg.DemoDelay,
	})

	sweeper := maintenance.NewSweeper(cacheManager, offlineStore, cfg.SweepAge, cfg.SweepInterval, logger)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("sweeper", zap.Error(err))
	}
	defer sweeper.Stop()

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.MetricsHandler())
			logger.Info("serving metrics", zap.String("addr", cfg.MetricsAddr))
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Badger reclaims value-log space only when asked.
	go func() {
		gc := time.NewTicker(30 * time.Minute)
		defer gc.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-gc.C:
				store.RunGC()
			}
		}
	}()

	fetchAll(ctx, svc, locations, cfg.OfflineMaxAge, logger)

	if cfg.RefreshInterval > 0 {
		logger.Info("refreshing until interrupted", zap.Duration("interval", cfg.RefreshInterval))
		ticker := time.NewTicker(cfg.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info("shutting down")
				return
			case <-ticker.C:
				fetchAll(ctx, svc, locations, cfg.OfflineMaxAge, logger)
			}
		}
	}
}

func fetchAll(ctx context.Context, svc *service.Service, locations []string, offlineMaxAge time.Duration, logger *zap.Logger) {
	// Warm concurrently first; the per-location reads below are then cache hits.
	if err := svc.Prefetch(ctx, locations); err != nil {
		logger.Warn("prefetch incomplete", zap.Error(err))
	}
	for _, loc := range locations {
		data, err := svc.FetchCurrentAndForecast(ctx, loc)
		if err != nil {
			// A pinned location can still be shown from its offline snapshot.
			snapshot, ok, offErr := svc.OfflineWeather(loc, offlineMaxAge)
			if offErr != nil || !ok {
				logger.Error("fetch failed", zap.String("location", loc), zap.Error(err))
				continue
			}
			logger.Warn("serving offline snapshot", zap.String("location", loc), zap.Error(err))
			data = snapshot
		}
		if cur := data.CurrentConditions; cur != nil {
			fmt.Printf("%-20s %5.1f°C  %s\n", data.ResolvedAddress, cur.Temp, cur.Conditions)
		} else if len(data.Days) > 0 {
			fmt.Printf("%-20s %5.1f°C  %s\n", data.ResolvedAddress, data.Days[0].Temp, data.Days[0].Conditions)
		}
	}
	stats := svc.APIUsage()
	fmt.Printf("API calls today: %d (total: %d)\n", stats.CallsToday, stats.TotalCalls)
}
