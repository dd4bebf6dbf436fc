package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration loaded from YAML and env.
// Credentials are optional: with no key configured the service runs in
// demo mode.
type Config struct {
	OpenWeatherAPIKey    string
	VisualCrossingAPIKey string
	PexelsAPIKey         string

	OneCallURL  string
	GeoURL      string
	TimelineURL string

	HTTPTimeout    time.Duration
	RateLimitRPS   float64 // outbound requests/sec per provider; 0 disables
	BreakerTrips   int     // consecutive failures before the breaker opens; 0 disables
	BreakerTimeout time.Duration

	WeatherTTL    time.Duration
	GeocodeTTL    time.Duration
	OfflineMaxAge time.Duration // per-read freshness for offline records
	SweepAge      time.Duration // retention for the coarse sweep
	SweepInterval time.Duration

	DailyQuota int64
	DemoDelay  time.Duration

	StoreDir    string // badger directory for the durable cache tier
	OfflineDB   string // sqlite path for the offline store
	MetricsAddr string

	RefreshInterval time.Duration // 0 = fetch once and exit
}

type fileConfig struct {
	Providers struct {
		OneCallURL  string  `yaml:"onecall_url"`
		GeoURL      string  `yaml:"geo_url"`
		TimelineURL string  `yaml:"timeline_url"`
		HTTPTimeout string  `yaml:"http_timeout"`
		RateLimit   float64 `yaml:"rate_limit_rps"`
		Breaker     struct {
			Trips   int    `yaml:"trips"`
			Timeout string `yaml:"timeout"`
		} `yaml:"breaker"`
	} `yaml:"providers"`

	Cache struct {
		WeatherTTL    string `yaml:"weather_ttl"`
		GeocodeTTL    string `yaml:"geocode_ttl"`
		OfflineMaxAge string `yaml:"offline_max_age"`
		SweepAge      string `yaml:"sweep_age"`
		SweepInterval string `yaml:"sweep_interval"`
		StoreDir      string `yaml:"store_dir"`
		OfflineDB     string `yaml:"offline_db"`
	} `yaml:"cache"`

	Usage struct {
		DailyQuota int64 `yaml:"daily_quota"`
	} `yaml:"usage"`

	Demo struct {
		Delay string `yaml:"delay"`
	} `yaml:"demo"`

	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`

	RefreshInterval string `yaml:"refresh_interval"`
}

type secretsFile struct {
	OpenWeatherAPIKey    string `yaml:"openweather_api_key"`
	VisualCrossingAPIKey string `yaml:"visual_crossing_api_key"`
	PexelsAPIKey         string `yaml:"pexels_api_key"`
}

// Load reads configuration. A .env file is applied first if present, then
// config/{ENV_NAME}.yaml (default dev) when it exists, then env variables
// override. A missing config file is not an error: all settings have
// defaults and all credentials are optional.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	var fc fileConfig

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}
	if cwd, err := os.Getwd(); err == nil {
		configPath := filepath.Join(cwd, "config", env+".yaml")
		if data, err := os.ReadFile(configPath); err == nil {
			if err := yaml.Unmarshal(data, &fc); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
			}
		}
		secretsPath := filepath.Join(cwd, "config", "secrets.yaml")
		if data, err := os.ReadFile(secretsPath); err == nil {
			var sec secretsFile
			if err := yaml.Unmarshal(data, &sec); err != nil {
				return nil, fmt.Errorf("parse secrets file: %w", err)
			}
			cfg.OpenWeatherAPIKey = sec.OpenWeatherAPIKey
			cfg.VisualCrossingAPIKey = sec.VisualCrossingAPIKey
			cfg.PexelsAPIKey = sec.PexelsAPIKey
		}
	}

	if v := os.Getenv("OPENWEATHER_API_KEY"); v != "" {
		cfg.OpenWeatherAPIKey = v
	}
	if v := os.Getenv("VISUAL_CROSSING_API_KEY"); v != "" {
		cfg.VisualCrossingAPIKey = v
	}
	if v := os.Getenv("PEXELS_API_KEY"); v != "" {
		cfg.PexelsAPIKey = v
	}

	cfg.OneCallURL = fc.Providers.OneCallURL
	cfg.GeoURL = fc.Providers.GeoURL
	cfg.TimelineURL = fc.Providers.TimelineURL
	cfg.HTTPTimeout = parseDuration(fc.Providers.HTTPTimeout, 10*time.Second)
	cfg.RateLimitRPS = fc.Providers.RateLimit
	cfg.BreakerTrips = fc.Providers.Breaker.Trips
	if cfg.BreakerTrips <= 0 {
		cfg.BreakerTrips = 5
	}
	cfg.BreakerTimeout = parseDuration(fc.Providers.Breaker.Timeout, time.Minute)

	cfg.WeatherTTL = parseDuration(fc.Cache.WeatherTTL, 30*time.Minute)
	cfg.GeocodeTTL = parseDuration(fc.Cache.GeocodeTTL, 24*time.Hour)
	cfg.OfflineMaxAge = parseDuration(fc.Cache.OfflineMaxAge, 30*time.Minute)
	cfg.SweepAge = parseDuration(fc.Cache.SweepAge, 24*time.Hour)
	cfg.SweepInterval = parseDuration(fc.Cache.SweepInterval, time.Hour)

	cfg.StoreDir = firstNonEmpty(os.Getenv("STORE_DIR"), fc.Cache.StoreDir, defaultDataPath("store"))
	cfg.OfflineDB = firstNonEmpty(os.Getenv("OFFLINE_DB"), fc.Cache.OfflineDB, defaultDataPath("offline.db"))

	cfg.DailyQuota = fc.Usage.DailyQuota
	if cfg.DailyQuota <= 0 {
		cfg.DailyQuota = 1000
	}
	cfg.DemoDelay = parseDuration(fc.Demo.Delay, 500*time.Millisecond)

	cfg.MetricsAddr = firstNonEmpty(os.Getenv("METRICS_ADDR"), fc.Metrics.Addr)
	cfg.RefreshInterval = parseDuration(fc.RefreshInterval, 0)
	if v := os.Getenv("REFRESH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RefreshInterval = d
		}
	}

	return cfg, nil
}

// defaultDataPath places data under the user cache dir, falling back to a
// local directory when the platform gives us nothing.
func defaultDataPath(name string) string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = ".weathercore"
	} else {
		base = filepath.Join(base, "weathercore")
	}
	return filepath.Join(base, name)
}

// parseDuration parses a duration string, returning defaultVal on empty
// string, parse error, or non-positive result.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
