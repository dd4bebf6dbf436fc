package maintenance

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/weatherwise/weathercore/internal/cache"
	"github.com/weatherwise/weathercore/internal/kvstore"
	"github.com/weatherwise/weathercore/internal/models"
	"github.com/weatherwise/weathercore/internal/offline"
)

func TestRunOnceRemovesExpiredCacheEntries(t *testing.T) {
	store := kvstore.NewMemoryStore()
	m := cache.NewManager(store, nil)

	cache.Set(m, "short", models.WeatherData{ResolvedAddress: "Tokyo"}, time.Millisecond)
	cache.Set(m, "long", models.WeatherData{ResolvedAddress: "Paris"}, time.Hour)
	time.Sleep(10 * time.Millisecond)

	s := NewSweeper(m, nil, 0, 0, nil)
	s.RunOnce()

	// The fresh-session check: a new manager over the same store only sees
	// the surviving entry.
	reader := cache.NewManager(store, nil)
	if _, ok := cache.Get[models.WeatherData](reader, "short"); ok {
		t.Error("expired entry survived the sweep")
	}
	if _, ok := cache.Get[models.WeatherData](reader, "long"); !ok {
		t.Error("valid entry removed by the sweep")
	}
}

func TestRunOnceSweepsOfflineStore(t *testing.T) {
	m := cache.NewManager(kvstore.NewMemoryStore(), nil)
	store, err := offline.Open(filepath.Join(t.TempDir(), "offline.db"), nil)
	if err != nil {
		t.Fatalf("offline.Open failed: %v", err)
	}
	defer store.Close()

	if err := store.CacheWeather("Tokyo", models.WeatherData{ResolvedAddress: "Tokyo"}); err != nil {
		t.Fatalf("CacheWeather failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	s := NewSweeper(m, store, time.Millisecond, 0, nil)
	s.RunOnce()

	if _, ok, _ := store.Weather("Tokyo", 24*time.Hour); ok {
		t.Error("record older than the retention window survived the sweep")
	}
}

func TestStartRunsImmediateSweep(t *testing.T) {
	store := kvstore.NewMemoryStore()
	m := cache.NewManager(store, nil)
	cache.Set(m, "stale", models.WeatherData{}, time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	s := NewSweeper(m, nil, 0, time.Hour, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	reader := cache.NewManager(store, nil)
	if _, ok := cache.Get[models.WeatherData](reader, "stale"); ok {
		t.Error("startup sweep did not run")
	}
}
