package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/weatherwise/weathercore/internal/kvstore"
)

// failingStore errors on every operation, simulating disabled or full storage.
type failingStore struct{}

func (failingStore) GetItem(string) (string, error) { return "", errors.New("storage unavailable") }
func (failingStore) SetItem(string, string) error   { return errors.New("storage unavailable") }
func (failingStore) RemoveItem(string) error        { return errors.New("storage unavailable") }
func (failingStore) Keys(string) ([]string, error)  { return nil, errors.New("storage unavailable") }

type payload struct {
	Temp float64 `json:"temp"`
	City string  `json:"city"`
}

func newTestManager(t *testing.T, store kvstore.Store, at time.Time) *Manager {
	t.Helper()
	m := NewManager(store, nil)
	m.now = func() time.Time { return at }
	return m
}

func TestSetGetRoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 8, 12, 0, 0, 0, time.UTC)
	m := newTestManager(t, kvstore.NewMemoryStore(), now)

	Set(m, "weather-tokyo", payload{Temp: 21.0, City: "Tokyo"}, 30*time.Minute)

	got, ok := Get[payload](m, "weather-tokyo")
	if !ok {
		t.Fatal("Get returned miss for freshly set key")
	}
	if got.Temp != 21.0 || got.City != "Tokyo" {
		t.Errorf("Get = %+v, want Temp=21 City=Tokyo", got)
	}
}

func TestGetMissesAfterTTL(t *testing.T) {
	base := time.Date(2026, 1, 8, 12, 0, 0, 0, time.UTC)
	current := base
	m := NewManager(kvstore.NewMemoryStore(), nil)
	m.now = func() time.Time { return current }

	Set(m, "k", payload{Temp: 5}, 30*time.Minute)

	// Exactly at the TTL boundary the entry is still valid.
	current = base.Add(30 * time.Minute)
	if _, ok := Get[payload](m, "k"); !ok {
		t.Error("entry expired at exactly TTL, want valid")
	}

	current = base.Add(30*time.Minute + time.Millisecond)
	if _, ok := Get[payload](m, "k"); ok {
		t.Error("entry still valid past TTL, want miss")
	}
}

func TestDurablePromotionKeepsTimestamp(t *testing.T) {
	base := time.Date(2026, 1, 8, 12, 0, 0, 0, time.UTC)
	store := kvstore.NewMemoryStore()

	writer := newTestManager(t, store, base)
	Set(writer, "k", payload{Temp: 9}, 30*time.Minute)

	// A fresh manager simulates a new session: memory tier empty, durable
	// tier populated.
	current := base.Add(10 * time.Minute)
	reader := NewManager(store, nil)
	reader.now = func() time.Time { return current }

	got, ok := Get[payload](reader, "k")
	if !ok {
		t.Fatal("durable entry not served to fresh session")
	}
	if got.Temp != 9 {
		t.Errorf("promoted entry Temp = %v, want 9", got.Temp)
	}

	// Promotion must not extend the TTL: the entry expires 30m after the
	// original write, not 30m after promotion.
	current = base.Add(31 * time.Minute)
	if _, ok := Get[payload](reader, "k"); ok {
		t.Error("promoted entry valid past original TTL, want miss")
	}
}

func TestExpiredDurableEntryRemovedOnRead(t *testing.T) {
	base := time.Date(2026, 1, 8, 12, 0, 0, 0, time.UTC)
	store := kvstore.NewMemoryStore()

	writer := newTestManager(t, store, base)
	Set(writer, "k", payload{Temp: 1}, time.Minute)

	reader := newTestManager(t, store, base.Add(time.Hour))
	if _, ok := Get[payload](reader, "k"); ok {
		t.Fatal("expired durable entry served, want miss")
	}

	keys, err := store.Keys(defaultPrefix)
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expired entry still in durable store: %v", keys)
	}
}

func TestCorruptDurableEntryRemoved(t *testing.T) {
	store := kvstore.NewMemoryStore()
	if err := store.SetItem(defaultPrefix+"bad", "{not json"); err != nil {
		t.Fatalf("SetItem failed: %v", err)
	}

	m := newTestManager(t, store, time.Now())
	if _, ok := m.GetRaw("bad"); ok {
		t.Fatal("corrupt entry served, want miss")
	}
	if _, err := store.GetItem(defaultPrefix + "bad"); err != kvstore.ErrNotFound {
		t.Errorf("corrupt entry not removed, err = %v", err)
	}
}

func TestDurableFailureDegradesToMemoryOnly(t *testing.T) {
	m := newTestManager(t, failingStore{}, time.Now())

	Set(m, "k", payload{Temp: 7}, time.Hour)

	got, ok := Get[payload](m, "k")
	if !ok {
		t.Fatal("memory tier miss after durable write failure")
	}
	if got.Temp != 7 {
		t.Errorf("Temp = %v, want 7", got.Temp)
	}
}

func TestClearEmptiesBothTiers(t *testing.T) {
	store := kvstore.NewMemoryStore()
	m := newTestManager(t, store, time.Now())

	Set(m, "a", payload{Temp: 1}, time.Hour)
	Set(m, "b", payload{Temp: 2}, time.Hour)
	// A foreign key outside the cache namespace must survive Clear.
	if err := store.SetItem("weathercore-api-usage", "{}"); err != nil {
		t.Fatalf("SetItem failed: %v", err)
	}

	m.Clear()

	if _, ok := Get[payload](m, "a"); ok {
		t.Error("key a survived Clear")
	}
	keys, _ := store.Keys(defaultPrefix)
	if len(keys) != 0 {
		t.Errorf("durable namespace not empty after Clear: %v", keys)
	}
	if _, err := store.GetItem("weathercore-api-usage"); err != nil {
		t.Errorf("foreign key removed by Clear: %v", err)
	}
}

func TestCleanupRemovesOnlyExpired(t *testing.T) {
	base := time.Date(2026, 1, 8, 12, 0, 0, 0, time.UTC)
	current := base
	store := kvstore.NewMemoryStore()
	m := NewManager(store, nil)
	m.now = func() time.Time { return current }

	Set(m, "short", payload{Temp: 1}, time.Minute)
	Set(m, "long", payload{Temp: 2}, time.Hour)

	current = base.Add(10 * time.Minute)
	if removed := m.Cleanup(); removed != 1 {
		t.Errorf("Cleanup removed %d entries, want 1", removed)
	}

	keys, _ := store.Keys(defaultPrefix)
	if len(keys) != 1 {
		t.Fatalf("durable store has %d entries after Cleanup, want 1", len(keys))
	}

	// The fresh session check: a new manager still sees the surviving entry.
	reader := NewManager(store, nil)
	reader.now = func() time.Time { return current }
	if _, ok := Get[payload](reader, "long"); !ok {
		t.Error("valid entry lost after Cleanup")
	}
}
