// Package cache implements the two-tier TTL cache: a fast in-process map in
// front of a durable key-value store. The memory tier is authoritative for the
// current session; the durable tier lets a fresh process reuse data that is
// still within TTL. Durable-store failures never propagate; they degrade to
// a miss on read and a memory-only write on set.
package cache

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/weatherwise/weathercore/internal/kvstore"
	"github.com/weatherwise/weathercore/internal/observability"
)

const defaultPrefix = "weathercore-cache-"

// entry is the stored envelope. Entries are immutable once written; a Set for
// an existing key replaces the whole envelope.
type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // epoch milliseconds at write
	TTL       int64           `json:"ttl"`       // milliseconds
}

// Manager is the two-tier cache. Safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	memory  map[string]entry
	durable kvstore.Store
	prefix  string
	logger  *zap.Logger
	now     func() time.Time
}

// NewManager creates a Manager backed by the given durable store. logger may
// be nil.
func NewManager(durable kvstore.Store, logger *zap.Logger) *Manager {
	return &Manager{
		memory:  make(map[string]entry),
		durable: durable,
		prefix:  defaultPrefix,
		logger:  logger,
		now:     time.Now,
	}
}

func (m *Manager) expired(e entry) bool {
	return m.now().UnixMilli()-e.Timestamp > e.TTL
}

// GetRaw returns the cached bytes for key if present and within TTL, checking
// the memory tier first and falling back to the durable tier. A valid durable
// entry is promoted into the memory tier; an expired durable entry is removed
// as a side effect. Durable I/O failures are logged and treated as a miss.
func (m *Manager) GetRaw(key string) (json.RawMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.memory[key]; ok && !m.expired(e) {
		observability.CacheHitsTotal.WithLabelValues("memory").Inc()
		return e.Data, true
	}

	storageKey := m.prefix + key
	raw, err := m.durable.GetItem(storageKey)
	if err != nil {
		if err != kvstore.ErrNotFound {
			observability.PersistenceWarningsTotal.WithLabelValues("get").Inc()
			if m.logger != nil {
				m.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
			}
		}
		return nil, false
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		observability.PersistenceWarningsTotal.WithLabelValues("get").Inc()
		if m.logger != nil {
			m.logger.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		}
		m.removeDurable(storageKey)
		return nil, false
	}
	if m.expired(e) {
		m.removeDurable(storageKey)
		return nil, false
	}

	// Promote so subsequent reads skip the durable tier. The original write
	// timestamp is kept; promotion does not extend the TTL.
	m.memory[key] = e
	observability.CacheHitsTotal.WithLabelValues("durable").Inc()
	return e.Data, true
}

// SetRaw writes to both tiers, replacing any previous entry. A durable write
// failure (quota, disabled storage) leaves the memory tier as the sole copy.
func (m *Manager) SetRaw(key string, data json.RawMessage, ttl time.Duration) {
	e := entry{
		Data:      data,
		Timestamp: m.now().UnixMilli(),
		TTL:       ttl.Milliseconds(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.memory[key] = e

	raw, err := json.Marshal(e)
	if err == nil {
		err = m.durable.SetItem(m.prefix+key, string(raw))
	}
	if err != nil {
		observability.PersistenceWarningsTotal.WithLabelValues("set").Inc()
		if m.logger != nil {
			m.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// Clear empties the memory tier and removes every durable entry under this
// cache's namespace prefix.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memory = make(map[string]entry)

	keys, err := m.durable.Keys(m.prefix)
	if err != nil {
		observability.PersistenceWarningsTotal.WithLabelValues("clear").Inc()
		if m.logger != nil {
			m.logger.Warn("cache clear scan failed", zap.Error(err))
		}
		return
	}
	for _, k := range keys {
		m.removeDurable(k)
	}
}

// Cleanup removes every expired durable entry under the namespace prefix and
// returns the number removed. Intended to run at startup and from the
// maintenance sweep to reclaim space from entries that expired while idle.
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys, err := m.durable.Keys(m.prefix)
	if err != nil {
		observability.PersistenceWarningsTotal.WithLabelValues("cleanup").Inc()
		if m.logger != nil {
			m.logger.Warn("cache cleanup scan failed", zap.Error(err))
		}
		return 0
	}

	removed := 0
	for _, k := range keys {
		raw, err := m.durable.GetItem(k)
		if err != nil {
			continue
		}
		var e entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil || m.expired(e) {
			m.removeDurable(k)
			removed++
		}
	}
	if removed > 0 {
		observability.SweepRemovedTotal.WithLabelValues("cache").Add(float64(removed))
		if m.logger != nil {
			m.logger.Info("cleaned up expired cache entries", zap.Int("removed", removed))
		}
	}
	return removed
}

// removeDurable deletes a durable entry, logging failures. Callers hold m.mu.
func (m *Manager) removeDurable(storageKey string) {
	if err := m.durable.RemoveItem(storageKey); err != nil {
		observability.PersistenceWarningsTotal.WithLabelValues("remove").Inc()
		if m.logger != nil {
			m.logger.Warn("cache remove failed", zap.String("key", storageKey), zap.Error(err))
		}
	}
}

// Get returns the typed cached value for key, or ok=false on any miss.
func Get[T any](m *Manager, key string) (T, bool) {
	var v T
	raw, ok := m.GetRaw(key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		if m.logger != nil {
			m.logger.Warn("cache decode failed", zap.String("key", key), zap.Error(err))
		}
		return v, false
	}
	return v, true
}

// Set stores a typed value with the given TTL.
func Set[T any](m *Manager, key string, v T, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		if m.logger != nil {
			m.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		}
		return
	}
	m.SetRaw(key, raw, ttl)
}
