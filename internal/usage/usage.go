// Package usage tracks upstream API consumption against the free-tier daily
// quota. The quota is advisory: crossing a threshold emits warnings but never
// blocks a call.
package usage

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/weatherwise/weathercore/internal/kvstore"
	"github.com/weatherwise/weathercore/internal/models"
	"github.com/weatherwise/weathercore/internal/observability"
)

const storageKey = "weathercore-api-usage"

// Default quota configuration: 1000 calls/day free tier, warn at 80%,
// escalate at 95%.
const (
	DefaultDailyQuota  = 1000
	defaultWarnPct     = 80
	defaultCriticalPct = 95
)

// Tracker maintains total and per-day call counters, persisted through the
// durable store. The in-memory copy is authoritative once loaded; persistence
// failures degrade to session-only counting.
type Tracker struct {
	mu     sync.Mutex
	store  kvstore.Store
	logger *zap.Logger
	now    func() time.Time

	quota      int64
	warnAt     int64
	criticalAt int64

	loaded bool
	stats  models.UsageStats
}

// NewTracker creates a Tracker with the given daily quota (0 uses the
// default). logger may be nil.
func NewTracker(store kvstore.Store, quota int64, logger *zap.Logger) *Tracker {
	if quota <= 0 {
		quota = DefaultDailyQuota
	}
	return &Tracker{
		store:      store,
		logger:     logger,
		now:        time.Now,
		quota:      quota,
		warnAt:     quota * defaultWarnPct / 100,
		criticalAt: quota * defaultCriticalPct / 100,
	}
}

// load reads persisted stats on first use. Read failures start from zero.
// Callers hold t.mu.
func (t *Tracker) load() {
	if t.loaded {
		return
	}
	t.loaded = true
	t.stats = models.UsageStats{LastReset: t.now().UnixMilli()}

	raw, err := t.store.GetItem(storageKey)
	if err != nil {
		if err != kvstore.ErrNotFound {
			observability.PersistenceWarningsTotal.WithLabelValues("get").Inc()
			if t.logger != nil {
				t.logger.Warn("failed to read usage stats", zap.Error(err))
			}
		}
		return
	}
	var stats models.UsageStats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		observability.PersistenceWarningsTotal.WithLabelValues("get").Inc()
		if t.logger != nil {
			t.logger.Warn("usage stats corrupt, resetting", zap.Error(err))
		}
		return
	}
	t.stats = stats
}

// rollover resets the daily counter when the stored LastReset falls on a
// different local calendar day than now. Returns true if a reset happened.
// Callers hold t.mu.
func (t *Tracker) rollover() bool {
	now := t.now()
	y1, m1, d1 := time.UnixMilli(t.stats.LastReset).Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return false
	}
	t.stats.CallsToday = 0
	t.stats.LastReset = now.UnixMilli()
	return true
}

// persist writes stats best-effort. Callers hold t.mu.
func (t *Tracker) persist() {
	raw, err := json.Marshal(t.stats)
	if err == nil {
		err = t.store.SetItem(storageKey, string(raw))
	}
	if err != nil {
		observability.PersistenceWarningsTotal.WithLabelValues("set").Inc()
		if t.logger != nil {
			t.logger.Warn("failed to persist usage stats", zap.Error(err))
		}
	}
}

// RecordCall counts one upstream API call, rolling the daily counter over at
// the first call after local midnight, and returns the updated stats.
// Threshold crossings are advisory log/metric emissions only.
func (t *Tracker) RecordCall() models.UsageStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.load()
	t.rollover()
	t.stats.TotalCalls++
	t.stats.CallsToday++
	t.persist()

	observability.UsageCallsToday.Set(float64(t.stats.CallsToday))
	switch {
	case t.stats.CallsToday >= t.criticalAt:
		observability.UsageThresholdTotal.WithLabelValues("critical").Inc()
		if t.logger != nil {
			t.logger.Error("API usage near daily quota",
				zap.Int64("calls_today", t.stats.CallsToday),
				zap.Int64("quota", t.quota))
		}
	case t.stats.CallsToday >= t.warnAt:
		observability.UsageThresholdTotal.WithLabelValues("warn").Inc()
		if t.logger != nil {
			t.logger.Warn("API usage approaching daily quota",
				zap.Int64("calls_today", t.stats.CallsToday),
				zap.Int64("quota", t.quota))
		}
	}
	return t.stats
}

// Stats returns current usage, applying the midnight rollover so a read after
// midnight reflects the reset even before any call is recorded. The rollover
// is persisted; a plain read is not.
func (t *Tracker) Stats() models.UsageStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.load()
	if t.rollover() {
		t.persist()
		observability.UsageCallsToday.Set(float64(t.stats.CallsToday))
	}
	return t.stats
}
