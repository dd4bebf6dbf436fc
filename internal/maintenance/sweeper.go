// Package maintenance runs the periodic expiry sweep: durable cache entries
// past their TTL and offline records past the retention window are deleted to
// reclaim space. This is the coarse counterpart to the lazy expiry both
// stores already perform on read.
package maintenance

import (
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/weatherwise/weathercore/internal/cache"
	"github.com/weatherwise/weathercore/internal/offline"
)

// DefaultInterval is how often the sweep runs when not configured.
const DefaultInterval = time.Hour

// Sweeper schedules the recurring sweep.
type Sweeper struct {
	scheduler *gocron.Scheduler
	cache     *cache.Manager
	offline   *offline.Store
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger
}

// NewSweeper creates a Sweeper. offline may be nil; retention <= 0 uses the
// offline store default; interval <= 0 uses DefaultInterval.
func NewSweeper(c *cache.Manager, o *offline.Store, retention, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{
		scheduler: gocron.NewScheduler(time.Local),
		cache:     c,
		offline:   o,
		retention: retention,
		interval:  interval,
		logger:    logger,
	}
}

// RunOnce performs a single sweep pass.
func (s *Sweeper) RunOnce() {
	removed := s.cache.Cleanup()
	var offlineRemoved int64
	if s.offline != nil {
		n, err := s.offline.ClearExpired(s.retention)
		if err != nil && s.logger != nil {
			s.logger.Warn("offline sweep failed", zap.Error(err))
		}
		offlineRemoved = n
	}
	if s.logger != nil {
		s.logger.Debug("sweep complete",
			zap.Int("cache_removed", removed),
			zap.Int64("offline_removed", offlineRemoved))
	}
}

// Start runs an immediate sweep (reclaiming entries that expired while the
// process was down) and schedules recurring passes.
func (s *Sweeper) Start() error {
	s.RunOnce()
	if _, err := s.scheduler.Every(s.interval).Do(s.RunOnce); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop cancels the recurring sweep.
func (s *Sweeper) Stop() {
	s.scheduler.Stop()
}
