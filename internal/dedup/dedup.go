// Package dedup merges concurrent identical requests so at most one upstream
// fetch per key is ever in flight. All waiters for a key share the single
// outcome, success or failure, and the pending slot is released the moment
// the operation settles.
package dedup

import (
	"golang.org/x/sync/singleflight"

	"github.com/weatherwise/weathercore/internal/observability"
)

// Key prefixes scope deduplication per logical operation family, so a pending
// geocode lookup never merges with a weather fetch for the same location.
const (
	WeatherKeyPrefix = "weather:"
	GeocodeKeyPrefix = "geocode:"
	ImageKeyPrefix   = "image:"
)

// Deduplicator wraps a singleflight group. The zero value is not usable;
// construct with New. Safe for concurrent use.
type Deduplicator struct {
	group singleflight.Group
}

// New creates a Deduplicator.
func New() *Deduplicator {
	return &Deduplicator{}
}

// Do runs fn under key, or joins the in-flight call for key if one exists.
// The pending slot spans fn's entire lifetime, including any sub-fetches it
// awaits, and is removed when fn settles regardless of outcome. shared
// reports whether this caller joined an existing flight.
func Do[T any](d *Deduplicator, key string, fn func() (T, error)) (result T, shared bool, err error) {
	v, err, shared := d.group.Do(key, func() (interface{}, error) {
		return fn()
	})
	if shared {
		observability.DedupSharedTotal.Inc()
	}
	if err != nil {
		return result, shared, err
	}
	return v.(T), shared, nil
}
