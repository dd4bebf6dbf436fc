// Package offline provides the structured offline store: a local SQLite
// database holding weather snapshots and location images for destinations the
// user pinned for offline use. Each collection keeps at most one record per
// location (replace-on-write), expires lazily on read, and is swept coarsely
// by the maintenance job.
package offline

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/weatherwise/weathercore/internal/models"
	"github.com/weatherwise/weathercore/internal/observability"
)

// Freshness and retention defaults. A record can be too stale to show
// (DefaultMaxAge) long before it is old enough to delete (DefaultSweepAge);
// between the two it is invisible to reads but still occupies storage until
// the sweep runs.
const (
	DefaultMaxAge   = 30 * time.Minute
	DefaultSweepAge = 24 * time.Hour
)

// Store wraps the SQLite database. All methods are safe for concurrent use.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
	now    func() time.Time
}

// Open creates (or opens) the offline database at path. Use ":memory:" for
// tests. File databases use WAL mode for concurrent read performance.
func Open(path string, logger *zap.Logger) (*Store, error) {
	connStr := path
	if path == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open offline database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping offline database: %w", err)
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db, logger: logger, now: time.Now}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS weather_cache (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		location TEXT NOT NULL,
		data TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_weather_location ON weather_cache(location);
	CREATE INDEX IF NOT EXISTS idx_weather_timestamp ON weather_cache(timestamp);

	CREATE TABLE IF NOT EXISTS image_cache (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		location TEXT NOT NULL,
		image_url TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_image_location ON image_cache(location);
	CREATE INDEX IF NOT EXISTS idx_image_timestamp ON image_cache(timestamp);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// CacheWeather stores a weather snapshot for location, replacing any prior
// record so at most one row per location exists.
func (s *Store) CacheWeather(location string, data models.WeatherData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode weather payload: %w", err)
	}
	return s.replace("weather_cache", "data", location, string(raw))
}

// Weather returns the cached snapshot for location if it is younger than
// maxAge (<= 0 uses DefaultMaxAge). An expired record is deleted on read.
func (s *Store) Weather(location string, maxAge time.Duration) (models.WeatherData, bool, error) {
	var data models.WeatherData
	raw, ok, err := s.lookup("weather_cache", "data", location, maxAge)
	if err != nil || !ok {
		return data, false, err
	}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return data, false, fmt.Errorf("decode weather payload: %w", err)
	}
	observability.CacheHitsTotal.WithLabelValues("offline").Inc()
	return data, true, nil
}

// RemoveWeather deletes the snapshot for location, e.g. when the user unpins it.
func (s *Store) RemoveWeather(location string) error {
	return s.remove("weather_cache", location)
}

// CacheImage stores the image URL for location with replace semantics.
func (s *Store) CacheImage(location, imageURL string) error {
	return s.replace("image_cache", "image_url", location, imageURL)
}

// Image returns the cached image URL for location if younger than maxAge
// (<= 0 uses DefaultSweepAge; images stay useful far longer than weather).
func (s *Store) Image(location string, maxAge time.Duration) (string, bool, error) {
	if maxAge <= 0 {
		maxAge = DefaultSweepAge
	}
	url, ok, err := s.lookup("image_cache", "image_url", location, maxAge)
	if err != nil || !ok {
		return "", false, err
	}
	observability.CacheHitsTotal.WithLabelValues("offline").Inc()
	return url, true, nil
}

// RemoveImage deletes the cached image for location.
func (s *Store) RemoveImage(location string) error {
	return s.remove("image_cache", location)
}

// ClearExpired deletes every record in both collections older than maxAge
// (<= 0 uses DefaultSweepAge) and returns the number removed. This is the
// coarse storage-reclamation sweep, independent of per-read freshness.
func (s *Store) ClearExpired(maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		maxAge = DefaultSweepAge
	}
	cutoff := s.now().Add(-maxAge).UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for _, table := range []string{"weather_cache", "image_cache"} {
		res, err := s.db.Exec("DELETE FROM "+table+" WHERE timestamp < ?", cutoff)
		if err != nil {
			return removed, fmt.Errorf("sweep %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	if removed > 0 {
		observability.SweepRemovedTotal.WithLabelValues("offline").Add(float64(removed))
		if s.logger != nil {
			s.logger.Info("cleared expired offline records", zap.Int64("removed", removed))
		}
	}
	return removed, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// replace deletes any row for location then inserts the new one, inside a
// transaction so a reader never sees zero or two rows.
func (s *Store) replace(table, valueCol, location, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM "+table+" WHERE location = ?", location); err != nil {
		return fmt.Errorf("delete prior record: %w", err)
	}
	_, err = tx.Exec(
		"INSERT INTO "+table+" (location, "+valueCol+", timestamp) VALUES (?, ?, ?)",
		location, value, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return tx.Commit()
}

// lookup returns the stored value for location if young enough; an expired
// row is deleted and reported as a miss.
func (s *Store) lookup(table, valueCol, location string, maxAge time.Duration) (string, bool, error) {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		id        int64
		value     string
		timestamp int64
	)
	row := s.db.QueryRow(
		"SELECT id, "+valueCol+", timestamp FROM "+table+" WHERE location = ? LIMIT 1",
		location,
	)
	if err := row.Scan(&id, &value, &timestamp); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("query %s: %w", table, err)
	}

	if s.now().UnixMilli()-timestamp > maxAge.Milliseconds() {
		if _, err := s.db.Exec("DELETE FROM "+table+" WHERE id = ?", id); err != nil {
			return "", false, fmt.Errorf("delete expired record: %w", err)
		}
		return "", false, nil
	}
	return value, true, nil
}

func (s *Store) remove(table, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec("DELETE FROM "+table+" WHERE location = ?", location); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}
