package metadata

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/llehouerou/trendfm/internal/db"
)

// Store persists resolved track metadata in SQLite so repeated runs
// do not refetch the same tracks. Entries expire after the TTL.
type Store struct {
	db      *sql.DB
	ttlDays int
}

// NewStore creates a Store with the given TTL in days.
func NewStore(sqldb *sql.DB, ttlDays int) *Store {
	return &Store{
		db:      sqldb,
		ttlDays: ttlDays,
	}
}

// isExpired checks if a cached entry is expired.
func (s *Store) isExpired(fetchedAt int64) bool {
	expiry := time.Now().AddDate(0, 0, -s.ttlDays).Unix()
	return fetchedAt < expiry
}

// Get returns the stored metadata for a cache key. ok is false when
// the key is absent or expired.
func (s *Store) Get(key string) (TrackMetadata, bool, error) {
	var durationSeconds float64
	var tagsJSON string
	var fetchedAt int64

	err := s.db.QueryRow(`
		SELECT duration_seconds, tags, fetched_at
		FROM track_metadata
		WHERE cache_key = ?
	`, key).Scan(&durationSeconds, &tagsJSON, &fetchedAt)
	if err == sql.ErrNoRows {
		return TrackMetadata{}, false, nil
	}
	if err != nil {
		return TrackMetadata{}, false, err
	}
	if s.isExpired(fetchedAt) {
		return TrackMetadata{}, false, nil
	}

	var tags []string
	if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
		return TrackMetadata{}, false, err
	}

	return TrackMetadata{
		Duration: time.Duration(durationSeconds * float64(time.Second)),
		Tags:     tags,
	}, true, nil
}

// Put stores metadata for a cache key, replacing any previous entry.
func (s *Store) Put(key string, meta TrackMetadata) error {
	tags := meta.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return err
	}

	return db.WithTx(s.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO track_metadata (cache_key, duration_seconds, tags, fetched_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(cache_key) DO UPDATE SET
				duration_seconds = excluded.duration_seconds,
				tags = excluded.tags,
				fetched_at = excluded.fetched_at
		`, key, meta.Duration.Seconds(), string(tagsJSON), time.Now().Unix())
		return err
	})
}

// CleanExpired removes all expired entries.
func (s *Store) CleanExpired() error {
	expiry := time.Now().AddDate(0, 0, -s.ttlDays).Unix()
	_, err := s.db.Exec(`DELETE FROM track_metadata WHERE fetched_at < ?`, expiry)
	return err
}
