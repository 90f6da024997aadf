package metadata

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/trendfm/internal/db"
	"github.com/llehouerou/trendfm/internal/lastfm"
)

func openTestStore(t *testing.T, ttlDays int) *Store {
	t.Helper()
	sqldb, err := db.Open(filepath.Join(t.TempDir(), "trendfm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })
	return NewStore(sqldb, ttlDays)
}

func TestStore_PutGet(t *testing.T) {
	store := openTestStore(t, 7)

	meta := TrackMetadata{
		Duration: 245 * time.Second,
		Tags:     []string{"post-rock", "instrumental"},
	}
	require.NoError(t, store.Put("mogwai|auto rock|3", meta))

	got, ok, err := store.Get("mogwai|auto rock|3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, meta.Duration, got.Duration)
	assert.Equal(t, meta.Tags, got.Tags)
}

func TestStore_MissingKey(t *testing.T) {
	store := openTestStore(t, 7)

	_, ok, err := store.Get("nobody|nothing|0")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ExpiredEntryIsAMiss(t *testing.T) {
	store := openTestStore(t, 7)

	require.NoError(t, store.Put("a|t|0", TrackMetadata{Duration: 100 * time.Second}))
	// Backdate the entry past the TTL.
	backdated := time.Now().AddDate(0, 0, -8).Unix()
	_, err := store.db.Exec(`UPDATE track_metadata SET fetched_at = ?`, backdated)
	require.NoError(t, err)

	_, ok, err := store.Get("a|t|0")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry should read as a miss")

	require.NoError(t, store.CleanExpired())
	var count int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM track_metadata`).Scan(&count))
	assert.Equal(t, 0, count, "rows left after CleanExpired")
}

func TestStore_Replace(t *testing.T) {
	store := openTestStore(t, 7)

	require.NoError(t, store.Put("a|t|0", TrackMetadata{Duration: 100 * time.Second, Tags: []string{"old"}}))
	require.NoError(t, store.Put("a|t|0", TrackMetadata{Duration: 200 * time.Second, Tags: []string{"new"}}))

	got, ok, err := store.Get("a|t|0")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 200*time.Second, got.Duration)
	assert.Equal(t, []string{"new"}, got.Tags)
}

func TestCache_ReadsThroughStore(t *testing.T) {
	store := openTestStore(t, 7)
	api := &fakeAPI{
		info: lastfm.TrackInfo{
			Duration: 321 * time.Second,
			Tags:     []lastfm.Tag{{Name: "dub"}},
		},
	}

	// First cache populates the store over the network.
	warm := NewCache(api, 0, store)
	warm.GetOrFetch(context.Background(), "King Tubby", "Dub Fi Gwan", 3)
	require.EqualValues(t, 1, api.trackInfoCalls.Load())

	// A fresh cache (new process) finds the entry in the store.
	cold := NewCache(api, 0, store)
	meta := cold.GetOrFetch(context.Background(), "King Tubby", "Dub Fi Gwan", 3)
	assert.EqualValues(t, 1, api.trackInfoCalls.Load(), "cold cache should hit the store, not the network")
	assert.Equal(t, 321*time.Second, meta.Duration)
	assert.Equal(t, []string{"dub"}, meta.Tags)
}
