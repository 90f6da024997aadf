// Package metadata resolves and caches per-track duration and genre
// tags.
package metadata

import (
	"container/list"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/llehouerou/trendfm/internal/lastfm"
)

// DefaultDuration is assumed when the API reports no usable track
// duration.
const DefaultDuration = 180 * time.Second

// TrackMetadata holds what genre attribution needs for one track.
// An empty tag list means the track is attributed to the implicit
// "other" genre.
type TrackMetadata struct {
	Duration time.Duration
	Tags     []string
}

// API is the metadata collaborator consumed by the cache.
// *lastfm.Client implements it.
type API interface {
	TrackInfo(ctx context.Context, artist, track string) (lastfm.TrackInfo, error)
	ArtistTopTags(ctx context.Context, artist string) ([]lastfm.Tag, error)
}

// TrackRef identifies a track for bulk resolution.
type TrackRef struct {
	Artist string
	Track  string
}

// Key builds the cache key for a track. The tag limit is part of the
// key because tag truncation happens at fetch time, so entries built
// with different limits are cached independently.
func Key(artist, track string, tagLimit int) string {
	return fmt.Sprintf("%s|%s|%d",
		strings.ToLower(strings.TrimSpace(artist)),
		strings.ToLower(strings.TrimSpace(track)),
		tagLimit)
}

type cacheEntry struct {
	key  string
	meta TrackMetadata
}

type inflightFetch struct {
	done chan struct{}
	meta TrackMetadata
}

// Cache is a bounded, least-recently-used get-or-fetch cache mapping
// normalized (artist, track, tagLimit) keys to track metadata. It is
// safe for concurrent use and guarantees at most one in-flight fetch
// per key. Lookups never fail: every failure mode degrades to a
// default record so one bad track cannot abort an aggregation.
type Cache struct {
	api      API
	store    *Store // optional persistent layer, may be nil
	capacity int

	mu       sync.Mutex
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
	inflight map[string]*inflightFetch
}

// NewCache creates a cache over the given metadata API. capacity is
// the maximum number of retained entries; zero or negative means
// unbounded. store may be nil to disable persistence.
func NewCache(api API, capacity int, store *Store) *Cache {
	return &Cache{
		api:      api,
		store:    store,
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		inflight: make(map[string]*inflightFetch),
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// GetOrFetch returns the metadata for a track, fetching and caching
// it on first use. Concurrent callers asking for the same key share
// a single fetch.
func (c *Cache) GetOrFetch(ctx context.Context, artist, track string, tagLimit int) TrackMetadata {
	key := Key(artist, track, tagLimit)

	c.mu.Lock()
	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		meta := el.Value.(*cacheEntry).meta
		c.mu.Unlock()
		return meta
	}
	if fl, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		<-fl.done
		return fl.meta
	}
	fl := &inflightFetch{done: make(chan struct{})}
	c.inflight[key] = fl
	c.mu.Unlock()

	meta := c.fetch(ctx, key, artist, track, tagLimit)

	c.mu.Lock()
	c.insert(key, meta)
	delete(c.inflight, key)
	c.mu.Unlock()

	fl.meta = meta
	close(fl.done)
	return meta
}

// ResolveAll resolves metadata for every referenced track, deduping
// by cache key before issuing requests and fetching misses with at
// most concurrency requests in flight. The result maps Key(artist,
// track, tagLimit) to the resolved metadata.
func (c *Cache) ResolveAll(ctx context.Context, refs []TrackRef, tagLimit, concurrency int) map[string]TrackMetadata {
	unique := make(map[string]TrackRef, len(refs))
	for _, ref := range refs {
		unique[Key(ref.Artist, ref.Track, tagLimit)] = ref
	}

	out := make(map[string]TrackMetadata, len(unique))
	if len(unique) == 0 {
		return out
	}
	if concurrency < 1 {
		concurrency = 1
	}

	work := make(chan TrackRef, len(unique))
	var outMu sync.Mutex
	var wg sync.WaitGroup
	for range min(concurrency, len(unique)) {
		wg.Go(func() {
			for ref := range work {
				meta := c.GetOrFetch(ctx, ref.Artist, ref.Track, tagLimit)
				outMu.Lock()
				out[Key(ref.Artist, ref.Track, tagLimit)] = meta
				outMu.Unlock()
			}
		})
	}
	for _, ref := range unique {
		work <- ref
	}
	close(work)
	wg.Wait()

	return out
}

// fetch resolves one key from the persistent store or the network.
// It never fails; total failure yields the default record.
func (c *Cache) fetch(ctx context.Context, key, artist, track string, tagLimit int) TrackMetadata {
	if c.store != nil {
		if meta, ok, err := c.store.Get(key); err == nil && ok {
			return meta
		}
	}

	meta := TrackMetadata{Duration: DefaultDuration}

	info, err := c.api.TrackInfo(ctx, artist, track)
	if err == nil {
		if info.Duration > 0 {
			meta.Duration = info.Duration
		}
		meta.Tags = normalizeTags(info.Tags, tagLimit)
	}

	if len(meta.Tags) == 0 {
		if tags, err := c.api.ArtistTopTags(ctx, artist); err == nil {
			lastfm.SortTagsByWeight(tags)
			meta.Tags = normalizeTags(tags, tagLimit)
		}
	}

	if c.store != nil {
		_ = c.store.Put(key, meta) //nolint:errcheck // persistence is best-effort
	}
	return meta
}

// insert adds a key under the LRU policy. Callers hold c.mu.
func (c *Cache) insert(key string, meta TrackMetadata) {
	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).meta = meta
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, meta: meta})
	if c.capacity > 0 && c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

// normalizeTags lower-cases and trims tag names, drops empties, and
// truncates to limit (0 means unlimited).
func normalizeTags(tags []lastfm.Tag, limit int) []string {
	var out []string
	for _, tag := range tags {
		name := strings.ToLower(strings.TrimSpace(tag.Name))
		if name == "" {
			continue
		}
		out = append(out, name)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
