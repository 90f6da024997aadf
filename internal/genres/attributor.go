// Package genres attributes estimated listening time to genre tags
// across time buckets.
//
// Listening time is always an estimate: track duration multiplied by
// play count, never a measured value.
package genres

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/llehouerou/trendfm/internal/history"
	"github.com/llehouerou/trendfm/internal/lastfm"
	"github.com/llehouerou/trendfm/internal/metadata"
	"github.com/llehouerou/trendfm/internal/timeline"
)

// Other is the catch-all genre: tracks without tags land here, and
// collapsing folds every genre outside the top ranks into it.
const Other = "other"

// topGenreCount is how many ranked genres survive collapsing before
// the rest are folded into Other.
const topGenreCount = 7

// Series is the output of genre attribution: per-bucket
// genre-seconds, whole-window totals, and the ranked genre order a
// stacked chart should render.
type Series struct {
	Buckets   []time.Time
	PerBucket map[time.Time]map[string]float64
	Totals    map[string]float64
	TopGenres []string
}

// IsEmpty reports whether the series carries no listening time.
func (s Series) IsEmpty() bool {
	return len(s.Totals) == 0
}

// Fetcher is the slice of the history fetcher the attributor needs.
type Fetcher interface {
	FetchAll(ctx context.Context, user string, w timeline.Window, opts history.Options) ([]lastfm.Scrobble, error)
}

// Attributor builds genre series from top-track lists or recent
// scrobbles, resolving track metadata through a shared cache.
type Attributor struct {
	fetcher Fetcher
	cache   *metadata.Cache
	opts    history.Options
}

// New creates an Attributor. The cache is owned by the caller and
// may be shared across builds; the attributor only reads it through
// GetOrFetch/ResolveAll.
func New(fetcher Fetcher, cache *metadata.Cache, opts history.Options) *Attributor {
	return &Attributor{
		fetcher: fetcher,
		cache:   cache,
		opts:    opts,
	}
}

// Build produces a genre series from a top-tracks list, assuming
// uniform listening across the window: each track's estimated total
// (duration x playcount) is split evenly across its tags, and that
// is spread evenly over every bucket. Used when recent-play data is
// unavailable.
func (a *Attributor) Build(ctx context.Context, tracks []lastfm.TopTrack, buckets []time.Time, tagLimit int) Series {
	if len(tracks) == 0 || len(buckets) == 0 {
		return emptySeries(buckets)
	}

	refs := make([]metadata.TrackRef, 0, len(tracks))
	for _, t := range tracks {
		refs = append(refs, metadata.TrackRef{Artist: t.Artist, Track: t.Track})
	}
	resolved := a.cache.ResolveAll(ctx, refs, tagLimit, a.opts.Concurrency)

	perBucket := make(map[time.Time]map[string]float64, len(buckets))
	totals := make(map[string]float64)

	for _, t := range tracks {
		meta := resolved[metadata.Key(t.Artist, t.Track, tagLimit)]
		total := meta.Duration.Seconds() * float64(t.PlayCount)
		if total <= 0 {
			continue
		}
		tags := meta.Tags
		if len(tags) == 0 {
			tags = []string{Other}
		}

		perTag := total / float64(len(tags))
		bucketShare := perTag / float64(len(buckets))
		for _, tag := range tags {
			totals[tag] += perTag
			for _, b := range buckets {
				bucketOf(perBucket, b)[tag] += bucketShare
			}
		}
	}

	return collapse(buckets, perBucket, totals)
}

// playGroup identifies plays of one track landing in one bucket.
type playGroup struct {
	bucket int // index into the bucket slice
	key    string
}

// BuildFromRecent produces a genre series from the user's actual
// scrobbles in the window. Plays without a timestamp are dropped,
// in-window plays are grouped by (bucket, track), and each group
// contributes duration x count split evenly across the track's tags.
// When no play qualifies (or there are no buckets at all) it falls
// back to Build with the supplied top-tracks list; the caller cannot
// tell the difference from the output shape.
func (a *Attributor) BuildFromRecent(ctx context.Context, user string, w timeline.Window, buckets []time.Time, tagLimit int, fallback []lastfm.TopTrack) (Series, error) {
	events, err := a.fetcher.FetchAll(ctx, user, w, a.opts)
	if err != nil {
		return Series{}, err
	}

	bucketIdx := make(map[time.Time]int, len(buckets))
	for i, b := range buckets {
		bucketIdx[b] = i
	}

	counts := make(map[playGroup]int)
	refByKey := make(map[string]metadata.TrackRef)
	for _, e := range events {
		if !e.HasTime() || !w.Contains(e.Time) {
			continue
		}
		b, ok := timeline.Assign(buckets, e.Time)
		if !ok {
			continue
		}
		key := metadata.Key(e.Artist, e.Track, tagLimit)
		counts[playGroup{bucket: bucketIdx[b], key: key}]++
		refByKey[key] = metadata.TrackRef{Artist: e.Artist, Track: e.Track}
	}

	if len(counts) == 0 {
		return a.Build(ctx, fallback, buckets, tagLimit), nil
	}

	refs := make([]metadata.TrackRef, 0, len(refByKey))
	for _, ref := range refByKey {
		refs = append(refs, ref)
	}
	resolved := a.cache.ResolveAll(ctx, refs, tagLimit, a.opts.Concurrency)

	perBucket := make(map[time.Time]map[string]float64, len(buckets))
	totals := make(map[string]float64)

	for g, count := range counts {
		meta := resolved[g.key]
		total := meta.Duration.Seconds() * float64(count)
		tags := meta.Tags
		if len(tags) == 0 {
			tags = []string{Other}
		}

		share := total / float64(len(tags))
		bucket := buckets[g.bucket]
		for _, tag := range tags {
			bucketOf(perBucket, bucket)[tag] += share
			totals[tag] += share
		}
	}

	return collapse(buckets, perBucket, totals), nil
}

func bucketOf(perBucket map[time.Time]map[string]float64, b time.Time) map[string]float64 {
	m, ok := perBucket[b]
	if !ok {
		m = make(map[string]float64)
		perBucket[b] = m
	}
	return m
}

func emptySeries(buckets []time.Time) Series {
	return Series{
		Buckets:   buckets,
		PerBucket: make(map[time.Time]map[string]float64),
		Totals:    make(map[string]float64),
	}
}

// collapse ranks genres by total seconds, keeps the top ranks, and
// folds everything else into Other at both the per-bucket and total
// level. Ties are broken by genre name so the ranking is stable for
// chart rendering.
func collapse(buckets []time.Time, perBucket map[time.Time]map[string]float64, totals map[string]float64) Series {
	if len(totals) == 0 {
		return emptySeries(buckets)
	}

	ranked := make([]string, 0, len(totals))
	for g := range totals {
		ranked = append(ranked, g)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if totals[ranked[i]] != totals[ranked[j]] {
			return totals[ranked[i]] > totals[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})

	top := ranked[:min(topGenreCount, len(ranked))]
	keep := make(map[string]bool, len(top))
	for _, g := range top {
		keep[g] = true
	}

	mergedTotals := make(map[string]float64, len(top)+1)
	for g, v := range totals {
		if keep[g] {
			mergedTotals[g] += v
		} else {
			mergedTotals[Other] += v
		}
	}

	mergedPerBucket := make(map[time.Time]map[string]float64, len(perBucket))
	for b, byGenre := range perBucket {
		merged := make(map[string]float64, len(top)+1)
		for g, v := range byGenre {
			if keep[g] {
				merged[g] += v
			} else {
				merged[Other] += v
			}
		}
		mergedPerBucket[b] = merged
	}

	ordered := slices.Clone(top)
	if !keep[Other] && mergedTotals[Other] > 0 {
		ordered = append(ordered, Other)
	}

	return Series{
		Buckets:   buckets,
		PerBucket: mergedPerBucket,
		Totals:    mergedTotals,
		TopGenres: ordered,
	}
}
