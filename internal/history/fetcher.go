// Package history retrieves a user's full play history for a time
// window from the paginated recent-plays API.
package history

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/llehouerou/trendfm/internal/lastfm"
	"github.com/llehouerou/trendfm/internal/timeline"
)

// API is the recent-plays collaborator consumed by the fetcher.
// *lastfm.Client implements it.
type API interface {
	RecentPlays(ctx context.Context, user string, from, to time.Time, page, pageSize int) (lastfm.RecentPage, error)
}

// Options tunes a fetch. The zero value is unusable; use
// DefaultOptions as a base.
type Options struct {
	PageSize    int // events per page requested from the API
	MaxPages    int // hard cap on pages fetched, regardless of totalPages
	Concurrency int // max in-flight page requests within a batch
}

// DefaultOptions returns the fetch tuning used when the caller has
// no opinion.
func DefaultOptions() Options {
	return Options{
		PageSize:    200,
		MaxPages:    10,
		Concurrency: 4,
	}
}

// Fetcher retrieves all history pages for a user/window with bounded
// concurrency and deterministic reassembly.
type Fetcher struct {
	api API
}

// New creates a Fetcher over the given recent-plays API.
func New(api API) *Fetcher {
	return &Fetcher{api: api}
}

type pageResult struct {
	page   int
	events []lastfm.Scrobble
	err    error
}

// FetchAll retrieves every page of the user's plays inside w, up to
// opts.MaxPages. Page 1 is fetched synchronously to learn the total
// page count; remaining pages are fetched in sequential batches of
// at most opts.Concurrency concurrent requests, and each batch is
// reassembled in ascending page order so the result never depends on
// completion order. Any page failure aborts the whole call with no
// partial results and no retry.
func (f *Fetcher) FetchAll(ctx context.Context, user string, w timeline.Window, opts Options) ([]lastfm.Scrobble, error) {
	first, err := f.api.RecentPlays(ctx, user, w.Start, w.End, 1, opts.PageSize)
	if err != nil {
		return nil, fmt.Errorf("fetch page 1: %w", err)
	}

	pages := min(first.TotalPages, opts.MaxPages)
	if pages <= 1 {
		return first.Events, nil
	}

	events := make([]lastfm.Scrobble, 0, pages*opts.PageSize)
	events = append(events, first.Events...)

	for batchStart := 2; batchStart <= pages; batchStart += opts.Concurrency {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("fetch aborted: %w", err)
		}

		batchEnd := min(batchStart+opts.Concurrency-1, pages)
		results := make(chan pageResult, batchEnd-batchStart+1)

		var wg sync.WaitGroup
		for page := batchStart; page <= batchEnd; page++ {
			wg.Go(func() {
				res, err := f.api.RecentPlays(ctx, user, w.Start, w.End, page, opts.PageSize)
				results <- pageResult{page: page, events: res.Events, err: err}
			})
		}
		wg.Wait()
		close(results)

		batch := make([]pageResult, 0, batchEnd-batchStart+1)
		for r := range results {
			batch = append(batch, r)
		}
		sort.Slice(batch, func(i, j int) bool {
			return batch[i].page < batch[j].page
		})

		for _, r := range batch {
			if r.err != nil {
				return nil, fmt.Errorf("fetch page %d: %w", r.page, r.err)
			}
			events = append(events, r.events...)
		}
	}

	return events, nil
}
