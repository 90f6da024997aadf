// Package charts is the engine's upward-facing surface: it turns a
// window and bucket request into genre and activity series for a
// chart layer to render.
package charts

import (
	"context"
	"fmt"
	"time"

	"github.com/llehouerou/trendfm/internal/activity"
	"github.com/llehouerou/trendfm/internal/genres"
	"github.com/llehouerou/trendfm/internal/history"
	"github.com/llehouerou/trendfm/internal/lastfm"
	"github.com/llehouerou/trendfm/internal/timeline"
)

// Source selects where a genre build gets its play data.
type Source int

const (
	// SourceTopTracks builds from the supplied top-tracks list only.
	SourceTopTracks Source = iota
	// SourceLiveUser builds from the user's recent scrobbles,
	// falling back to the top-tracks list when the window holds none.
	SourceLiveUser
)

// GenreRequest describes one genre-series build.
type GenreRequest struct {
	User     string
	Window   timeline.Window
	Unit     timeline.Unit
	Step     int // bucket width in units, minimum 1
	TagLimit int
	Source   Source
	// TopTracks is the Mode A input, and the fallback for SourceLiveUser.
	TopTracks []lastfm.TopTrack
}

// ActivityRequest describes one activity-series build. Unit must be
// day, week or month.
type ActivityRequest struct {
	User   string
	Window timeline.Window
	Unit   timeline.Unit
}

// Builder wires the bucketer, fetcher, metadata cache and attributor
// into the two series-building operations.
type Builder struct {
	fetcher    genres.Fetcher
	attributor *genres.Attributor
	opts       history.Options
	loc        *time.Location
}

// NewBuilder creates a Builder. loc determines calendar alignment
// for bucket boundaries; nil means time.Local.
func NewBuilder(fetcher genres.Fetcher, attributor *genres.Attributor, opts history.Options, loc *time.Location) *Builder {
	if loc == nil {
		loc = time.Local
	}
	return &Builder{
		fetcher:    fetcher,
		attributor: attributor,
		opts:       opts,
		loc:        loc,
	}
}

// BuildGenreSeries produces per-bucket genre-seconds, genre totals
// and the ranked top-genre order for the requested window.
func (b *Builder) BuildGenreSeries(ctx context.Context, req GenreRequest) (genres.Series, error) {
	step := max(req.Step, 1)
	buckets := timeline.BucketStarts(req.Window, req.Unit, step, b.loc)

	switch req.Source {
	case SourceLiveUser:
		return b.attributor.BuildFromRecent(ctx, req.User, req.Window, buckets, req.TagLimit, req.TopTracks)
	default:
		return b.attributor.Build(ctx, req.TopTracks, buckets, req.TagLimit), nil
	}
}

// BuildActivitySeries produces ordered per-bucket play counts for
// the requested window.
func (b *Builder) BuildActivitySeries(ctx context.Context, req ActivityRequest) ([]activity.Point, error) {
	if req.Unit == timeline.Hour {
		return nil, fmt.Errorf("activity series: %w: unit must be day, week or month", lastfm.ErrInvalidRequest)
	}

	events, err := b.fetcher.FetchAll(ctx, req.User, req.Window, b.opts)
	if err != nil {
		return nil, err
	}
	return activity.Aggregate(events, req.Unit, b.loc), nil
}
