package charts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/llehouerou/trendfm/internal/genres"
	"github.com/llehouerou/trendfm/internal/history"
	"github.com/llehouerou/trendfm/internal/lastfm"
	"github.com/llehouerou/trendfm/internal/metadata"
	"github.com/llehouerou/trendfm/internal/timeline"
)

type fakeFetcher struct {
	events []lastfm.Scrobble
	err    error
	calls  int
}

func (f *fakeFetcher) FetchAll(context.Context, string, timeline.Window, history.Options) ([]lastfm.Scrobble, error) {
	f.calls++
	return f.events, f.err
}

type fakeMetaAPI struct{}

func (fakeMetaAPI) TrackInfo(context.Context, string, string) (lastfm.TrackInfo, error) {
	return lastfm.TrackInfo{
		Duration: 100 * time.Second,
		Tags:     []lastfm.Tag{{Name: "rock"}},
	}, nil
}

func (fakeMetaAPI) ArtistTopTags(context.Context, string) ([]lastfm.Tag, error) {
	return nil, errors.New("unused")
}

func newTestBuilder(fetcher *fakeFetcher) *Builder {
	opts := history.Options{PageSize: 200, MaxPages: 10, Concurrency: 4}
	cache := metadata.NewCache(fakeMetaAPI{}, 0, nil)
	return NewBuilder(fetcher, genres.New(fetcher, cache, opts), opts, time.UTC)
}

func weekWindow() timeline.Window {
	start := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	return timeline.Window{Start: start, End: start.AddDate(0, 0, 7)}
}

func TestBuildGenreSeries_TopTracksSourceSkipsFetch(t *testing.T) {
	fetcher := &fakeFetcher{}
	b := newTestBuilder(fetcher)

	series, err := b.BuildGenreSeries(context.Background(), GenreRequest{
		Window:    weekWindow(),
		Unit:      timeline.Day,
		TagLimit:  1,
		Source:    SourceTopTracks,
		TopTracks: []lastfm.TopTrack{{Artist: "A", Track: "one", PlayCount: 6}},
	})
	if err != nil {
		t.Fatalf("BuildGenreSeries failed: %v", err)
	}
	if fetcher.calls != 0 {
		t.Errorf("top-tracks source issued %d history fetches, want 0", fetcher.calls)
	}
	if series.IsEmpty() {
		t.Error("expected a populated series")
	}
	if len(series.Buckets) != 7 {
		t.Errorf("got %d buckets, want 7 daily buckets", len(series.Buckets))
	}
}

func TestBuildGenreSeries_LiveUserUsesScrobbles(t *testing.T) {
	w := weekWindow()
	fetcher := &fakeFetcher{events: []lastfm.Scrobble{
		{Artist: "A", Track: "one", Time: w.Start.Add(3 * time.Hour)},
	}}
	b := newTestBuilder(fetcher)

	series, err := b.BuildGenreSeries(context.Background(), GenreRequest{
		User:     "alice",
		Window:   w,
		Unit:     timeline.Day,
		TagLimit: 1,
		Source:   SourceLiveUser,
	})
	if err != nil {
		t.Fatalf("BuildGenreSeries failed: %v", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("live source issued %d history fetches, want 1", fetcher.calls)
	}
	if got := series.Totals["rock"]; got != 100 {
		t.Errorf("Totals[rock] = %v, want 100", got)
	}
}

func TestBuildGenreSeries_FetchErrorSurfaces(t *testing.T) {
	sentinel := errors.New("boom")
	b := newTestBuilder(&fakeFetcher{err: sentinel})

	_, err := b.BuildGenreSeries(context.Background(), GenreRequest{
		User:   "alice",
		Window: weekWindow(),
		Unit:   timeline.Day,
		Source: SourceLiveUser,
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
}

func TestBuildActivitySeries(t *testing.T) {
	w := weekWindow()
	fetcher := &fakeFetcher{events: []lastfm.Scrobble{
		{Artist: "A", Track: "one", Time: w.Start.Add(2 * time.Hour)},
		{Artist: "A", Track: "one", Time: w.Start.Add(5 * time.Hour)},
		{Artist: "B", Track: "two", Time: w.Start.AddDate(0, 0, 2)},
	}}
	b := newTestBuilder(fetcher)

	points, err := b.BuildActivitySeries(context.Background(), ActivityRequest{
		User:   "alice",
		Window: w,
		Unit:   timeline.Day,
	})
	if err != nil {
		t.Fatalf("BuildActivitySeries failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if points[0].Count != 2 || points[1].Count != 1 {
		t.Errorf("counts = %d,%d, want 2,1", points[0].Count, points[1].Count)
	}
}

func TestBuildActivitySeries_RejectsHourUnit(t *testing.T) {
	b := newTestBuilder(&fakeFetcher{})

	_, err := b.BuildActivitySeries(context.Background(), ActivityRequest{
		User:   "alice",
		Window: weekWindow(),
		Unit:   timeline.Hour,
	})
	if !errors.Is(err, lastfm.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestBuildGenreSeries_EmptyWindow(t *testing.T) {
	at := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	b := newTestBuilder(&fakeFetcher{})

	series, err := b.BuildGenreSeries(context.Background(), GenreRequest{
		Window:    timeline.Window{Start: at, End: at},
		Unit:      timeline.Day,
		Source:    SourceTopTracks,
		TopTracks: []lastfm.TopTrack{{Artist: "A", Track: "one", PlayCount: 6}},
	})
	if err != nil {
		t.Fatalf("BuildGenreSeries failed: %v", err)
	}
	if !series.IsEmpty() {
		t.Error("empty window should produce an empty series, not an error")
	}
}
