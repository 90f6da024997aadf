// trendfm builds genre and activity charts from a Last.fm user's
// listening history.
//
// Usage:
//
//	trendfm [flags] genres|activity
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/llehouerou/trendfm/internal/charts"
	"github.com/llehouerou/trendfm/internal/config"
	"github.com/llehouerou/trendfm/internal/db"
	"github.com/llehouerou/trendfm/internal/errmsg"
	"github.com/llehouerou/trendfm/internal/genres"
	"github.com/llehouerou/trendfm/internal/history"
	"github.com/llehouerou/trendfm/internal/lastfm"
	"github.com/llehouerou/trendfm/internal/metadata"
	"github.com/llehouerou/trendfm/internal/timeline"
)

const topTracksLimit = 50

func main() {
	var (
		user      = flag.String("user", "", "Last.fm username (default: config)")
		days      = flag.Int("days", 30, "window length in days, ending now")
		unitName  = flag.String("unit", "day", "bucket unit: hour, day, week or month")
		step      = flag.Int("step", 1, "bucket width in units (genre series only)")
		tagLimit  = flag.Int("tags", 0, "genre tags considered per track (default: config)")
		noPersist = flag.Bool("no-cache-db", false, "disable the persistent metadata cache")
	)
	flag.Parse()

	mode := flag.Arg(0)
	if mode == "" {
		mode = "genres"
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(errmsg.Format(errmsg.OpConfigLoad, err))
	}
	if !cfg.HasLastfmConfig() {
		log.Fatal("Last.fm API key and secret must be set in config.toml")
	}
	if *user == "" {
		*user = cfg.Lastfm.User
	}
	if *user == "" {
		log.Fatal("no user given: pass -user or set lastfm.user in config.toml")
	}

	unit, ok := timeline.ParseUnit(*unitName)
	if !ok {
		log.Fatalf("unknown unit %q", *unitName)
	}
	if *tagLimit == 0 {
		*tagLimit = cfg.GetChartsConfig().TagLimit
	}

	client := lastfm.New(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret)

	cacheCfg := cfg.GetCacheConfig()
	var store *metadata.Store
	if *cacheCfg.Persist && !*noPersist {
		path, err := db.DefaultPath()
		if err != nil {
			log.Fatal(errmsg.Format(errmsg.OpCacheOpen, err))
		}
		sqldb, err := db.Open(path)
		if err != nil {
			log.Fatal(errmsg.Format(errmsg.OpCacheOpen, err))
		}
		defer sqldb.Close()

		store = metadata.NewStore(sqldb, cacheCfg.TTLDays)
		if err := store.CleanExpired(); err != nil {
			log.Println(errmsg.Format(errmsg.OpCacheClean, err))
		}
	}
	cache := metadata.NewCache(client, cacheCfg.Capacity, store)

	fetchCfg := cfg.GetFetchConfig()
	opts := history.Options{
		PageSize:    fetchCfg.PageSize,
		MaxPages:    fetchCfg.MaxPages,
		Concurrency: fetchCfg.Concurrency,
	}
	fetcher := history.New(client)
	builder := charts.NewBuilder(fetcher, genres.New(fetcher, cache, opts), opts, time.Local)

	now := time.Now()
	window := timeline.Window{Start: now.AddDate(0, 0, -*days), End: now}
	ctx := context.Background()

	switch mode {
	case "genres":
		runGenres(ctx, builder, client, *user, window, unit, *step, *tagLimit, *days)
	case "activity":
		runActivity(ctx, builder, *user, window, unit)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q (want genres or activity)\n", mode)
		os.Exit(2)
	}
}

func runGenres(ctx context.Context, builder *charts.Builder, client *lastfm.Client, user string, window timeline.Window, unit timeline.Unit, step, tagLimit, days int) {
	// Top tracks double as the fallback when the window holds no
	// scrobbles (private history, brand-new account, ...).
	fallback, err := client.UserTopTracks(ctx, user, periodForDays(days), topTracksLimit)
	if err != nil {
		log.Println(errmsg.FormatWith(errmsg.OpFetchTopTracks, user, err))
	}

	series, err := builder.BuildGenreSeries(ctx, charts.GenreRequest{
		User:      user,
		Window:    window,
		Unit:      unit,
		Step:      step,
		TagLimit:  tagLimit,
		Source:    charts.SourceLiveUser,
		TopTracks: fallback,
	})
	if err != nil {
		log.Fatal(errmsg.FormatWith(errmsg.OpGenreSeries, user, err))
	}
	if series.IsEmpty() {
		fmt.Println("No listening data in the selected window.")
		return
	}

	fmt.Printf("Top genres for %s over the last %d days:\n\n", user, days)
	for i, genre := range series.TopGenres {
		fmt.Printf("%2d. %-20s %s\n", i+1, genre, formatListening(series.Totals[genre]))
	}
}

func runActivity(ctx context.Context, builder *charts.Builder, user string, window timeline.Window, unit timeline.Unit) {
	points, err := builder.BuildActivitySeries(ctx, charts.ActivityRequest{
		User:   user,
		Window: window,
		Unit:   unit,
	})
	if err != nil {
		log.Fatal(errmsg.FormatWith(errmsg.OpActivitySeries, user, err))
	}
	if len(points) == 0 {
		fmt.Println("No listening data in the selected window.")
		return
	}

	fmt.Printf("Plays per %s for %s:\n\n", unit, user)
	total := 0
	for _, p := range points {
		fmt.Printf("%s  %s\n", p.Start.Format("2006-01-02"), humanize.Comma(int64(p.Count)))
		total += p.Count
	}
	fmt.Printf("\n%s plays total\n", humanize.Comma(int64(total)))
}

// periodForDays maps a window length to the closest Last.fm
// top-tracks period.
func periodForDays(days int) string {
	switch {
	case days <= 7:
		return "7day"
	case days <= 30:
		return "1month"
	case days <= 90:
		return "3month"
	case days <= 180:
		return "6month"
	case days <= 365:
		return "12month"
	default:
		return "overall"
	}
}

// formatListening renders estimated listening seconds for humans.
func formatListening(seconds float64) string {
	if seconds >= 3600 {
		return fmt.Sprintf("%.1f hours", seconds/3600)
	}
	return fmt.Sprintf("%.0f minutes", seconds/60)
}
