// Package activity counts plays per calendar bucket.
package activity

import (
	"sort"
	"time"

	"github.com/llehouerou/trendfm/internal/lastfm"
	"github.com/llehouerou/trendfm/internal/timeline"
)

// Point is one bucket of listening activity.
type Point struct {
	Start time.Time
	Count int
}

// Aggregate counts scrobbles per natural calendar bucket (day, week
// or month). Buckets are derived from the data itself rather than a
// pre-supplied bucket list: every scrobble with a usable timestamp
// increments the bucket containing it, and only nonzero buckets are
// returned, sorted by start ascending.
func Aggregate(events []lastfm.Scrobble, unit timeline.Unit, loc *time.Location) []Point {
	counts := make(map[time.Time]int)
	for _, e := range events {
		if !e.HasTime() {
			continue
		}
		counts[timeline.Truncate(unit, e.Time, loc)]++
	}

	points := make([]Point, 0, len(counts))
	for start, count := range counts {
		points = append(points, Point{Start: start, Count: count})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Start.Before(points[j].Start)
	})
	return points
}
