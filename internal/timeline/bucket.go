// Package timeline produces calendar-aligned time buckets for
// charting listening history.
package timeline

import (
	"sort"
	"time"
)

// Unit is a calendar unit used to align and advance buckets.
type Unit int

const (
	Hour Unit = iota
	Day
	Week
	Month
)

// String returns the unit name as used in config files and flags.
func (u Unit) String() string {
	switch u {
	case Hour:
		return "hour"
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	default:
		return "unknown"
	}
}

// ParseUnit converts a unit name to a Unit.
func ParseUnit(s string) (Unit, bool) {
	switch s {
	case "hour":
		return Hour, true
	case "day":
		return Day, true
	case "week":
		return Week, true
	case "month":
		return Month, true
	default:
		return 0, false
	}
}

// Window is the [Start, End) interval over which aggregation is
// requested.
type Window struct {
	Start time.Time
	End   time.Time
}

// IsEmpty reports whether the window covers no time at all.
func (w Window) IsEmpty() bool {
	return !w.Start.Before(w.End)
}

// Contains reports whether t falls inside [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Truncate returns the natural boundary of unit containing t in the
// given location: top of the hour, midnight, Monday midnight, or the
// first of the month.
func Truncate(u Unit, t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	year, month, day := t.Date()
	switch u {
	case Hour:
		return time.Date(year, month, day, t.Hour(), 0, 0, 0, loc)
	case Week:
		dayStart := time.Date(year, month, day, 0, 0, 0, 0, loc)
		offset := (int(t.Weekday()) + 6) % 7 // days since Monday
		return dayStart.AddDate(0, 0, -offset)
	case Month:
		return time.Date(year, month, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(year, month, day, 0, 0, 0, 0, loc)
	}
}

// advance moves t forward by step units using calendar arithmetic,
// so day/week/month steps stay boundary-aligned across DST shifts.
func advance(u Unit, t time.Time, step int) time.Time {
	switch u {
	case Hour:
		return t.Add(time.Duration(step) * time.Hour)
	case Week:
		return t.AddDate(0, 0, 7*step)
	case Month:
		return t.AddDate(0, step, 0)
	default:
		return t.AddDate(0, 0, step)
	}
}

// BucketStarts returns the ordered bucket boundaries covering w:
// the first is the natural boundary of unit containing w.Start, each
// subsequent one is step units later, and only boundaries before
// w.End are emitted. The result is strictly increasing and depends
// only on the inputs. An empty window or non-positive step yields
// nil, which downstream aggregation treats as "no data".
func BucketStarts(w Window, u Unit, step int, loc *time.Location) []time.Time {
	if step <= 0 || w.IsEmpty() {
		return nil
	}

	var starts []time.Time
	for t := Truncate(u, w.Start, loc); t.Before(w.End); t = advance(u, t, step) {
		starts = append(starts, t)
	}
	return starts
}

// Assign returns the latest bucket start that is <= t, falling back
// to the first bucket when t precedes all of them. ok is false only
// when buckets is empty. buckets must be sorted ascending, as
// produced by BucketStarts.
func Assign(buckets []time.Time, t time.Time) (time.Time, bool) {
	if len(buckets) == 0 {
		return time.Time{}, false
	}
	// First bucket start strictly after t.
	i := sort.Search(len(buckets), func(i int) bool {
		return buckets[i].After(t)
	})
	if i == 0 {
		return buckets[0], true
	}
	return buckets[i-1], true
}
