package lastfm

import "time"

// Scrobble is a single play from the user's listening history.
// Time is the zero value for entries the API reports without a
// timestamp (in-progress "now playing" plays); those cannot be
// bucketed and are skipped by the aggregators.
type Scrobble struct {
	Artist string
	Track  string
	Time   time.Time
}

// HasTime reports whether the scrobble carries a usable timestamp.
func (s Scrobble) HasTime() bool {
	return !s.Time.IsZero()
}

// RecentPage is one page of a user's recent plays plus the
// pagination metadata needed to plan the remaining fetches.
type RecentPage struct {
	Events     []Scrobble
	Page       int
	TotalPages int
}

// TopTrack is an aggregated play-count entry from a user's
// top-tracks list for a named period.
type TopTrack struct {
	Artist    string
	Track     string
	PlayCount int
	Rank      int
}

// Tag is a genre tag. Weight is the relative count reported by the
// API when available; the Last.fm artist.getTopTags response arrives
// already ranked, so a zero weight simply preserves that order.
type Tag struct {
	Name   string
	Weight float64
}

// TrackInfo is the raw metadata for one track as reported by the
// API. Duration is zero when the API omits it or it cannot be
// parsed; callers apply their own default.
type TrackInfo struct {
	Duration time.Duration
	Tags     []Tag
}
