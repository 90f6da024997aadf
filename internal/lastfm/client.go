package lastfm

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shkh/lastfm-go/lastfm"
)

// durationMSThreshold is the cutoff above which a track duration is
// assumed to be milliseconds and divided by 1000. The API is not
// explicit about the unit, so this is a heuristic, not a contract;
// if durations ever come back wrong, look here first.
const durationMSThreshold = 10000

// Client wraps the Last.fm API for listening-history retrieval and
// track metadata lookups.
type Client struct {
	api *lastfm.Api
}

// New creates a new Last.fm client with the given API credentials.
func New(apiKey, apiSecret string) *Client {
	return &Client{
		api: lastfm.New(apiKey, apiSecret),
	}
}

// RecentPlays fetches one page of a user's recent plays inside
// [from, to). Entries without a timestamp ("now playing") are kept
// with a zero Time so callers can drop them.
func (c *Client) RecentPlays(ctx context.Context, user string, from, to time.Time, page, pageSize int) (RecentPage, error) {
	if user == "" || page < 1 || pageSize < 1 {
		return RecentPage{}, ErrInvalidRequest
	}
	if err := ctx.Err(); err != nil {
		return RecentPage{}, &TransportError{Err: err}
	}

	result, err := c.api.User.GetRecentTracks(lastfm.P{
		"user":  user,
		"page":  page,
		"limit": pageSize,
		"from":  from.Unix(),
		"to":    to.Unix(),
	})
	if err != nil {
		return RecentPage{}, wrapAPIError("user.getRecentTracks", err)
	}

	events := make([]Scrobble, 0, len(result.Tracks))
	for i := range result.Tracks {
		t := &result.Tracks[i]
		s := Scrobble{
			Artist: t.Artist.Name,
			Track:  t.Name,
		}
		if t.NowPlaying != "true" && t.Date.Uts != "" {
			uts, err := strconv.ParseInt(t.Date.Uts, 10, 64)
			if err != nil {
				return RecentPage{}, &DecodeError{Reason: "unparseable scrobble timestamp " + strconv.Quote(t.Date.Uts)}
			}
			s.Time = time.Unix(uts, 0)
		}
		events = append(events, s)
	}

	return RecentPage{
		Events:     events,
		Page:       result.Page,
		TotalPages: result.TotalPages,
	}, nil
}

// TrackInfo fetches duration and genre tags for a track.
func (c *Client) TrackInfo(ctx context.Context, artist, track string) (TrackInfo, error) {
	if artist == "" || track == "" {
		return TrackInfo{}, ErrInvalidRequest
	}
	if err := ctx.Err(); err != nil {
		return TrackInfo{}, &TransportError{Err: err}
	}

	result, err := c.api.Track.GetInfo(lastfm.P{
		"artist": artist,
		"track":  track,
	})
	if err != nil {
		return TrackInfo{}, wrapAPIError("track.getInfo", err)
	}

	info := TrackInfo{
		Duration: parseDuration(result.Duration),
	}
	for _, tag := range result.TopTags {
		info.Tags = append(info.Tags, Tag{Name: tag.Name})
	}
	return info, nil
}

// ArtistTopTags fetches the top genre tags for an artist, used as a
// fallback when a track carries no tags of its own. The API returns
// tags ranked by count; weights are left zero.
func (c *Client) ArtistTopTags(ctx context.Context, artist string) ([]Tag, error) {
	if artist == "" {
		return nil, ErrInvalidRequest
	}
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Err: err}
	}

	result, err := c.api.Artist.GetTopTags(lastfm.P{
		"artist": artist,
	})
	if err != nil {
		return nil, wrapAPIError("artist.getTopTags", err)
	}

	tags := make([]Tag, 0, len(result.Tags))
	for _, tag := range result.Tags {
		tags = append(tags, Tag{Name: tag.Name})
	}
	return tags, nil
}

// UserTopTracks fetches a user's most played tracks for a named
// period ("7day", "1month", "3month", "6month", "12month",
// "overall").
func (c *Client) UserTopTracks(ctx context.Context, user, period string, limit int) ([]TopTrack, error) {
	if user == "" || limit < 1 {
		return nil, ErrInvalidRequest
	}
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Err: err}
	}

	result, err := c.api.User.GetTopTracks(lastfm.P{
		"user":   user,
		"period": period,
		"limit":  limit,
	})
	if err != nil {
		return nil, wrapAPIError("user.getTopTracks", err)
	}

	tracks := make([]TopTrack, 0, len(result.Tracks))
	for i := range result.Tracks {
		t := &result.Tracks[i]
		playcount, _ := strconv.Atoi(t.PlayCount) //nolint:errcheck // parse failure means count stays 0
		tracks = append(tracks, TopTrack{
			Artist:    t.Artist.Name,
			Track:     t.Name,
			PlayCount: playcount,
			Rank:      i + 1,
		})
	}
	return tracks, nil
}

// parseDuration converts the API's stringly-typed track duration to
// a time.Duration. Values above durationMSThreshold are treated as
// milliseconds. Absent or unparseable values yield zero.
func parseDuration(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0
	}
	if v > durationMSThreshold {
		v /= 1000
	}
	return time.Duration(v * float64(time.Second))
}

// SortTagsByWeight orders tags by descending weight, preserving the
// incoming order among equal weights so that sources which report
// pre-ranked tags without weights keep their ranking.
func SortTagsByWeight(tags []Tag) {
	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].Weight > tags[j].Weight
	})
}
