package lastfm

import (
	"errors"
	"testing"
	"time"

	"github.com/shkh/lastfm-go/lastfm"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Duration
	}{
		{"empty", "", 0},
		{"seconds", "240", 240 * time.Second},
		{"milliseconds above threshold", "240000", 240 * time.Second},
		{"just below threshold stays seconds", "9999", 9999 * time.Second},
		{"zero", "0", 0},
		{"negative", "-5", 0},
		{"unparseable", "4:00", 0},
		{"whitespace", " 180 ", 180 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseDuration(tt.raw)
			if got != tt.want {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSortTagsByWeight(t *testing.T) {
	tags := []Tag{
		{Name: "rock", Weight: 40},
		{Name: "metal", Weight: 100},
		{Name: "pop", Weight: 40},
		{Name: "jazz", Weight: 60},
	}

	SortTagsByWeight(tags)

	want := []string{"metal", "jazz", "rock", "pop"} // rock before pop: stable among equals
	for i, name := range want {
		if tags[i].Name != name {
			t.Errorf("tags[%d].Name = %q, want %q", i, tags[i].Name, name)
		}
	}
}

func TestSortTagsByWeight_ZeroWeightsKeepOrder(t *testing.T) {
	tags := []Tag{
		{Name: "shoegaze"},
		{Name: "dream pop"},
		{Name: "indie"},
	}

	SortTagsByWeight(tags)

	want := []string{"shoegaze", "dream pop", "indie"}
	for i, name := range want {
		if tags[i].Name != name {
			t.Errorf("tags[%d].Name = %q, want %q", i, tags[i].Name, name)
		}
	}
}

func TestWrapAPIError(t *testing.T) {
	t.Run("service rejection maps to RemoteAPIError", func(t *testing.T) {
		src := &lastfm.LastfmError{Code: 6, Message: "User not found"}
		err := wrapAPIError("user.getRecentTracks", src)

		var apiErr *RemoteAPIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected RemoteAPIError, got %v", err)
		}
		if apiErr.Code != 6 || apiErr.Message != "User not found" {
			t.Errorf("RemoteAPIError = %+v, want code 6 / User not found", apiErr)
		}
	})

	t.Run("zero-code failure maps to TransportError", func(t *testing.T) {
		src := &lastfm.LastfmError{Code: 0, Message: "connection refused"}
		err := wrapAPIError("track.getInfo", src)

		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			t.Fatalf("expected TransportError, got %v", err)
		}
	})

	t.Run("plain error maps to TransportError", func(t *testing.T) {
		err := wrapAPIError("artist.getTopTags", errors.New("timeout"))

		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			t.Fatalf("expected TransportError, got %v", err)
		}
	})
}

func TestScrobbleHasTime(t *testing.T) {
	if (Scrobble{}).HasTime() {
		t.Error("zero-time scrobble should not report a timestamp")
	}
	s := Scrobble{Time: time.Unix(1700000000, 0)}
	if !s.HasTime() {
		t.Error("dated scrobble should report a timestamp")
	}
}
