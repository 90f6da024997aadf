package charts

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/trendfm/internal/activity"
	"github.com/llehouerou/trendfm/internal/genres"
)

// Message types for chart builds.

// GenreSeriesMsg contains the result of a genre-series build.
type GenreSeriesMsg struct {
	Series genres.Series
	Err    error
}

// ActivitySeriesMsg contains the result of an activity-series build.
type ActivitySeriesMsg struct {
	Points []activity.Point
	Err    error
}

// BuildGenreSeriesCmd runs a genre-series build and delivers the
// result as a message.
func BuildGenreSeriesCmd(b *Builder, req GenreRequest) tea.Cmd {
	return func() tea.Msg {
		series, err := b.BuildGenreSeries(context.Background(), req)
		return GenreSeriesMsg{Series: series, Err: err}
	}
}

// BuildActivitySeriesCmd runs an activity-series build and delivers
// the result as a message.
func BuildActivitySeriesCmd(b *Builder, req ActivityRequest) tea.Cmd {
	return func() tea.Msg {
		points, err := b.BuildActivitySeries(context.Background(), req)
		return ActivitySeriesMsg{Points: points, Err: err}
	}
}
