// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Chart builds
	OpGenreSeries    Op = "build genre series"
	OpActivitySeries Op = "build activity series"

	// Last.fm retrieval
	OpFetchHistory   Op = "fetch listening history"
	OpFetchTopTracks Op = "fetch top tracks"

	// Cache
	OpCacheOpen  Op = "open metadata cache"
	OpCacheClean Op = "clean expired cache entries"

	// Initialization
	OpConfigLoad Op = "load configuration"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
