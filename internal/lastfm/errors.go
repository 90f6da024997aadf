package lastfm

import (
	"errors"
	"fmt"

	"github.com/shkh/lastfm-go/lastfm"
)

// ErrInvalidRequest is returned when a query is constructed with
// malformed inputs (empty user, page < 1, ...). It should not occur
// with valid inputs.
var ErrInvalidRequest = errors.New("invalid request")

// TransportError wraps a network or transport-level failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteAPIError is a rejection from the Last.fm service itself,
// carrying the service's error code.
type RemoteAPIError struct {
	Code    int
	Message string
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("last.fm error %d: %s", e.Code, e.Message)
}

// DecodeError marks a payload that did not match the expected shape.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error: %s", e.Reason)
}

// wrapAPIError classifies an error from the underlying lastfm-go
// transport. The library surfaces both service rejections and its
// own transport/decode failures as *lastfm.LastfmError; only entries
// with a nonzero code are real API rejections.
func wrapAPIError(op string, err error) error {
	var lfmErr *lastfm.LastfmError
	if errors.As(err, &lfmErr) && lfmErr.Code != 0 {
		return fmt.Errorf("%s: %w", op, &RemoteAPIError{Code: lfmErr.Code, Message: lfmErr.Message})
	}
	return fmt.Errorf("%s: %w", op, &TransportError{Err: err})
}
