package scrape

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrUnknownSource is returned by the registry for unregistered source IDs.
var ErrUnknownSource = errors.New("unknown source")

// StatusError marks a fetch that completed with a non-2xx response. The
// retry policy consults the code to decide whether the fetch is retryable.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.Code, e.URL)
}

// StatusCode extracts the HTTP status from err if it wraps a StatusError;
// ok is false otherwise.
func StatusCode(err error) (int, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code, true
	}
	return 0, false
}
