package catalog

import (
	"fmt"
)

// FetchError reports a failed upstream retrieval. A catalog is never built
// from a partial fetch, so any FetchError fails the whole operation.
type FetchError struct {
	Resource   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status code %d", e.Resource, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.Resource, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a channel id absent from the current catalog.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("channel %q not found", e.ID)
}
