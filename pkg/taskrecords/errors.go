package taskrecords

import (
	"errors"
	"fmt"
)

var (
	ErrNoUpstream    = errors.New("taskrecords: upstream url is not configured")
	ErrCacheCorrupt  = errors.New("taskrecords: cached dataset is not valid")
	ErrInvalidPage   = errors.New("taskrecords: invalid page")
	ErrUpstreamFetch = errors.New("taskrecords: upstream fetch failed")
)

// InvalidPageError reports a page parameter that is not a non-negative
// integer.
type InvalidPageError struct {
	Value string
}

func (e *InvalidPageError) Error() string {
	return fmt.Sprintf("invalid page %q: must be a non-negative integer", e.Value)
}

func (e *InvalidPageError) Is(target error) bool { return target == ErrInvalidPage }

// UpstreamFetchError wraps a failed bulk fetch. StatusCode is zero when the
// request never produced a response.
type UpstreamFetchError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamFetchError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("upstream responded %d: %s", e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("upstream responded %d", e.StatusCode)
	case e.Err != nil:
		return "upstream request failed: " + e.Err.Error()
	}
	return "upstream request failed"
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }

func (e *UpstreamFetchError) Is(target error) bool { return target == ErrUpstreamFetch }
