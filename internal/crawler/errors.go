package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchFailed marks every failure returned by a Fetcher.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrUpstreamUnavailable signals that a listing page could not be fetched
	// and the walk was aborted.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrDetailFetchSkipped marks a detail page that was not fetched or
	// failed to fetch. It is logged and counted, never returned to callers.
	ErrDetailFetchSkipped = errors.New("detail fetch skipped")
	// ErrInvalidRecord marks a detail page that lacked a required field.
	ErrInvalidRecord = errors.New("invalid record")
)

// ReasonMissingTitle is the InvalidRecordError reason for a page without a title.
const ReasonMissingTitle = "missing-title"

// FetchError describes a failed fetch.
// StatusCode is zero when no response was received.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

// NewFetchError builds a FetchError.
func NewFetchError(url string, statusCode int, err error) *FetchError {
	return &FetchError{URL: url, StatusCode: statusCode, Err: err}
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports ErrFetchFailed for every FetchError.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

// InvalidRecordError is returned by extractors for pages that cannot
// produce a valid record.
type InvalidRecordError struct {
	URL    string
	Reason string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid record %s: %s", e.URL, e.Reason)
}

// Is reports ErrInvalidRecord for every InvalidRecordError.
func (e *InvalidRecordError) Is(target error) bool {
	return target == ErrInvalidRecord
}
