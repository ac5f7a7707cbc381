// Package fetcher downloads article pages and extracts their main body with
// the Readability algorithm. It fills in content for feed entries that ship
// without one.
package fetcher

import "errors"

var (
	// ErrInvalidURL indicates a URL that is malformed or uses a scheme other than http(s).
	ErrInvalidURL = errors.New("invalid URL")

	// ErrTooManyRedirects indicates the redirect chain exceeded MaxRedirects.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge indicates the page exceeded MaxBodySize.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTimeout indicates the page download exceeded Timeout.
	ErrTimeout = errors.New("content fetch timeout")

	// ErrReadabilityFailed indicates that no article body could be extracted.
	ErrReadabilityFailed = errors.New("readability extraction failed")
)
