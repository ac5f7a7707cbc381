package feedparser

import (
	"context"
	"errors"
	"fmt"
)

// FetchError reports a transport failure, a timeout or a non-2xx response.
// StatusCode is 0 when no response was received.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Kind is "timeout" when the deadline expired and "fetch" otherwise.
func (e *FetchError) Kind() string {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "fetch"
}

// ParseError reports a payload that is not a valid RSS, Atom or JSON feed.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Kind is always "parse".
func (e *ParseError) Kind() string { return "parse" }
