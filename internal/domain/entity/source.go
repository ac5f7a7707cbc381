package entity

import (
	"strings"
	"time"
)

// DefaultFetchIntervalMinutes is applied to sources registered without an interval.
const DefaultFetchIntervalMinutes = 60

// Source represents an external feed registration.
// FeedURL is the natural key; only active sources are refreshed.
type Source struct {
	ID                   int64
	Name                 string
	URL                  string
	FeedURL              string
	CategoryID           *int64
	Active               bool
	FetchIntervalMinutes int
	LastFetchedAt        *time.Time
	CreatedAt            time.Time
}

// Validate checks the fields required to register a source.
func (s *Source) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if err := ValidateURL("feed_url", s.FeedURL); err != nil {
		return err
	}
	if s.URL != "" {
		if err := ValidateURL("url", s.URL); err != nil {
			return err
		}
	}
	if s.FetchIntervalMinutes < 0 {
		return &ValidationError{Field: "fetch_interval_minutes", Message: "must not be negative"}
	}
	return nil
}
