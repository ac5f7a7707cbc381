package entity

import "time"

// Dialect identifies the syndication format an entry was read from.
type Dialect string

const (
	DialectRSS  Dialect = "rss"
	DialectAtom Dialect = "atom"
	DialectJSON Dialect = "json"
)

// Enclosure is an attached media reference (RSS <enclosure>).
type Enclosure struct {
	URL  string
	Type string
}

// FeedEntry is one raw entry of a parsed feed. Every field is optional;
// the extractor resolves the canonical article fields through explicit
// fallback chains instead of probing dialect-specific properties.
type FeedEntry struct {
	Dialect Dialect

	Title string
	// Link is the resolved absolute article URL. Entries without one are dropped by the parser.
	Link string
	GUID string

	// ContentSnippet is the plain-text rendering of the entry description (RSS) or summary (Atom).
	ContentSnippet string
	// Summary holds secondary summaries such as itunes:summary.
	Summary string
	// ContentEncoded is the RSS content:encoded body.
	ContentEncoded string
	// Content is the Atom <content> body.
	Content string
	// Description is the raw (possibly HTML) RSS description or Atom summary.
	Description string

	Enclosures     []Enclosure
	MediaContent   []string
	MediaThumbnail []string

	// Creator is dc:creator; Author is the format-native author element.
	Creator string
	Author  string

	Published *time.Time
	Updated   *time.Time
}
