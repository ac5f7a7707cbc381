// Package extract maps a raw feed entry onto the canonical article fields.
// Everything here is pure: same entry and clock in, same result out.
package extract

import (
	"time"

	"feed-ingest/internal/domain/entity"
)

// UntitledTitle replaces an empty title.
const UntitledTitle = "Untitled"

// Extracted holds the normalized fields of one entry.
type Extracted struct {
	Title       string
	Description string
	Content     *string
	URL         string
	ImageURL    *string
	Author      *string
	PublishedAt time.Time
}

// Extract resolves every article field through its fallback chain.
//
//	title       title → "Untitled"
//	description content snippet → summary → ""
//	content     content:encoded → content → description
//	image       enclosure → media:content → media:thumbnail → og:image → <img>
//	author      creator → author
//	publishedAt published → updated → now
func Extract(entry entity.FeedEntry, now time.Time) Extracted {
	x := Extracted{
		Title: PlainText(entry.Title),
		URL:   entry.Link,
	}
	if x.Title == "" {
		x.Title = UntitledTitle
	}

	switch {
	case entry.ContentSnippet != "":
		x.Description = PlainText(entry.ContentSnippet)
	case entry.Summary != "":
		x.Description = PlainText(entry.Summary)
	}

	rawContent := entry.ContentEncoded
	if rawContent == "" {
		rawContent = entry.Content
	}
	if rawContent != "" {
		if c := SanitizeHTML(rawContent); c != "" {
			x.Content = &c
		}
	} else if entry.Description != "" {
		x.Content = descriptionAsContent(entry.Description)
		rawContent = entry.Description
	}

	x.ImageURL = findImage(entry, rawContent)

	author := PlainText(entry.Creator)
	if author == "" {
		author = PlainText(entry.Author)
	}
	if author != "" {
		x.Author = &author
	}

	x.PublishedAt = publishedAt(entry, now)
	return x
}

func publishedAt(entry entity.FeedEntry, now time.Time) time.Time {
	for _, t := range []*time.Time{entry.Published, entry.Updated} {
		if t != nil && !t.IsZero() {
			return t.UTC()
		}
	}
	return now.UTC()
}

// Article builds the row to upsert for src. CategoryID is inherited from the source.
func (x Extracted) Article(src *entity.Source) *entity.Article {
	return &entity.Article{
		Title:       x.Title,
		Description: x.Description,
		Content:     x.Content,
		URL:         x.URL,
		ImageURL:    x.ImageURL,
		Author:      x.Author,
		PublishedAt: x.PublishedAt,
		SourceID:    src.ID,
		CategoryID:  src.CategoryID,
	}
}
