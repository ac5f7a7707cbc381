package feedparser

import (
	"log/slog"
	"net/url"
	"slices"
	"strings"

	"feed-ingest/internal/domain/entity"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

// mapFeed converts a parsed document into entries, skipping items that have
// no resolvable link.
func mapFeed(feed *gofeed.Feed, feedURL string) []entity.FeedEntry {
	dialect := dialectOf(feed.FeedType)
	base := baseURL(feed.Link, feedURL)

	entries := make([]entity.FeedEntry, 0, len(feed.Items))
	for i, item := range feed.Items {
		if item == nil {
			continue
		}
		link := resolveLink(item, base)
		if link == "" {
			slog.Debug("feed entry has no resolvable link, skipping",
				slog.String("feed_url", feedURL),
				slog.Int("index", i),
				slog.String("title", item.Title))
			continue
		}
		entries = append(entries, mapItem(item, dialect, link))
	}
	return entries
}

func mapItem(item *gofeed.Item, dialect entity.Dialect, link string) entity.FeedEntry {
	e := entity.FeedEntry{
		Dialect:        dialect,
		Title:          item.Title,
		Link:           link,
		GUID:           item.GUID,
		Description:    item.Description,
		ContentSnippet: plainText(item.Description),
		Published:      item.PublishedParsed,
		Updated:        item.UpdatedParsed,
	}

	// gofeed は RSS の content:encoded も Atom の <content> も Item.Content に入れる。
	// RSS の本文フィールドは <description> なので、content:encoded が無ければそれを使う
	if dialect == entity.DialectRSS {
		e.ContentEncoded = item.Content
		if e.ContentEncoded == "" {
			e.Content = item.Description
		}
	} else {
		e.Content = item.Content
	}

	if item.ITunesExt != nil {
		e.Summary = item.ITunesExt.Summary
	}

	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		e.Creator = strings.TrimSpace(item.DublinCoreExt.Creator[0])
	}
	if item.Author != nil {
		e.Author = strings.TrimSpace(item.Author.Name)
		if e.Author == "" {
			e.Author = strings.TrimSpace(item.Author.Email)
		}
	}

	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		e.Enclosures = append(e.Enclosures, entity.Enclosure{URL: enc.URL, Type: enc.Type})
	}

	media := item.Extensions["media"]
	e.MediaContent = mediaURLs(media, "content")
	e.MediaThumbnail = mediaURLs(media, "thumbnail")
	if item.Image != nil && item.Image.URL != "" && !slices.Contains(e.MediaThumbnail, item.Image.URL) {
		e.MediaThumbnail = append(e.MediaThumbnail, item.Image.URL)
	}

	return e
}

// mediaURLs collects media:<name> url attributes, including those nested in media:group.
func mediaURLs(media map[string][]ext.Extension, name string) []string {
	if media == nil {
		return nil
	}
	var urls []string
	for _, m := range media[name] {
		if u := m.Attrs["url"]; u != "" {
			urls = append(urls, u)
		}
	}
	for _, g := range media["group"] {
		for _, m := range g.Children[name] {
			if u := m.Attrs["url"]; u != "" {
				urls = append(urls, u)
			}
		}
	}
	return urls
}

// resolveLink tries the item link, then alternate links, then an http(s) GUID.
func resolveLink(item *gofeed.Item, base *url.URL) string {
	if l := resolve(item.Link, base); l != "" {
		return l
	}
	for _, candidate := range item.Links {
		if l := resolve(candidate, base); l != "" {
			return l
		}
	}
	guid := strings.TrimSpace(item.GUID)
	if strings.HasPrefix(guid, "http://") || strings.HasPrefix(guid, "https://") {
		return resolve(guid, nil)
	}
	return ""
}

func resolve(raw string, base *url.URL) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if !u.IsAbs() {
		if base == nil {
			return ""
		}
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return ""
	}
	return u.String()
}

// baseURL prefers the feed's own site link, resolved against the feed URL.
func baseURL(feedLink, feedURL string) *url.URL {
	fu, err := url.Parse(feedURL)
	if err != nil {
		return nil
	}
	if feedLink == "" {
		return fu
	}
	l, err := url.Parse(strings.TrimSpace(feedLink))
	if err != nil {
		return fu
	}
	return fu.ResolveReference(l)
}

func dialectOf(feedType string) entity.Dialect {
	switch feedType {
	case "atom":
		return entity.DialectAtom
	case "json":
		return entity.DialectJSON
	default:
		return entity.DialectRSS
	}
}

// plainText renders an HTML fragment as whitespace-normalized text.
func plainText(fragment string) string {
	if fragment == "" {
		return ""
	}
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}
