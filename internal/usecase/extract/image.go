package extract

import (
	"net/url"
	"strings"

	"feed-ingest/internal/domain/entity"

	"github.com/PuerkitoBio/goquery"
)

// findImage walks enclosure, media:content, media:thumbnail, og:image and
// the first <img>, returning the first usable absolute URL.
func findImage(entry entity.FeedEntry, contentHTML string) *string {
	base, _ := url.Parse(entry.Link)

	for _, enc := range entry.Enclosures {
		if enc.Type == "" || strings.HasPrefix(strings.ToLower(enc.Type), "image/") {
			if u := absoluteURL(enc.URL, base); u != "" {
				return &u
			}
		}
	}
	for _, candidates := range [][]string{entry.MediaContent, entry.MediaThumbnail} {
		for _, c := range candidates {
			if u := absoluteURL(c, base); u != "" {
				return &u
			}
		}
	}

	if contentHTML == "" || !strings.Contains(contentHTML, "<") {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(contentHTML))
	if err != nil {
		return nil
	}
	if og, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok {
		if u := absoluteURL(og, base); u != "" {
			return &u
		}
	}
	if src, ok := doc.Find("img[src]").First().Attr("src"); ok {
		if u := absoluteURL(src, base); u != "" {
			return &u
		}
	}
	return nil
}

func absoluteURL(raw string, base *url.URL) string {
	raw = strings.TrimSpace(DecodeEntities(raw))
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if !u.IsAbs() {
		if base == nil || !base.IsAbs() {
			return ""
		}
		u = base.ResolveReference(u)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.String()
}
