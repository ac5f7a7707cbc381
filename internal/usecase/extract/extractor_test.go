package extract

import (
	"testing"
	"time"

	"feed-ingest/internal/domain/entity"

	"github.com/google/go-cmp/cmp"
)

func strPtr(s string) *string { return &s }

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestExtract_FullRSSEntry(t *testing.T) {
	pub := time.Date(2024, 5, 30, 9, 0, 0, 0, time.FixedZone("JST", 9*3600))
	entry := entity.FeedEntry{
		Dialect:        entity.DialectRSS,
		Title:          "  Caf&eacute; &amp; Bar  ",
		Link:           "https://example.com/posts/1",
		ContentSnippet: "Hello & welcome",
		Description:    "<p>Hello &amp; welcome</p>",
		ContentEncoded: `<p>Body</p><script>alert("x")</script>`,
		Enclosures:     []entity.Enclosure{{URL: "https://example.com/cover.jpg", Type: "image/jpeg"}},
		Creator:        "Alice",
		Author:         "someone@example.com",
		Published:      &pub,
	}

	got := Extract(entry, fixedNow)

	want := Extracted{
		Title:       "Café & Bar",
		Description: "Hello & welcome",
		Content:     strPtr("<p>Body</p>"),
		URL:         "https://example.com/posts/1",
		ImageURL:    strPtr("https://example.com/cover.jpg"),
		Author:      strPtr("Alice"),
		PublishedAt: pub.UTC(),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_Title(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"empty", "", UntitledTitle},
		{"whitespace", "   \n ", UntitledTitle},
		{"markup stripped", "<b>Go</b> 1.23 released", "Go 1.23 released"},
		{"double encoded", "Tom &amp;amp; Jerry", "Tom & Jerry"},
		{"numeric", "&#8220;Quoted&#x201D;", "“Quoted”"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(entity.FeedEntry{Title: tt.title, Link: "https://e.x/a"}, fixedNow).Title
			if got != tt.want {
				t.Errorf("title = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtract_DescriptionFallback(t *testing.T) {
	tests := []struct {
		name  string
		entry entity.FeedEntry
		want  string
	}{
		{"snippet wins", entity.FeedEntry{ContentSnippet: "snippet", Summary: "summary"}, "snippet"},
		{"summary when no snippet", entity.FeedEntry{Summary: "itunes summary"}, "itunes summary"},
		{"empty when neither", entity.FeedEntry{}, ""},
		{"summary markup removed", entity.FeedEntry{Summary: "<p>a <i>b</i></p>"}, "a b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Extract(tt.entry, fixedNow).Description; got != tt.want {
				t.Errorf("description = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtract_ContentFallback(t *testing.T) {
	tests := []struct {
		name  string
		entry entity.FeedEntry
		want  *string
	}{
		{
			name:  "content:encoded preferred",
			entry: entity.FeedEntry{ContentEncoded: "<p>encoded</p>", Content: "<p>atom</p>"},
			want:  strPtr("<p>encoded</p>"),
		},
		{
			name:  "atom content",
			entry: entity.FeedEntry{Content: "<p>atom</p>"},
			want:  strPtr("<p>atom</p>"),
		},
		{
			name:  "description with markup",
			entry: entity.FeedEntry{Description: "<p>Desc <b>x</b></p>", ContentSnippet: "Desc x"},
			want:  strPtr("<p>Desc <b>x</b></p>"),
		},
		{
			name:  "plain description equal to snippet",
			entry: entity.FeedEntry{Description: "Fish & chips", ContentSnippet: "Fish & chips"},
			want:  strPtr("Fish &amp; chips"),
		},
		{
			name:  "nothing",
			entry: entity.FeedEntry{},
			want:  nil,
		},
		{
			name:  "only a script",
			entry: entity.FeedEntry{ContentEncoded: "<script>alert(1)</script>"},
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.entry, fixedNow).Content
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("content mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtract_ImageChain(t *testing.T) {
	const link = "https://example.com/posts/1"
	tests := []struct {
		name  string
		entry entity.FeedEntry
		want  *string
	}{
		{
			name: "enclosure without type",
			entry: entity.FeedEntry{
				Enclosures:   []entity.Enclosure{{URL: "https://cdn.example.com/e.png"}},
				MediaContent: []string{"https://cdn.example.com/m.png"},
			},
			want: strPtr("https://cdn.example.com/e.png"),
		},
		{
			name: "audio enclosure skipped for media content",
			entry: entity.FeedEntry{
				Enclosures:     []entity.Enclosure{{URL: "https://cdn.example.com/ep.mp3", Type: "audio/mpeg"}},
				MediaContent:   []string{"https://cdn.example.com/m.png"},
				MediaThumbnail: []string{"https://cdn.example.com/t.png"},
			},
			want: strPtr("https://cdn.example.com/m.png"),
		},
		{
			name:  "thumbnail",
			entry: entity.FeedEntry{MediaThumbnail: []string{"https://cdn.example.com/t.png"}},
			want:  strPtr("https://cdn.example.com/t.png"),
		},
		{
			name: "og:image in content",
			entry: entity.FeedEntry{
				ContentEncoded: `<meta property="og:image" content="https://cdn.example.com/og.png"><p><img src="/inline.png"></p>`,
			},
			want: strPtr("https://cdn.example.com/og.png"),
		},
		{
			name:  "first img resolved against the link",
			entry: entity.FeedEntry{Content: `<p>text</p><img src="/a.png"><img src="/b.png">`},
			want:  strPtr("https://example.com/a.png"),
		},
		{
			name:  "img in description",
			entry: entity.FeedEntry{Description: `<img src="https://cdn.example.com/d.png"> hi`, ContentSnippet: "hi"},
			want:  strPtr("https://cdn.example.com/d.png"),
		},
		{
			name:  "data uri ignored",
			entry: entity.FeedEntry{Content: `<img src="data:image/png;base64,AAAA">`},
			want:  nil,
		},
		{
			name:  "none",
			entry: entity.FeedEntry{Content: "<p>no pictures</p>"},
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.entry.Link = link
			got := Extract(tt.entry, fixedNow).ImageURL
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("image mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtract_Author(t *testing.T) {
	if got := Extract(entity.FeedEntry{Creator: "Alice", Author: "Bob"}, fixedNow).Author; got == nil || *got != "Alice" {
		t.Errorf("creator should win, got %v", got)
	}
	if got := Extract(entity.FeedEntry{Author: "Bob &amp; Co"}, fixedNow).Author; got == nil || *got != "Bob & Co" {
		t.Errorf("author fallback, got %v", got)
	}
	if got := Extract(entity.FeedEntry{}, fixedNow).Author; got != nil {
		t.Errorf("author should be absent, got %q", *got)
	}
}

func TestExtract_PublishedAt(t *testing.T) {
	pub := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	upd := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	var zero time.Time

	tests := []struct {
		name  string
		entry entity.FeedEntry
		want  time.Time
	}{
		{"published", entity.FeedEntry{Published: &pub, Updated: &upd}, pub},
		{"updated fallback", entity.FeedEntry{Updated: &upd}, upd},
		{"zero published ignored", entity.FeedEntry{Published: &zero, Updated: &upd}, upd},
		{"now", entity.FeedEntry{}, fixedNow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.entry, fixedNow).PublishedAt
			if !got.Equal(tt.want) || got.IsZero() {
				t.Errorf("publishedAt = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtracted_Article(t *testing.T) {
	cat := int64(4)
	src := &entity.Source{ID: 9, CategoryID: &cat}
	x := Extract(entity.FeedEntry{Title: "T", Link: "https://e.x/1"}, fixedNow)

	a := x.Article(src)
	if a.SourceID != 9 || a.CategoryID == nil || *a.CategoryID != 4 {
		t.Errorf("source fields not inherited: %+v", a)
	}
	if a.URL != "https://e.x/1" || a.Title != "T" || !a.PublishedAt.Equal(fixedNow) {
		t.Errorf("unexpected article: %+v", a)
	}
}
