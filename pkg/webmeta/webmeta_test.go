package webmeta

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	pages    map[string][]byte
	jsons    map[string]any
	pageErr  error
	jsonErr  error
	pageHits []string
}

func (f *fakeFetcher) Page(ctx context.Context, rawURL string) ([]byte, error) {
	f.pageHits = append(f.pageHits, rawURL)
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	if page, ok := f.pages[rawURL]; ok {
		return page, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeFetcher) JSON(ctx context.Context, rawURL string, v any) error {
	if f.jsonErr != nil {
		return f.jsonErr
	}
	for prefix, payload := range f.jsons {
		if strings.HasPrefix(rawURL, prefix) {
			raw, err := json.Marshal(payload)
			if err != nil {
				return err
			}
			return json.Unmarshal(raw, v)
		}
	}
	return errors.New("no oembed")
}

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url  string
		want Platform
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", PlatformYouTube},
		{"https://youtu.be/dQw4w9WgXcQ", PlatformYouTube},
		{"https://vimeo.com/12345", PlatformVimeo},
		{"https://x.com/user/status/1", PlatformTwitter},
		{"https://www.tiktok.com/@user/video/1", PlatformTikTok},
		{"https://open.spotify.com/track/abc", PlatformSpotify},
		{"https://example.com/article", Platform("")},
		{"https://notyoutube.com/watch", Platform("")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectPlatform(tt.url), tt.url)
	}
}

func TestYouTubeVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ?t=10", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/playlist?list=PL123", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, YouTubeVideoID(tt.url), tt.url)
	}
}

func TestParseHTMLLayerPriority(t *testing.T) {
	html := `<html><head>
		<title>Plain Title</title>
		<meta name="description" content="plain description">
		<meta property="og:title" content="OG Title">
		<meta name="twitter:title" content="Twitter Title">
		<meta name="twitter:description" content="twitter description">
		<meta name="twitter:image" content="https://example.com/tw.png">
		<meta name="author" content="Meta Author">
	</head><body></body></html>`

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(html)))
	require.NoError(t, err)
	m := ParseHTML(doc)

	assert.Equal(t, "OG Title", m.Title)
	assert.Equal(t, "twitter description", m.Description)
	assert.Equal(t, "https://example.com/tw.png", m.PreviewImageURL)
	assert.Equal(t, "Meta Author", m.Author)
}

func TestParseHTMLJSONLD(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">
		{"@context":"https://schema.org","@type":"Article",
		 "headline":"Structured Headline",
		 "datePublished":"2024-03-01T09:00:00Z",
		 "keywords":"go, concurrency",
		 "author":{"@type":"Person","name":"A. Writer"},
		 "publisher":{"@type":"Organization","name":"The Site"}}
		</script>
	</head><body></body></html>`

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(html)))
	require.NoError(t, err)
	m := ParseHTML(doc)

	assert.Equal(t, "Structured Headline", m.Title)
	assert.Equal(t, "2024-03-01T09:00:00Z", m.PublishedTime)
	assert.Equal(t, "A. Writer", m.Author)
	assert.Equal(t, "The Site", m.SiteName)
	assert.Equal(t, []string{"go", "concurrency"}, m.Tags)
}

func TestParseHTMLArticleTags(t *testing.T) {
	html := `<html><head>
		<meta property="article:tag" content="distributed systems">
		<meta property="article:tag" content="raft">
		<meta property="article:modified_time" content="2024-04-02T10:00:00Z">
	</head><body></body></html>`

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(html)))
	require.NoError(t, err)
	m := ParseHTML(doc)

	assert.Equal(t, []string{"distributed systems", "raft"}, m.Tags)
	assert.Equal(t, "2024-04-02T10:00:00Z", m.ModifiedTime)
}

func TestResolveVideoPlatformSkipsPageFetch(t *testing.T) {
	videoURL := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	f := &fakeFetcher{
		jsons: map[string]any{
			"https://www.youtube.com/oembed": map[string]any{
				"title":         "Never Gonna Give You Up",
				"author_name":   "Rick Astley",
				"provider_name": "YouTube",
				"thumbnail_url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg",
			},
		},
	}

	s := NewService(f, nil, 50000)
	result := s.Resolve(context.Background(), videoURL)

	assert.Empty(t, f.pageHits, "video platform with oEmbed must not fetch HTML")
	assert.Equal(t, PlatformYouTube, result.Platform)
	assert.Equal(t, "video", result.ContentType)
	assert.Equal(t, "Never Gonna Give You Up", result.Metadata.Title)
	assert.Equal(t, "Rick Astley", result.Metadata.Author)
	assert.Equal(t, "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg", result.Metadata.PreviewImageURL)
	assert.False(t, result.Unretrievable)
}

func TestResolveArticle(t *testing.T) {
	pageURL := "https://example.com/post"
	html := `<html><head>
		<title>Fallback Title</title>
		<meta property="og:title" content="A Real Article">
		<meta property="og:description" content="about things">
		<meta property="og:image" content="https://example.com/img.png">
	</head><body><article><p>` + strings.Repeat("Interesting body text. ", 40) + `</p></article></body></html>`

	f := &fakeFetcher{pages: map[string][]byte{pageURL: []byte(html)}}
	s := NewService(f, nil, 50000)
	result := s.Resolve(context.Background(), pageURL)

	assert.Equal(t, "A Real Article", result.Metadata.Title)
	assert.Equal(t, "about things", result.Metadata.Description)
	assert.Equal(t, "article", result.ContentType)
	assert.Equal(t, "example.com", result.Metadata.SiteName)
	assert.Contains(t, result.Text, "Interesting body text.")
	assert.False(t, result.Unretrievable)
}

func TestResolveUnretrievable(t *testing.T) {
	f := &fakeFetcher{pageErr: errors.New("connection refused"), jsonErr: errors.New("down")}
	s := NewService(f, nil, 50000)
	result := s.Resolve(context.Background(), "https://unreachable.example.com/x")

	assert.True(t, result.Unretrievable)
	assert.Equal(t, "https://unreachable.example.com/x", result.Metadata.Title)
	assert.Equal(t, "Content could not be retrieved", result.Metadata.Description)
}

func TestMergePriority(t *testing.T) {
	base := Metadata{Title: "keep me"}
	base.merge(Metadata{Title: "lose me", Description: "fill me"})
	assert.Equal(t, "keep me", base.Title)
	assert.Equal(t, "fill me", base.Description)
}
