package webmeta

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// PageFetcher is the slice of pkg/fetch used here.
type PageFetcher interface {
	Page(ctx context.Context, rawURL string) ([]byte, error)
	JSON(ctx context.Context, rawURL string, v any) error
}

// Result is everything webmeta could learn about a URL. Extraction
// never fails outright: when every layer comes up empty the result is
// marked Unretrievable and carries a placeholder title.
type Result struct {
	Metadata      Metadata
	Platform      Platform
	ContentType   string
	Text          string
	Unretrievable bool
}

// Service runs the layered extraction.
type Service struct {
	fetcher      PageFetcher
	scrape       *ScrapeClient
	maxTextChars int
}

func NewService(fetcher PageFetcher, scrape *ScrapeClient, maxTextChars int) *Service {
	return &Service{fetcher: fetcher, scrape: scrape, maxTextChars: maxTextChars}
}

// Resolve extracts metadata and main content for rawURL.
//
// Known platforms are tried over oEmbed first; for video platforms a
// successful oEmbed answer is complete and the page HTML is never
// fetched. Everything else goes through page fetch, the layered HTML
// merge, and readability. When the direct fetch fails the scrape
// service (if configured) is the last resort.
func (s *Service) Resolve(ctx context.Context, rawURL string) Result {
	result := Result{Platform: DetectPlatform(rawURL)}
	result.ContentType = result.Platform.ContentType()
	if result.ContentType == "" {
		result.ContentType = "article"
	}

	var oembedMeta Metadata
	oembedOK := false
	if result.Platform != "" {
		oembedMeta, oembedOK = fetchOEmbed(ctx, s.fetcher, result.Platform, rawURL)
		if oembedOK && IsVideoPlatform(result.Platform) {
			result.Metadata = oembedMeta
			return result
		}
	}

	html, err := s.fetcher.Page(ctx, rawURL)
	if err == nil {
		result.Metadata = s.fromHTML(html, rawURL)
		if oembedOK {
			oembedMeta.merge(result.Metadata)
			result.Metadata = oembedMeta
		}
		result.Text = s.pageText(html, rawURL)
		s.finishMetadata(&result, rawURL)
		return result
	}
	slog.Warn("page fetch failed", "url", rawURL, "error", err)

	if s.scrape.Enabled() {
		meta, text, serr := s.scrape.Scrape(ctx, rawURL)
		if serr == nil {
			if oembedOK {
				oembedMeta.merge(meta)
				meta = oembedMeta
			}
			result.Metadata = meta
			result.Text = clip(text, s.maxTextChars)
			s.finishMetadata(&result, rawURL)
			return result
		}
		slog.Warn("scrape fallback failed", "url", rawURL, "error", serr)
	}

	if oembedOK {
		result.Metadata = oembedMeta
		s.finishMetadata(&result, rawURL)
		return result
	}

	result.Unretrievable = true
	result.Metadata = Metadata{
		Title:       rawURL,
		Description: "Content could not be retrieved",
	}
	return result
}

func (s *Service) fromHTML(html []byte, rawURL string) Metadata {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		slog.Warn("HTML parse failed", "url", rawURL, "error", err)
		return Metadata{}
	}
	return ParseHTML(doc)
}

func (s *Service) pageText(html []byte, rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		u = &url.URL{}
	}
	return mainContent(html, u, s.maxTextChars)
}

// finishMetadata applies cross-layer fixups: the YouTube thumbnail
// upgrade, a site-name default from the hostname, and a title default
// from the URL.
func (s *Service) finishMetadata(result *Result, rawURL string) {
	if result.Platform == PlatformYouTube {
		if thumb := YouTubeMaxResThumbnail(rawURL); thumb != "" {
			result.Metadata.PreviewImageURL = thumb
		}
	}
	if result.Metadata.SiteName == "" {
		if u, err := url.Parse(rawURL); err == nil {
			result.Metadata.SiteName = u.Hostname()
		}
	}
	if result.Metadata.Title == "" {
		result.Metadata.Title = rawURL
	}
}
