package webmeta

import (
	"context"
	"net/url"
)

// jsonFetcher is the slice of the page fetcher oEmbed needs.
type jsonFetcher interface {
	JSON(ctx context.Context, rawURL string, v any) error
}

var oembedEndpoints = map[Platform]string{
	PlatformYouTube:     "https://www.youtube.com/oembed?format=json&url=",
	PlatformVimeo:       "https://vimeo.com/api/oembed.json?url=",
	PlatformDailymotion: "https://www.dailymotion.com/services/oembed?format=json&url=",
	PlatformTwitter:     "https://publish.twitter.com/oembed?url=",
	PlatformTikTok:      "https://www.tiktok.com/oembed?url=",
	PlatformSpotify:     "https://open.spotify.com/oembed?url=",
	PlatformSoundCloud:  "https://soundcloud.com/oembed?format=json&url=",
	PlatformReddit:      "https://www.reddit.com/oembed?url=",
	PlatformFlickr:      "https://www.flickr.com/services/oembed?format=json&url=",
}

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ProviderName string `json:"provider_name"`
	ThumbnailURL string `json:"thumbnail_url"`
	Type         string `json:"type"`
}

// fetchOEmbed queries the platform's oEmbed endpoint. A missing
// endpoint or a failed fetch returns ok=false so the caller can fall
// through to HTML extraction.
func fetchOEmbed(ctx context.Context, fetcher jsonFetcher, platform Platform, rawURL string) (Metadata, bool) {
	endpoint, found := oembedEndpoints[platform]
	if !found {
		return Metadata{}, false
	}

	var resp oembedResponse
	if err := fetcher.JSON(ctx, endpoint+url.QueryEscape(rawURL), &resp); err != nil {
		return Metadata{}, false
	}
	if resp.Title == "" && resp.AuthorName == "" {
		return Metadata{}, false
	}

	m := Metadata{
		Title:           resp.Title,
		Author:          resp.AuthorName,
		SiteName:        resp.ProviderName,
		PreviewImageURL: resp.ThumbnailURL,
	}
	if platform == PlatformYouTube {
		if thumb := YouTubeMaxResThumbnail(rawURL); thumb != "" {
			m.PreviewImageURL = thumb
		}
	}
	return m, true
}
