// Package webmeta resolves metadata and main content for web URLs.
// It layers oEmbed, Open Graph, Twitter Card, JSON-LD, standard meta
// tags, readability extraction and a remote scrape fallback, and always
// returns a usable result.
package webmeta

import (
	"net/url"
	"regexp"
	"strings"
)

// Platform identifies a known content platform for a URL, or is empty.
type Platform string

const (
	PlatformYouTube     Platform = "youtube"
	PlatformVimeo       Platform = "vimeo"
	PlatformDailymotion Platform = "dailymotion"
	PlatformTwitch      Platform = "twitch"
	PlatformTwitter     Platform = "twitter"
	PlatformTikTok      Platform = "tiktok"
	PlatformSpotify     Platform = "spotify"
	PlatformSoundCloud  Platform = "soundcloud"
	PlatformReddit      Platform = "reddit"
	PlatformFlickr      Platform = "flickr"
)

var videoPlatforms = map[Platform]bool{
	PlatformYouTube:     true,
	PlatformVimeo:       true,
	PlatformDailymotion: true,
	PlatformTwitch:      true,
}

var platformHosts = []struct {
	fragment string
	platform Platform
}{
	{"youtube.com", PlatformYouTube},
	{"youtu.be", PlatformYouTube},
	{"vimeo.com", PlatformVimeo},
	{"dailymotion.com", PlatformDailymotion},
	{"twitch.tv", PlatformTwitch},
	{"twitter.com", PlatformTwitter},
	{"x.com", PlatformTwitter},
	{"tiktok.com", PlatformTikTok},
	{"spotify.com", PlatformSpotify},
	{"soundcloud.com", PlatformSoundCloud},
	{"reddit.com", PlatformReddit},
	{"flickr.com", PlatformFlickr},
}

// DetectPlatform matches the URL hostname against known platforms.
func DetectPlatform(rawURL string) Platform {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	for _, p := range platformHosts {
		if host == p.fragment || strings.HasSuffix(host, "."+p.fragment) {
			return p.platform
		}
	}
	return ""
}

// IsVideoPlatform reports whether p hosts video content.
func IsVideoPlatform(p Platform) bool { return videoPlatforms[p] }

// ContentType returns the content type implied by the platform, or
// empty when the platform does not pin one down.
func (p Platform) ContentType() string {
	switch p {
	case PlatformYouTube, PlatformVimeo, PlatformDailymotion, PlatformTwitch:
		return "video"
	case PlatformSpotify, PlatformSoundCloud:
		return "audio"
	case PlatformFlickr:
		return "image"
	case PlatformTwitter, PlatformTikTok, PlatformReddit:
		return "social"
	}
	return ""
}

var youtubeIDRes = []*regexp.Regexp{
	regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/(?:embed|shorts|live)/([A-Za-z0-9_-]{11})`),
}

// YouTubeVideoID pulls the 11-character video ID out of any YouTube
// URL form, or returns empty.
func YouTubeVideoID(rawURL string) string {
	for _, re := range youtubeIDRes {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}

// YouTubeMaxResThumbnail returns the highest-resolution thumbnail URL
// for a YouTube video URL, or empty when no video ID is found.
func YouTubeMaxResThumbnail(rawURL string) string {
	id := YouTubeVideoID(rawURL)
	if id == "" {
		return ""
	}
	return "https://i.ytimg.com/vi/" + id + "/maxresdefault.jpg"
}
