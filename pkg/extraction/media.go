package extraction

import (
	"context"
	"path/filepath"
	"strings"
	"unicode"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".svg": true, ".heic": true,
}

// ImageExtractor produces no text; it flags the content for the vision
// path and derives a title from the file name.
type ImageExtractor struct{}

func NewImageExtractor() *ImageExtractor { return &ImageExtractor{} }

func (e *ImageExtractor) Name() string { return "image" }

func (e *ImageExtractor) Priority() int { return 50 }

func (e *ImageExtractor) CanExtract(fileName, mimeType string) bool {
	return imageExtensions[extOf(fileName)] || strings.HasPrefix(mimeType, "image/")
}

func (e *ImageExtractor) Extract(ctx context.Context, data []byte, fileName string) (*Content, error) {
	return &Content{
		Title:       CleanFileName(fileName),
		NeedsVision: true,
		Metadata:    map[string]string{},
	}, nil
}

var mediaExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".webm": true,
	".mp3": true, ".wav": true, ".flac": true, ".m4a": true, ".ogg": true,
	".aac": true,
}

// MediaExtractor handles video and audio files. There is no local
// transcoding, so analysis rests on the cleaned file name alone.
type MediaExtractor struct{}

func NewMediaExtractor() *MediaExtractor { return &MediaExtractor{} }

func (e *MediaExtractor) Name() string { return "media" }

func (e *MediaExtractor) Priority() int { return 50 }

func (e *MediaExtractor) CanExtract(fileName, mimeType string) bool {
	return mediaExtensions[extOf(fileName)] ||
		strings.HasPrefix(mimeType, "video/") || strings.HasPrefix(mimeType, "audio/")
}

func (e *MediaExtractor) Extract(ctx context.Context, data []byte, fileName string) (*Content, error) {
	return &Content{
		Title:    CleanFileName(fileName),
		Metadata: map[string]string{},
	}, nil
}

// CleanFileName turns a raw file name into a human-readable title:
// the extension is dropped, underscores and hyphens become spaces, and
// each word is title-cased. Short all-caps words (2 to 5 letters) are
// treated as acronyms and left alone.
func CleanFileName(fileName string) string {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)

	words := strings.Fields(base)
	for i, w := range words {
		if isAcronym(w) {
			continue
		}
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func isAcronym(w string) bool {
	if len(w) < 2 || len(w) > 5 {
		return false
	}
	for _, r := range w {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}
