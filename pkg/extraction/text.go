package extraction

import (
	"context"
	"strings"
	"unicode/utf8"
)

// TextExtractor handles plain-text formats: txt, markdown, source code
// and other UTF-8 files. It is the lowest-priority name-matched
// extractor and also accepts text/* mime types.
type TextExtractor struct {
	limits Limits
}

func NewTextExtractor(limits Limits) *TextExtractor {
	return &TextExtractor{limits: limits}
}

func (e *TextExtractor) Name() string { return "text" }

func (e *TextExtractor) Priority() int { return 10 }

var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".markdown": true, ".rst": true,
	".json": true, ".yaml": true, ".yml": true, ".toml": true,
	".xml": true, ".html": true, ".htm": true, ".log": true,
}

func (e *TextExtractor) CanExtract(fileName, mimeType string) bool {
	if textExtensions[extOf(fileName)] {
		return true
	}
	return strings.HasPrefix(mimeType, "text/") ||
		mimeType == "application/json" || mimeType == "application/xml"
}

func (e *TextExtractor) Extract(ctx context.Context, data []byte, fileName string) (*Content, error) {
	content := &Content{Metadata: map[string]string{}}
	if !utf8.Valid(data) {
		data = []byte(strings.ToValidUTF8(string(data), ""))
	}
	content.Text = truncate(strings.TrimSpace(string(data)), e.limits.MaxTextChars)
	return content, nil
}
