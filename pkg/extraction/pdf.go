package extraction

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor extracts text and document info from PDF files.
type PDFExtractor struct {
	limits Limits
}

func NewPDFExtractor(limits Limits) *PDFExtractor {
	return &PDFExtractor{limits: limits}
}

func (e *PDFExtractor) Name() string { return "pdf" }

func (e *PDFExtractor) Priority() int { return 50 }

func (e *PDFExtractor) CanExtract(fileName, mimeType string) bool {
	return extOf(fileName) == ".pdf" || mimeType == "application/pdf"
}

// Extract reads up to MaxPages pages of text plus the Info dictionary.
// The underlying reader panics on malformed files, so parsing runs
// behind a recover and degrades to an empty Content flagged for the
// document fallback.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte, fileName string) (content *Content, err error) {
	content = &Content{Metadata: map[string]string{}}

	defer func() {
		if r := recover(); r != nil {
			slog.Warn("PDF parsing panicked, degrading to document fallback", "file", fileName, "panic", r)
			content.Text = ""
			content.NeedsDocument = true
			err = nil
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		slog.Warn("PDF open failed, degrading to document fallback", "file", fileName, "error", err)
		content.NeedsDocument = true
		return content, nil
	}

	content.PageCount = reader.NumPage()
	e.readInfo(reader, content)

	pages := content.PageCount
	if e.limits.MaxPages > 0 && pages > e.limits.MaxPages {
		pages = e.limits.MaxPages
	}

	var b strings.Builder
	for i := 1; i <= pages; i++ {
		if ctx.Err() != nil {
			break
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, perr := page.GetPlainText(nil)
		if perr != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
		if e.limits.MaxTextChars > 0 && b.Len() >= e.limits.MaxTextChars {
			break
		}
	}

	content.Text = truncate(strings.TrimSpace(b.String()), e.limits.MaxTextChars)
	if len(collapseWhitespace(content.Text)) < e.limits.MinTextThreshold {
		content.NeedsDocument = true
	}
	return content, nil
}

func (e *PDFExtractor) readInfo(reader *pdf.Reader, content *Content) {
	info := reader.Trailer().Key("Info")
	if info.IsNull() {
		return
	}
	read := func(key string) string {
		v := info.Key(key)
		if v.Kind() == pdf.String {
			return strings.TrimSpace(v.Text())
		}
		return ""
	}
	content.Title = read("Title")
	content.Author = read("Author")
	if subject := read("Subject"); subject != "" {
		content.Metadata["subject"] = subject
	}
	if keywords := read("Keywords"); keywords != "" {
		content.Metadata["keywords"] = keywords
	}
	if creator := read("Creator"); creator != "" {
		content.Metadata["creator"] = creator
	}
}
