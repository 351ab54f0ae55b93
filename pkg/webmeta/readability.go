package webmeta

import (
	"bytes"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// mainContent extracts the readable body text from an HTML page.
// Readability runs first; when it finds nothing usable the page is
// stripped of boilerplate elements and its remaining text returned.
func mainContent(html []byte, pageURL *url.URL, maxChars int) string {
	parser := readability.NewParser()
	article, err := parser.Parse(bytes.NewReader(html), pageURL)
	if err == nil {
		text := strings.TrimSpace(article.TextContent)
		if text != "" {
			return clip(text, maxChars)
		}
	} else {
		slog.Debug("readability parse failed, using stripped body text", "url", pageURL.String(), "error", err)
	}
	return clip(strippedBodyText(html), maxChars)
}

func strippedBodyText(html []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, nav, header, footer, aside, noscript, iframe, form").Remove()
	return strings.Join(strings.Fields(doc.Find("body").Text()), " ")
}

func clip(s string, max int) string {
	if max > 0 && len(s) > max {
		return s[:max]
	}
	return s
}
