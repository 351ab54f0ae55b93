package extraction

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

var (
	wordRunRe       = regexp.MustCompile(`<w:t(?:\s[^>]*)?>([^<]*)</w:t>`)
	wordParaEndRe   = regexp.MustCompile(`</w:p>`)
	corePropTitleRe = regexp.MustCompile(`<dc:title>([^<]*)</dc:title>`)
	corePropAuthRe  = regexp.MustCompile(`<dc:creator>([^<]*)</dc:creator>`)
	corePropSubjRe  = regexp.MustCompile(`<dc:subject>([^<]*)</dc:subject>`)
	corePropKeywRe  = regexp.MustCompile(`<cp:keywords>([^<]*)</cp:keywords>`)
)

// DocxExtractor extracts text and core properties from Word documents.
type DocxExtractor struct {
	limits Limits
}

func NewDocxExtractor(limits Limits) *DocxExtractor {
	return &DocxExtractor{limits: limits}
}

func (e *DocxExtractor) Name() string { return "docx" }

func (e *DocxExtractor) Priority() int { return 50 }

func (e *DocxExtractor) CanExtract(fileName, mimeType string) bool {
	return extOf(fileName) == ".docx" ||
		mimeType == "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

func (e *DocxExtractor) Extract(ctx context.Context, data []byte, fileName string) (*Content, error) {
	content := &Content{Metadata: map[string]string{}}

	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		slog.Warn("DOCX open failed, degrading to empty content", "file", fileName, "error", err)
		return content, nil
	}
	defer doc.Close()

	raw := doc.Editable().GetContent()
	content.Text = truncate(e.textFromXML(raw), e.limits.MaxTextChars)

	e.readCoreProps(data, content)
	return content, nil
}

// textFromXML pulls the visible run text out of the document XML,
// keeping a newline per paragraph.
func (e *DocxExtractor) textFromXML(raw string) string {
	var b strings.Builder
	paras := wordParaEndRe.Split(raw, -1)
	for _, para := range paras {
		runs := wordRunRe.FindAllStringSubmatch(para, -1)
		if len(runs) == 0 {
			continue
		}
		for _, run := range runs {
			b.WriteString(unescapeXML(run[1]))
		}
		b.WriteString("\n")
		if e.limits.MaxTextChars > 0 && b.Len() >= e.limits.MaxTextChars {
			break
		}
	}
	return strings.TrimSpace(b.String())
}

func (e *DocxExtractor) readCoreProps(data []byte, content *Content) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return
	}
	for _, f := range zr.File {
		if f.Name != "docProps/core.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return
		}
		raw, err := io.ReadAll(io.LimitReader(rc, 1<<20))
		rc.Close()
		if err != nil {
			return
		}
		core := string(raw)
		if m := corePropTitleRe.FindStringSubmatch(core); m != nil {
			content.Title = unescapeXML(m[1])
		}
		if m := corePropAuthRe.FindStringSubmatch(core); m != nil {
			content.Author = unescapeXML(m[1])
		}
		if m := corePropSubjRe.FindStringSubmatch(core); m != nil && m[1] != "" {
			content.Metadata["subject"] = unescapeXML(m[1])
		}
		if m := corePropKeywRe.FindStringSubmatch(core); m != nil && m[1] != "" {
			content.Metadata["keywords"] = unescapeXML(m[1])
		}
		return
	}
}

// unescapeXML resolves the named entities that OOXML text runs carry.
func unescapeXML(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	var out string
	if err := xml.Unmarshal([]byte("<v>"+s+"</v>"), &out); err != nil {
		return s
	}
	return out
}
