package extraction

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	slidePathRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
	drawRunRe   = regexp.MustCompile(`<a:t(?:\s[^>]*)?>([^<]*)</a:t>`)
)

const (
	maxBulletsPerSlide = 5
	maxBulletsTotal    = 15
	minBulletChars     = 6
)

// PresentationExtractor pulls slide titles and notable text runs out of
// PPTX files.
type PresentationExtractor struct {
	limits Limits
}

func NewPresentationExtractor(limits Limits) *PresentationExtractor {
	return &PresentationExtractor{limits: limits}
}

func (e *PresentationExtractor) Name() string { return "presentation" }

func (e *PresentationExtractor) Priority() int { return 50 }

func (e *PresentationExtractor) CanExtract(fileName, mimeType string) bool {
	return extOf(fileName) == ".pptx" ||
		mimeType == "application/vnd.openxmlformats-officedocument.presentationml.presentation"
}

func (e *PresentationExtractor) Extract(ctx context.Context, data []byte, fileName string) (*Content, error) {
	content := &Content{Metadata: map[string]string{}}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		slog.Warn("PPTX open failed, degrading to empty content", "file", fileName, "error", err)
		return content, nil
	}

	type slideFile struct {
		num  int
		file *zip.File
	}
	var slides []slideFile
	for _, f := range zr.File {
		m := slidePathRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		slides = append(slides, slideFile{num: num, file: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	content.SlideCount = len(slides)
	if e.limits.MaxSlides > 0 && len(slides) > e.limits.MaxSlides {
		slides = slides[:e.limits.MaxSlides]
	}

	var b strings.Builder
	for _, s := range slides {
		runs := e.slideRuns(s.file)
		if len(runs) == 0 {
			continue
		}

		title := runs[0]
		content.SlideTitles = append(content.SlideTitles, title)
		b.WriteString(title)
		b.WriteString("\n")

		perSlide := 0
		for _, run := range runs[1:] {
			if len(run) < minBulletChars {
				continue
			}
			if perSlide >= maxBulletsPerSlide || len(content.BulletPoints) >= maxBulletsTotal {
				break
			}
			content.BulletPoints = append(content.BulletPoints, run)
			b.WriteString("- ")
			b.WriteString(run)
			b.WriteString("\n")
			perSlide++
		}
	}

	if len(content.SlideTitles) > 0 {
		content.Title = content.SlideTitles[0]
	}
	content.Text = truncate(strings.TrimSpace(b.String()), e.limits.MaxTextChars)
	return content, nil
}

func (e *PresentationExtractor) slideRuns(f *zip.File) []string {
	rc, err := f.Open()
	if err != nil {
		return nil
	}
	raw, err := io.ReadAll(io.LimitReader(rc, 4<<20))
	rc.Close()
	if err != nil {
		return nil
	}

	var runs []string
	for _, m := range drawRunRe.FindAllStringSubmatch(string(raw), -1) {
		text := strings.TrimSpace(unescapeXML(m[1]))
		if text == "" {
			continue
		}
		runs = append(runs, text)
	}
	return runs
}
