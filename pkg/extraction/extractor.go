// Package extraction turns raw file bytes into text and structural
// metadata per format. Extractors never fail a request: partial or
// failed parses return a degraded Content and let the caller decide on
// AI fallback.
package extraction

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/FCMSStudent/laterr-sub000/pkg/config"
)

// Content is the transient per-request extraction result. It is created
// per request, consumed when the AI prompt is built, and never cached.
type Content struct {
	Text   string
	Title  string
	Author string

	// PDF
	PageCount int

	// Spreadsheets
	Headers     []string
	FirstRows   [][]string
	RowCount    int
	ColumnCount int

	// Presentations
	SlideCount   int
	SlideTitles  []string
	BulletPoints []string

	Metadata map[string]string

	// NeedsVision marks content that must go to the model as an image.
	NeedsVision bool

	// NeedsDocument marks a PDF whose text extraction came up empty or
	// below the minimal-content threshold; the pipeline escalates it to
	// the inline-document multimodal fallback.
	NeedsDocument bool
}

// Limits bounds extraction cost. Built once from config and shared by
// all extractors.
type Limits struct {
	MaxTextChars     int
	MinTextThreshold int
	AIInputBudget    int
	ShortDocLimit    int
	SampleThreshold  int
	MaxPages         int
	MaxSlides        int
	MaxSampleRows    int
}

// LimitsFromConfig copies the pipeline budgets into a Limits.
func LimitsFromConfig(cfg config.PipelineConfig) Limits {
	return Limits{
		MaxTextChars:     cfg.MaxTextChars,
		MinTextThreshold: cfg.MinTextThreshold,
		AIInputBudget:    cfg.AIInputBudget,
		ShortDocLimit:    cfg.ShortDocLimit,
		SampleThreshold:  cfg.SampleThreshold,
		MaxPages:         cfg.MaxPages,
		MaxSlides:        cfg.MaxSlides,
		MaxSampleRows:    cfg.MaxSampleRows,
	}
}

// Extractor is the interface for format-specific extraction.
type Extractor interface {
	// Name returns the extractor name for logging.
	Name() string

	// CanExtract determines if this extractor handles the file.
	CanExtract(fileName, mimeType string) bool

	// Extract parses data. Implementations return a degraded Content
	// rather than an error on partial failure.
	Extract(ctx context.Context, data []byte, fileName string) (*Content, error)

	// Priority orders extractors (higher = preferred).
	Priority() int
}

// Registry dispatches to the highest-priority matching extractor.
type Registry struct {
	extractors []Extractor
}

// NewRegistry builds a registry with the built-in extractors.
func NewRegistry(limits Limits) *Registry {
	r := &Registry{}
	r.Register(NewPDFExtractor(limits))
	r.Register(NewDocxExtractor(limits))
	r.Register(NewSpreadsheetExtractor(limits))
	r.Register(NewPresentationExtractor(limits))
	r.Register(NewTextExtractor(limits))
	r.Register(NewImageExtractor())
	r.Register(NewMediaExtractor())
	return r
}

// Register adds an extractor, keeping the list sorted by priority.
func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
	sort.SliceStable(r.extractors, func(i, j int) bool {
		return r.extractors[i].Priority() > r.extractors[j].Priority()
	})
}

// Extract runs the first matching extractor and returns its content
// together with the extractor name.
func (r *Registry) Extract(ctx context.Context, data []byte, fileName, mimeType string) (*Content, string, error) {
	for _, e := range r.extractors {
		if !e.CanExtract(fileName, mimeType) {
			continue
		}
		content, err := e.Extract(ctx, data, fileName)
		if err != nil {
			return nil, e.Name(), err
		}
		return content, e.Name(), nil
	}
	return nil, "", fmt.Errorf("no extractor for file %q (mime: %s)", fileName, mimeType)
}

func extOf(fileName string) string {
	return strings.ToLower(filepath.Ext(fileName))
}

// truncate cuts s at max characters.
func truncate(s string, max int) string {
	if max > 0 && len(s) > max {
		return s[:max]
	}
	return s
}

// collapseWhitespace folds runs of whitespace into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
