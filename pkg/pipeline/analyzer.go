// Package pipeline orchestrates a full analysis: guard the URL, gather
// content, ask the model, normalize the answer, and assemble the
// response envelope.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FCMSStudent/laterr-sub000/pkg/ai"
	"github.com/FCMSStudent/laterr-sub000/pkg/apierr"
	"github.com/FCMSStudent/laterr-sub000/pkg/config"
	"github.com/FCMSStudent/laterr-sub000/pkg/embedders"
	"github.com/FCMSStudent/laterr-sub000/pkg/extraction"
	"github.com/FCMSStudent/laterr-sub000/pkg/normalize"
	"github.com/FCMSStudent/laterr-sub000/pkg/observability"
	"github.com/FCMSStudent/laterr-sub000/pkg/webmeta"
)

// AnalysisClient produces a model response for an input.
type AnalysisClient interface {
	Analyze(ctx context.Context, input ai.Input) (normalize.Response, error)
}

// WebResolver resolves metadata and content for a web URL.
type WebResolver interface {
	Resolve(ctx context.Context, rawURL string) webmeta.Result
}

// FileFetcher downloads file bytes.
type FileFetcher interface {
	Bytes(ctx context.Context, rawURL string) ([]byte, error)
}

// URLValidator rejects URLs that must not be fetched.
type URLValidator interface {
	Validate(rawURL string) error
}

// Embedder generates embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// AnalyzeRequest is one analysis job. URL and FileURL are mutually
// exclusive; the server validates that before calling.
type AnalyzeRequest struct {
	URL      string
	FileURL  string
	FileType string
	FileName string
}

// Envelope is the complete analysis result returned to the caller.
type Envelope struct {
	Title           string   `json:"title"`
	Summary         string   `json:"summary"`
	Tags            []string `json:"tags"`
	Category        string   `json:"category"`
	KeyPoints       []string `json:"keyPoints,omitempty"`
	Confidence      float64  `json:"confidence"`
	ExtractedText   string   `json:"extractedText,omitempty"`
	PreviewImageURL string   `json:"previewImageUrl,omitempty"`
	Author          string   `json:"author,omitempty"`
	Platform        string   `json:"platform,omitempty"`
	ContentType     string   `json:"contentType,omitempty"`
	SiteName        string   `json:"siteName,omitempty"`
	PublishedTime   string   `json:"publishedTime,omitempty"`
	UsedFallback    bool     `json:"usedFallback,omitempty"`
}

// Analyzer wires the stages together.
type Analyzer struct {
	guard    URLValidator
	web      WebResolver
	files    FileFetcher
	registry *extraction.Registry
	client   AnalysisClient
	embedder Embedder
	limits   extraction.Limits
	metrics  *observability.Metrics
}

func NewAnalyzer(
	guard URLValidator,
	web WebResolver,
	files FileFetcher,
	registry *extraction.Registry,
	client AnalysisClient,
	embedder Embedder,
	cfg config.PipelineConfig,
	metrics *observability.Metrics,
) *Analyzer {
	return &Analyzer{
		guard:    guard,
		web:      web,
		files:    files,
		registry: registry,
		client:   client,
		embedder: embedder,
		limits:   extraction.LimitsFromConfig(cfg),
		metrics:  metrics,
	}
}

const systemPrompt = "You are a content analyst for a read-it-later service. " +
	"Analyze the provided content and record your findings with the record_analysis function. " +
	"Be factual and concise; never invent details that are not supported by the content."

// Analyze runs one request end to end.
func (a *Analyzer) Analyze(ctx context.Context, req AnalyzeRequest) (*Envelope, error) {
	mode := "url"
	target := req.URL
	if req.FileURL != "" {
		mode = "file"
		target = req.FileURL
	}

	id := uuid.NewString()
	slog.Info("analysis started", "analysis_id", id, "mode", mode, "target", target)

	start := time.Now()
	envelope, err := a.dispatch(ctx, mode, req)
	a.observe(mode, start, envelope, err)

	if err != nil {
		slog.Warn("analysis failed", "analysis_id", id, "code", apierr.FromError(err).Code)
	} else {
		slog.Info("analysis finished",
			"analysis_id", id,
			"category", envelope.Category,
			"used_fallback", envelope.UsedFallback,
			"duration", time.Since(start))
	}
	return envelope, err
}

func (a *Analyzer) dispatch(ctx context.Context, mode string, req AnalyzeRequest) (*Envelope, error) {
	if mode == "file" {
		return a.analyzeFile(ctx, req)
	}
	return a.analyzeURL(ctx, req.URL)
}

func (a *Analyzer) observe(mode string, start time.Time, envelope *Envelope, err error) {
	if a.metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case err != nil:
		outcome = string(apierr.FromError(err).Code)
	case envelope.UsedFallback:
		outcome = "fallback"
	}
	a.metrics.AnalysesTotal.WithLabelValues(mode, outcome).Inc()
	a.metrics.AnalysisDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}

func (a *Analyzer) analyzeURL(ctx context.Context, rawURL string) (*Envelope, error) {
	if err := a.guard.Validate(rawURL); err != nil {
		return nil, err
	}

	web := a.web.Resolve(ctx, rawURL)
	if web.Unretrievable {
		a.countFallback("unretrievable")
	}

	fallback := normalize.Result{
		Title:    web.Metadata.Title,
		Summary:  web.Metadata.Description,
		Category: categoryForContentType(web.ContentType),
		Tags:     web.Metadata.Tags,
	}
	if len(fallback.Tags) == 0 {
		fallback.Tags = []string{fallback.Category}
	}

	input := ai.Input{System: systemPrompt, Prompt: a.webPrompt(rawURL, web)}
	result, usedFallback, err := a.complete(ctx, input, fallback)
	if err != nil {
		return nil, err
	}

	envelope := &Envelope{
		Title:           result.Title,
		Summary:         result.Summary,
		Tags:            result.Tags,
		Category:        result.Category,
		KeyPoints:       result.KeyPoints,
		Confidence:      result.Confidence,
		ExtractedText:   web.Text,
		PreviewImageURL: web.Metadata.PreviewImageURL,
		Author:          web.Metadata.Author,
		Platform:        string(web.Platform),
		ContentType:     web.ContentType,
		SiteName:        web.Metadata.SiteName,
		PublishedTime:   web.Metadata.PublishedTime,
		UsedFallback:    usedFallback,
	}
	return envelope, nil
}

func (a *Analyzer) analyzeFile(ctx context.Context, req AnalyzeRequest) (*Envelope, error) {
	if err := a.guard.Validate(req.FileURL); err != nil {
		return nil, err
	}

	var content *extraction.Content
	extractor := "none"

	data, err := a.files.Bytes(ctx, req.FileURL)
	if err != nil {
		// A failed download still gets a name-based analysis.
		slog.Warn("file download failed, using file name", "fileUrl", req.FileURL, "error", err)
		a.countFallback("download_failure")
		content = &extraction.Content{Title: extraction.CleanFileName(req.FileName)}
	} else {
		content, extractor, err = a.registry.Extract(ctx, data, req.FileName, req.FileType)
		if err != nil {
			// Unknown formats still get a name-based analysis.
			a.countFallback("unknown_format")
			content = &extraction.Content{Title: extraction.CleanFileName(req.FileName)}
			extractor = "none"
		}
	}

	fallback := normalize.Result{
		Title:    content.Title,
		Category: categoryForFile(extractor, req.FileName, req.FileType),
	}
	if fallback.Title == "" {
		fallback.Title = extraction.CleanFileName(req.FileName)
	}
	fallback.Tags = []string{fallback.Category}

	input := a.fileInput(req, content, data)
	result, usedFallback, err := a.complete(ctx, input, fallback)
	if err != nil {
		return nil, err
	}

	envelope := &Envelope{
		Title:         result.Title,
		Summary:       result.Summary,
		Tags:          result.Tags,
		Category:      result.Category,
		KeyPoints:     result.KeyPoints,
		Confidence:    result.Confidence,
		ExtractedText: content.Text,
		Author:        content.Author,
		ContentType:   fallback.Category,
		UsedFallback:  usedFallback,
	}
	return envelope, nil
}

// complete calls the model and normalizes the reply. Quota errors end
// the request; any other model failure degrades to the fallback.
func (a *Analyzer) complete(ctx context.Context, input ai.Input, fallback normalize.Result) (normalize.Result, bool, error) {
	resp, err := a.client.Analyze(ctx, input)
	if err != nil {
		if apierr.IsQuota(err) {
			return normalize.Result{}, false, err
		}
		slog.Warn("analysis call failed, using fallback result", "error", err)
		a.countFallback("ai_failure")
		resp = normalize.Response{Kind: normalize.None}
	}

	result, usedFallback := normalize.Parse(resp, fallback)
	if usedFallback && err == nil {
		a.countFallback("unparseable_response")
	}
	return result, usedFallback, nil
}

// fileInput picks the model input for extracted file content: vision
// for images, inline document for PDFs that yielded no text, plain
// prompt otherwise.
func (a *Analyzer) fileInput(req AnalyzeRequest, content *extraction.Content, data []byte) ai.Input {
	input := ai.Input{System: systemPrompt}

	switch {
	case content.NeedsVision:
		input.Prompt = fmt.Sprintf("Analyze this image. File name: %q.", req.FileName)
		input.ImageURL = req.FileURL
	case content.NeedsDocument:
		a.countFallback("inline_document")
		input.Prompt = fmt.Sprintf("Analyze this document. File name: %q.", req.FileName)
		input.Document = &ai.Document{Name: req.FileName, Data: data, MIME: "application/pdf"}
	default:
		input.Prompt = a.filePrompt(req, content)
	}
	return input
}

func (a *Analyzer) webPrompt(rawURL string, web webmeta.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\n", rawURL)
	if web.Platform != "" {
		fmt.Fprintf(&b, "Platform: %s\n", web.Platform)
	}
	writeField(&b, "Title", web.Metadata.Title)
	writeField(&b, "Description", web.Metadata.Description)
	writeField(&b, "Author", web.Metadata.Author)
	writeField(&b, "Site", web.Metadata.SiteName)
	writeField(&b, "Published", web.Metadata.PublishedTime)
	if web.Unretrievable {
		b.WriteString("Note: the page content could not be retrieved; analyze from the URL alone.\n")
	}
	if text := a.promptText(web.Text); text != "" {
		fmt.Fprintf(&b, "\nContent:\n%s\n", text)
	}
	return b.String()
}

func (a *Analyzer) filePrompt(req AnalyzeRequest, content *extraction.Content) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", req.FileName)
	writeField(&b, "Title", content.Title)
	writeField(&b, "Author", content.Author)
	if content.PageCount > 0 {
		fmt.Fprintf(&b, "Pages: %d\n", content.PageCount)
	}
	if len(content.Headers) > 0 {
		fmt.Fprintf(&b, "Columns: %s\n", strings.Join(content.Headers, ", "))
		fmt.Fprintf(&b, "Rows: %d\n", content.RowCount)
	}
	if content.SlideCount > 0 {
		fmt.Fprintf(&b, "Slides: %d\n", content.SlideCount)
	}
	for key, value := range content.Metadata {
		writeField(&b, key, value)
	}
	if text := a.promptText(content.Text); text != "" {
		fmt.Fprintf(&b, "\nContent:\n%s\n", text)
	}
	return b.String()
}

// promptText bounds extracted text for the prompt: short documents go
// in whole, very long ones are head/mid/tail sampled, and the rest are
// truncated at the input budget.
func (a *Analyzer) promptText(text string) string {
	switch {
	case len(text) <= a.limits.ShortDocLimit:
		return text
	case len(text) > a.limits.SampleThreshold:
		return extraction.Sample(text, a.limits.AIInputBudget)
	default:
		return text[:a.limits.AIInputBudget]
	}
}

func writeField(b *strings.Builder, name, value string) {
	if value != "" {
		fmt.Fprintf(b, "%s: %s\n", name, value)
	}
}

func (a *Analyzer) countFallback(kind string) {
	if a.metrics != nil {
		a.metrics.FallbacksTotal.WithLabelValues(kind).Inc()
	}
}

func categoryForContentType(contentType string) string {
	if normalize.Categories[contentType] {
		return contentType
	}
	return "article"
}

func categoryForFile(extractor, fileName, mimeType string) string {
	switch extractor {
	case "pdf", "docx":
		return "document"
	case "spreadsheet":
		return "spreadsheet"
	case "presentation":
		return "presentation"
	case "image":
		return "image"
	case "text":
		return "article"
	case "media":
		if mimeType == "" {
			mimeType = mime.TypeByExtension(filepath.Ext(fileName))
		}
		if strings.HasPrefix(mimeType, "audio/") {
			return "audio"
		}
		return "video"
	}
	return "other"
}

// GenerateEmbedding composes the embedding input from analysis fields
// and returns the vector.
func (a *Analyzer) GenerateEmbedding(ctx context.Context, title, summary string, tags []string, content string) ([]float32, error) {
	input, err := embedders.ComposeInput(title, summary, tags, content)
	if err != nil {
		return nil, apierr.InvalidInput("nothing to embed: provide a title, summary, tags or content", nil)
	}

	vector, err := a.embedder.Embed(ctx, input)
	if a.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		a.metrics.EmbeddingsTotal.WithLabelValues(outcome).Inc()
	}
	return vector, err
}
