package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FCMSStudent/laterr-sub000/pkg/ai"
	"github.com/FCMSStudent/laterr-sub000/pkg/apierr"
	"github.com/FCMSStudent/laterr-sub000/pkg/config"
	"github.com/FCMSStudent/laterr-sub000/pkg/extraction"
	"github.com/FCMSStudent/laterr-sub000/pkg/normalize"
	"github.com/FCMSStudent/laterr-sub000/pkg/webmeta"
)

type fakeGuard struct{ err error }

func (g *fakeGuard) Validate(string) error { return g.err }

type fakeWeb struct{ result webmeta.Result }

func (w *fakeWeb) Resolve(context.Context, string) webmeta.Result { return w.result }

type fakeFiles struct {
	data []byte
	err  error
}

func (f *fakeFiles) Bytes(context.Context, string) ([]byte, error) { return f.data, f.err }

type fakeClient struct {
	resp  normalize.Response
	err   error
	input ai.Input
}

func (c *fakeClient) Analyze(_ context.Context, input ai.Input) (normalize.Response, error) {
	c.input = input
	return c.resp, c.err
}

type fakeEmbedder struct {
	vector []float32
	err    error
	input  string
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.input = text
	return e.vector, e.err
}

func newTestAnalyzer(guard *fakeGuard, web *fakeWeb, files *fakeFiles, client *fakeClient, embedder *fakeEmbedder) *Analyzer {
	cfg := config.PipelineConfig{}
	cfg.SetDefaults()
	return NewAnalyzer(guard, web, files, extraction.NewRegistry(extraction.LimitsFromConfig(cfg)),
		client, embedder, cfg, nil)
}

func toolResponse(args string) normalize.Response {
	return normalize.Response{Kind: normalize.ToolCall, ToolArguments: args}
}

func TestAnalyzeURL(t *testing.T) {
	web := &fakeWeb{result: webmeta.Result{
		Platform:    webmeta.PlatformYouTube,
		ContentType: "video",
		Metadata: webmeta.Metadata{
			Title:           "Talk Title",
			Author:          "Speaker",
			SiteName:        "YouTube",
			PreviewImageURL: "https://i.ytimg.com/vi/abc/maxresdefault.jpg",
		},
	}}
	client := &fakeClient{resp: toolResponse(
		`{"title":"A Great Talk","summary":"About channels.","tags":["Go"],"category":"video","confidence":0.9}`)}

	a := newTestAnalyzer(&fakeGuard{}, web, &fakeFiles{}, client, &fakeEmbedder{})
	envelope, err := a.Analyze(context.Background(), AnalyzeRequest{URL: "https://youtube.com/watch?v=abc"})
	require.NoError(t, err)

	assert.Equal(t, "A Great Talk", envelope.Title)
	assert.Equal(t, "video", envelope.Category)
	assert.Equal(t, []string{"go"}, envelope.Tags)
	assert.Equal(t, "youtube", envelope.Platform)
	assert.Equal(t, "video", envelope.ContentType)
	assert.Equal(t, "https://i.ytimg.com/vi/abc/maxresdefault.jpg", envelope.PreviewImageURL)
	assert.False(t, envelope.UsedFallback)
	assert.Contains(t, client.input.Prompt, "Title: Talk Title")
}

func TestAnalyzeURLBlocked(t *testing.T) {
	a := newTestAnalyzer(&fakeGuard{err: apierr.URLBlocked("private address")},
		&fakeWeb{}, &fakeFiles{}, &fakeClient{}, &fakeEmbedder{})

	_, err := a.Analyze(context.Background(), AnalyzeRequest{URL: "http://169.254.169.254/"})
	require.Error(t, err)
	assert.Equal(t, apierr.CodeURLBlocked, apierr.FromError(err).Code)
}

func TestAnalyzeQuotaErrorPropagates(t *testing.T) {
	client := &fakeClient{err: apierr.CreditsExhausted("no credits")}
	a := newTestAnalyzer(&fakeGuard{}, &fakeWeb{result: webmeta.Result{ContentType: "article"}},
		&fakeFiles{}, client, &fakeEmbedder{})

	_, err := a.Analyze(context.Background(), AnalyzeRequest{URL: "https://example.com"})
	require.Error(t, err)
	assert.Equal(t, apierr.CodeCreditsExhausted, apierr.FromError(err).Code)
}

func TestAnalyzeAIFailureFallsBack(t *testing.T) {
	web := &fakeWeb{result: webmeta.Result{
		ContentType: "article",
		Metadata:    webmeta.Metadata{Title: "Page Title", Description: "Page description."},
	}}
	client := &fakeClient{err: apierr.AIError("provider down")}

	a := newTestAnalyzer(&fakeGuard{}, web, &fakeFiles{}, client, &fakeEmbedder{})
	envelope, err := a.Analyze(context.Background(), AnalyzeRequest{URL: "https://example.com/post"})
	require.NoError(t, err)

	assert.True(t, envelope.UsedFallback)
	assert.Equal(t, "Page Title", envelope.Title)
	assert.Equal(t, "Page description.", envelope.Summary)
	assert.Equal(t, "article", envelope.Category)
}

func TestAnalyzeFileSpreadsheet(t *testing.T) {
	files := &fakeFiles{data: []byte("name,age\nAda,36\n")}
	client := &fakeClient{resp: toolResponse(`{"title":"People","summary":"Two columns.","category":"spreadsheet"}`)}

	a := newTestAnalyzer(&fakeGuard{}, &fakeWeb{}, files, client, &fakeEmbedder{})
	envelope, err := a.Analyze(context.Background(), AnalyzeRequest{
		FileURL:  "https://files.example.com/people.csv",
		FileName: "people.csv",
	})
	require.NoError(t, err)

	assert.Equal(t, "spreadsheet", envelope.ContentType)
	assert.Contains(t, client.input.Prompt, "Columns: name, age")
	assert.Contains(t, client.input.Prompt, "Rows: 1")
}

func TestAnalyzeFileImageUsesVision(t *testing.T) {
	fileURL := "https://files.example.com/sunset_photo.jpg"
	client := &fakeClient{resp: toolResponse(`{"title":"Sunset","category":"image"}`)}

	a := newTestAnalyzer(&fakeGuard{}, &fakeWeb{}, &fakeFiles{data: []byte{0xFF, 0xD8}}, client, &fakeEmbedder{})
	envelope, err := a.Analyze(context.Background(), AnalyzeRequest{
		FileURL:  fileURL,
		FileName: "sunset_photo.jpg",
	})
	require.NoError(t, err)

	assert.Equal(t, fileURL, client.input.ImageURL)
	assert.Equal(t, "image", envelope.Category)
}

func TestAnalyzeScannedPDFUsesInlineDocument(t *testing.T) {
	// Garbage PDF bytes: extraction yields nothing, so the raw file is
	// attached to the prompt instead.
	files := &fakeFiles{data: []byte("%PDF-1.4 scanned-no-text")}
	client := &fakeClient{resp: toolResponse(`{"title":"Scanned Doc","category":"document"}`)}

	a := newTestAnalyzer(&fakeGuard{}, &fakeWeb{}, files, client, &fakeEmbedder{})
	envelope, err := a.Analyze(context.Background(), AnalyzeRequest{
		FileURL:  "https://files.example.com/scan.pdf",
		FileName: "scan.pdf",
	})
	require.NoError(t, err)

	require.NotNil(t, client.input.Document)
	assert.Equal(t, "scan.pdf", client.input.Document.Name)
	assert.Equal(t, "application/pdf", client.input.Document.MIME)
	assert.Equal(t, "Scanned Doc", envelope.Title)
}

func TestAnalyzeUnknownFormatFallsBackToFileName(t *testing.T) {
	files := &fakeFiles{data: []byte{0x00, 0x01}}
	client := &fakeClient{err: apierr.AIError("down")}

	a := newTestAnalyzer(&fakeGuard{}, &fakeWeb{}, files, client, &fakeEmbedder{})
	envelope, err := a.Analyze(context.Background(), AnalyzeRequest{
		FileURL:  "https://files.example.com/archive_backup.bin",
		FileName: "archive_backup.bin",
	})
	require.NoError(t, err)

	assert.True(t, envelope.UsedFallback)
	assert.Equal(t, "Archive Backup", envelope.Title)
}

func TestAnalyzeFileDownloadFailureFallsBackToFileName(t *testing.T) {
	files := &fakeFiles{err: apierr.Internal("storage fetch failed: HTTP 503")}
	client := &fakeClient{resp: toolResponse(`{"title":"Quarterly Report","summary":"Named after the file.","category":"document"}`)}

	a := newTestAnalyzer(&fakeGuard{}, &fakeWeb{}, files, client, &fakeEmbedder{})
	envelope, err := a.Analyze(context.Background(), AnalyzeRequest{
		FileURL:  "https://files.example.com/quarterly_report.pdf",
		FileName: "quarterly_report.pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, "Quarterly Report", envelope.Title)
	assert.Nil(t, client.input.Document)
	assert.Contains(t, client.input.Prompt, "Title: Quarterly Report")
}

func TestAnalyzeFileDownloadFailureWithAIFailure(t *testing.T) {
	files := &fakeFiles{err: apierr.Internal("storage fetch failed: HTTP 503")}
	client := &fakeClient{err: apierr.AIError("down")}

	a := newTestAnalyzer(&fakeGuard{}, &fakeWeb{}, files, client, &fakeEmbedder{})
	envelope, err := a.Analyze(context.Background(), AnalyzeRequest{
		FileURL:  "https://files.example.com/quarterly_report.pdf",
		FileName: "quarterly_report.pdf",
	})
	require.NoError(t, err)

	assert.True(t, envelope.UsedFallback)
	assert.Equal(t, "Quarterly Report", envelope.Title)
}

func TestGenerateEmbedding(t *testing.T) {
	embedder := &fakeEmbedder{vector: make([]float32, 1536)}
	a := newTestAnalyzer(&fakeGuard{}, &fakeWeb{}, &fakeFiles{}, &fakeClient{}, embedder)

	vector, err := a.GenerateEmbedding(context.Background(), "Title", "Summary.", []string{"go"}, "body")
	require.NoError(t, err)
	assert.Len(t, vector, 1536)
	assert.Contains(t, embedder.input, "Tags: go")
	assert.Contains(t, embedder.input, "Title: Title")
}

func TestGenerateEmbeddingEmptyInput(t *testing.T) {
	a := newTestAnalyzer(&fakeGuard{}, &fakeWeb{}, &fakeFiles{}, &fakeClient{}, &fakeEmbedder{})
	_, err := a.GenerateEmbedding(context.Background(), "", "", nil, "")
	require.Error(t, err)
	assert.Equal(t, apierr.CodeInvalidInput, apierr.FromError(err).Code)
}
