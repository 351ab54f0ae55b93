package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FCMSStudent/laterr-sub000/pkg/ai"
	"github.com/FCMSStudent/laterr-sub000/pkg/apierr"
	"github.com/FCMSStudent/laterr-sub000/pkg/config"
	"github.com/FCMSStudent/laterr-sub000/pkg/extraction"
	"github.com/FCMSStudent/laterr-sub000/pkg/normalize"
	"github.com/FCMSStudent/laterr-sub000/pkg/pipeline"
	"github.com/FCMSStudent/laterr-sub000/pkg/webmeta"
)

type stubGuard struct{ err error }

func (g stubGuard) Validate(string) error { return g.err }

type stubWeb struct{ result webmeta.Result }

func (w stubWeb) Resolve(context.Context, string) webmeta.Result { return w.result }

type stubFiles struct{ data []byte }

func (f stubFiles) Bytes(context.Context, string) ([]byte, error) { return f.data, nil }

type stubClient struct{ resp normalize.Response }

func (c stubClient) Analyze(context.Context, ai.Input) (normalize.Response, error) {
	return c.resp, nil
}

type stubEmbedder struct{ vector []float32 }

func (e stubEmbedder) Embed(context.Context, string) ([]float32, error) { return e.vector, nil }

func newTestServer(t *testing.T, guardErr error) *Server {
	t.Helper()
	cfg := config.PipelineConfig{}
	cfg.SetDefaults()

	analyzer := pipeline.NewAnalyzer(
		stubGuard{err: guardErr},
		stubWeb{result: webmeta.Result{
			ContentType: "article",
			Metadata:    webmeta.Metadata{Title: "Stub Page"},
		}},
		stubFiles{},
		extraction.NewRegistry(extraction.LimitsFromConfig(cfg)),
		stubClient{resp: normalize.Response{
			Kind:          normalize.ToolCall,
			ToolArguments: `{"title":"Analyzed","summary":"S","category":"article","confidence":0.8}`,
		}},
		stubEmbedder{vector: make([]float32, 1536)},
		cfg,
		nil,
	)

	serverCfg := config.ServerConfig{Host: "127.0.0.1", Port: 0, AuthToken: "secret"}
	return New(serverCfg, analyzer, nil)
}

func doJSON(t *testing.T, s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) (string, []any) {
	t.Helper()
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Details []any  `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Error.Code, envelope.Error.Details
}

func TestHealthNoAuth(t *testing.T) {
	w := doJSON(t, newTestServer(t, nil), http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMissing(t *testing.T) {
	w := doJSON(t, newTestServer(t, nil), http.MethodPost, "/v1/analyze", "", `{"url":"https://example.com"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	code, _ := errorCode(t, w)
	assert.Equal(t, "auth_missing", code)
}

func TestAuthInvalid(t *testing.T) {
	w := doJSON(t, newTestServer(t, nil), http.MethodPost, "/v1/analyze", "wrong", `{"url":"https://example.com"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	code, _ := errorCode(t, w)
	assert.Equal(t, "auth_invalid", code)
}

func TestAnalyzeURL(t *testing.T) {
	w := doJSON(t, newTestServer(t, nil), http.MethodPost, "/v1/analyze", "secret", `{"url":"https://example.com/post"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var envelope pipeline.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "Analyzed", envelope.Title)
	assert.Equal(t, "article", envelope.Category)
}

func TestAnalyzeMalformedBody(t *testing.T) {
	w := doJSON(t, newTestServer(t, nil), http.MethodPost, "/v1/analyze", "secret", `{"url": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	code, _ := errorCode(t, w)
	assert.Equal(t, "invalid_input", code)
}

func TestAnalyzeValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		details []any
	}{
		{"neither url nor fileUrl", `{}`, []any{"url", "fileUrl"}},
		{"both url and fileUrl", `{"url":"https://a.com","fileUrl":"https://b.com"}`, []any{"url", "fileUrl"}},
		{"file without name", `{"fileUrl":"https://files.example.com/x.pdf"}`, []any{"fileName"}},
		{"oversized url", `{"url":"https://example.com/` + strings.Repeat("a", 2100) + `"}`, []any{"url"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, newTestServer(t, nil), http.MethodPost, "/v1/analyze", "secret", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			code, details := errorCode(t, w)
			assert.Equal(t, "invalid_input", code)
			assert.Equal(t, tt.details, details)
		})
	}
}

func TestAnalyzeBlockedURL(t *testing.T) {
	s := newTestServer(t, apierr.URLBlocked("private address not allowed"))
	w := doJSON(t, s, http.MethodPost, "/v1/analyze", "secret", `{"url":"http://10.0.0.1/"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	code, _ := errorCode(t, w)
	assert.Equal(t, "url_blocked", code)
}

func TestEmbed(t *testing.T) {
	w := doJSON(t, newTestServer(t, nil), http.MethodPost, "/v1/embed", "secret",
		`{"title":"T","summary":"S","tags":["go"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp embedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1536, resp.Dimension)
	assert.Len(t, resp.Embedding, 1536)
}

func TestEmbedEmptyInput(t *testing.T) {
	w := doJSON(t, newTestServer(t, nil), http.MethodPost, "/v1/embed", "secret", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	code, _ := errorCode(t, w)
	assert.Equal(t, "invalid_input", code)
}
