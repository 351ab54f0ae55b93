package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/FCMSStudent/laterr-sub000/pkg/apierr"
	"github.com/FCMSStudent/laterr-sub000/pkg/pipeline"
)

const (
	maxRequestBody = 1 << 20
	maxURLLength   = 2048
	maxFileName    = 255
)

type analyzeRequest struct {
	URL      string `json:"url,omitempty"`
	FileURL  string `json:"fileUrl,omitempty"`
	FileType string `json:"fileType,omitempty"`
	FileName string `json:"fileName,omitempty"`
}

type embedRequest struct {
	Title   string   `json:"title,omitempty"`
	Summary string   `json:"summary,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Content string   `json:"content,omitempty"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Dimension int       `json:"dimension"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validateAnalyze(req); err != nil {
		writeError(w, err)
		return
	}

	envelope, err := s.analyzer.Analyze(r.Context(), pipeline.AnalyzeRequest{
		URL:      req.URL,
		FileURL:  req.FileURL,
		FileType: req.FileType,
		FileName: req.FileName,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope)
}

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	var req embedRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	vector, err := s.analyzer.GenerateEmbedding(r.Context(), req.Title, req.Summary, req.Tags, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, embedResponse{Embedding: vector, Dimension: len(vector)})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil {
		return apierr.InvalidInput("request body must be valid JSON", nil)
	}
	return nil
}

// validateAnalyze enforces the request contract. Details name the
// offending fields so the caller can fix them without guessing.
func validateAnalyze(req analyzeRequest) error {
	var bad []string

	switch {
	case req.URL == "" && req.FileURL == "":
		bad = append(bad, "url", "fileUrl")
		return apierr.InvalidInput("either url or fileUrl is required", bad)
	case req.URL != "" && req.FileURL != "":
		bad = append(bad, "url", "fileUrl")
		return apierr.InvalidInput("url and fileUrl are mutually exclusive", bad)
	}

	if len(req.URL) > maxURLLength || len(req.FileURL) > maxURLLength {
		if req.URL != "" {
			bad = append(bad, "url")
		} else {
			bad = append(bad, "fileUrl")
		}
	}
	if req.FileURL != "" && req.FileName == "" {
		bad = append(bad, "fileName")
	}
	if len(req.FileName) > maxFileName {
		bad = append(bad, "fileName")
	}

	if len(bad) > 0 {
		return apierr.InvalidInput("invalid request fields", bad)
	}
	return nil
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details any    `json:"details,omitempty"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	apiErr := apierr.FromError(err)
	if apiErr.Status >= 500 {
		slog.Error("request failed", "code", apiErr.Code, "error", apiErr.Message)
	}

	var envelope errorEnvelope
	envelope.Error.Code = string(apiErr.Code)
	envelope.Error.Message = apiErr.Message
	envelope.Error.Details = apiErr.Details
	writeJSON(w, apiErr.Status, envelope)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
