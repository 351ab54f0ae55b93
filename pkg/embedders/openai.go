// Package embedders generates embedding vectors for analyzed content.
package embedders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/FCMSStudent/laterr-sub000/pkg/apierr"
	"github.com/FCMSStudent/laterr-sub000/pkg/config"
)

// Client calls an OpenAI-compatible embeddings endpoint. Vectors whose
// length does not match the configured dimension are rejected outright
// so a malformed vector can never reach storage.
type Client struct {
	cfg    config.EmbedderConfig
	client *http.Client
}

func NewClient(cfg config.EmbedderConfig) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Embed returns the embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{
		Model:      c.cfg.Model,
		Input:      []string{text},
		Dimensions: c.cfg.Dimension,
	})
	if err != nil {
		return nil, apierr.Internal(fmt.Sprintf("encoding embedding request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, apierr.Internal(fmt.Sprintf("building embedding request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apierr.AIError(fmt.Sprintf("embedding provider unreachable: %v", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, apierr.AIError(fmt.Sprintf("reading embedding response: %v", err))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, apierr.RateLimited("embedding provider rate limited")
	case resp.StatusCode == http.StatusPaymentRequired:
		return nil, apierr.CreditsExhausted("embedding provider credits exhausted")
	case resp.StatusCode != http.StatusOK:
		return nil, apierr.AIError(fmt.Sprintf("embedding provider returned HTTP %d", resp.StatusCode))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, apierr.AIError(fmt.Sprintf("decoding embedding response: %v", err))
	}
	if len(parsed.Data) == 0 {
		return nil, apierr.AIError("embedding response contained no vectors")
	}

	vector := parsed.Data[0].Embedding
	if len(vector) != c.cfg.Dimension {
		return nil, apierr.AIError(fmt.Sprintf(
			"embedding dimension mismatch: got %d, want %d", len(vector), c.cfg.Dimension))
	}
	return vector, nil
}

// Dimension returns the expected vector length.
func (c *Client) Dimension() int { return c.cfg.Dimension }
