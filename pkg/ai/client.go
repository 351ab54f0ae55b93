package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/FCMSStudent/laterr-sub000/pkg/apierr"
	"github.com/FCMSStudent/laterr-sub000/pkg/config"
	"github.com/FCMSStudent/laterr-sub000/pkg/httpclient"
	"github.com/FCMSStudent/laterr-sub000/pkg/normalize"
)

// Input is one analysis request to the model. Exactly one of the
// multimodal fields may be set alongside Prompt.
type Input struct {
	System string
	Prompt string

	// ImageURL attaches an image for vision analysis.
	ImageURL string

	// Document attaches a file inline as a base64 data URL.
	Document *Document
}

// Document is a file sent inline with the prompt.
type Document struct {
	Name string
	Data []byte
	MIME string
}

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	cfg  config.AIConfig
	http *httpclient.Client
}

// Option configures a Client.
type Option func(*options)

type options struct {
	onRetry func(attempt int)
}

// WithRetryNotify observes provider retries, for instrumentation.
func WithRetryNotify(fn func(attempt int)) Option {
	return func(o *options) {
		o.onRetry = fn
	}
}

func NewClient(cfg config.AIConfig, opts ...Option) *Client {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	schedule := make([]time.Duration, len(cfg.RetryDelaysMs))
	for i, ms := range cfg.RetryDelaysMs {
		schedule[i] = time.Duration(ms) * time.Millisecond
	}

	clientOpts := []httpclient.Option{
		httpclient.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second}),
		httpclient.WithBackoffSchedule(schedule),
		httpclient.WithRetryOn(httpclient.DefaultRetryPredicate),
	}
	if o.onRetry != nil {
		clientOpts = append(clientOpts, httpclient.WithRetryNotify(o.onRetry))
	}

	return &Client{cfg: cfg, http: httpclient.New(clientOpts...)}
}

// Analyze runs one forced-tool chat completion and reduces the reply to
// a normalize.Response. Provider failures come back as typed errors.
func (c *Client) Analyze(ctx context.Context, input Input) (normalize.Response, error) {
	body, err := json.Marshal(c.buildRequest(input))
	if err != nil {
		return normalize.Response{}, apierr.Internal(fmt.Sprintf("encoding analysis request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return normalize.Response{}, apierr.Internal(fmt.Sprintf("building analysis request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return normalize.Response{}, mapTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return normalize.Response{}, apierr.AIError(fmt.Sprintf("reading provider response: %v", err))
	}

	if resp.StatusCode != http.StatusOK {
		return normalize.Response{}, mapStatusError(resp.StatusCode, raw)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return normalize.Response{}, apierr.AIError(fmt.Sprintf("decoding provider response: %v", err))
	}

	slog.Debug("analysis completion finished",
		"model", c.model(input),
		"prompt_tokens", parsed.Usage.PromptTokens,
		"completion_tokens", parsed.Usage.CompletionTokens)

	return reduce(parsed), nil
}

func (c *Client) model(input Input) string {
	if input.ImageURL != "" || input.Document != nil {
		return c.cfg.VisionModel
	}
	return c.cfg.Model
}

func (c *Client) buildRequest(input Input) chatRequest {
	var messages []chatMessage
	if input.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: input.System})
	}

	switch {
	case input.ImageURL != "":
		messages = append(messages, chatMessage{Role: "user", Content: []contentPart{
			{Type: "text", Text: input.Prompt},
			{Type: "image_url", ImageURL: &imagePayload{URL: input.ImageURL}},
		}})
	case input.Document != nil:
		dataURL := "data:" + input.Document.MIME + ";base64," +
			base64.StdEncoding.EncodeToString(input.Document.Data)
		messages = append(messages, chatMessage{Role: "user", Content: []contentPart{
			{Type: "text", Text: input.Prompt},
			{Type: "file", File: &filePayload{Filename: input.Document.Name, FileData: dataURL}},
		}})
	default:
		messages = append(messages, chatMessage{Role: "user", Content: input.Prompt})
	}

	return chatRequest{
		Model:       c.model(input),
		Messages:    messages,
		Tools:       []toolDef{analysisTool()},
		ToolChoice:  forcedToolChoice(),
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
}

// reduce collapses a chat response into the normalization union: tool
// arguments first, then bare-JSON content, then plain text.
func reduce(parsed chatResponse) normalize.Response {
	if len(parsed.Choices) == 0 {
		return normalize.Response{Kind: normalize.None}
	}
	msg := parsed.Choices[0].Message

	if len(msg.ToolCalls) > 0 && msg.ToolCalls[0].Function.Arguments != "" {
		return normalize.Response{Kind: normalize.ToolCall, ToolArguments: msg.ToolCalls[0].Function.Arguments}
	}

	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return normalize.Response{Kind: normalize.None}
	}
	if strings.HasPrefix(content, "{") && json.Valid([]byte(content)) {
		return normalize.Response{Kind: normalize.ContentJSON, Content: content}
	}
	return normalize.Response{Kind: normalize.ContentText, Content: content}
}

// mapTransportError types errors from the retrying client. Exhausted
// 429 retries become rate_limited; anything else is an upstream error.
func mapTransportError(err error) *apierr.Error {
	var retryErr *httpclient.RetryableError
	if errors.As(err, &retryErr) && retryErr.StatusCode == http.StatusTooManyRequests {
		return apierr.RateLimited("AI provider rate limit persisted through retries")
	}
	return apierr.AIError(fmt.Sprintf("AI provider unreachable: %v", err))
}

func mapStatusError(status int, raw []byte) *apierr.Error {
	message := providerMessage(raw)
	switch {
	case status == http.StatusTooManyRequests:
		return apierr.RateLimited(message)
	case status == http.StatusPaymentRequired:
		return apierr.CreditsExhausted(message)
	case status >= 500:
		return apierr.AIError(fmt.Sprintf("AI provider returned HTTP %d: %s", status, message))
	default:
		return apierr.Internal(fmt.Sprintf("unexpected AI provider response HTTP %d: %s", status, message))
	}
}

func providerMessage(raw []byte) string {
	var parsed apiErrorResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return strings.TrimSpace(string(raw))
}
