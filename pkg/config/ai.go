package config

import (
	"fmt"
	"os"
)

// AIConfig configures the AI analysis provider (an OpenAI-compatible
// chat-completions endpoint).
type AIConfig struct {
	// BaseURL of the API, without trailing slash.
	BaseURL string `yaml:"base_url,omitempty"`

	// APIKey for authentication. Supports ${VAR} expansion.
	APIKey string `yaml:"api_key,omitempty"`

	// Model name (e.g. "gpt-4o-mini").
	Model string `yaml:"model,omitempty"`

	// VisionModel used for image and inline-document analysis. Defaults
	// to Model.
	VisionModel string `yaml:"vision_model,omitempty"`

	// Temperature for generation.
	Temperature *float64 `yaml:"temperature,omitempty"`

	// MaxTokens limits response length.
	MaxTokens int `yaml:"max_tokens,omitempty"`

	// Timeout in seconds for a single request attempt.
	Timeout int `yaml:"timeout,omitempty"`

	// RetryDelaysMs is the fixed backoff schedule applied on HTTP 429 and
	// network-level failures. The schedule length is the retry count.
	RetryDelaysMs []int `yaml:"retry_delays_ms,omitempty"`
}

// EmbedderConfig configures the embedding provider.
type EmbedderConfig struct {
	BaseURL string `yaml:"base_url,omitempty"`
	APIKey  string `yaml:"api_key,omitempty"`
	Model   string `yaml:"model,omitempty"`

	// Dimension is the expected vector length. Vectors of any other
	// length are rejected, never stored.
	Dimension int `yaml:"dimension,omitempty"`

	// Timeout in seconds.
	Timeout int `yaml:"timeout,omitempty"`
}

func (c *AIConfig) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.VisionModel == "" {
		c.VisionModel = c.Model
	}
	if c.Temperature == nil {
		temp := 0.3
		c.Temperature = &temp
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 1500
	}
	if c.Timeout == 0 {
		c.Timeout = 60
	}
	if len(c.RetryDelaysMs) == 0 {
		c.RetryDelaysMs = []int{1000, 2000, 4000}
	}
}

func (c *AIConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("ai base_url is required")
	}
	for _, d := range c.RetryDelaysMs {
		if d < 0 {
			return fmt.Errorf("ai retry delays must be non-negative, got %d", d)
		}
	}
	return nil
}

func (c *EmbedderConfig) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Model == "" {
		c.Model = "text-embedding-3-small"
	}
	if c.Dimension == 0 {
		c.Dimension = 1536
	}
	if c.Timeout == 0 {
		c.Timeout = 30
	}
}

func (c *EmbedderConfig) Validate() error {
	if c.Dimension < 1 {
		return fmt.Errorf("embedder dimension must be positive, got %d", c.Dimension)
	}
	return nil
}
