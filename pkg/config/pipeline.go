package config

import "fmt"

// PipelineConfig carries the extraction and sampling budgets. The values
// bound processing cost per request; they are tunable rather than
// hard-coded, but the defaults are load-bearing for downstream prompts.
type PipelineConfig struct {
	// MaxTextChars caps text accumulated by any extractor.
	MaxTextChars int `yaml:"max_text_chars,omitempty"`

	// MinTextThreshold is the minimal extracted-text length below which a
	// PDF escalates to the inline-document (multimodal) fallback.
	MinTextThreshold int `yaml:"min_text_threshold,omitempty"`

	// AIInputBudget caps the sampled text handed to the AI prompt.
	AIInputBudget int `yaml:"ai_input_budget,omitempty"`

	// ShortDocLimit: documents at or under this size are sent whole.
	ShortDocLimit int `yaml:"short_doc_limit,omitempty"`

	// SampleThreshold: above this size the head/middle/tail sampler
	// replaces plain prefix truncation.
	SampleThreshold int `yaml:"sample_threshold,omitempty"`

	// MaxPages caps PDF page extraction.
	MaxPages int `yaml:"max_pages,omitempty"`

	// MaxSlides caps presentation slide extraction.
	MaxSlides int `yaml:"max_slides,omitempty"`

	// MaxSampleRows caps spreadsheet sample rows (headers excluded).
	MaxSampleRows int `yaml:"max_sample_rows,omitempty"`
}

// FetchConfig configures outbound fetching.
type FetchConfig struct {
	// PageTimeout in seconds for HTML page and file downloads.
	PageTimeout int `yaml:"page_timeout,omitempty"`

	// OEmbedTimeout in seconds for oEmbed endpoint calls.
	OEmbedTimeout int `yaml:"oembed_timeout,omitempty"`

	// MaxDownloadBytes caps file downloads.
	MaxDownloadBytes int64 `yaml:"max_download_bytes,omitempty"`

	// UserAgent sent on page fetches.
	UserAgent string `yaml:"user_agent,omitempty"`

	// ScrapeURL is an optional Firecrawl-compatible scrape endpoint used
	// as a last-resort fallback when the primary HTML fetch fails.
	ScrapeURL    string `yaml:"scrape_url,omitempty"`
	ScrapeAPIKey string `yaml:"scrape_api_key,omitempty"`
}

func (c *PipelineConfig) SetDefaults() {
	if c.MaxTextChars == 0 {
		c.MaxTextChars = 50000
	}
	if c.MinTextThreshold == 0 {
		c.MinTextThreshold = 40
	}
	if c.AIInputBudget == 0 {
		c.AIInputBudget = 3000
	}
	if c.ShortDocLimit == 0 {
		c.ShortDocLimit = 2500
	}
	if c.SampleThreshold == 0 {
		c.SampleThreshold = 15000
	}
	if c.MaxPages == 0 {
		c.MaxPages = 50
	}
	if c.MaxSlides == 0 {
		c.MaxSlides = 20
	}
	if c.MaxSampleRows == 0 {
		c.MaxSampleRows = 5
	}
}

func (c *PipelineConfig) Validate() error {
	if c.AIInputBudget < 3 {
		return fmt.Errorf("ai_input_budget too small: %d", c.AIInputBudget)
	}
	if c.SampleThreshold < c.ShortDocLimit {
		return fmt.Errorf("sample_threshold (%d) must be >= short_doc_limit (%d)", c.SampleThreshold, c.ShortDocLimit)
	}
	return nil
}

func (c *FetchConfig) SetDefaults() {
	if c.PageTimeout == 0 {
		c.PageTimeout = 10
	}
	if c.OEmbedTimeout == 0 {
		c.OEmbedTimeout = 5
	}
	if c.MaxDownloadBytes == 0 {
		c.MaxDownloadBytes = 20 << 20
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	}
}

func (c *FetchConfig) Validate() error {
	if c.PageTimeout < 1 {
		return fmt.Errorf("page_timeout must be at least 1s, got %d", c.PageTimeout)
	}
	if c.OEmbedTimeout < 1 {
		return fmt.Errorf("oembed_timeout must be at least 1s, got %d", c.OEmbedTimeout)
	}
	return nil
}
