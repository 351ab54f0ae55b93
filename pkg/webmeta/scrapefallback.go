package webmeta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ScrapeClient calls a hosted scraping service as the last resort for
// pages that refuse direct fetching. It is optional: a zero value with
// no endpoint is disabled.
type ScrapeClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewScrapeClient(endpoint, apiKey string, timeout time.Duration) *ScrapeClient {
	return &ScrapeClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a scrape endpoint is configured.
func (c *ScrapeClient) Enabled() bool { return c != nil && c.endpoint != "" }

type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

type scrapeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string `json:"markdown"`
		Metadata struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			OGImage     string `json:"ogImage"`
			Author      string `json:"author"`
			SiteName    string `json:"siteName"`
		} `json:"metadata"`
	} `json:"data"`
}

// Scrape fetches the page through the remote service and returns its
// metadata and markdown body.
func (c *ScrapeClient) Scrape(ctx context.Context, rawURL string) (Metadata, string, error) {
	body, err := json.Marshal(scrapeRequest{URL: rawURL, Formats: []string{"markdown"}})
	if err != nil {
		return Metadata{}, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Metadata{}, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Metadata{}, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Metadata{}, "", fmt.Errorf("scrape service returned HTTP %d", resp.StatusCode)
	}

	var parsed scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Metadata{}, "", err
	}
	if !parsed.Success {
		return Metadata{}, "", fmt.Errorf("scrape service reported failure for %s", rawURL)
	}

	m := Metadata{
		Title:           parsed.Data.Metadata.Title,
		Description:     parsed.Data.Metadata.Description,
		PreviewImageURL: parsed.Data.Metadata.OGImage,
		Author:          parsed.Data.Metadata.Author,
		SiteName:        parsed.Data.Metadata.SiteName,
	}
	return m, parsed.Data.Markdown, nil
}
