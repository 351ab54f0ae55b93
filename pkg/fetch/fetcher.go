// Package fetch performs all outbound HTTP fetches for the pipeline.
// Every fetch, including each redirect hop, is validated by the SSRF
// guard first.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/FCMSStudent/laterr-sub000/pkg/config"
	"github.com/FCMSStudent/laterr-sub000/pkg/ssrf"
)

// Fetcher downloads pages, files, and oEmbed documents with bounded
// timeouts and sizes.
type Fetcher struct {
	guard        *ssrf.Guard
	pageClient   *http.Client
	oembedClient *http.Client
	userAgent    string
	maxBytes     int64
}

// New builds a Fetcher from config. Page and file downloads share the
// page timeout; oEmbed calls use the shorter oEmbed timeout.
func New(guard *ssrf.Guard, cfg config.FetchConfig) *Fetcher {
	checkRedirect := func(req *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return fmt.Errorf("stopped after 10 redirects")
		}
		return guard.Validate(req.URL.String())
	}

	return &Fetcher{
		guard: guard,
		pageClient: &http.Client{
			Timeout:       time.Duration(cfg.PageTimeout) * time.Second,
			CheckRedirect: checkRedirect,
		},
		oembedClient: &http.Client{
			Timeout:       time.Duration(cfg.OEmbedTimeout) * time.Second,
			CheckRedirect: checkRedirect,
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxDownloadBytes,
	}
}

// Page fetches an HTML page with browser-like headers.
func (f *Fetcher) Page(ctx context.Context, rawURL string) ([]byte, error) {
	if err := f.guard.Validate(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	return f.do(f.pageClient, req)
}

// Bytes downloads a file, capped at the configured byte limit.
func (f *Fetcher) Bytes(ctx context.Context, rawURL string) ([]byte, error) {
	if err := f.guard.Validate(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	return f.do(f.pageClient, req)
}

// JSON fetches and decodes a JSON document (oEmbed timeout).
func (f *Fetcher) JSON(ctx context.Context, rawURL string, v any) error {
	if err := f.guard.Validate(rawURL); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := f.do(f.oembedClient, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode JSON from %s: %w", rawURL, err)
	}
	return nil
}

func (f *Fetcher) do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch failed: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("response exceeds %d byte limit", f.maxBytes)
	}
	return body, nil
}
