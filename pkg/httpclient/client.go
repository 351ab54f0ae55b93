// Package httpclient provides an HTTP client that retries over an
// explicit backoff-delay table. The schedule is a plain slice so tests
// can inspect it and callers can tune it per provider.
package httpclient

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// RetryPredicate decides whether an attempt should be retried. Either
// resp or err may be nil, never both.
type RetryPredicate func(resp *http.Response, err error) bool

// Client wraps *http.Client with schedule-driven retries.
type Client struct {
	client   *http.Client
	schedule []time.Duration
	retryOn  RetryPredicate
	notify   func(attempt int)
	sleep    func(d time.Duration, done <-chan struct{}) bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithBackoffSchedule sets the retry delay table. Its length is the
// maximum number of retries.
func WithBackoffSchedule(delays []time.Duration) Option {
	return func(c *Client) {
		c.schedule = delays
	}
}

// WithRetryOn sets the retry predicate.
func WithRetryOn(pred RetryPredicate) Option {
	return func(c *Client) {
		c.retryOn = pred
	}
}

// WithRetryNotify registers a callback invoked before each retry with
// the upcoming attempt number, starting at 1.
func WithRetryNotify(fn func(attempt int)) Option {
	return func(c *Client) {
		c.notify = fn
	}
}

// DefaultRetryPredicate retries on transport-level failures and HTTP 429.
// Any other non-2xx response is surfaced immediately so the caller can
// map it to a typed error without burning the schedule.
func DefaultRetryPredicate(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp.StatusCode == http.StatusTooManyRequests
}

// New builds a Client. Defaults: 60s per-attempt timeout, a fixed
// 1s/2s/4s schedule, DefaultRetryPredicate.
func New(opts ...Option) *Client {
	client := &Client{
		client:   &http.Client{Timeout: 60 * time.Second},
		schedule: []time.Duration{time.Second, 2 * time.Second, 4 * time.Second},
		retryOn:  DefaultRetryPredicate,
		sleep: func(d time.Duration, done <-chan struct{}) bool {
			select {
			case <-time.After(d):
				return true
			case <-done:
				return false
			}
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Do performs the request, retrying per the schedule. On exhaustion it
// returns the last response (possibly nil) together with a
// *RetryableError describing the attempts. The request body must be
// rewindable via GetBody for retries to work.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var lastResp *http.Response
	var lastErr error

	for attempt := 0; ; attempt++ {
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("failed to recreate request body for retry: %w", err)
			}
			req.Body = body
		}

		resp, err := c.client.Do(req)
		if !c.retryOn(resp, err) {
			return resp, err
		}

		lastResp = resp
		lastErr = err

		if attempt >= len(c.schedule) {
			status := 0
			if lastResp != nil {
				status = lastResp.StatusCode
			}
			return lastResp, &RetryableError{
				StatusCode: status,
				Attempts:   attempt,
				Message:    fmt.Sprintf("retries exhausted after %d attempts", attempt+1),
				Err:        lastErr,
			}
		}

		// The failed response body must be drained before the next
		// attempt so the connection can be reused.
		if resp != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}

		if !c.sleep(c.schedule[attempt], req.Context().Done()) {
			return nil, req.Context().Err()
		}
		if c.notify != nil {
			c.notify(attempt + 1)
		}
	}
}

// Schedule returns a copy of the backoff delay table.
func (c *Client) Schedule() []time.Duration {
	out := make([]time.Duration, len(c.schedule))
	copy(out, c.schedule)
	return out
}
