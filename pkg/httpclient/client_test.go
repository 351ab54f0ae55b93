package httpclient

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// instantSleep records requested delays without actually waiting.
func instantSleep(recorded *[]time.Duration) func(time.Duration, <-chan struct{}) bool {
	return func(d time.Duration, done <-chan struct{}) bool {
		*recorded = append(*recorded, d)
		select {
		case <-done:
			return false
		default:
			return true
		}
	}
}

func TestNewDefaults(t *testing.T) {
	client := New()

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, client.Schedule())
	assert.Equal(t, 60*time.Second, client.client.Timeout)
	assert.NotNil(t, client.retryOn)
}

func TestDoSuccessNoRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New()
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoRetriesExactScheduleOn429(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	var delays []time.Duration
	client := New()
	client.sleep = instantSleep(&delays)

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	resp, err := client.Do(req)
	require.Error(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}

	// 1 initial attempt + 3 retries, delays exactly 1s/2s/4s.
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, delays)

	var retryErr *RetryableError
	require.True(t, errors.As(err, &retryErr))
	assert.Equal(t, http.StatusTooManyRequests, retryErr.StatusCode)
	assert.Equal(t, 3, retryErr.Attempts)
}

func TestDoNonRetryableStatusReturnsImmediately(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer server.Close()

	client := New()
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	resp, err := client.Do(req)
	require.NoError(t, err, "non-retryable statuses are returned, not wrapped")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoRecoversAfterTransientFailure(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	var delays []time.Duration
	client := New()
	client.sleep = instantSleep(&delays)

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestDoRewindsBodyOnRetry(t *testing.T) {
	var bodies []string
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(body))
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var delays []time.Duration
	client := New()
	client.sleep = instantSleep(&delays)

	payload := []byte(`{"prompt":"hello"}`)
	req, _ := http.NewRequest(http.MethodPost, server.URL, bytes.NewReader(payload))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(payload)), nil
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Len(t, bodies, 2)
	assert.Equal(t, string(payload), bodies[0])
	assert.Equal(t, string(payload), bodies[1], "body must be replayed on retry")
}

func TestDoRetriesTransportError(t *testing.T) {
	// A closed server produces a network-level error on every attempt.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	var delays []time.Duration
	client := New(WithBackoffSchedule([]time.Duration{time.Millisecond}))
	client.sleep = instantSleep(&delays)

	req, _ := http.NewRequest(http.MethodGet, url, nil)

	resp, err := client.Do(req) //nolint:bodyclose // resp is nil on transport errors
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Len(t, delays, 1)

	var retryErr *RetryableError
	require.True(t, errors.As(err, &retryErr))
	assert.Equal(t, 0, retryErr.StatusCode)
}
