// Package transport provides HTTP round trippers shared by the model API clients.
package transport

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"
)

// DefaultMaxRateLimitRetries is how many 429 responses are waited out before the response is returned to the caller
const DefaultMaxRateLimitRetries = 5

// maxRetryAfter caps a single wait, so a misbehaving server cannot park a chat turn indefinitely
const maxRetryAfter = 2 * time.Minute

// RateLimitedTransport retries requests that were rejected with 429 Too Many Requests, honoring the retry-after header
type RateLimitedTransport struct {
	base       http.RoundTripper
	maxRetries int
}

// WithRateLimiting wraps base, or http.DefaultTransport if base is nil
func WithRateLimiting(base http.RoundTripper, maxRetries int) *RateLimitedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RateLimitedTransport{base: base, maxRetries: maxRetries}
}

func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Preserve the original request body for retries
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		err = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to close request body: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return resp, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= t.maxRetries {
			return resp, nil
		}

		waitDuration := parseRetryAfter(resp.Header.Get("retry-after"), time.Now())
		if waitDuration <= 0 {
			return resp, nil
		}

		err = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to close response body: %w", err)
		}

		log.Printf("Rate limited by %s, waiting %s", req.URL.Host, waitDuration)
		timer := time.NewTimer(waitDuration)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}
}

// parseRetryAfter reads a retry-after header given either in seconds or as an HTTP date. It returns zero if the
// header is missing or unparseable
func parseRetryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	var wait time.Duration
	if seconds, err := strconv.Atoi(value); err == nil {
		wait = time.Duration(seconds) * time.Second
	} else if retryTime, err := http.ParseTime(value); err == nil {
		wait = retryTime.Sub(now)
	}
	return min(wait, maxRetryAfter)
}
