package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
	maxErrorBodyBytes = 512
)

// jsonGetter performs GET requests with retry on transport errors. Non-2xx responses
// are not retried.
type jsonGetter struct {
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	userAgent  string
}

func newJSONGetter(timeout time.Duration) jsonGetter {
	return jsonGetter{
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
		userAgent:  "agro-service/1.0",
	}
}

func (g jsonGetter) getJSON(ctx context.Context, source, rawURL string, headers map[string]string, out any) error {
	body, err := g.get(ctx, source, rawURL, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return unavailable(source, 0, fmt.Errorf("failed to parse response: %w", err))
	}
	return nil
}

func (g jsonGetter) get(ctx context.Context, source, rawURL string, headers map[string]string) ([]byte, error) {
	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, unavailable(source, 0, fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		if g.userAgent != "" {
			req.Header.Set("User-Agent", g.userAgent)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, lastErr = g.httpClient.Do(req)
		if lastErr == nil {
			break
		}
		if ctx.Err() != nil || attempt == g.maxRetries-1 {
			return nil, unavailable(source, 0, fmt.Errorf("failed to execute request after %d attempts: %w", attempt+1, lastErr))
		}

		select {
		case <-ctx.Done():
			return nil, unavailable(source, 0, ctx.Err())
		case <-time.After(time.Duration(attempt+1) * g.backoff):
		}
	}
	if resp == nil {
		return nil, unavailable(source, 0, fmt.Errorf("failed to execute request: %w", lastErr))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, unavailable(source, 0, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, unavailable(source, resp.StatusCode, errors.New(truncate(string(body), maxErrorBodyBytes)))
	}

	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
