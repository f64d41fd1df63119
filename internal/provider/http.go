package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// apiClient is the shared HTTP plumbing for the built-in adapters: bearer
// auth, JSON codec, and error classification at the response boundary.
type apiClient struct {
	base   string
	apiKey string
	http   *http.Client
}

func newAPIClient(base, apiKey string, timeoutSec int) *apiClient {
	if timeoutSec <= 0 {
		timeoutSec = 60
	}
	return &apiClient{
		base:   base,
		apiKey: apiKey,
		http:   &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

func (c *apiClient) postJSON(ctx context.Context, op, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return Permanent(op, fmt.Errorf("encode request: %w", err))
	}
	return c.do(ctx, op, http.MethodPost, path, bytes.NewReader(b), out)
}

func (c *apiClient) getJSON(ctx context.Context, op, path string, out any) error {
	return c.do(ctx, op, http.MethodGet, path, nil, out)
}

func (c *apiClient) do(ctx context.Context, op, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return Permanent(op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransport(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Transient(op, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classifyHTTP(op, resp.StatusCode, truncate(string(data), 256))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return Transient(op, fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}

// postRaw sends JSON and returns the raw response bytes, used by audio
// backends that stream media instead of JSON.
func (c *apiClient) postRaw(ctx context.Context, op, path string, body any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, Permanent(op, fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(b))
	if err != nil {
		return nil, Permanent(op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransport(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Transient(op, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyHTTP(op, resp.StatusCode, truncate(string(data), 256))
	}
	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
