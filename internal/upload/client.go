package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Result captures information about a stored artifact.
type Result struct {
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// Store persists generated artifact bytes and returns a public URL. The
// blob store itself is an external collaborator; this is only its client.
type Store interface {
	Upload(ctx context.Context, data []byte, name, ownerID string) (*Result, error)
}

// Client talks to the content service over HTTP: one PUT per artifact,
// keyed by owner and object name.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
}

func (c *Client) Upload(ctx context.Context, data []byte, name, ownerID string) (*Result, error) {
	url := fmt.Sprintf("%s/objects/%s/%s", c.baseURL, ownerID, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = int64(len(data))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("upload %s: http %d", name, resp.StatusCode)
	}

	var out Result
	if err := json.Unmarshal(body, &out); err != nil || out.URL == "" {
		// Store variants that return no body still served the object at
		// the PUT location.
		out = Result{URL: url, Size: int64(len(data))}
	}
	return &out, nil
}

// Fetch downloads a generated artifact from a provider URL so it can be
// re-uploaded to our own store.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch artifact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch artifact: http %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
