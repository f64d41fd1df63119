package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	signatureHeader = "X-Webhook-Signature"
	userAgent       = "MediaForge-Webhooks/1.0"
	maxBodyRecord   = 1000
)

// DeliveryPayload is the JSON body posted to webhook endpoints.
type DeliveryPayload struct {
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	WebhookID string          `json:"webhook_id"`
}

// Sign computes the hex HMAC-SHA256 of the payload body under the
// endpoint's secret, as carried in the X-Webhook-Signature header.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Sender performs one signed HTTP delivery attempt.
type Sender struct {
	http *http.Client
}

func NewSender(timeout time.Duration) *Sender {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Sender{http: &http.Client{Timeout: timeout}}
}

// Attempt is the outcome of one POST, recorded into the delivery audit row.
type Attempt struct {
	ResponseCode int
	ResponseBody string
	Err          error
}

// Send posts the payload to url, signing it when secret is non-empty. A
// non-2xx response is returned as an error so the queue's retry policy
// takes over, but the attempt detail is always reported for the audit log.
func (s *Sender) Send(ctx context.Context, url, secret string, payload DeliveryPayload) Attempt {
	body, err := json.Marshal(payload)
	if err != nil {
		return Attempt{Err: fmt.Errorf("encode payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Attempt{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if secret != "" {
		req.Header.Set(signatureHeader, Sign(secret, body))
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return Attempt{Err: fmt.Errorf("post webhook: %w", err)}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyRecord))
	attempt := Attempt{
		ResponseCode: resp.StatusCode,
		ResponseBody: string(respBody),
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		attempt.Err = fmt.Errorf("webhook endpoint returned %d", resp.StatusCode)
	}
	return attempt
}
