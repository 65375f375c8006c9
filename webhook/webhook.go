package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Event types.
const (
	EventRunCompleted = "run.completed"
	EventRunFailed    = "run.failed"
)

// SignatureHeader carries the hex HMAC-SHA256 of the body as "sha256=<hex>".
const SignatureHeader = "X-Examshot-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string      `json:"type"`
	RunID     string      `json:"run_id"`
	Timestamp int64       `json:"timestamp"`
	Error     string      `json:"error,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// Sign returns the signature header value of body for secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Deliver sends a webhook event synchronously.
// The request body is signed with HMAC-SHA256 if secret is non-empty.
func Deliver(ctx context.Context, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Examshot-Webhook/1.0")
	if secret != "" {
		req.Header.Set(SignatureHeader, Sign(secret, body))
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Notify delivers event once within timeout and logs the outcome. Failures
// never affect the run.
func Notify(ctx context.Context, url, secret string, timeout time.Duration, event *Event) {
	if url == "" {
		return
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := Deliver(ctx, url, secret, event); err != nil {
		slog.Warn("webhook delivery failed",
			"url", url,
			"event", event.Type,
			"run_id", event.RunID,
			"error", err,
		)
		return
	}
	slog.Info("webhook delivered",
		"url", url,
		"event", event.Type,
		"run_id", event.RunID,
	)
}
