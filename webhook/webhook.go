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

// SignatureHeader carries the HMAC-SHA256 of the request body.
const SignatureHeader = "X-Harvest-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// Notifier delivers signed events.
type Notifier struct {
	secret string
	client *http.Client
	delays []time.Duration
}

// NewNotifier creates a Notifier. Bodies are signed when secret is
// non-empty.
func NewNotifier(secret string) *Notifier {
	return &Notifier{
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
		delays: []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second},
	}
}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Deliver sends a webhook event synchronously.
// Header: X-Harvest-Signature: sha256=<hex>
func (n *Notifier) Deliver(ctx context.Context, url string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Harvest-Webhook/1.0")

	if n.secret != "" {
		req.Header.Set(SignatureHeader, Sign(n.secret, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverAsync sends a webhook event in the background with up to 3
// retries. Retry intervals: 1s, 5s, 30s.
func (n *Notifier) DeliverAsync(url string, event *Event) {
	go func() {
		for attempt, delay := range n.delays {
			if delay > 0 {
				time.Sleep(delay)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := n.Deliver(ctx, url, event)
			cancel()
			if err == nil {
				slog.Info("webhook delivered",
					"url", url,
					"event", event.Type,
					"session_id", event.SessionID,
					"attempt", attempt+1,
				)
				return
			}
			slog.Warn("webhook delivery failed",
				"url", url,
				"event", event.Type,
				"session_id", event.SessionID,
				"attempt", attempt+1,
				"error", err,
			)
		}
		slog.Error("webhook delivery exhausted all retries",
			"url", url,
			"event", event.Type,
			"session_id", event.SessionID,
		)
	}()
}
