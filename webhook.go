package authcore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gp-18/authcore/internal/audit"
)

const webhookEventUserRegistered = "user.registered"

// WebhookNotifier delivers engine events to a configured HTTP endpoint as
// JSON documents of the form {"event": ..., "payload": ...}. Delivery is
// best-effort; the engine logs and counts failures but never fails the
// triggering operation because of them.
//
//	Docs: docs/webhooks.md
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier returns a notifier posting to cfg.URL with cfg.Timeout
// as the per-request deadline.
func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		url: cfg.URL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Notify posts the event to the configured endpoint. A non-2xx response is
// reported as an error.
func (n *WebhookNotifier) Notify(ctx context.Context, event string, payload map[string]interface{}) error {
	if n == nil || n.url == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	body, err := json.Marshal(map[string]interface{}{
		"event":   event,
		"payload": payload,
	})
	if err != nil {
		return fmt.Errorf("webhook: marshal event %q: %w", event, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post %q: %w", event, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook: post %q: unexpected status %d", event, resp.StatusCode)
	}

	return nil
}

// WebhookSink adapts a [Notifier] into an [AuditSink], forwarding every
// audit event as a webhook event named "audit.<event_type>". Use it when an
// external system should observe the full audit stream rather than only the
// engine's business events.
type WebhookSink struct {
	notifier Notifier
}

// NewWebhookSink returns a sink forwarding audit events to n.
func NewWebhookSink(n Notifier) *WebhookSink {
	return &WebhookSink{
		notifier: n,
	}
}

// Emit forwards the event. Delivery errors are dropped; audit dispatch must
// never block or fail the calling operation.
func (s *WebhookSink) Emit(ctx context.Context, event audit.Event) {
	if s == nil || s.notifier == nil {
		return
	}

	payload := map[string]interface{}{
		"timestamp": event.Timestamp.Format(time.RFC3339Nano),
		"success":   event.Success,
	}
	if event.UserID != "" {
		payload["user_id"] = event.UserID
	}
	if event.Email != "" {
		payload["email"] = event.Email
	}
	if event.IP != "" {
		payload["ip"] = event.IP
	}
	if event.Error != "" {
		payload["error"] = event.Error
	}
	for k, v := range event.Metadata {
		payload["meta_"+k] = v
	}

	_ = s.notifier.Notify(ctx, "audit."+event.EventType, payload)
}
