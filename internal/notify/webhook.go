// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

// Package notify delivers outcome notifications (hosts sync results, scan
// failures) to a generic HTTP webhook. Delivery is fire-and-forget: a failed
// notification is logged and counted, never retried, and never fails the
// operation being reported.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/translocus/internal/config"
	"github.com/tomtom215/translocus/internal/logging"
	"github.com/tomtom215/translocus/internal/metrics"
)

// Notifier sends title/text messages somewhere a human will see them.
type Notifier interface {
	Send(ctx context.Context, title, text string)
}

// Payload is the JSON body posted to the webhook.
type Payload struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
}

// WebhookNotifier posts notifications to a configured webhook URL.
type WebhookNotifier struct {
	url     string
	enabled bool
	client  *http.Client
}

// New creates a notifier from config. When notifications are disabled the
// returned notifier logs at debug level and sends nothing.
func New(cfg config.NotifyConfig) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebhookNotifier{
		url:     cfg.WebhookURL,
		enabled: cfg.Enabled,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send delivers one notification. Errors are logged, not returned: callers
// report outcomes, they do not depend on the report arriving.
func (n *WebhookNotifier) Send(ctx context.Context, title, text string) {
	if !n.enabled {
		logging.Debug().Str("title", title).Msg("notifications disabled, skipping")
		return
	}

	err := n.deliver(ctx, title, text)
	metrics.RecordNotification(err)
	if err != nil {
		logging.Error().Err(err).Str("title", title).Msg("notification delivery failed")
		return
	}
	logging.Debug().Str("title", title).Msg("notification delivered")
}

func (n *WebhookNotifier) deliver(ctx context.Context, title, text string) error {
	payload := Payload{
		Event:     "translocus.notification",
		Timestamp: time.Now().UTC(),
		Title:     title,
		Text:      text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Translocus/1.0")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr != nil {
			respBody = []byte("(failed to read response)")
		}
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
