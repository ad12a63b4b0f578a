package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// webhookDispatcher POSTs event notifications to an optional external
// webhook URL. Dispatch is fire-and-forget through the worker pool:
// an unset URL disables it entirely, and delivery failures are logged
// and discarded.
type webhookDispatcher struct {
	url    string
	client *http.Client
	pool   *workerPool
}

// newWebhookDispatcher creates a dispatcher; an empty URL yields a
// dispatcher whose Emit is a no-op
func newWebhookDispatcher(url string) *webhookDispatcher {
	d := &webhookDispatcher{
		url:    url,
		client: &http.Client{Timeout: DefaultWebhookTimeout},
	}
	d.pool = &workerPool{
		workers: DefaultWorkerCount,
		queue:   make(chan WebhookEvent, DefaultQueueSize),
		deliver: d.deliver,
	}
	return d
}

// Start launches the delivery workers
func (d *webhookDispatcher) Start() {
	if d.url != "" {
		d.pool.Start()
	}
}

// Stop drains and shuts down the delivery workers
func (d *webhookDispatcher) Stop() {
	if d.url != "" {
		d.pool.Stop()
	}
}

// Emit queues an event for delivery without blocking the caller
func (d *webhookDispatcher) Emit(eventType string, payload interface{}) {
	if d.url == "" {
		return
	}
	d.pool.Submit(WebhookEvent{
		Type:      eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
}

// deliver POSTs a single event to the webhook URL
func (d *webhookDispatcher) deliver(ctx context.Context, event WebhookEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer safeClose(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook returned status: %s", resp.Status)
	}

	logger.Debug("Webhook delivered", zap.String("type", event.Type))
	return nil
}
