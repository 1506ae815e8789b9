package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Channel delivers a rendered notification payload.
type Channel interface {
	Send(ctx context.Context, title, content string) error
	Name() string
}

// WebhookChannel posts notifications to an HTTP webhook endpoint.
type WebhookChannel struct {
	name    string
	url     string
	client  *http.Client
	headers map[string]string
}

// WebhookOption customizes a WebhookChannel.
type WebhookOption func(*WebhookChannel)

// WithWebhookClient overrides the HTTP client.
func WithWebhookClient(client *http.Client) WebhookOption {
	return func(c *WebhookChannel) {
		if client != nil {
			c.client = client
		}
	}
}

// WithWebhookHeader adds a static request header.
func WithWebhookHeader(key, value string) WebhookOption {
	return func(c *WebhookChannel) {
		if key != "" {
			c.headers[key] = value
		}
	}
}

// NewWebhookChannel builds a webhook notification channel.
func NewWebhookChannel(name, url string, opts ...WebhookOption) (*WebhookChannel, error) {
	if name == "" {
		return nil, errors.New("webhook channel: empty name")
	}
	if url == "" {
		return nil, errors.New("webhook channel: empty url")
	}
	ch := &WebhookChannel{
		name:    name,
		url:     url,
		client:  &http.Client{Timeout: 10 * time.Second},
		headers: map[string]string{},
	}
	for _, opt := range opts {
		opt(ch)
	}
	return ch, nil
}

// Name returns the channel name.
func (c *WebhookChannel) Name() string { return c.name }

// Send posts the notification as a JSON document.
func (c *WebhookChannel) Send(ctx context.Context, title, content string) error {
	payload := map[string]string{
		"title": title,
		"text":  content,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook channel %s: marshal payload: %w", c.name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook channel %s: build request: %w", c.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook channel %s: post: %w", c.name, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook channel %s: unexpected status %d", c.name, resp.StatusCode)
	}
	return nil
}
