// Package email delivers transactional email through the Resend REST API.
package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"invoicing/internal/core"
)

// DefaultAPIURL is the Resend send endpoint.
const DefaultAPIURL = "https://api.resend.com/emails"

// maxResponseBytes bounds how much of a provider response is read.
const maxResponseBytes = 64 << 10

// Config configures the Resend client.
type Config struct {
	APIKey  string
	From    string // e.g. "Studio <billing@studio.test>"
	APIURL  string
	Timeout time.Duration
}

// Client sends email via Resend. It satisfies core.Mailer.
type Client struct {
	httpClient *http.Client
	apiKey     string
	from       string
	apiURL     string
}

// NewClient returns a Client, or an error when the key or sender is missing.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("email: api key is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("email: from address is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     cfg.APIKey,
		from:       cfg.From,
		apiURL:     apiURL,
	}, nil
}

// Send posts one HTML email and returns the provider message id. Transport
// errors and non-2xx responses wrap core.ErrDownstreamFailure. There is no retry.
func (c *Client) Send(ctx context.Context, to, subject, html string) (string, error) {
	body, err := c.buildPayload(to, subject, html)
	if err != nil {
		return "", fmt.Errorf("failed to build email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: email request failed: %v", core.ErrDownstreamFailure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read email response: %v", core.ErrDownstreamFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gjson.GetBytes(raw, "message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return "", fmt.Errorf("%w: email provider returned %d: %s", core.ErrDownstreamFailure, resp.StatusCode, msg)
	}

	id := gjson.GetBytes(raw, "id").String()
	if id == "" {
		return "", fmt.Errorf("%w: email provider response has no id", core.ErrDownstreamFailure)
	}
	return id, nil
}

func (c *Client) buildPayload(to, subject, html string) ([]byte, error) {
	body := []byte(`{}`)
	var err error
	for _, kv := range []struct {
		path  string
		value any
	}{
		{"from", c.from},
		{"to", []string{to}},
		{"subject", subject},
		{"html", html},
	} {
		if body, err = sjson.SetBytes(body, kv.path, kv.value); err != nil {
			return nil, err
		}
	}
	return body, nil
}
