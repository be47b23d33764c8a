// Package mailer is the HTTP client for the external mail relay. The
// relay exposes two functions: send-email for guest-facing mail and
// contact-form for relaying support messages to the product team.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrDisabled is returned when no relay is configured. Callers treat a
// send against a disabled mailer as a failure for that message, not a
// crash.
var ErrDisabled = errors.New("mailer is not configured")

// Config carries the relay endpoint and credentials.
type Config struct {
	BaseURL string
	Token   string
	From    string
}

// Client posts messages to the relay.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient constructs a relay client. A client with an empty base URL
// is valid but refuses to send, so the server can boot without the
// integration in local development.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled reports whether a relay endpoint is configured.
func (c *Client) Enabled() bool { return c.cfg.BaseURL != "" }

// Message is one outgoing email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	From    string `json:"from,omitempty"`
}

// Send delivers one message through the relay's send-email function.
func (c *Client) Send(ctx context.Context, m Message) error {
	if m.From == "" {
		m.From = c.cfg.From
	}
	return c.post(ctx, "/send-email", m)
}

// ContactMessage is a visitor's message from the public contact form.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Relay forwards a contact-form submission to the product team.
func (c *Client) Relay(ctx context.Context, m ContactMessage) error {
	return c.post(ctx, "/contact-form", m)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mailer: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mailer: relay returned status %d", resp.StatusCode)
	}
	return nil
}
