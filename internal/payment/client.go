// Package payment implements the HTTP client for the external checkout
// provider. The provider issues a "preference" (checkout session) per
// payment attempt; the publish flow and the gift webhook both key on
// that preference id. Status checks are read-only and safe to repeat.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const requestTimeout = 15 * time.Second

// ErrTimeout is returned when the provider did not answer within the
// request timeout. Callers surface this differently from a generic
// connectivity failure.
var ErrTimeout = errors.New("payment provider timed out")

// ErrUnauthorized is returned when the provider rejects our credentials
// even after a session refresh.
var ErrUnauthorized = errors.New("payment provider rejected credentials")

// Config carries the provider credentials and endpoints.
type Config struct {
	BaseURL      string
	AccessToken  string
	RefreshToken string
}

// Validate checks the minimum configuration needed to reach the provider.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("payment: base URL is required")
	}
	if c.AccessToken == "" {
		return errors.New("payment: access token is required")
	}
	return nil
}

// Client is a thin typed wrapper over the provider's REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	timeout    time.Duration

	mu    sync.Mutex
	token string // current access token; replaced on session refresh
}

// NewClient constructs a provider client from configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: requestTimeout},
		timeout:    requestTimeout,
		token:      cfg.AccessToken,
	}, nil
}

// Preference is the provider's handle for one checkout session.
type Preference struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"` // URL the payer is sent to
}

// CreatePreferenceRequest describes the single item being charged.
type CreatePreferenceRequest struct {
	Title             string
	Amount            decimal.Decimal
	Currency          string
	ExternalReference string // our side's correlation id
}

type preferenceItem struct {
	Title      string `json:"title"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	CurrencyID string `json:"currency_id"`
}

type preferenceBody struct {
	Items             []preferenceItem `json:"items"`
	ExternalReference string           `json:"external_reference"`
}

// CreatePreference opens a checkout session with the provider.
func (c *Client) CreatePreference(ctx context.Context, req CreatePreferenceRequest) (Preference, error) {
	body := preferenceBody{
		Items: []preferenceItem{{
			Title:      req.Title,
			Quantity:   1,
			UnitPrice:  req.Amount.StringFixed(2),
			CurrencyID: req.Currency,
		}},
		ExternalReference: req.ExternalReference,
	}
	var pref Preference
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", body, &pref); err != nil {
		return Preference{}, err
	}
	if pref.ID == "" {
		return Preference{}, errors.New("payment: provider returned no preference id")
	}
	return pref, nil
}

type paymentSearchResponse struct {
	Results []struct {
		Status string `json:"status"`
	} `json:"results"`
}

// Status returns the provider's latest verdict for a checkout session:
// approved, pending, in_process, rejected or cancelled. A session the
// payer has not touched yet has no payment attached and reads as
// pending.
func (c *Client) Status(ctx context.Context, preferenceID string) (string, error) {
	path := "/v1/payments/search?preference_id=" + url.QueryEscape(preferenceID) + "&sort=date_created&criteria=desc"
	var resp paymentSearchResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "pending", nil
	}
	return resp.Results[0].Status, nil
}

// do performs one authenticated request with the 15 second ceiling,
// refreshing the session once on 401 (matching the single
// refresh-and-retry the provider allows before we give up).
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	status, err := c.doOnce(ctx, method, path, body, out)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		if err := c.refreshSession(ctx); err != nil {
			return ErrUnauthorized
		}
		status, err = c.doOnce(ctx, method, path, body, out)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			return ErrUnauthorized
		}
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("payment: provider returned status %d", status)
	}
	return nil
}

func (c *Client) doOnce(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	req.Header.Set("Authorization", "Bearer "+c.token)
	c.mu.Unlock()
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return 0, ErrTimeout
		}
		return 0, fmt.Errorf("payment: request failed: %w", err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return 0, fmt.Errorf("payment: decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

// refreshSession exchanges the refresh token for a fresh access token.
func (c *Client) refreshSession(ctx context.Context) error {
	if c.cfg.RefreshToken == "" {
		return errors.New("payment: no refresh token configured")
	}
	body := map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": c.cfg.RefreshToken,
	}
	var resp refreshResponse
	status, err := c.doOnce(ctx, http.MethodPost, "/oauth/token", body, &resp)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 || resp.AccessToken == "" {
		return errors.New("payment: session refresh failed")
	}
	c.mu.Lock()
	c.token = resp.AccessToken
	c.mu.Unlock()
	return nil
}
