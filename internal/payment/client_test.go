package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	c, err := NewClient(Config{
		BaseURL:      baseURL,
		AccessToken:  "tok-1",
		RefreshToken: "refresh-1",
	})
	require.NoError(t, err)
	return c
}

func TestCreatePreference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/checkout/preferences", r.URL.Path)
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		var body preferenceBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Items, 1)
		assert.Equal(t, "19990.00", body.Items[0].UnitPrice)
		assert.Equal(t, "CLP", body.Items[0].CurrencyID)
		assert.Equal(t, "user:42", body.ExternalReference)

		_ = json.NewEncoder(w).Encode(Preference{ID: "pref-1", InitPoint: "https://pay.example/p/1"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	pref, err := c.CreatePreference(context.Background(), CreatePreferenceRequest{
		Title:             "Publicación de invitación",
		Amount:            decimal.NewFromInt(19990),
		Currency:          "CLP",
		ExternalReference: "user:42",
	})
	require.NoError(t, err)
	assert.Equal(t, "pref-1", pref.ID)
	assert.Equal(t, "https://pay.example/p/1", pref.InitPoint)
}

func TestStatus_EmptyResultsReadsPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pref-9", r.URL.Query().Get("preference_id"))
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	status, err := c.Status(context.Background(), "pref-9")
	require.NoError(t, err)
	assert.Equal(t, "pending", status)
}

func TestStatus_RefreshesSessionOn401(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			_, _ = w.Write([]byte(`{"access_token":"tok-2"}`))
		default:
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			assert.Equal(t, "Bearer tok-2", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"results":[{"status":"approved"}]}`))
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	status, err := c.Status(context.Background(), "pref-1")
	require.NoError(t, err)
	assert.Equal(t, "approved", status)
}

func TestStatus_UnauthorizedAfterRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token" {
			_, _ = w.Write([]byte(`{"access_token":"tok-2"}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Status(context.Background(), "pref-1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestStatus_TimeoutIsDistinguished(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := newTestClient(t, srv.URL)
	c.timeout = 50 * time.Millisecond
	c.httpClient.Timeout = 50 * time.Millisecond

	_, err := c.Status(context.Background(), "pref-1")
	assert.ErrorIs(t, err, ErrTimeout)
}
