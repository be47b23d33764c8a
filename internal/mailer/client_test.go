package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_StampsDefaultFrom(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/send-email", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Token: "tok", From: "no-reply@invitame.app"})
	err := c.Send(context.Background(), Message{To: "ana@example.com", Subject: "Hola", Body: "..."})
	require.NoError(t, err)
	assert.Equal(t, "no-reply@invitame.app", got.From)
	assert.Equal(t, "ana@example.com", got.To)
}

func TestSend_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	assert.Error(t, c.Send(context.Background(), Message{To: "x@example.com"}))
}

func TestSend_DisabledClient(t *testing.T) {
	c := NewClient(Config{})
	assert.False(t, c.Enabled())
	assert.ErrorIs(t, c.Send(context.Background(), Message{To: "x@example.com"}), ErrDisabled)
}

func TestRelay_ContactForm(t *testing.T) {
	var got ContactMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/contact-form", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	err := c.Relay(context.Background(), ContactMessage{Name: "Ana", Email: "ana@example.com", Subject: "Ayuda", Message: "Hola"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)
}
