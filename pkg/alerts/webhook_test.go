package alerts_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ogulcanaydogan/budget-alert-relay/pkg/alerts"
	"github.com/ogulcanaydogan/budget-alert-relay/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func replyWith(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}
}

func TestWebhookClient_Post(t *testing.T) {
	var received map[string]any
	var rawBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "budget-alert-relay/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, http.MethodPost, r.Method)

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		rawBody = string(raw)
		require.NoError(t, json.Unmarshal(raw, &received))
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := alerts.NewWebhookClient(time.Second)
	err := c.Post(context.Background(), server.URL, model.Payload{Text: "<!here> hello"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"text": "<!here> hello"}, received)
	assert.Contains(t, rawBody, `"<!here> hello"`)
}

func TestWebhookClient_Post_JSONAck(t *testing.T) {
	server := httptest.NewServer(replyWith(`"ok"`))
	defer server.Close()

	c := alerts.NewWebhookClient(time.Second)
	err := c.Post(context.Background(), server.URL, model.Payload{Text: "hello"})
	assert.NoError(t, err)
}

func TestWebhookClient_Post_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"plain text", "Error from WEBHOOK", "Error from WEBHOOK"},
		{"json string", `"no_text"`, "no_text"},
		{"json object", `{"ok": false, "error": "invalid_token"}`, `{"error":"invalid_token","ok":false}`},
		{"json boolean", `true`, "true"},
		{"empty", "", ""},
		{"ok with padding", "ok\n", "ok\n"},
		{"upper case", "OK", "OK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(replyWith(tt.body))
			defer server.Close()

			c := alerts.NewWebhookClient(time.Second)
			err := c.Post(context.Background(), server.URL, model.Payload{Text: "hello"})
			require.Error(t, err)

			var webhookErr *alerts.WebhookError
			require.True(t, errors.As(err, &webhookErr))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestWebhookClient_Post_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("unavailable"))
	}))
	defer server.Close()

	c := alerts.NewWebhookClient(time.Second)
	err := c.Post(context.Background(), server.URL, model.Payload{Text: "hello"})
	require.Error(t, err)

	var transportErr *alerts.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.StatusServiceUnavailable, transportErr.StatusCode)
	assert.Equal(t, `503 - "unavailable"`, err.Error())
}

func TestWebhookClient_Post_ServerErrorBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"json object", `{"error":"channel_not_found"}`, `404 - {"error":"channel_not_found"}`},
		{"json string", `"no_service"`, `404 - "no_service"`},
		{"plain text", "no_service\n", `404 - "no_service"`},
		{"empty", "", `404 - ""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := alerts.NewWebhookClient(time.Second).Post(context.Background(), server.URL, model.Payload{Text: "hello"})
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestWebhookClient_Post_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(replyWith("ok"))
	url := server.URL
	server.Close()

	c := alerts.NewWebhookClient(time.Second)
	err := c.Post(context.Background(), url, model.Payload{Text: "hello"})
	require.Error(t, err)

	var transportErr *alerts.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Zero(t, transportErr.StatusCode)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestWebhookClient_Post_InvalidURL(t *testing.T) {
	c := alerts.NewWebhookClient(time.Second)
	err := c.Post(context.Background(), "://bad", model.Payload{Text: "hello"})

	var transportErr *alerts.TransportError
	assert.True(t, errors.As(err, &transportErr))
}
