package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ogulcanaydogan/budget-alert-relay/pkg/model"
)

// Ack is the only response value accepted as a successful delivery.
const Ack = "ok"

// maxResponseBody bounds how much of a webhook reply is read.
const maxResponseBody = 64 * 1024

// WebhookClient posts payloads to an incoming webhook.
type WebhookClient struct {
	client    *http.Client
	userAgent string
}

// NewWebhookClient creates a webhook client. A zero timeout leaves the
// http.Client default in place.
func NewWebhookClient(timeout time.Duration) *WebhookClient {
	return &WebhookClient{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: "budget-alert-relay/1.0",
	}
}

func (w *WebhookClient) Post(ctx context.Context, url string, payload model.Payload) error {
	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", w.userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read webhook response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, decodeResponse(bytes.TrimSpace(raw)))
	}

	value := decodeResponse(raw)
	if s, ok := value.(string); ok && s == Ack {
		return nil
	}
	return &WebhookError{Body: describe(value)}
}

// decodeResponse parses the body as JSON, falling back to the raw text for
// replies such as Slack's plain "ok". An empty body decodes to nil.
func decodeResponse(raw []byte) any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return string(raw)
	}
	return v
}

// describe coerces a decoded response value into an error message.
func describe(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

var _ Poster = (*WebhookClient)(nil)
