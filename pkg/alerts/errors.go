package alerts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingWebhookURL is returned before any dispatch when no destination is configured.
var ErrMissingWebhookURL = errors.New("WEBHOOK_URL environment variable must be defined")

// WebhookError reports a webhook response other than the "ok" acknowledgement.
// The error text is the response value itself.
type WebhookError struct {
	Body string
}

func (e *WebhookError) Error() string { return e.Body }

// TransportError reports a failed HTTP exchange: the request could not be
// made or the webhook answered with a non-2xx status.
type TransportError struct {
	StatusCode int // zero when no response was received
	Err        error
}

func (e *TransportError) Error() string { return e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// statusError renders "<status> - <body>" with the decoded body in JSON form,
// so a plain text reply reads 503 - "unavailable".
func statusError(code int, body any) *TransportError {
	if body == nil {
		body = ""
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	text := fmt.Sprint(body)
	if err := enc.Encode(body); err == nil {
		text = string(bytes.TrimRight(buf.Bytes(), "\n"))
	}
	return &TransportError{
		StatusCode: code,
		Err:        fmt.Errorf("%d - %s", code, text),
	}
}
