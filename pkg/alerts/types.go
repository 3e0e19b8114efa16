package alerts

import (
	"context"

	"github.com/ogulcanaydogan/budget-alert-relay/pkg/model"
)

// Settings is the per-invocation configuration snapshot.
type Settings struct {
	WebhookURL    string `json:"webhook_url"`
	MessagePrefix string `json:"message_prefix,omitempty"`
}

// Poster delivers a single payload to a webhook.
type Poster interface {
	// Post sends payload to url. Implementations must be safe for concurrent use.
	Post(ctx context.Context, url string, payload model.Payload) error
}
