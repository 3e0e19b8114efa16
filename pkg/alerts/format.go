package alerts

import (
	"strings"

	"github.com/ogulcanaydogan/budget-alert-relay/pkg/model"
)

const (
	// Mention notifies every active member of the receiving channel.
	Mention = "<!here>"

	// Reminder is appended to every alert.
	Reminder = "Please set the alert thresholds to higher values if you want to be notified of overspend again this month"

	lineBreak = "\n"
)

// FormatText builds the notification text for a record.
func FormatText(record model.Record, prefix string) string {
	var b strings.Builder
	b.WriteString(Mention)
	b.WriteString(" ")
	if prefix != "" {
		b.WriteString(prefix)
		b.WriteString(lineBreak)
	}
	b.WriteString(record.Message())
	b.WriteString(lineBreak + lineBreak)
	b.WriteString(Reminder)
	return b.String()
}

// BuildPayload wraps FormatText in the outbound body.
func BuildPayload(record model.Record, prefix string) model.Payload {
	return model.Payload{Text: FormatText(record, prefix)}
}
