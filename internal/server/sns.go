package server

import (
	"strings"

	"github.com/ogulcanaydogan/budget-alert-relay/pkg/model"
)

// snsMessage is the body SNS posts to HTTP(S) subscribers.
type snsMessage struct {
	Type             string  `json:"Type"`
	MessageID        string  `json:"MessageId"`
	Token            string  `json:"Token,omitempty"`
	TopicArn         string  `json:"TopicArn"`
	Subject          string  `json:"Subject,omitempty"`
	Message          *string `json:"Message"`
	SubscribeURL     string  `json:"SubscribeURL,omitempty"`
	Timestamp        string  `json:"Timestamp"`
	Signature        string  `json:"Signature,omitempty"`
	SigningCertURL   string  `json:"SigningCertURL,omitempty"`
	SignatureVersion string  `json:"SignatureVersion,omitempty"`
}

// event wraps a notification in a single-record batch.
func (m snsMessage) event() *model.Event {
	return &model.Event{Records: []model.Record{{
		EventSource:  "aws:sns",
		EventVersion: "1.0",
		SNS: &model.SNSEntity{
			Type:      m.Type,
			MessageID: m.MessageID,
			TopicArn:  m.TopicArn,
			Subject:   m.Subject,
			Message:   m.Message,
			Timestamp: m.Timestamp,
		},
	}}}
}

// stringToSign builds the canonical "Key\nValue\n" form SNS signs.
// Subject is only part of it for notifications that carry one.
func (m snsMessage) stringToSign() []byte {
	message := ""
	if m.Message != nil {
		message = *m.Message
	}

	var b strings.Builder
	add := func(key, value string) {
		b.WriteString(key)
		b.WriteString("\n")
		b.WriteString(value)
		b.WriteString("\n")
	}

	if m.Type == "Notification" {
		add("Message", message)
		add("MessageId", m.MessageID)
		if m.Subject != "" {
			add("Subject", m.Subject)
		}
		add("Timestamp", m.Timestamp)
		add("TopicArn", m.TopicArn)
		add("Type", m.Type)
		return []byte(b.String())
	}

	add("Message", message)
	add("MessageId", m.MessageID)
	add("SubscribeURL", m.SubscribeURL)
	add("Timestamp", m.Timestamp)
	add("Token", m.Token)
	add("TopicArn", m.TopicArn)
	add("Type", m.Type)
	return []byte(b.String())
}
