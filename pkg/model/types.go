package model

// UndefinedMessage is interpolated in place of a record's text when the
// record carries no Sns.Message.
const UndefinedMessage = "undefined"

// Event is an inbound batch of notification records.
type Event struct {
	Records []Record `json:"Records" yaml:"Records"`
}

// Record is a single entry of an inbound batch.
type Record struct {
	EventSource          string     `json:"EventSource,omitempty" yaml:"EventSource,omitempty"`
	EventVersion         string     `json:"EventVersion,omitempty" yaml:"EventVersion,omitempty"`
	EventSubscriptionArn string     `json:"EventSubscriptionArn,omitempty" yaml:"EventSubscriptionArn,omitempty"`
	SNS                  *SNSEntity `json:"Sns,omitempty" yaml:"Sns,omitempty"`
}

// SNSEntity is the topic notification wrapped by a record.
type SNSEntity struct {
	Type      string  `json:"Type,omitempty" yaml:"Type,omitempty"`
	MessageID string  `json:"MessageId,omitempty" yaml:"MessageId,omitempty"`
	TopicArn  string  `json:"TopicArn,omitempty" yaml:"TopicArn,omitempty"`
	Subject   string  `json:"Subject,omitempty" yaml:"Subject,omitempty"`
	Message   *string `json:"Message,omitempty" yaml:"Message,omitempty"`
	Timestamp string  `json:"Timestamp,omitempty" yaml:"Timestamp,omitempty"`
}

// Message returns the raw alert text of the record. Records without a
// message are not rejected; they yield UndefinedMessage.
func (r Record) Message() string {
	if r.SNS == nil || r.SNS.Message == nil {
		return UndefinedMessage
	}
	return *r.SNS.Message
}

// NewRecord builds a record carrying the given alert text.
func NewRecord(message string) Record {
	return Record{
		EventSource:  "aws:sns",
		EventVersion: "1.0",
		SNS: &SNSEntity{
			Type:    "Notification",
			Message: &message,
		},
	}
}

// Payload is the outbound webhook body.
type Payload struct {
	Text string `json:"text"`
}
