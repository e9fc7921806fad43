package types

import "time"

// Retry policies for webhook delivery
const (
	RetryConstant    = "constant"
	RetryLinear      = "linear"
	RetryExponential = "exponential"
)

// AllEvents subscribes a webhook to every event
const AllEvents = "*"

// Event names emitted by engines
const (
	EventSessionStatus = "session.status"
	EventMessage       = "message"
	EventMessageAck    = "message.ack"
	EventStateChange   = "state.change"
)

// WebhookConfig is a destination subscribed to session events
type WebhookConfig struct {
	URL           string         `json:"url" yaml:"url" binding:"required,url"`
	Events        []string       `json:"events" yaml:"events"`
	HMAC          *HMACConfig    `json:"hmac,omitempty" yaml:"hmac,omitempty"`
	Retries       *RetriesPolicy `json:"retries,omitempty" yaml:"retries,omitempty"`
	CustomHeaders []CustomHeader `json:"customHeaders,omitempty" yaml:"customHeaders,omitempty"`
}

// Subscribed reports whether the webhook wants the named event
func (w WebhookConfig) Subscribed(event string) bool {
	for _, e := range w.Events {
		if e == AllEvents || e == event {
			return true
		}
	}
	return false
}

// HMACConfig signs webhook bodies with a shared key
type HMACConfig struct {
	Key string `json:"key" yaml:"key"`
}

// RetriesPolicy controls redelivery of failed webhooks
type RetriesPolicy struct {
	Policy       string `json:"policy" yaml:"policy"`
	DelaySeconds int    `json:"delaySeconds" yaml:"delaySeconds"`
	Attempts     int    `json:"attempts" yaml:"attempts"`
}

// CustomHeader is an extra header sent with each delivery
type CustomHeader struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Event is a session or engine event
type Event struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Session   string      `json:"session"`
	Engine    string      `json:"engine"`
	Event     string      `json:"event"`
	Payload   interface{} `json:"payload"`
}
