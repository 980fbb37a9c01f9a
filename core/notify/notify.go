package notify

import "time"

// Kind identifies a client lifecycle notification.
type Kind int

const (
	// KindConfigured fires after a client configuration snapshot has been
	// fetched and applied.
	KindConfigured Kind = iota + 1

	// KindResponse fires when an event delivery succeeds.
	KindResponse

	// KindRetry fires each time a delivery attempt is rescheduled.
	KindRetry

	// KindUnauthorized fires when the server rejects credentials or the
	// event is not permitted for this client.
	KindUnauthorized

	// KindNotFound fires when an update targets an unknown event id.
	KindNotFound

	// KindTopic marks an inbound remote event routed to a local topic
	// subscriber. Registration and emission are keyed by topic name.
	KindTopic
)

// String returns the lifecycle topic name for the kind.
func (k Kind) String() string {
	switch k {
	case KindConfigured:
		return "configured"
	case KindResponse:
		return "response"
	case KindRetry:
		return "retry"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "notfound"
	case KindTopic:
		return "topic"
	default:
		return "unknown"
	}
}

// ConfiguredPayload accompanies KindConfigured.
type ConfiguredPayload struct {
	CanPublish bool
	CanConsume bool
	Topics     []string
}

// ResponsePayload accompanies KindResponse.
type ResponsePayload struct {
	EventID string
	Status  int
	Body    []byte
	Request []byte
}

// RetryPayload accompanies KindRetry.
type RetryPayload struct {
	EventID string
	Attempt int
	Delay   time.Duration
	Reason  string
}

// UnauthorizedPayload accompanies KindUnauthorized.
type UnauthorizedPayload struct {
	EventID string
	Status  int
	Body    []byte
}

// NotFoundPayload accompanies KindNotFound.
type NotFoundPayload struct {
	EventID string
}

// TopicPayload accompanies KindTopic. Topic carries the matched topic name;
// Data is the delivered webhook body.
type TopicPayload struct {
	Topic string
	Data  map[string]any
}
