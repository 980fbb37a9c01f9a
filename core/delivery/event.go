package delivery

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Kind distinguishes event creation from event update deliveries.
type Kind int

const (
	KindCreate Kind = iota + 1
	KindUpdate
)

// Event is a single outbound delivery. ID must be stable across retries so
// the server can deduplicate re-sent attempts.
type Event struct {
	ID      string
	Name    string
	Data    map[string]any
	Options map[string]any
	Kind    Kind
}

// eventBody is the wire shape of an event delivery.
type eventBody struct {
	ID      string         `json:"id"`
	Event   string         `json:"event,omitempty"`
	Data    map[string]any `json:"data"`
	Options map[string]any `json:"options,omitempty"`
}

// request builds the HTTP request for the event: POST /api/event for
// creations, PATCH /api/event/{id} for updates.
func (e Event) request() (Request, error) {
	body, err := json.Marshal(eventBody{
		ID:      e.ID,
		Event:   e.Name,
		Data:    e.Data,
		Options: e.Options,
	})
	if err != nil {
		return Request{}, fmt.Errorf("failed to encode event body: %w", err)
	}

	if e.Kind == KindUpdate {
		return Request{
			Method: http.MethodPatch,
			Path:   "/api/event/" + url.PathEscape(e.ID),
			Body:   body,
		}, nil
	}
	return Request{
		Method: http.MethodPost,
		Path:   "/api/event",
		Body:   body,
	}, nil
}

// Outcome classifies a completed HTTP attempt.
type Outcome int

const (
	// OutcomeSuccess terminates delivery and drops the retry record.
	OutcomeSuccess Outcome = iota + 1

	// OutcomeRejected is terminal: the server refused the event and a
	// retry can never succeed.
	OutcomeRejected

	// OutcomeRetry reschedules the delivery with backoff.
	OutcomeRetry
)

// classify maps an HTTP status to a delivery outcome. 403 and 404 are only
// terminal for updates; for creations they are treated as transient server
// behavior and retried like any other unexpected status.
func classify(kind Kind, status int) Outcome {
	switch {
	case status >= 200 && status < 300:
		return OutcomeSuccess
	case status == http.StatusBadRequest, status == http.StatusUnauthorized:
		return OutcomeRejected
	case (status == http.StatusForbidden || status == http.StatusNotFound) && kind == KindUpdate:
		return OutcomeRejected
	default:
		return OutcomeRetry
	}
}
