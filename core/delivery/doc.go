// Package delivery implements the outbound event delivery engine: per-event
// retry state, exponential backoff, and terminal-vs-retryable outcome
// classification.
//
// The engine drives one delivery loop per event id. Within an id, send
// attempts are strictly sequential; across ids, deliveries are fully
// independent and carry no ordering guarantee. HTTP outcomes are classified
// into success (2xx), terminal rejection (400/401 always, 403/404 for
// updates), or retryable failure (anything else, including transport
// errors), which is rescheduled with exponential backoff until the retry
// limit is exhausted.
//
// Delivery is fire-and-forget: failures surface through the configured
// Notifier and log records, never as returned errors.
//
// The Sender interface abstracts a single HTTP round trip so transports can
// be swapped without touching the retry state machine; HTTPSender is the
// production implementation with API-key and HMAC-signature headers.
package delivery
