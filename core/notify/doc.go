// Package notify provides typed, in-process notification dispatch for the
// client lifecycle.
//
// Instead of string-keyed emitter events, notifications are identified by a
// Kind enum with a typed payload per kind. Handlers are registered on a
// Registry and invoked synchronously, in registration order, when the kind
// is emitted. Handler errors are logged and never propagated to the emitter,
// matching the fire-and-forget contract of the client.
//
//	registry := notify.NewRegistry()
//	registry.On(notify.KindResponse, notify.NewHandler(func(ctx context.Context, p notify.ResponsePayload) error {
//	    log.Printf("delivered %s: %d", p.EventID, p.Status)
//	    return nil
//	}))
//
// Remote topic deliveries are a parameterized kind: handlers subscribe to a
// specific topic name via OnTopic and receive a TopicPayload carrying the
// topic as data rather than encoded into an event-name string.
package notify
