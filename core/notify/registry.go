package notify

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/dmitrymomot/relaykit/core/topic"
)

// Registry maps notification kinds (and topic names for KindTopic) to
// ordered handler lists. Emission is synchronous and ordered; handler errors
// are logged and swallowed.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used to report handler failures.
// If not set, a no-op logger is used.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty notification registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		handlers: make(map[string][]Handler),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// On registers a handler for a lifecycle notification kind.
// Handlers run in registration order.
func (r *Registry) On(kind Kind, h Handler) {
	r.add(kind.String(), h)
}

// OnTopic registers a handler for inbound deliveries matching a topic
// pattern. The pattern may use segment wildcards ("*", trailing "**").
func (r *Registry) OnTopic(pattern string, h Handler) {
	r.add(topicKey(pattern), h)
}

// Emit dispatches a lifecycle notification to all handlers registered for
// the kind. It returns once every handler has run.
func (r *Registry) Emit(ctx context.Context, kind Kind, payload any) {
	r.dispatch(ctx, kind.String(), payload)
}

// EmitTopic dispatches an inbound delivery to every handler whose
// subscribed pattern matches name. Subscriptions under an exact topic and
// under a wildcard pattern both receive the delivery.
func (r *Registry) EmitTopic(ctx context.Context, name string, data map[string]any) {
	payload := TopicPayload{Topic: name, Data: data}
	for _, h := range r.topicHandlers(name) {
		if err := h.Handle(ctx, payload); err != nil {
			r.logger.ErrorContext(ctx, "notification handler failed",
				slog.String("notification", topicKey(name)),
				slog.Any("error", err),
			)
		}
	}
}

// HasTopicHandlers reports whether an inbound delivery of name would reach
// at least one subscriber.
func (r *Registry) HasTopicHandlers(name string) bool {
	return len(r.topicHandlers(name)) > 0
}

// topicHandlers collects the handlers of every subscription whose pattern
// matches name. Handlers stay ordered within a subscription.
func (r *Registry) topicHandlers(name string) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Handler
	for key, handlers := range r.handlers {
		pattern, ok := strings.CutPrefix(key, topicPrefix)
		if !ok {
			continue
		}
		if topic.Matches(name, pattern) {
			out = append(out, handlers...)
		}
	}
	return out
}

func (r *Registry) add(key string, h Handler) {
	if h == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[key] = append(r.handlers[key], h)
}

func (r *Registry) dispatch(ctx context.Context, key string, payload any) {
	r.mu.RLock()
	handlers := make([]Handler, len(r.handlers[key]))
	copy(handlers, r.handlers[key])
	r.mu.RUnlock()

	for _, h := range handlers {
		if err := h.Handle(ctx, payload); err != nil {
			r.logger.ErrorContext(ctx, "notification handler failed",
				slog.String("notification", key),
				slog.Any("error", err),
			)
		}
	}
}

const topicPrefix = "event:"

func topicKey(pattern string) string {
	return topicPrefix + pattern
}
