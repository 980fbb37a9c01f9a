package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/relaykit/core/logger"
	"github.com/dmitrymomot/relaykit/core/topic"
)

// TopicNotifier delivers a matched inbound event to local subscribers.
// *notify.Registry satisfies it.
type TopicNotifier interface {
	EmitTopic(ctx context.Context, topic string, data map[string]any)
}

// Router dispatches authenticated webhook deliveries to local topic
// subscribers.
type Router struct {
	source      ConfigSource
	notifier    TopicNotifier
	maxBodySize int64
	logger      *slog.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRouterLogger sets the logger. If not set, logs are discarded.
func WithRouterLogger(l *slog.Logger) RouterOption {
	return func(rt *Router) {
		if l != nil {
			rt.logger = l
		}
	}
}

// WithRouterBodyLimit caps the inbound body size.
func WithRouterBodyLimit(limit int64) RouterOption {
	return func(rt *Router) {
		if limit > 0 {
			rt.maxBodySize = limit
		}
	}
}

// NewRouter creates a router dispatching matched topics through notifier.
func NewRouter(source ConfigSource, notifier TopicNotifier, opts ...RouterOption) *Router {
	rt := &Router{
		source:      source,
		notifier:    notifier,
		maxBodySize: defaultMaxBodySize,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Handle processes an authenticated delivery. The delivery is acknowledged
// with 200 {"success":true} regardless of whether any local subscriber
// matched; only the dispatch depends on the topic set.
func (rt *Router) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r, rt.maxBodySize)
	if err != nil {
		rt.logger.Warn("webhook body rejected",
			logger.Component("webhook"), logger.Error(err))
		respondJSON(w, http.StatusBadRequest, response{Message: "Invalid request body."})
		return
	}

	var payload map[string]any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			rt.logger.Warn("webhook body is not a JSON object",
				logger.Component("webhook"), logger.Error(err))
		}
	}

	if topicName, _ := payload["topic"].(string); topicName != "" {
		var patterns []string
		if cfg := rt.source.Config(); cfg != nil {
			patterns = cfg.Topics()
		}
		if topic.IsInternal(topicName) || topic.HasSubscribedTopic(topicName, patterns) {
			rt.notifier.EmitTopic(r.Context(), topicName, payload)
		} else {
			rt.logger.Debug("inbound topic not in subscribed set",
				logger.Component("webhook"), logger.Topic(topicName))
		}
	}

	respondJSON(w, http.StatusOK, response{Success: true})
}
