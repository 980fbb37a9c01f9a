package relaykit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/dmitrymomot/relaykit/core/clientconfig"
	"github.com/dmitrymomot/relaykit/core/config"
	"github.com/dmitrymomot/relaykit/core/delivery"
	"github.com/dmitrymomot/relaykit/core/logger"
	"github.com/dmitrymomot/relaykit/core/notify"
	"github.com/dmitrymomot/relaykit/core/sanitizer"
	"github.com/dmitrymomot/relaykit/core/topic"
	"github.com/dmitrymomot/relaykit/core/webhook"
)

// eventIDNamespace seeds deterministic event id derivation.
var eventIDNamespace = uuid.MustParse("a5e3f1db-98a5-4a6c-bb5e-8a1c2d9a7f10")

// Client is the public entry point: it publishes events through the
// delivery engine and serves inbound webhook deliveries to local
// subscribers.
type Client struct {
	cfg      Config
	logger   *slog.Logger
	sender   delivery.Sender
	engine   *delivery.Engine
	registry *notify.Registry
	auth     *webhook.Authenticator
	router   *webhook.Router

	disabled atomic.Bool

	// remote holds the latest server-issued configuration snapshot.
	// Refreshes replace it wholesale, readers never see partial state.
	remote atomic.Pointer[clientconfig.Config]

	// pending collects topic subscriptions registered before the first
	// config fetch; they are re-validated once the snapshot arrives.
	pendingMu sync.Mutex
	pending   []string
}

// New creates a client from an explicit configuration.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.sender == nil {
		senderOpts := []delivery.HTTPSenderOption{delivery.WithTimeout(cfg.Timeout)}
		if cfg.UserAgent != "" {
			senderOpts = append(senderOpts, delivery.WithUserAgent(cfg.UserAgent))
		}
		c.sender = delivery.NewHTTPSender(cfg.BaseURL, cfg.Key, cfg.Secret, senderOpts...)
	}

	c.registry = notify.NewRegistry(notify.WithLogger(c.logger))

	engine, err := delivery.NewEngine(c.sender,
		delivery.WithNotifier(c.registry),
		delivery.WithLogger(c.logger),
		delivery.WithRetryLimit(cfg.RetryLimit),
	)
	if err != nil {
		return nil, err
	}
	c.engine = engine
	if cfg.Disabled {
		c.disabled.Store(true)
		c.engine.Disable()
	}

	authOpts := []webhook.AuthenticatorOption{webhook.WithAuthenticatorLogger(c.logger)}
	routerOpts := []webhook.RouterOption{webhook.WithRouterLogger(c.logger)}
	if cfg.MaxWebhookBody > 0 {
		authOpts = append(authOpts, webhook.WithAuthenticatorBodyLimit(cfg.MaxWebhookBody))
		routerOpts = append(routerOpts, webhook.WithRouterBodyLimit(cfg.MaxWebhookBody))
	}
	c.auth = webhook.NewAuthenticator(c, cfg.Secret, authOpts...)
	c.router = webhook.NewRouter(c, c.registry, routerOpts...)

	return c, nil
}

// NewFromEnv creates a client from environment variables (see Config env
// tags). A .env file is loaded automatically when present.
func NewFromEnv(opts ...Option) (*Client, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// Publish sanitizes data and delivers it as a new event under name. It
// validates synchronously and returns the idempotent event id; delivery
// itself is fire-and-forget, with failures surfacing only as notifications.
func (c *Client) Publish(name string, data, options any) (string, error) {
	if c.disabled.Load() {
		return "", nil
	}

	if err := validation.Validate(name, eventNameRules()...); err != nil {
		return "", fmt.Errorf("%w: %w", ErrValidation, err)
	}
	clean, cleanOpts, err := c.sanitize(data, options)
	if err != nil {
		return "", err
	}

	id := newEventID(name, time.Now())
	c.engine.Deliver(delivery.Event{
		ID:      id,
		Name:    name,
		Data:    clean,
		Options: cleanOpts,
		Kind:    delivery.KindCreate,
	})
	return id, nil
}

// Update delivers new data for an existing event id. Like Publish it
// validates synchronously and is otherwise fire-and-forget.
func (c *Client) Update(id string, data, options any) error {
	if c.disabled.Load() {
		return nil
	}

	if id == "" {
		return fmt.Errorf("%w: event id is required", ErrValidation)
	}
	clean, cleanOpts, err := c.sanitize(data, options)
	if err != nil {
		return err
	}

	c.engine.Deliver(delivery.Event{
		ID:      id,
		Data:    clean,
		Options: cleanOpts,
		Kind:    delivery.KindUpdate,
	})
	return nil
}

func (c *Client) sanitize(data, options any) (map[string]any, map[string]any, error) {
	clean, err := sanitizer.Sanitize(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: event data: %w", ErrValidation, err)
	}
	var cleanOpts map[string]any
	if options != nil {
		cleanOpts, err = sanitizer.Sanitize(options)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: event options: %w", ErrValidation, err)
		}
	}
	return clean, cleanOpts, nil
}

// On registers a handler for a lifecycle notification kind.
func (c *Client) On(kind notify.Kind, h notify.Handler) {
	c.registry.On(kind, h)
}

// OnTopic registers a handler for inbound deliveries of a topic. If the
// configuration snapshot has not arrived yet, the subscription is queued
// and validated once it does.
func (c *Client) OnTopic(name string, h notify.Handler) {
	c.registry.OnTopic(name, h)
	if topic.IsInternal(name) {
		return
	}

	if cfg := c.remote.Load(); cfg != nil {
		c.checkSubscription(cfg, name)
		return
	}

	c.pendingMu.Lock()
	c.pending = append(c.pending, name)
	c.pendingMu.Unlock()
}

// FetchConfig retrieves the server-issued client configuration, replaces
// the current snapshot atomically, re-validates queued subscriptions, and
// emits the Configured notification.
func (c *Client) FetchConfig(ctx context.Context) error {
	if c.disabled.Load() {
		return nil
	}

	resp, err := c.sender.Send(ctx, delivery.Request{
		Method: http.MethodGet,
		Path:   "/api/client/config",
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfigFetch, err)
	}
	if resp.Status != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrConfigFetch, resp.Status)
	}

	cfg, err := clientconfig.Parse(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfigFetch, err)
	}

	c.remote.Store(cfg)

	c.pendingMu.Lock()
	pending := c.pending
	c.pending = nil
	c.pendingMu.Unlock()
	for _, name := range pending {
		c.checkSubscription(cfg, name)
	}

	c.registry.Emit(ctx, notify.KindConfigured, notify.ConfiguredPayload{
		CanPublish: cfg.CanPublish,
		CanConsume: cfg.CanConsume,
		Topics:     cfg.Topics(),
	})
	return nil
}

func (c *Client) checkSubscription(cfg *clientconfig.Config, name string) {
	if !topic.HasSubscribedTopic(name, cfg.Topics()) {
		c.logger.Warn("subscribed to a topic this client does not receive",
			logger.Component("client"), logger.Topic(name))
	}
}

// Config returns the current configuration snapshot, or nil before the
// first successful fetch. It satisfies webhook.ConfigSource.
func (c *Client) Config() *clientconfig.Config {
	return c.remote.Load()
}

// AuthenticateWebhook wraps next so it only runs for authenticated inbound
// webhook requests.
func (c *Client) AuthenticateWebhook(next http.Handler) http.Handler {
	return c.auth.Middleware(next)
}

// HandleWebhook authenticates and routes a single inbound delivery.
func (c *Client) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	authed, ok := c.auth.Authenticate(w, r)
	if !ok {
		return
	}
	c.router.Handle(w, authed)
}

// WebhookHandler returns HandleWebhook as an http.Handler for mounting.
func (c *Client) WebhookHandler() http.Handler {
	return http.HandlerFunc(c.HandleWebhook)
}

// Stats returns the delivery engine counters.
func (c *Client) Stats() delivery.Stats {
	return c.engine.Stats()
}

// Disable suppresses all future operations and scheduled retries.
// In-flight attempts are not aborted.
func (c *Client) Disable() {
	c.disabled.Store(true)
	c.engine.Disable()
}

// Close disables the client and releases delivery resources.
func (c *Client) Close() {
	c.disabled.Store(true)
	c.engine.Close()
}

// newEventID derives a deterministic event id from the event name and its
// creation time, so re-sends of the same attempt stay idempotent while each
// new publish call yields a distinct id.
func newEventID(name string, at time.Time) string {
	seed := fmt.Sprintf("%s:%d", name, at.UnixNano())
	return uuid.NewSHA1(eventIDNamespace, []byte(seed)).String()
}
