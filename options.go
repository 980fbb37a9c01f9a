package relaykit

import (
	"log/slog"

	"github.com/dmitrymomot/relaykit/core/delivery"
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger shared by the client and its components.
// If not set, logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSender replaces the HTTP sender. Useful for tests and for alternate
// transports behind the same delivery contract.
func WithSender(s delivery.Sender) Option {
	return func(c *Client) {
		if s != nil {
			c.sender = s
		}
	}
}
