package relaykit

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Config carries everything a client needs, resolved once at construction.
// There is no process-wide mutable state; every component receives its
// settings explicitly.
type Config struct {
	// BaseURL is the root of the hosted event service API.
	BaseURL string `env:"RELAY_URL"`

	// Key identifies this client; sent as the APIKey header.
	Key string `env:"RELAY_KEY"`

	// Secret signs outbound request bodies and verifies inbound
	// key_secret webhook signatures.
	Secret string `env:"RELAY_SECRET"`

	// Timeout bounds each individual delivery attempt.
	Timeout time.Duration `env:"RELAY_TIMEOUT" envDefault:"10s"`

	// RetryLimit caps send attempts per event before it is abandoned.
	RetryLimit int `env:"RELAY_RETRY_LIMIT" envDefault:"5"`

	// UserAgent overrides the default User-Agent header when set.
	UserAgent string `env:"RELAY_USER_AGENT"`

	// Disabled short-circuits every operation as a no-op.
	Disabled bool `env:"RELAY_DISABLED" envDefault:"false"`

	// MaxWebhookBody caps inbound webhook body sizes in bytes.
	// Zero means the package default.
	MaxWebhookBody int64 `env:"RELAY_MAX_WEBHOOK_BODY"`
}

// Validate checks the configuration for construction.
func (c Config) Validate() error {
	err := validation.Errors{
		"base_url":    validation.Validate(c.BaseURL, validation.Required, is.URL),
		"key":         validation.Validate(c.Key, validation.Required),
		"secret":      validation.Validate(c.Secret, validation.Required),
		"retry_limit": validation.Validate(c.RetryLimit, validation.Min(0)),
	}.Filter()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

// eventNameRules returns the validation rules for a publishable event name:
// required, and at most 255 bytes of UTF-8.
func eventNameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("event name is required"),
		validation.By(func(value any) error {
			s, _ := value.(string)
			if len(s) > maxEventNameBytes {
				return errors.New("event name must not exceed 255 bytes")
			}
			return nil
		}),
	}
}

const maxEventNameBytes = 255
