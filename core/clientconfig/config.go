package clientconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
)

// AuthType selects the webhook verification strategy the server expects
// this client to enforce.
type AuthType string

const (
	AuthTypeBasic     AuthType = "basic"
	AuthTypeToken     AuthType = "token"
	AuthTypeKeySecret AuthType = "key_secret"
	AuthTypeNone      AuthType = "none"
)

// ErrMalformed is returned when the server response cannot be parsed into a
// configuration snapshot.
var ErrMalformed = errors.New("malformed client configuration")

// EventMeta carries server-side metadata attached to a topic subscription.
type EventMeta map[string]any

// Config is an immutable snapshot of the server-issued client
// configuration. Build it with Parse; do not mutate it afterwards.
type Config struct {
	CanConsume bool                 `json:"can_consume"`
	CanPublish bool                 `json:"can_publish"`
	AuthType   AuthType             `json:"auth_type"`
	URL        string               `json:"url,omitempty"`
	AuthToken  string               `json:"auth_token,omitempty"`
	Events     map[string]EventMeta `json:"events"`

	// Derived once from the URL userinfo at parse time.
	authUser string
	authPass string
	topics   []string
}

// Parse decodes a server response body into a configuration snapshot,
// deriving basic auth credentials and the topic list.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if cfg.URL != "" {
		u, err := url.Parse(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid url: %w", ErrMalformed, err)
		}
		if u.User != nil {
			cfg.authUser = u.User.Username()
			cfg.authPass, _ = u.User.Password()
		}
	}

	cfg.topics = make([]string, 0, len(cfg.Events))
	for pattern := range cfg.Events {
		cfg.topics = append(cfg.topics, pattern)
	}
	sort.Strings(cfg.topics)

	return &cfg, nil
}

// AuthUser returns the basic auth username derived from the URL userinfo.
func (c *Config) AuthUser() string { return c.authUser }

// AuthPass returns the basic auth password derived from the URL userinfo.
func (c *Config) AuthPass() string { return c.authPass }

// Topics returns the sorted topic patterns this client is subscribed to.
// The returned slice is shared; callers must not modify it.
func (c *Config) Topics() []string { return c.topics }
