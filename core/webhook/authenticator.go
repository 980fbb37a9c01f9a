package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/relaykit/core/clientconfig"
	"github.com/dmitrymomot/relaykit/core/logger"
)

// SignHex computes the hex-encoded HMAC-SHA256 signature over body using
// the client secret. This is the signature scheme the server applies to
// key_secret webhook deliveries.
func SignHex(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Authenticator verifies inbound webhook requests against the configured
// auth strategy.
type Authenticator struct {
	source      ConfigSource
	secret      string
	maxBodySize int64
	logger      *slog.Logger
}

// AuthenticatorOption configures an Authenticator.
type AuthenticatorOption func(*Authenticator)

// WithAuthenticatorLogger sets the logger. If not set, logs are discarded.
func WithAuthenticatorLogger(l *slog.Logger) AuthenticatorOption {
	return func(a *Authenticator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithAuthenticatorBodyLimit caps the inbound body size read for signature
// verification.
func WithAuthenticatorBodyLimit(limit int64) AuthenticatorOption {
	return func(a *Authenticator) {
		if limit > 0 {
			a.maxBodySize = limit
		}
	}
}

// NewAuthenticator creates an authenticator reading configuration snapshots
// from source. secret is the client secret used for key_secret signature
// verification.
func NewAuthenticator(source ConfigSource, secret string, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		source:      source,
		secret:      secret,
		maxBodySize: defaultMaxBodySize,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authenticate verifies the request. On success it returns the request
// marked authenticated (repeat calls short-circuit) and true. On failure it
// writes the error response and returns false; it never panics and the
// failure is not surfaced to local code.
func (a *Authenticator) Authenticate(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	if IsAuthenticated(r) {
		return r, true
	}

	// Consumption must be enabled before any auth strategy applies. A
	// missing config snapshot fails closed.
	cfg := a.source.Config()
	if cfg == nil || !cfg.CanConsume {
		respondJSON(w, http.StatusBadRequest, response{
			Message: "This client does not have consumption enabled.",
		})
		return r, false
	}

	var ok bool
	switch cfg.AuthType {
	case clientconfig.AuthTypeBasic:
		user, pass, hasAuth := r.BasicAuth()
		ok = hasAuth && user == cfg.AuthUser() && pass == cfg.AuthPass()

	case clientconfig.AuthTypeToken:
		ok = r.Header.Get(HeaderAuthToken) == cfg.AuthToken

	case clientconfig.AuthTypeKeySecret:
		body, err := readBody(r, a.maxBodySize)
		if err != nil {
			a.logger.Warn("webhook body rejected",
				logger.Component("webhook"), logger.Error(err))
			respondJSON(w, http.StatusBadRequest, response{Message: "Invalid request body."})
			return r, false
		}
		want := SignHex(a.secret, body)
		got := r.Header.Get(HeaderSignature)
		ok = got != "" && hmac.Equal([]byte(want), []byte(got))

	default:
		// No verification configured.
		ok = true
	}

	if !ok {
		a.logger.Warn("webhook authentication failed",
			logger.Component("webhook"), slog.String("auth_type", string(cfg.AuthType)))
		respondJSON(w, http.StatusUnauthorized, response{Message: "Unauthorized"})
		return r, false
	}

	return markAuthenticated(r), true
}

// Middleware wraps next so it only runs for authenticated requests. The
// wrapped request carries the authentication marker.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authed, ok := a.Authenticate(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, authed)
	})
}
