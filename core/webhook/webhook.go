package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrymomot/relaykit/core/clientconfig"
)

// Inbound request headers inspected during verification.
const (
	HeaderAuthToken = "x-auth-token"
	HeaderSignature = "x-signature"
)

// defaultMaxBodySize caps inbound webhook bodies.
const defaultMaxBodySize = 1 << 20

// ErrBodyTooLarge is returned when an inbound body exceeds the size limit.
var ErrBodyTooLarge = errors.New("request body exceeds size limit")

// ConfigSource provides the current client configuration snapshot. It
// returns nil until the first successful config fetch.
type ConfigSource interface {
	Config() *clientconfig.Config
}

type authenticatedKey struct{}

// IsAuthenticated reports whether the request has already passed webhook
// authentication in this request lifecycle.
func IsAuthenticated(r *http.Request) bool {
	ok, _ := r.Context().Value(authenticatedKey{}).(bool)
	return ok
}

func markAuthenticated(r *http.Request) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), authenticatedKey{}, true))
}

// response is the fixed JSON shape of webhook acknowledgements and errors.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// readBody consumes the request body up to limit bytes and restores r.Body
// so downstream handlers can read it again.
func readBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, ErrBodyTooLarge
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}
