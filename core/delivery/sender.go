package delivery

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Request signing and transport headers.
const (
	HeaderAPIKey = "APIKey"
	HeaderAPISig = "APISig"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "relaykit/1.0 (+https://github.com/dmitrymomot/relaykit)"

	// maxResponseBody caps how much of a server response is read into
	// memory for logging and notifications.
	maxResponseBody = 1 << 20
)

// Request is a single signed API call.
type Request struct {
	Method string
	Path   string
	Body   []byte
}

// Response is the observable result of a completed API call.
type Response struct {
	Status int
	Body   []byte
}

// Sender performs one HTTP round trip against the event service. A returned
// error means the attempt never produced an HTTP status (timeout, DNS,
// connection refused) and is always retryable.
type Sender interface {
	Send(ctx context.Context, req Request) (*Response, error)
}

// Sign computes the base64-encoded HMAC-SHA256 signature over body using
// the shared client secret. An empty body signs the empty string.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// HTTPSender sends signed requests to the hosted event service.
type HTTPSender struct {
	baseURL   string
	key       string
	secret    string
	userAgent string
	client    *http.Client
}

// HTTPSenderOption configures an HTTPSender.
type HTTPSenderOption func(*HTTPSender)

// WithHTTPClient replaces the underlying HTTP client. The client's timeout
// bounds every delivery attempt.
func WithHTTPClient(client *http.Client) HTTPSenderOption {
	return func(s *HTTPSender) {
		if client != nil {
			s.client = client
		}
	}
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(timeout time.Duration) HTTPSenderOption {
	return func(s *HTTPSender) {
		if timeout > 0 {
			s.client.Timeout = timeout
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) HTTPSenderOption {
	return func(s *HTTPSender) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// NewHTTPSender creates a sender for the service at baseURL, authenticating
// with the given API key and signing bodies with secret.
func NewHTTPSender(baseURL, key, secret string, opts ...HTTPSenderOption) *HTTPSender {
	s := &HTTPSender{
		baseURL:   strings.TrimRight(baseURL, "/"),
		key:       key,
		secret:    secret,
		userAgent: defaultUserAgent,
		client:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send implements Sender.
func (s *HTTPSender) Send(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, s.baseURL+req.Path, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	httpReq.Header.Set("User-Agent", s.userAgent)
	httpReq.Header.Set(HeaderAPIKey, s.key)
	httpReq.Header.Set(HeaderAPISig, Sign(s.secret, req.Body))
	if len(req.Body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{Status: resp.StatusCode, Body: body}, nil
}
