// Package webhook authenticates and routes inbound deliveries from the
// hosted event service.
//
// The Authenticator verifies a request against the auth strategy named in
// the server-issued client configuration: HTTP Basic credentials, a fixed
// token header, an HMAC-SHA256 body signature, or no verification at all.
// Verification is idempotent per request: once a request is marked
// authenticated, repeat checks short-circuit to true.
//
// The Router extracts the topic from an authenticated delivery, matches it
// against the configured topic set, and notifies local subscribers. The
// delivery is acknowledged with 200 whether or not any local subscriber
// exists; acknowledgement is decoupled from local interest.
//
// Both pieces integrate with net/http directly:
//
//	mux.Handle("/webhook", auth.Middleware(http.HandlerFunc(router.Handle)))
package webhook
