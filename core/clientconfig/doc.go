// Package clientconfig models the server-issued client configuration.
//
// A configuration snapshot is fetched from the service, parsed once, and
// treated as immutable afterwards: refreshes replace the whole snapshot
// rather than mutating it, so readers never observe a partial update. Basic
// auth credentials are derived from the userinfo embedded in the
// server-provided URL at parse time.
package clientconfig
