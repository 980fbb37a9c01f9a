// Package sanitizer redacts event payloads before they leave the process.
//
// Sanitize walks an arbitrary payload value and produces a detached deep
// copy that is safe to serialize and transmit: sensitive fields are masked,
// non-serializable values are dropped, and reference cycles are broken. The
// caller's original value is never touched, so application state cannot be
// mutated by publishing it.
//
//	clean, err := sanitizer.Sanitize(map[string]any{
//		"user":     "alice",
//		"password": "hunter2",
//	})
//	// clean["password"] == "[HIDDEN]"
//
// Sanitize is idempotent: running it over its own output returns an equal
// value.
package sanitizer
