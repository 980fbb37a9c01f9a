// Package logger provides slog attribute helpers shared across the module.
//
// Helpers follow the empty-Attr pattern for nil safety: logging a nil error
// produces no attribute instead of a "error=<nil>" entry, so call sites need
// no explicit nil checks.
package logger
