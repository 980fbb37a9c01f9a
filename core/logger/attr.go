package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// Returns an empty Attr for nil errors, enabling safe usage without nil checks.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component tags a log record with the emitting component name.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// EventID tags a log record with the event identifier it concerns.
func EventID(id string) slog.Attr {
	return slog.String("event_id", id)
}

// Topic tags a log record with a topic or event name.
func Topic(name string) slog.Attr {
	return slog.String("topic", name)
}

// Attempt tags a log record with a delivery attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// Status tags a log record with an HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int("status", code)
}

// Delay tags a log record with a backoff delay.
func Delay(d time.Duration) slog.Attr {
	return slog.Duration("delay", d)
}
