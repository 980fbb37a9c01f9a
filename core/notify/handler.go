package notify

import (
	"context"
	"fmt"
)

// HandlerFunc is a type-safe function signature for handling a notification
// payload of type T.
type HandlerFunc[T any] func(context.Context, T) error

// Handler processes a notification payload.
type Handler interface {
	// Handle executes the handler with the emitted payload.
	Handle(ctx context.Context, payload any) error
}

// NewHandler creates a type-safe handler from a function. Payloads of a
// different type fail with an error instead of panicking.
//
// Example:
//
//	h := notify.NewHandler(func(ctx context.Context, p notify.RetryPayload) error {
//	    metrics.Count("relay.retry", 1)
//	    return nil
//	})
func NewHandler[T any](fn HandlerFunc[T]) Handler {
	return &handlerFuncWrapper[T]{fn: fn}
}

type handlerFuncWrapper[T any] struct {
	fn HandlerFunc[T]
}

func (h *handlerFuncWrapper[T]) Handle(ctx context.Context, payload any) error {
	typed, ok := payload.(T)
	if !ok {
		return fmt.Errorf("unexpected payload type: %T", payload)
	}
	return h.fn(ctx, typed)
}
