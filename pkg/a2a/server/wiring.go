package server

import (
	"log/slog"

	"github.com/pcanals/quorum/pkg/a2a/types"
)

// HandlerOption customizes the SimpleHandler wiring.
type HandlerOption func(*SimpleHandler)

// WithStore overrides the task store.
func WithStore(store TaskStore) HandlerOption {
	return func(h *SimpleHandler) {
		if store != nil {
			h.Store = store
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *SimpleHandler) {
		if logger != nil {
			h.Logger = logger
		}
	}
}

// NewHandler wires a SimpleHandler around an executor and its agent card,
// defaulting to an in-memory task store.
func NewHandler(executor Executor, card *types.AgentCard, opts ...HandlerOption) *SimpleHandler {
	handler := &SimpleHandler{
		Store:    NewMemoryTaskStore(),
		Executor: executor,
		Card:     card,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(handler)
		}
	}
	return handler
}
