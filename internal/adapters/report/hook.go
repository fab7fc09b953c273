// Package report delivers errors that never reach a caller to a replaceable hook.
package report

import (
	"sync"

	"go.trai.ch/wick/internal/core/ports"
)

var _ ports.ErrorReporter = (*Hook)(nil)

// Handler receives reported errors.
type Handler func(err error)

// Hook is an ErrorReporter whose handler can be replaced at any time.
type Hook struct {
	mu      sync.RWMutex
	handler Handler
	def     Handler
}

// New creates a Hook that logs errors until another handler is set.
func New(logger ports.Logger) *Hook {
	return &Hook{handler: logger.Error, def: logger.Error}
}

// Set replaces the handler. A nil handler restores the logging default.
func (h *Hook) Set(fn Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if fn == nil {
		fn = h.def
	}
	h.handler = fn
}

// Report passes err to the current handler. Nil errors are ignored.
func (h *Hook) Report(err error) {
	if err == nil {
		return
	}
	h.mu.RLock()
	fn := h.handler
	h.mu.RUnlock()
	fn(err)
}
