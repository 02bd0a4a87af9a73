package engine

import "github.com/dshills/piecetable/internal/engine/chunk"

// Option configures an Engine during creation.
type Option func(*Engine)

// WithContent sets the initial content, loaded at construction.
func WithContent(content string) Option {
	return func(e *Engine) {
		e.initContent = content
	}
}

// WithChunkCapacity sets the per-chunk capacity, clamped to the valid
// range. Overrides single-buffer mode.
func WithChunkCapacity(capacity int) Option {
	return func(e *Engine) {
		e.chunkCapacity = chunk.ClampCapacity(capacity)
		e.singleBuffer = false
	}
}

// WithSingleBuffer pins the chunk capacity at the maximum so documents up
// to 32 MiB live in one chunk.
func WithSingleBuffer() Option {
	return func(e *Engine) {
		e.singleBuffer = true
		e.chunkCapacity = chunk.MaxCapacity
	}
}

// WithThrowOnError switches the error policy from log-and-return-sentinel
// to panic.
func WithThrowOnError() Option {
	return func(e *Engine) {
		e.throwOnError = true
	}
}

// WithListener installs the text modification listener.
func WithListener(l Listener) Option {
	return func(e *Engine) {
		e.listener = l
	}
}

// WithUnlimitedHistory removes the undo history bound.
func WithUnlimitedHistory() Option {
	return func(e *Engine) {
		e.unlimitedHistory = true
	}
}
