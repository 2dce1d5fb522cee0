package nj

import (
	"context"

	"github.com/rs/zerolog"
)

// EngineOption configures an Engine at construction time: chunk size,
// queue depth, logging, tracing, and the context that governs a run's
// cancellation.
type EngineOption func(*Engine)

// WithChunkSize overrides DefaultChunkSize. Must be a power of two, a
// multiple of 64 and, when at least BlockSize, a multiple of BlockSize;
// NewEngine reports a ConfigError otherwise.
func WithChunkSize(n int) EngineOption {
	return func(e *Engine) {
		e.chunkSize = n
	}
}

// WithQueueDepth overrides the ring buffer capacity between the indexer and
// the automaton (default 4). Must be at least 2.
func WithQueueDepth(q int) EngineOption {
	return func(e *Engine) {
		e.queueDepth = q
	}
}

// WithLogger attaches a structured logger. The default is zerolog.Nop(): a
// silent logger until one is explicitly wired in.
func WithLogger(log zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = log
	}
}

// WithTracer attaches a Tracer that records phase timings as the pipeline
// runs. Without this option, Engine.Run does not record traces at all
// (Tracer.StartTrace/FinishTrace are no-ops on a nil *Tracer).
func WithTracer(t *Tracer) EngineOption {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithContext wires a cancellation context into the pipeline; the
// background indexer worker stops at the next chunk boundary once ctx is
// done, and Engine.Run returns ctx.Err().
func WithContext(ctx context.Context) EngineOption {
	return func(e *Engine) {
		e.ctx = ctx
	}
}
