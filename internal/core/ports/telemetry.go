package ports

import (
	"context"
	"io"

	"go.trai.ch/wick/internal/core/domain"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	// EmitPlan signals that a set of modules is about to be checked.
	EmitPlan(ctx context.Context, names []string)
}

// Span represents a unit of work.
type Span interface {
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}

// SpanConfig holds configuration for a starting span.
type SpanConfig struct {
	Attributes map[string]any
}

// SpanOption is a functional option for configuring a span.
type SpanOption func(*SpanConfig)

// WithAttribute sets an attribute when the span starts.
func WithAttribute(key string, value any) SpanOption {
	return func(c *SpanConfig) {
		if c.Attributes == nil {
			c.Attributes = make(map[string]any)
		}
		c.Attributes[key] = value
	}
}

// Telemetry records the progress of user-facing operations.
type Telemetry interface {
	// Record starts a new vertex named name.
	Record(ctx context.Context, name string, opts ...VertexOption) (context.Context, Vertex)
	// Close flushes and closes the recording session.
	Close() error
}

// Vertex is a single recorded operation.
type Vertex interface {
	Stdout() io.Writer
	Stderr() io.Writer
	Log(level domain.LogLevel, msg string)
	Complete(err error)
	Cached()
}

// VertexConfig holds configuration for a starting vertex.
type VertexConfig struct {
	// Source tells where the recorded module came from, when known up front.
	Source domain.LoadSource
}

// VertexOption is a functional option for configuring a vertex.
type VertexOption func(*VertexConfig)

// WithSource tags the vertex with the origin of the module.
func WithSource(src domain.LoadSource) VertexOption {
	return func(c *VertexConfig) {
		c.Source = src
	}
}

type vertexKey struct{}

// ContextWithVertex returns a copy of ctx carrying v.
func ContextWithVertex(ctx context.Context, v Vertex) context.Context {
	return context.WithValue(ctx, vertexKey{}, v)
}

// VertexFromContext returns the vertex stored in ctx, if any.
func VertexFromContext(ctx context.Context) (Vertex, bool) {
	v, ok := ctx.Value(vertexKey{}).(Vertex)
	return v, ok
}
