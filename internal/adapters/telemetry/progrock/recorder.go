// Package progrock records module loads on a Progrock tape.
package progrock

import (
	"context"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/wick/internal/core/ports"
)

// Recorder implements the ports.Telemetry interface using the progrock library.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder
}

// New creates a new Recorder with a default tape.
func New() *Recorder {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a new Recorder with the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:   w,
		rec: progrock.NewRecorder(w),
	}
}

// Record starts recording a new vertex. Vertices are identified by the digest of their name.
func (r *Recorder) Record(ctx context.Context, name string, opts ...ports.VertexOption) (context.Context, ports.Vertex) {
	cfg := &ports.VertexConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	v := r.rec.Vertex(digest.FromString(name), name)
	vertex := &Vertex{vertex: v}
	if cfg.Source != "" {
		vertex.Log(domain.LogLevelDebug, "source: "+string(cfg.Source))
		if cfg.Source.IsCached() {
			vertex.Cached()
		}
	}
	return ports.ContextWithVertex(ctx, vertex), vertex
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
