package telemetry

import (
	"context"
	"io"

	"go.trai.ch/sitepipe/internal/core/ports"
)

// NoOpTracer is a ports.Tracer whose span output is copied to a writer.
type NoOpTracer struct {
	out io.Writer
}

// NewNoOpTracer creates a tracer that discards lifecycle events and copies
// task output to out. A nil out discards the output as well.
func NewNoOpTracer(out io.Writer) *NoOpTracer {
	if out == nil {
		out = io.Discard
	}
	return &NoOpTracer{out: out}
}

// Start creates a new no-op span.
func (t *NoOpTracer) Start(ctx context.Context, _ string) (context.Context, ports.Span) {
	return ctx, &NoOpSpan{out: t.out}
}

// EmitPlan does nothing.
func (t *NoOpTracer) EmitPlan(context.Context, []string, map[string][]string, []string) {}

// NoOpSpan is a no-op implementation of ports.Span.
type NoOpSpan struct {
	out io.Writer
}

// End does nothing.
func (s *NoOpSpan) End() {}

// RecordError does nothing.
func (s *NoOpSpan) RecordError(error) {}

// SetAttribute does nothing.
func (s *NoOpSpan) SetAttribute(string, any) {}

// Write copies p to the tracer's writer.
func (s *NoOpSpan) Write(p []byte) (int, error) {
	if s.out == nil {
		return len(p), nil
	}
	return s.out.Write(p)
}
