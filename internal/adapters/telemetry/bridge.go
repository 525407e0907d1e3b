package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/sitepipe/internal/core/ports"
)

// Bridge implements sdktrace.SpanProcessor to report task spans to a Renderer.
type Bridge struct {
	renderer ports.Renderer
}

// NewBridge returns a new Bridge.
func NewBridge(renderer ports.Renderer) *Bridge {
	return &Bridge{renderer: renderer}
}

// OnStart is called when a span starts.
func (b *Bridge) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	if b.renderer == nil {
		return
	}

	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	var parentID string
	if parentSpan := trace.SpanFromContext(parent); parentSpan.SpanContext().IsValid() {
		parentID = parentSpan.SpanContext().SpanID().String()
	}

	b.renderer.OnTaskStart(sc.SpanID().String(), parentID, s.Name(), s.StartTime())
}

// OnEnd is called when a span ends.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.renderer == nil {
		return
	}

	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	id := sc.SpanID().String()
	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "task failed"
		}
		b.renderer.OnTaskComplete(id, s.EndTime(), errors.New(desc))
		return
	}

	if summary, ok := fileSummary(s.Attributes()); ok {
		b.renderer.OnTaskLog(id, []byte(summary))
	}
	b.renderer.OnTaskComplete(id, s.EndTime(), nil)
}

// fileSummary describes the file counts recorded on a task span. Spans
// without counts, and tasks that touched no files, have no summary.
func fileSummary(attrs []attribute.KeyValue) (string, bool) {
	var processed, skipped int64
	var found bool
	for _, kv := range attrs {
		switch kv.Key {
		case ports.AttrProcessed:
			processed, found = kv.Value.AsInt64(), true
		case ports.AttrSkipped:
			skipped, found = kv.Value.AsInt64(), true
		}
	}
	if !found || processed+skipped == 0 {
		return "", false
	}
	if skipped == 0 {
		return fmt.Sprintf("%d file(s) written\n", processed), true
	}
	return fmt.Sprintf("%d file(s) written, %d unchanged\n", processed, skipped), true
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}
