package ports

import (
	"context"
	"io"
)

// Span attributes recorded for every successful task.
const (
	// AttrProcessed counts the files a task wrote.
	AttrProcessed = "sitepipe.processed"
	// AttrSkipped counts the files a task left untouched.
	AttrSkipped = "sitepipe.skipped"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string) (context.Context, Span)
	// EmitPlan signals that a set of tasks is planned for execution.
	EmitPlan(ctx context.Context, taskNames []string, deps map[string][]string, targets []string)
}

// Span represents a unit of work. Bytes written to it are the task's output.
type Span interface {
	io.Writer
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}
