// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"
)

// Executor runs the external tools behind a task.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs args in dir, streaming the process output to stdout and stderr.
	// It returns an error carrying the exit code if the process fails.
	Execute(ctx context.Context, dir string, args []string, stdout, stderr io.Writer) error
}
