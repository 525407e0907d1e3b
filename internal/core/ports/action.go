package ports

import (
	"context"
	"io"

	"go.trai.ch/sitepipe/internal/core/domain"
)

// Action executes the work of one task kind.
//
//go:generate mockgen -source=action.go -destination=mocks/mock_action.go -package=mocks
type Action interface {
	// Run executes the task. Tool output and per-unit reports go to out.
	// An empty input set is a successful run with nothing processed.
	Run(ctx context.Context, task *domain.Task, out io.Writer) (domain.RunResult, error)
}
