package transform

import (
	"context"
	"io"
	"path/filepath"

	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/sitepipe/internal/core/ports"
	"go.trai.ch/zerr"
)

// Exec runs the configured command of a task from the project root.
type Exec struct {
	cfg      domain.BuildConfig
	executor ports.Executor
}

// NewExec creates a new Exec action.
func NewExec(cfg domain.BuildConfig, executor ports.Executor) *Exec {
	return &Exec{cfg: cfg, executor: executor}
}

// Run implements ports.Action.
func (a *Exec) Run(ctx context.Context, task *domain.Task, out io.Writer) (domain.RunResult, error) {
	dir := a.cfg.Root
	if wd := task.Option(domain.OptionWorkingDir, ""); wd != "" {
		dir = filepath.Join(a.cfg.Root, filepath.FromSlash(wd))
	}
	if err := a.executor.Execute(ctx, dir, task.Command, out, out); err != nil {
		return domain.RunResult{}, zerr.Wrap(err, domain.ErrTransformFailed.Error())
	}
	return domain.RunResult{Processed: 1}, nil
}
