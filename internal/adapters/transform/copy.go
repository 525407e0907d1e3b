package transform

import (
	"context"
	"io"

	"go.trai.ch/sitepipe/internal/adapters/fs"
	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/sitepipe/internal/core/ports"
)

// Copy copies the newer inputs into the output directory, keeping their path
// below the pattern base.
type Copy struct {
	cfg      domain.BuildConfig
	resolver ports.InputResolver
}

// NewCopy creates a new Copy action.
func NewCopy(cfg domain.BuildConfig, resolver ports.InputResolver) *Copy {
	return &Copy{cfg: cfg, resolver: resolver}
}

// Run implements ports.Action.
func (c *Copy) Run(ctx context.Context, task *domain.Task, _ io.Writer) (domain.RunResult, error) {
	files, err := c.resolver.ResolveInputs(task.Inputs, task.Excludes, c.cfg.Root)
	if err != nil {
		return domain.RunResult{}, err
	}

	var res domain.RunResult
	for _, in := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		dst := outputPath(c.cfg.Root, task, in, "")
		stale, err := fs.IsStale(in.Path, dst)
		if err != nil {
			return res, err
		}
		if !stale {
			res.Skipped++
			continue
		}
		if _, err := fs.CopyFileIfChanged(in.Path, dst); err != nil {
			return res, err
		}
		res.Processed++
	}
	return res, nil
}
