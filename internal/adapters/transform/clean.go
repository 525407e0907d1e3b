package transform

import (
	"context"
	"io"

	"go.trai.ch/sitepipe/internal/adapters/fs"
	"go.trai.ch/sitepipe/internal/core/domain"
)

// Clean empties the directories named by the task inputs.
type Clean struct {
	cfg     domain.BuildConfig
	cleaner *fs.Cleaner
}

// NewClean creates a new Clean action.
func NewClean(cfg domain.BuildConfig, cleaner *fs.Cleaner) *Clean {
	return &Clean{cfg: cfg, cleaner: cleaner}
}

// Run implements ports.Action.
func (a *Clean) Run(_ context.Context, task *domain.Task, _ io.Writer) (domain.RunResult, error) {
	if err := a.cleaner.Clean(a.cfg.Root, task.Inputs); err != nil {
		return domain.RunResult{}, err
	}
	return domain.RunResult{Processed: len(task.Inputs)}, nil
}

// CleanSprites removes the files matched by the task inputs, the generated
// sprites by default.
type CleanSprites struct {
	cfg     domain.BuildConfig
	cleaner *fs.Cleaner
}

// NewCleanSprites creates a new CleanSprites action.
func NewCleanSprites(cfg domain.BuildConfig, cleaner *fs.Cleaner) *CleanSprites {
	return &CleanSprites{cfg: cfg, cleaner: cleaner}
}

// Run implements ports.Action.
func (a *CleanSprites) Run(_ context.Context, task *domain.Task, _ io.Writer) (domain.RunResult, error) {
	return domain.RunResult{}, a.cleaner.RemoveMatching(a.cfg.Root, task.Inputs)
}
