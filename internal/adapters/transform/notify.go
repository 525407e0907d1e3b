package transform

import (
	"context"
	"io"
	"path"
	"path/filepath"

	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/sitepipe/internal/core/ports"
)

// Reload asks the connected browsers to reload the page.
type Reload struct {
	reloader ports.Reloader
}

// NewReload creates a new Reload action.
func NewReload(reloader ports.Reloader) *Reload {
	return &Reload{reloader: reloader}
}

// Run implements ports.Action.
func (a *Reload) Run(_ context.Context, _ *domain.Task, _ io.Writer) (domain.RunResult, error) {
	a.reloader.Reload()
	return domain.RunResult{}, nil
}

// Inject asks the connected browsers to swap the stylesheets matched by the
// task inputs. Paths are sent as URL paths below the task's output directory,
// which is the served root.
type Inject struct {
	cfg      domain.BuildConfig
	resolver ports.InputResolver
	reloader ports.Reloader
}

// NewInject creates a new Inject action.
func NewInject(cfg domain.BuildConfig, resolver ports.InputResolver, reloader ports.Reloader) *Inject {
	return &Inject{cfg: cfg, resolver: resolver, reloader: reloader}
}

// Run implements ports.Action.
func (a *Inject) Run(_ context.Context, task *domain.Task, _ io.Writer) (domain.RunResult, error) {
	files, err := a.resolver.ResolveInputs(task.Inputs, task.Excludes, a.cfg.Root)
	if err != nil {
		return domain.RunResult{}, err
	}

	served := filepath.Join(a.cfg.Root, filepath.FromSlash(task.OutputDir))
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, path.Join("/", relToRoot(served, f.Path)))
	}
	a.reloader.Inject(paths)
	return domain.RunResult{Processed: len(paths)}, nil
}
