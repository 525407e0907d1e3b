// Package app implements the application layer for sitepipe.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/browser"
	"go.trai.ch/sitepipe/internal/adapters/livereload"
	"go.trai.ch/sitepipe/internal/build"
	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/sitepipe/internal/core/ports"
	"go.trai.ch/sitepipe/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// ActionFactory builds the actions that execute each task kind.
type ActionFactory interface {
	Actions(cfg domain.BuildConfig) map[domain.ActionKind]ports.Action
}

// TreeHasher digests the files below a directory.
type TreeHasher interface {
	ComputeTreeHash(dir string) (string, error)
}

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	factory      ActionFactory
	logger       ports.Logger
	renderer     ports.Renderer
	tracer       ports.Tracer
	watcher      ports.Watcher
	hub          *livereload.Hub
	digester     TreeHasher
	stderr       io.Writer
	openURL      func(url string) error
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	factory ActionFactory,
	log ports.Logger,
	renderer ports.Renderer,
	tracer ports.Tracer,
	watcher ports.Watcher,
	hub *livereload.Hub,
) *App {
	return &App{
		configLoader: loader,
		factory:      factory,
		logger:       log,
		renderer:     renderer,
		tracer:       tracer,
		watcher:      watcher,
		hub:          hub,
		stderr:       os.Stderr,
		openURL:      browser.OpenURL,
	}
}

// WithOutput sends the banner to w.
func (a *App) WithOutput(w io.Writer) *App {
	a.stderr = w
	return a
}

// WithDigest logs a digest of the build output after every successful build
// that does not serve.
func (a *App) WithDigest(h TreeHasher) *App {
	a.digester = h
	return a
}

// WithBrowser replaces the function that opens the served site.
func (a *App) WithBrowser(open func(url string) error) *App {
	a.openURL = open
	return a
}

// Options are the command line settings shared by every use case.
type Options struct {
	// Dir is the directory the configuration is searched from. Empty means
	// the current directory.
	Dir string
	// ConfigFile names the config file explicitly.
	ConfigFile string
	// Mode overrides the build mode.
	Mode string
	// Open launches the browser when the live-reload server starts.
	Open bool
}

// Pipeline runs the named composite entry point. Pipelines that serve keep
// running until ctx is cancelled, even when the initial build failed.
func (a *App) Pipeline(ctx context.Context, name string, opts Options) error {
	project, err := a.load(opts)
	if err != nil {
		return err
	}

	p, ok := project.Pipeline(name)
	if !ok {
		return zerr.With(domain.ErrPipelineNotFound, "pipeline", name)
	}

	a.printBanner(project.Config)
	sched := a.newScheduler(project)

	return a.withRenderer(ctx, func(ctx context.Context) error {
		start := time.Now()
		results, err := sched.RunPipeline(ctx, p)
		a.summarize(name, results, time.Since(start))

		if err != nil {
			if !p.Serve || ctx.Err() != nil {
				return buildError(results, err)
			}
			a.logger.Warn("initial build failed, serving anyway")
		}
		if !p.Serve {
			a.logDigest(project.Config)
			return nil
		}
		return a.serve(ctx, project, sched, opts.Open || project.Config.Server.Open)
	})
}

// Run executes the given tasks and their dependencies in topological order.
func (a *App) Run(ctx context.Context, targets []string, opts Options) error {
	if len(targets) == 0 {
		return domain.ErrNoTargetsSpecified
	}

	project, err := a.load(opts)
	if err != nil {
		return err
	}

	a.printBanner(project.Config)
	sched := a.newScheduler(project)

	return a.withRenderer(ctx, func(ctx context.Context) error {
		start := time.Now()
		results, err := sched.Run(ctx, targets)
		a.summarize("run", results, time.Since(start))
		if err != nil {
			return buildError(results, err)
		}
		a.logDigest(project.Config)
		return nil
	})
}

func (a *App) load(opts Options) (*domain.Project, error) {
	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, zerr.Wrap(err, "failed to resolve working directory")
		}
		dir = wd
	}

	project, err := a.configLoader.Load(dir, domain.Overrides{ConfigFile: opts.ConfigFile, Mode: opts.Mode})
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return project, nil
}

func (a *App) newScheduler(project *domain.Project) *scheduler.Scheduler {
	return scheduler.NewScheduler(project.Graph, a.factory.Actions(project.Config), a.tracer)
}

func (a *App) printBanner(cfg domain.BuildConfig) {
	_, _ = io.WriteString(a.stderr, Banner(cfg, build.Version))
}

// withRenderer runs fn while the renderer is active.
func (a *App) withRenderer(ctx context.Context, fn func(ctx context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.renderer.Start(ctx); err != nil {
			return err
		}
		return a.renderer.Wait()
	})

	g.Go(func() error {
		defer func() {
			_ = a.renderer.Stop()
		}()
		return fn(ctx)
	})

	return g.Wait()
}

func (a *App) summarize(label string, results []domain.RunResult, elapsed time.Duration) {
	if len(results) == 0 {
		return
	}
	counts := make(map[domain.TaskStatus]int)
	for _, res := range results {
		counts[res.Status]++
	}
	a.logger.Info(fmt.Sprintf("%s: %d succeeded, %d failed, %d skipped in %v",
		label,
		counts[domain.StatusSucceeded],
		counts[domain.StatusFailed],
		counts[domain.StatusSkipped],
		elapsed.Round(time.Millisecond),
	))
}

// logDigest reports the output digest. Equal digests mean byte-identical
// build directories.
func (a *App) logDigest(cfg domain.BuildConfig) {
	if a.digester == nil {
		return
	}
	dir := filepath.Join(cfg.Root, filepath.FromSlash(cfg.Paths.Build))
	sum, err := a.digester.ComputeTreeHash(dir)
	if err != nil {
		a.logger.Warn(fmt.Sprintf("failed to digest %s: %v", cfg.Paths.Build, err))
		return
	}
	a.logger.Info(fmt.Sprintf("%s digest %s", cfg.Paths.Build, sum))
}

// buildError marks task failures, which the renderer already reported.
// Errors raised before any task ran are returned unchanged.
func buildError(results []domain.RunResult, err error) error {
	if len(results) == 0 {
		return err
	}
	return errors.Join(domain.ErrBuildExecutionFailed, err)
}
