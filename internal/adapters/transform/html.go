package transform

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tdewolff/minify/v2"
	"go.trai.ch/sitepipe/internal/adapters/fs"
	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/sitepipe/internal/core/ports"
	"go.trai.ch/zerr"
)

// HTML renders the templates with the configured pug command into a scratch
// directory and writes the minified pages to the output directory.
type HTML struct {
	cfg      domain.BuildConfig
	resolver ports.InputResolver
	executor ports.Executor
	minifier *minify.M
}

// NewHTML creates a new HTML action.
func NewHTML(cfg domain.BuildConfig, resolver ports.InputResolver, executor ports.Executor, m *minify.M) *HTML {
	return &HTML{cfg: cfg, resolver: resolver, executor: executor, minifier: m}
}

// Run implements ports.Action.
func (a *HTML) Run(ctx context.Context, task *domain.Task, out io.Writer) (domain.RunResult, error) {
	files, err := a.resolver.ResolveInputs(task.Inputs, task.Excludes, a.cfg.Root)
	if err != nil {
		return domain.RunResult{}, err
	}
	if len(files) == 0 {
		return domain.RunResult{}, nil
	}

	scratch, err := os.MkdirTemp("", "sitepipe-html-")
	if err != nil {
		return domain.RunResult{}, zerr.Wrap(err, domain.ErrOutputWriteFailed.Error())
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	if err := a.render(ctx, files, scratch, out); err != nil {
		return domain.RunResult{}, err
	}

	var res domain.RunResult
	sizes := sizeTracker{title: "html"}
	for _, in := range files {
		rendered := filepath.Join(scratch, withExt(filepath.FromSlash(in.Rel), ".html"))
		page, err := os.ReadFile(rendered) //nolint:gosec // Path is below the scratch dir
		if err != nil {
			return res, zerr.With(zerr.Wrap(err, domain.ErrTransformFailed.Error()), "path", in.Path)
		}
		minified, err := a.minifier.Bytes(mediaHTML, page)
		if err != nil {
			return res, zerr.With(zerr.Wrap(err, domain.ErrTransformFailed.Error()), "path", in.Path)
		}
		if _, err := fs.WriteFileIfChanged(outputPath(a.cfg.Root, task, in, ".html"), minified); err != nil {
			return res, err
		}
		sizes.add(len(page), len(minified))
		res.Processed++
	}
	res.Sizes = sizes.report(a.cfg.ReportSizes, out)
	return res, nil
}

// render runs pug once per template directory so nested templates keep
// their place below the scratch root.
func (a *HTML) render(ctx context.Context, files []domain.InputFile, scratch string, out io.Writer) error {
	groups := make(map[string][]string)
	for _, in := range files {
		dir := path.Dir(in.Rel)
		groups[dir] = append(groups[dir], in.Path)
	}

	dirs := make([]string, 0, len(groups))
	for dir := range groups {
		dirs = append(dirs, dir)
	}
	slices.Sort(dirs)

	for _, dir := range dirs {
		target := filepath.Join(scratch, filepath.FromSlash(dir))
		args := slices.Clone(a.cfg.Tools.Pug)
		args = append(args, "--out", target)
		args = append(args, groups[dir]...)

		if err := a.executor.Execute(ctx, a.cfg.Root, args, out, out); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrTransformFailed.Error()), "templates", strings.Join(groups[dir], ", "))
		}
	}
	return nil
}
