package transform

import (
	"bytes"
	"context"
	"fmt"
	"io"
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

// Styles compiles every non-partial stylesheet with the configured sass
// command. Production output is minified. Development output keeps the
// embedded source map and is left as compiled so the map stays accurate.
type Styles struct {
	cfg      domain.BuildConfig
	resolver ports.InputResolver
	executor ports.Executor
	minifier *minify.M
}

// NewStyles creates a new Styles action.
func NewStyles(cfg domain.BuildConfig, resolver ports.InputResolver, executor ports.Executor, m *minify.M) *Styles {
	return &Styles{cfg: cfg, resolver: resolver, executor: executor, minifier: m}
}

// Run implements ports.Action.
func (a *Styles) Run(ctx context.Context, task *domain.Task, out io.Writer) (domain.RunResult, error) {
	files, err := a.resolver.ResolveInputs(task.Inputs, task.Excludes, a.cfg.Root)
	if err != nil {
		return domain.RunResult{}, err
	}
	if len(files) == 0 {
		return domain.RunResult{}, nil
	}

	a.lint(ctx, task, files, out)

	var res domain.RunResult
	sizes := sizeTracker{title: "css"}
	for _, in := range files {
		if strings.HasPrefix(path.Base(in.Rel), "_") {
			continue
		}
		compiled, err := a.compile(ctx, in, out)
		if err != nil {
			return res, err
		}

		css := compiled
		if !a.cfg.Development() {
			css, err = a.minifier.Bytes(mediaCSS, compiled)
			if err != nil {
				return res, zerr.With(zerr.Wrap(err, domain.ErrTransformFailed.Error()), "path", in.Path)
			}
		}
		if _, err := fs.WriteFileIfChanged(outputPath(a.cfg.Root, task, in, ".css"), css); err != nil {
			return res, err
		}
		sizes.add(len(compiled), len(css))
		res.Processed++
	}
	res.Sizes = sizes.report(a.cfg.ReportSizes, out)
	return res, nil
}

func (a *Styles) compile(ctx context.Context, in domain.InputFile, out io.Writer) ([]byte, error) {
	args := slices.Clone(a.cfg.Tools.Sass)
	if a.cfg.Development() {
		args = append(args, "--embed-source-map", "--embed-sources")
	} else {
		args = append(args, "--no-source-map")
	}
	args = append(args, in.Path)

	var stdout bytes.Buffer
	if err := a.executor.Execute(ctx, a.cfg.Root, args, &stdout, out); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrTransformFailed.Error()), "path", in.Path)
	}
	return stdout.Bytes(), nil
}

// lint writes the stylelint report when a stylelint command is configured.
// Findings never fail the build.
func (a *Styles) lint(ctx context.Context, task *domain.Task, files []domain.InputFile, out io.Writer) {
	if len(a.cfg.Tools.Stylelint) == 0 {
		return
	}

	args := slices.Clone(a.cfg.Tools.Stylelint)
	for _, in := range files {
		args = append(args, relToRoot(a.cfg.Root, in.Path))
	}

	var report bytes.Buffer
	if err := a.executor.Execute(ctx, a.cfg.Root, args, &report, &report); err != nil {
		_, _ = fmt.Fprintln(out, "stylelint reported problems")
	}

	name := task.Option(domain.OptionReport, domain.StyleLintReportName)
	dst := filepath.Join(a.cfg.Root, filepath.FromSlash(a.cfg.Paths.Reports), name)
	if _, err := fs.WriteFileIfChanged(dst, report.Bytes()); err != nil {
		_, _ = fmt.Fprintf(out, "failed to save stylelint report: %v\n", err)
		return
	}
	_, _ = fmt.Fprintf(out, "stylelint report saved to %s\n", relToRoot(a.cfg.Root, dst))
}

// relToRoot returns path relative to root with forward slashes, or path
// itself when it lies outside root.
func relToRoot(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return p
	}
	return filepath.ToSlash(rel)
}
