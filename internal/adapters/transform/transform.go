// Package transform implements the actions behind the built-in task kinds.
//
// Every action reads the files matched by its task, writes its outputs below
// the task's output directory and reports what it processed. An empty match
// set is a successful run that leaves the outputs untouched.
package transform

import (
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
	"go.trai.ch/sitepipe/internal/adapters/fs"
	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/sitepipe/internal/core/ports"
)

// Media types registered with the minifier.
const (
	mediaCSS  = "text/css"
	mediaHTML = "text/html"
	mediaSVG  = "image/svg+xml"
)

// Deps are the collaborators shared by the actions.
type Deps struct {
	Resolver ports.InputResolver
	// Executor runs the parsed tools (sass, pug, eslint, stylelint).
	Executor ports.Executor
	// Terminal runs configured exec tasks, whose output is shown as is.
	Terminal ports.Executor
	Cleaner  *fs.Cleaner
	Reloader ports.Reloader
}

// Factory builds the action registry for a resolved configuration.
type Factory struct {
	deps Deps
}

// NewFactory creates a new Factory.
func NewFactory(deps Deps) *Factory {
	return &Factory{deps: deps}
}

// Actions returns one action per task kind, configured by cfg.
func (f *Factory) Actions(cfg domain.BuildConfig) map[domain.ActionKind]ports.Action {
	d := f.deps
	m := NewMinifier()
	return map[domain.ActionKind]ports.Action{
		domain.ActionCopy:         NewCopy(cfg, d.Resolver),
		domain.ActionImages:       NewImages(cfg, d.Resolver, m),
		domain.ActionStyles:       NewStyles(cfg, d.Resolver, d.Executor, m),
		domain.ActionHTML:         NewHTML(cfg, d.Resolver, d.Executor, m),
		domain.ActionScripts:      NewScripts(cfg, d.Resolver),
		domain.ActionSprites:      NewSprites(cfg, d.Resolver, m),
		domain.ActionLint:         NewLint(cfg, d.Resolver, d.Executor),
		domain.ActionClean:        NewClean(cfg, d.Cleaner),
		domain.ActionCleanSprites: NewCleanSprites(cfg, d.Cleaner),
		domain.ActionReload:       NewReload(d.Reloader),
		domain.ActionInject:       NewInject(cfg, d.Resolver, d.Reloader),
		domain.ActionExec:         NewExec(cfg, d.Terminal),
	}
}

// NewMinifier returns the minifier shared by the asset actions.
func NewMinifier() *minify.M {
	m := minify.New()
	m.AddFunc(mediaCSS, css.Minify)
	m.AddFunc(mediaSVG, svg.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	m.Add(mediaHTML, &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	return m
}

// outputPath maps an input to its location below the task's output directory,
// swapping the extension when ext is not empty.
func outputPath(root string, task *domain.Task, in domain.InputFile, ext string) string {
	return filepath.Join(root, filepath.FromSlash(task.OutputDir), withExt(filepath.FromSlash(in.Rel), ext))
}

func withExt(name, ext string) string {
	if ext == "" {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}

// sizeTracker sums the bytes of a group of outputs before and after compression.
type sizeTracker struct {
	title  string
	before int64
	after  int64
}

func (s *sizeTracker) add(before, after int) {
	s.before += int64(before)
	s.after += int64(after)
}

// report writes the size line to out and returns the report. It returns nil
// when reporting is off or nothing was measured.
func (s *sizeTracker) report(enabled bool, out io.Writer) []domain.SizeReport {
	if !enabled || s.before == 0 {
		return nil
	}
	r := domain.SizeReport{Title: s.title, Before: s.before, After: s.after}
	_, _ = fmt.Fprintln(out, FormatSize(r))
	return []domain.SizeReport{r}
}

// FormatSize renders a size report as one line.
func FormatSize(r domain.SizeReport) string {
	pct := 0.0
	if r.Before > 0 {
		pct = float64(r.Saved()) / float64(r.Before) * 100
	}
	return fmt.Sprintf("%s: %s → %s (saved %.1f%%)", r.Title, humanBytes(r.Before), humanBytes(r.After), pct)
}

func humanBytes(n int64) string {
	return humanize.Bytes(uint64(max(n, 0))) //nolint:gosec // clamped to non-negative
}
