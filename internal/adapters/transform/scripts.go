package transform

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"go.trai.ch/sitepipe/internal/adapters/fs"
	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/sitepipe/internal/core/ports"
	"go.trai.ch/zerr"
)

// Scripts joins the script modules, either through the bundler starting at
// the entry point or by concatenation, appends the vendor scripts and
// minifies the result into a single bundle. Development builds get an
// external source map.
type Scripts struct {
	cfg      domain.BuildConfig
	resolver ports.InputResolver
}

// NewScripts creates a new Scripts action.
func NewScripts(cfg domain.BuildConfig, resolver ports.InputResolver) *Scripts {
	return &Scripts{cfg: cfg, resolver: resolver}
}

// Run implements ports.Action.
func (a *Scripts) Run(ctx context.Context, task *domain.Task, out io.Writer) (domain.RunResult, error) {
	modules, err := a.resolver.ResolveInputs(task.Inputs, task.Excludes, a.cfg.Root)
	if err != nil {
		return domain.RunResult{}, err
	}
	if len(modules) == 0 {
		return domain.RunResult{}, nil
	}
	if err := ctx.Err(); err != nil {
		return domain.RunResult{}, err
	}

	var source []byte
	switch a.cfg.BundleStrategy {
	case domain.BundleConcatenate:
		source, err = concatenate(modules)
	default:
		source, err = a.bundle(task)
	}
	if err != nil {
		return domain.RunResult{}, err
	}

	vendor, err := a.vendor()
	if err != nil {
		return domain.RunResult{}, err
	}
	source = append(source, vendor...)

	name := task.Option(domain.OptionBundle, a.cfg.Paths.ScriptBundle)
	code, sourceMap, err := a.minify(source, name)
	if err != nil {
		return domain.RunResult{}, err
	}

	dst := filepath.Join(a.cfg.Root, filepath.FromSlash(task.OutputDir), name)
	if sourceMap != nil {
		code = fmt.Appendf(code, "//# sourceMappingURL=%s.map\n", name)
		if _, err := fs.WriteFileIfChanged(dst+".map", sourceMap); err != nil {
			return domain.RunResult{}, err
		}
	}
	if _, err := fs.WriteFileIfChanged(dst, code); err != nil {
		return domain.RunResult{}, err
	}

	sizes := sizeTracker{title: "js"}
	sizes.add(len(source), len(code))
	return domain.RunResult{
		Processed: len(modules),
		Sizes:     sizes.report(a.cfg.ReportSizes, out),
	}, nil
}

func (a *Scripts) bundle(task *domain.Task) ([]byte, error) {
	entry := task.Option(domain.OptionEntry, a.cfg.Paths.ScriptEntry)
	result := api.Build(api.BuildOptions{
		EntryPoints:   []string{filepath.FromSlash(entry)},
		AbsWorkingDir: a.cfg.Root,
		Bundle:        true,
		Write:         false,
		Format:        api.FormatIIFE,
		LogLevel:      api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return nil, esbuildError(result.Errors, entry)
	}
	var buf bytes.Buffer
	for _, f := range result.OutputFiles {
		buf.Write(f.Contents)
	}
	return buf.Bytes(), nil
}

// concatenate joins the module files in lexical order.
func concatenate(modules []domain.InputFile) ([]byte, error) {
	var buf bytes.Buffer
	for _, m := range modules {
		data, err := os.ReadFile(m.Path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", m.Path)
		}
		buf.Write(data)
		if !bytes.HasSuffix(data, []byte("\n")) {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes(), nil
}

// vendor returns the vendor scripts joined in lexical order. Matches that are
// not scripts, such as source maps next to them, are left out.
func (a *Scripts) vendor() ([]byte, error) {
	files, err := a.resolver.ResolveInputs(a.cfg.Paths.ScriptVendor, nil, a.cfg.Root)
	if err != nil {
		return nil, err
	}
	scripts := files[:0]
	for _, f := range files {
		if strings.EqualFold(filepath.Ext(f.Path), ".js") {
			scripts = append(scripts, f)
		}
	}
	return concatenate(scripts)
}

func (a *Scripts) minify(source []byte, name string) ([]byte, []byte, error) {
	opts := api.TransformOptions{
		Loader:            api.LoaderJS,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		Sourcefile:        strings.TrimSuffix(name, ".min.js") + ".js",
		LogLevel:          api.LogLevelSilent,
	}
	if a.cfg.Development() {
		opts.Sourcemap = api.SourceMapExternal
	}

	result := api.Transform(string(source), opts)
	if len(result.Errors) > 0 {
		return nil, nil, esbuildError(result.Errors, name)
	}
	if !a.cfg.Development() {
		return result.Code, nil, nil
	}
	return result.Code, result.Map, nil
}

func esbuildError(msgs []api.Message, target string) error {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			lines = append(lines, fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text))
			continue
		}
		lines = append(lines, m.Text)
	}
	err := zerr.With(domain.ErrTransformFailed, "target", target)
	return zerr.With(err, "messages", strings.Join(lines, "; "))
}
