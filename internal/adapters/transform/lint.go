package transform

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/sitepipe/internal/adapters/fs"
	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/sitepipe/internal/core/ports"
	"go.trai.ch/sitepipe/internal/engine/composite"
	"go.trai.ch/zerr"
)

// validatedMessage is reported for a unit without findings.
const validatedMessage = "js validated correctly"

// unixLine matches one finding of the eslint unix formatter:
// "path:line:column: text [Severity/rule]".
var unixLine = regexp.MustCompile(`^(.+?):(\d+):(\d+): (.*?)(?: \[(Error|Warning)(?:/([^\]]+))?\])?$`)

// Lint runs eslint over the top-level scripts and over each script subfolder
// concurrently, prints every finding and saves them to the lint report.
// Units without scripts are not reported; a linter crash is.
// Findings only fail the task when failOnLint is set.
type Lint struct {
	cfg      domain.BuildConfig
	resolver ports.InputResolver
	executor ports.Executor
}

// NewLint creates a new Lint action.
func NewLint(cfg domain.BuildConfig, resolver ports.InputResolver, executor ports.Executor) *Lint {
	return &Lint{cfg: cfg, resolver: resolver, executor: executor}
}

// Run implements ports.Action.
func (a *Lint) Run(ctx context.Context, task *domain.Task, out io.Writer) (domain.RunResult, error) {
	source := task.Option(domain.OptionSource, a.cfg.Paths.LintRoot)

	var (
		res       domain.RunResult
		reports   []domain.LintReport
		reportErr error
	)
	ct := &composite.Task[domain.LintReport]{
		Discover: composite.FolderUnits(filepath.Join(a.cfg.Root, filepath.FromSlash(source))),
		RunUnit: func(ctx context.Context, u composite.Unit) (domain.LintReport, error) {
			return a.lintUnit(ctx, source, u)
		},
	}

	err := ct.Run(ctx, func(outcomes []composite.Outcome[domain.LintReport]) {
		var b strings.Builder
		for _, o := range outcomes {
			if o.Err != nil {
				_, _ = fmt.Fprintf(&b, "%s: %v\n", o.Unit.Label(), o.Err)
				continue
			}
			if o.Result.Files == 0 {
				continue
			}
			reports = append(reports, o.Result)
			res.Processed += o.Result.Files
			b.WriteString(FormatLintReports([]domain.LintReport{o.Result}))
		}
		// No scripts anywhere: the previous report stays as it is.
		if b.Len() == 0 {
			return
		}
		text := b.String()
		_, _ = io.WriteString(out, text)

		name := task.Option(domain.OptionReport, domain.JSLintReportName)
		dst := filepath.Join(a.cfg.Root, filepath.FromSlash(task.OutputDir), name)
		_, reportErr = fs.WriteFileIfChanged(dst, []byte(text))
	})
	if err = errors.Join(err, reportErr); err != nil {
		return res, err
	}

	errorCount := 0
	for _, r := range reports {
		errorCount += r.Errors()
	}
	if a.cfg.FailOnLint && errorCount > 0 {
		return res, zerr.With(domain.ErrLintViolation, "errors", errorCount)
	}
	return res, nil
}

func (a *Lint) lintUnit(ctx context.Context, source string, u composite.Unit) (domain.LintReport, error) {
	report := domain.LintReport{Unit: u.Label()}

	pattern := path.Join(source, "*.js")
	if u.Recursive {
		pattern = path.Join(source, u.Name, "**/*.js")
	}
	files, err := a.resolver.ResolveInputs([]string{pattern}, nil, a.cfg.Root)
	if err != nil || len(files) == 0 {
		return report, err
	}
	report.Files = len(files)

	args := slices.Clone(a.cfg.Tools.ESLint)
	for _, f := range files {
		args = append(args, relToRoot(a.cfg.Root, f.Path))
	}

	var stdout, stderr bytes.Buffer
	runErr := a.executor.Execute(ctx, a.cfg.Root, args, &stdout, &stderr)
	report.Messages = ParseUnixFormat(a.cfg.Root, stdout.Bytes())

	// eslint exits non-zero when it reports errors. Without findings the
	// exit status means the linter itself failed.
	if runErr != nil && len(report.Messages) == 0 {
		err := zerr.With(zerr.Wrap(runErr, domain.ErrTransformFailed.Error()), "unit", u.Label())
		return report, zerr.With(err, "stderr", strings.TrimSpace(stderr.String()))
	}
	return report, nil
}

// ParseUnixFormat parses eslint output in the unix format. File paths are
// made relative to root. Lines that are not findings, such as the summary,
// are ignored.
func ParseUnixFormat(root string, output []byte) []domain.LintMessage {
	var msgs []domain.LintMessage
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		m := unixLine.FindStringSubmatch(strings.TrimRight(scanner.Text(), "\r"))
		if m == nil {
			continue
		}
		line, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		file := m[1]
		if filepath.IsAbs(file) {
			file = relToRoot(root, file)
		}
		msgs = append(msgs, domain.LintMessage{
			File:     filepath.ToSlash(file),
			Line:     line,
			Column:   col,
			Severity: domain.Severity(strings.ToLower(m[5])),
			Rule:     m[6],
			Text:     m[4],
		})
	}
	return msgs
}

// FormatLintReports renders the reports in unit order, one block per unit.
func FormatLintReports(reports []domain.LintReport) string {
	var b strings.Builder
	for _, r := range reports {
		if len(r.Messages) == 0 {
			_, _ = fmt.Fprintf(&b, "%s: %s\n", r.Unit, validatedMessage)
			continue
		}
		_, _ = fmt.Fprintf(&b, "%s: %d problem(s)\n", r.Unit, len(r.Messages))
		for _, m := range r.Messages {
			_, _ = fmt.Fprintf(&b, "  %s\n", m)
		}
	}
	return b.String()
}
