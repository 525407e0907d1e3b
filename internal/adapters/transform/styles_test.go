package transform_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sitepipe/internal/adapters/fs"
	"go.trai.ch/sitepipe/internal/adapters/transform"
	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/sitepipe/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

const compiledCSS = "body {\n  margin: 0;\n}\n"

func sassSources(t *testing.T, root string) {
	t.Helper()
	writeFiles(t, root, map[string]string{
		"src/sass/main.scss":         "@use 'vars';\nbody { margin: 0; }\n",
		"src/sass/_vars.scss":        "$gap: 0;\n",
		"src/sass/pages/about.scss":  "p { margin: 0; }\n",
		"src/sass/vendor/reset.scss": "* { margin: 0; }\n",
	})
}

// fakeSass prints compiledCSS for every compiled file and records the inputs.
func fakeSass(compiled *[]string) func(context.Context, string, []string, io.Writer, io.Writer) error {
	return func(_ context.Context, _ string, args []string, stdout, _ io.Writer) error {
		*compiled = append(*compiled, filepath.Base(args[len(args)-1]))
		_, err := io.WriteString(stdout, compiledCSS)
		return err
	}
}

func isTool(name string) gomock.Matcher {
	return gomock.Cond(func(args []string) bool { return len(args) > 0 && args[0] == name })
}

func TestStyles_ProductionMinifies(t *testing.T) {
	root := t.TempDir()
	sassSources(t, root)
	cfg := domain.DefaultBuildConfig(root)
	cfg.Mode = domain.ModeProduction

	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)
	var compiled []string
	executor.EXPECT().
		Execute(gomock.Any(), root, isTool("sass"), gomock.Any(), gomock.Any()).
		DoAndReturn(fakeSass(&compiled)).
		Times(2)

	action := transform.NewFactory(transform.Deps{Resolver: fs.NewResolver(), Executor: executor}).
		Actions(cfg)[domain.ActionStyles]
	res, err := action.Run(context.Background(), defaultTask(t, cfg, domain.TaskStyles), io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Processed)
	assert.ElementsMatch(t, []string{"main.scss", "about.scss"}, compiled, "partials and vendor files are not compiled")
	assert.Equal(t, "body{margin:0}", readFile(t, root, "dist/css/main.css"))
	assert.Equal(t, "body{margin:0}", readFile(t, root, "dist/css/pages/about.css"))
	assert.NoFileExists(t, filepath.Join(root, "dist/css/_vars.css"))
	assert.NoFileExists(t, filepath.Join(root, "dist/css/vendor/reset.css"))
}

func TestStyles_DevelopmentEmbedsSourceMap(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"src/sass/main.scss": "body { margin: 0; }\n"})
	cfg := domain.DefaultBuildConfig(root)

	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)
	executor.EXPECT().
		Execute(gomock.Any(), root, gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, args []string, stdout, _ io.Writer) error {
			assert.Contains(t, args, "--embed-source-map")
			assert.NotContains(t, args, "--no-source-map")
			_, err := io.WriteString(stdout, compiledCSS)
			return err
		})

	action := transform.NewStyles(cfg, fs.NewResolver(), executor, nil)
	_, err := action.Run(context.Background(), defaultTask(t, cfg, domain.TaskStyles), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, compiledCSS, readFile(t, root, "dist/css/main.css"))
}

func TestStyles_StylelintReportNeverFails(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"src/sass/main.scss": "body { margin: 0; }\n"})
	cfg := domain.DefaultBuildConfig(root)
	cfg.Tools.Stylelint = []string{"stylelint", "--formatter", "unix"}

	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)
	gomock.InOrder(
		executor.EXPECT().
			Execute(gomock.Any(), root, []string{"stylelint", "--formatter", "unix", "src/sass/main.scss"}, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, _ []string, stdout, _ io.Writer) error {
				_, _ = io.WriteString(stdout, "src/sass/main.scss:1:8: Expected indentation (indentation)\n")
				return assert.AnError
			}),
		executor.EXPECT().
			Execute(gomock.Any(), root, isTool("sass"), gomock.Any(), gomock.Any()).
			DoAndReturn(fakeSass(new([]string))),
	)

	var out bytes.Buffer
	action := transform.NewStyles(cfg, fs.NewResolver(), executor, nil)
	_, err := action.Run(context.Background(), defaultTask(t, cfg, domain.TaskStyles), &out)
	require.NoError(t, err)

	assert.Equal(t, "src/sass/main.scss:1:8: Expected indentation (indentation)\n",
		readFile(t, root, "reports/lint/sass-lint-report.txt"))
	assert.Contains(t, out.String(), "stylelint report saved to reports/lint/sass-lint-report.txt")
}

func TestStyles_CompileFailure(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"src/sass/main.scss": "body {"})
	cfg := domain.DefaultBuildConfig(root)

	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)
	executor.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ []string, _, stderr io.Writer) error {
			_, _ = io.WriteString(stderr, "Error: expected \"}\".\n")
			return assert.AnError
		})

	var out bytes.Buffer
	action := transform.NewStyles(cfg, fs.NewResolver(), executor, nil)
	_, err := action.Run(context.Background(), defaultTask(t, cfg, domain.TaskStyles), &out)
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrTransformFailed.Error())
	assert.Contains(t, out.String(), `expected "}"`)
	assert.NoFileExists(t, filepath.Join(root, "dist/css/main.css"))
}

// fakePug renders every template given after --out into the output dir.
func fakePug(_ context.Context, _ string, args []string, _, _ io.Writer) error {
	i := slices.Index(args, "--out")
	if i < 0 || i+1 >= len(args) {
		return fmt.Errorf("missing --out in %v", args)
	}
	target := args[i+1]
	if err := os.MkdirAll(target, domain.DirPerm); err != nil {
		return err
	}
	for _, tpl := range args[i+2:] {
		name := strings.TrimSuffix(filepath.Base(tpl), ".pug") + ".html"
		page := "<!DOCTYPE html>\n<html>\n  <body>\n    <p>Hello   " + name + "</p>\n  </body>\n</html>\n"
		if err := os.WriteFile(filepath.Join(target, name), []byte(page), domain.FilePerm); err != nil {
			return err
		}
	}
	return nil
}

func TestHTML_RendersAndMinifies(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/pug/index.pug":   "p Hello",
		"src/pug/about.pug":   "p Hello",
		"src/pug/_layout.pug": "html",
	})
	cfg := domain.DefaultBuildConfig(root)
	cfg.ReportSizes = true
	cfg.Paths.Templates = []string{"src/pug/*.pug", "!src/pug/_*.pug"}

	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)
	executor.EXPECT().
		Execute(gomock.Any(), root, isTool("pug"), gomock.Any(), gomock.Any()).
		DoAndReturn(fakePug).
		Times(1)

	var out bytes.Buffer
	task := defaultTask(t, cfg, domain.TaskHTML)
	action := transform.NewFactory(transform.Deps{Resolver: fs.NewResolver(), Executor: executor}).
		Actions(cfg)[domain.ActionHTML]
	res, err := action.Run(context.Background(), task, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)

	page := readFile(t, root, "dist/index.html")
	assert.Contains(t, page, "Hello index.html")
	assert.NotContains(t, page, "   ")
	assert.NotContains(t, page, "\n  <body>")
	assert.FileExists(t, filepath.Join(root, "dist/about.html"))
	assert.NoFileExists(t, filepath.Join(root, "dist/_layout.html"))
	assert.Contains(t, out.String(), "html: ")
}

func TestHTML_RenderFailure(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"src/pug/index.pug": "p("})
	cfg := domain.DefaultBuildConfig(root)

	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)
	executor.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(assert.AnError)

	action := transform.NewHTML(cfg, fs.NewResolver(), executor, nil)
	_, err := action.Run(context.Background(), defaultTask(t, cfg, domain.TaskHTML), io.Discard)
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrTransformFailed.Error())
}
