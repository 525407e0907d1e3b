package transform_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sitepipe/internal/adapters/config"
	"go.trai.ch/sitepipe/internal/adapters/fs"
	"go.trai.ch/sitepipe/internal/adapters/transform"
	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/sitepipe/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
		require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
	}
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

// defaultTask returns the built-in task named name for cfg.
func defaultTask(t *testing.T, cfg domain.BuildConfig, name string) *domain.Task {
	t.Helper()
	for _, task := range config.DefaultTasks(cfg) {
		if task.Name == name {
			return task
		}
	}
	t.Fatalf("no default task %s", name)
	return nil
}

func TestFactory_ActionsCoverEveryKind(t *testing.T) {
	factory := transform.NewFactory(transform.Deps{Resolver: fs.NewResolver()})
	actions := factory.Actions(domain.DefaultBuildConfig(t.TempDir()))

	for _, task := range config.DefaultTasks(domain.DefaultBuildConfig("/site")) {
		assert.Contains(t, actions, task.Action)
	}
	assert.Contains(t, actions, domain.ActionExec)
}

func TestEmptyInputsAreVacuousSuccess(t *testing.T) {
	root := t.TempDir()
	cfg := domain.DefaultBuildConfig(root)
	ctrl := gomock.NewController(t)
	factory := transform.NewFactory(transform.Deps{
		Resolver: fs.NewResolver(),
		Executor: mocks.NewMockExecutor(ctrl),
		Cleaner:  fs.NewCleaner(fs.NewResolver()),
	})
	actions := factory.Actions(cfg)

	for _, name := range []string{
		domain.TaskImages, domain.TaskSprites, domain.TaskFonts, domain.TaskHTML,
		domain.TaskStyles, domain.TaskScripts, domain.TaskLint, domain.TaskCleanSprites,
	} {
		t.Run(name, func(t *testing.T) {
			task := defaultTask(t, cfg, name)
			res, err := actions[task.Action].Run(context.Background(), task, io.Discard)
			require.NoError(t, err)
			assert.Zero(t, res.Processed)
		})
	}

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "no outputs were created")
}

func TestEmptyUnitsAreVacuousSuccess(t *testing.T) {
	tests := []struct {
		name  string
		dirs  []string
		files map[string]string
	}{
		{
			name: domain.TaskSprites,
			dirs: []string{"src/icons/a"},
			files: map[string]string{
				"src/icons/b/readme.txt": "not an icon",
			},
		},
		{
			name: domain.TaskLint,
			dirs: []string{"src/js/bundle/widgets"},
			files: map[string]string{
				"src/js/bundle/notes.md":      "not a script",
				"src/js/bundle/forms/form.ts": "not a script either",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for _, dir := range tt.dirs {
				require.NoError(t, os.MkdirAll(filepath.Join(root, dir), domain.DirPerm))
			}
			writeFiles(t, root, tt.files)
			cfg := domain.DefaultBuildConfig(root)

			ctrl := gomock.NewController(t)
			actions := transform.NewFactory(transform.Deps{
				Resolver: fs.NewResolver(),
				Executor: mocks.NewMockExecutor(ctrl),
			}).Actions(cfg)

			var out bytes.Buffer
			task := defaultTask(t, cfg, tt.name)
			res, err := actions[task.Action].Run(context.Background(), task, &out)
			require.NoError(t, err)
			assert.Zero(t, res.Processed)
			assert.Empty(t, out.String())
			assert.NoDirExists(t, filepath.Join(root, "dist"))
			assert.NoDirExists(t, filepath.Join(root, "reports"))
		})
	}
}

func TestCopy_NewerOnly(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/fonts/regular.woff":    "r",
		"src/fonts/bold/bold.woff2": "b",
	})
	cfg := domain.DefaultBuildConfig(root)
	task := defaultTask(t, cfg, domain.TaskFonts)
	action := transform.NewCopy(cfg, fs.NewResolver())

	res, err := action.Run(context.Background(), task, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, "b", readFile(t, root, "dist/fonts/bold/bold.woff2"))

	res, err = action.Run(context.Background(), task, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 2, res.Skipped)
}

func encodePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for x := range 64 {
		for y := range 64 {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.NoCompression}
	require.NoError(t, enc.Encode(&buf, img))
	return buf.Bytes()
}

func TestImages_CompressesAndSkipsUpToDate(t *testing.T) {
	root := t.TempDir()
	rawPNG := encodePNG(t)
	writeFiles(t, root, map[string]string{
		"src/images/logo.svg": "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 10 10\">\n" +
			"  <!-- drawn by hand -->\n  <rect width=\"10\" height=\"10\" />\n</svg>\n",
		"src/images/photos/a.jpg": "jpeg bytes",
		"src/images/red.png":      string(rawPNG),
	})
	cfg := domain.DefaultBuildConfig(root)
	cfg.ReportSizes = true
	task := defaultTask(t, cfg, domain.TaskImages)
	action := transform.NewFactory(transform.Deps{Resolver: fs.NewResolver()}).Actions(cfg)[domain.ActionImages]

	var out bytes.Buffer
	res, err := action.Run(context.Background(), task, &out)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Processed)

	svg := readFile(t, root, "dist/images/logo.svg")
	assert.NotContains(t, svg, "drawn by hand")
	assert.Contains(t, svg, "<rect")

	assert.Equal(t, "jpeg bytes", readFile(t, root, "dist/images/photos/a.jpg"))

	pngOut := readFile(t, root, "dist/images/red.png")
	assert.Less(t, len(pngOut), len(rawPNG))
	_, err = png.Decode(bytes.NewReader([]byte(pngOut)))
	require.NoError(t, err)

	require.Len(t, res.Sizes, 1)
	assert.Equal(t, "images", res.Sizes[0].Title)
	assert.Positive(t, res.Sizes[0].Saved())
	assert.Contains(t, out.String(), "images: ")

	res, err = action.Run(context.Background(), task, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 3, res.Skipped)
}

func TestClean_EmptiesOutputAndReports(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"dist/index.html":                 "x",
		"reports/lint/js-lint-report.txt": "x",
		"src/pug/index.pug":               "keep",
	})
	cfg := domain.DefaultBuildConfig(root)
	action := transform.NewClean(cfg, fs.NewCleaner(fs.NewResolver()))

	_, err := action.Run(context.Background(), defaultTask(t, cfg, domain.TaskClean), io.Discard)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(root, "dist/index.html"))
	assert.NoFileExists(t, filepath.Join(root, "reports/lint/js-lint-report.txt"))
	assert.FileExists(t, filepath.Join(root, "src/pug/index.pug"))
}

func TestCleanSprites_RemovesGeneratedSprites(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"dist/icons/sprite.svg":       "x",
		"dist/icons/sprite-arrow.svg": "x",
		"dist/images/logo.svg":        "keep",
	})
	cfg := domain.DefaultBuildConfig(root)
	action := transform.NewCleanSprites(cfg, fs.NewCleaner(fs.NewResolver()))

	_, err := action.Run(context.Background(), defaultTask(t, cfg, domain.TaskCleanSprites), io.Discard)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(root, "dist/icons/sprite.svg"))
	assert.NoFileExists(t, filepath.Join(root, "dist/icons/sprite-arrow.svg"))
	assert.FileExists(t, filepath.Join(root, "dist/images/logo.svg"))
}

func TestReloadAndInject(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"dist/css/main.css":       "body{}",
		"dist/css/theme/dark.css": "body{}",
	})
	cfg := domain.DefaultBuildConfig(root)
	ctrl := gomock.NewController(t)
	reloader := mocks.NewMockReloader(ctrl)

	reloader.EXPECT().Reload().Times(1)
	_, err := transform.NewReload(reloader).Run(context.Background(), defaultTask(t, cfg, domain.TaskReload), io.Discard)
	require.NoError(t, err)

	reloader.EXPECT().Inject([]string{"/css/main.css", "/css/theme/dark.css"}).Times(1)
	res, err := transform.NewInject(cfg, fs.NewResolver(), reloader).
		Run(context.Background(), defaultTask(t, cfg, domain.TaskInject), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
}

func TestExec(t *testing.T) {
	root := t.TempDir()
	cfg := domain.DefaultBuildConfig(root)
	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)
	task := &domain.Task{
		Name:    "deploy",
		Action:  domain.ActionExec,
		Command: []string{"rsync", "-a", "dist/", "host:/srv"},
		Options: map[string]string{domain.OptionWorkingDir: "site"},
	}

	var out bytes.Buffer
	executor.EXPECT().
		Execute(gomock.Any(), filepath.Join(root, "site"), task.Command, &out, &out).
		Return(nil)
	res, err := transform.NewExec(cfg, executor).Run(context.Background(), task, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)

	executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(assert.AnError)
	_, err = transform.NewExec(cfg, executor).Run(context.Background(), task, &out)
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrTransformFailed.Error())
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		report domain.SizeReport
		want   string
	}{
		{domain.SizeReport{Title: "css", Before: 800, After: 600}, "css: 800 B → 600 B (saved 25.0%)"},
		{domain.SizeReport{Title: "js", Before: 12_000, After: 3_000}, "js: 12 kB → 3.0 kB (saved 75.0%)"},
		{domain.SizeReport{Title: "images", Before: 2_000_000, After: 2_000_000}, "images: 2.0 MB → 2.0 MB (saved 0.0%)"},
		{domain.SizeReport{Title: "archive", Before: 2_000_000_000_000_000, After: 1}, "archive: 2.0 PB → 1 B (saved 100.0%)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, transform.FormatSize(tt.report))
	}
}
