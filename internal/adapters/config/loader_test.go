package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sitepipe/internal/adapters/config"
	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/sitepipe/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func createFile(t *testing.T, dir, name, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, name), []byte(content), domain.FilePerm)
	require.NoError(t, err)
}

func newLoader(t *testing.T, env map[string]string) *config.Loader {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Warn(gomock.Any()).AnyTimes()

	loader := config.NewLoader(mockLogger)
	loader.LookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	return loader
}

func metadata(t *testing.T, err error) map[string]any {
	t.Helper()
	var zErr *zerr.Error
	require.True(t, errors.As(err, &zErr), "expected a zerr.Error")
	return zErr.Metadata()
}

func TestLoader_Load_Defaults(t *testing.T) {
	rootDir := t.TempDir()

	project, err := newLoader(t, nil).Load(rootDir, domain.Overrides{})
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultBuildConfig(rootDir), project.Config)
	assert.Equal(t, rootDir, project.Config.Root)
	assert.Equal(t, []string{
		"clean", "clean-sprites", "fonts", "html", "images", "inject",
		"js", "jslint", "reload", "sprites", "styles",
	}, project.Graph.Names())
	assert.Equal(t, domain.DefaultPipelines(), project.Pipelines)
	assert.Equal(t, domain.DefaultWatchRules(project.Config), project.Watches)

	sprites, ok := project.Graph.GetTask(domain.TaskSprites)
	require.True(t, ok)
	assert.Equal(t, domain.ActionSprites, sprites.Action)
	assert.Equal(t, []string{"src/icons/**/*.svg"}, sprites.Inputs)
	assert.Equal(t, "dist/icons", sprites.OutputDir)
	assert.Equal(t, "src/icons", sprites.Option(domain.OptionSource, ""))

	clean, ok := project.Graph.GetTask(domain.TaskClean)
	require.True(t, ok)
	assert.Equal(t, []string{"dist", "reports/lint"}, clean.Inputs)

	styles, ok := project.Graph.GetTask(domain.TaskStyles)
	require.True(t, ok)
	assert.Equal(t, []string{"src/sass/vendor/*.scss"}, styles.Excludes)
}

func TestLoader_Load_Sitefile(t *testing.T) {
	rootDir := t.TempDir()
	createFile(t, rootDir, domain.ConfigFileName, `
version: "1"
name: portfolio
mode: production
hotReload: "off"
bundleStrategy: concatenate
reportSizes: "on"
failOnLint: true
debounce: 200ms
server:
  host: 0.0.0.0
  port: 8080
  open: "on"
paths:
  build: public
  stylesOut: public/assets/css
  fonts: ["assets/fonts/*.woff2"]
tools:
  sass: ["npx", "sass"]
  stylelint: ["stylelint", "--formatter", "unix"]
`)

	project, err := newLoader(t, nil).Load(rootDir, domain.Overrides{})
	require.NoError(t, err)

	cfg := project.Config
	assert.Equal(t, "portfolio", cfg.Name)
	assert.Equal(t, domain.ModeProduction, cfg.Mode)
	assert.False(t, cfg.HotReload)
	assert.Equal(t, domain.BundleConcatenate, cfg.BundleStrategy)
	assert.True(t, cfg.ReportSizes)
	assert.True(t, cfg.FailOnLint)
	assert.Equal(t, 200*time.Millisecond, cfg.Debounce)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.True(t, cfg.Server.Open)
	assert.Equal(t, "public", cfg.Paths.Build)
	assert.Equal(t, "src/pug/*.pug", cfg.Paths.Templates[0], "unset paths keep their defaults")
	assert.Equal(t, []string{"npx", "sass"}, cfg.Tools.Sass)
	assert.Equal(t, []string{"pug", "--silent"}, cfg.Tools.Pug)
	assert.Equal(t, []string{"stylelint", "--formatter", "unix"}, cfg.Tools.Stylelint)

	fonts, ok := project.Graph.GetTask(domain.TaskFonts)
	require.True(t, ok)
	assert.Equal(t, []string{"assets/fonts/*.woff2"}, fonts.Inputs)

	inject, ok := project.Graph.GetTask(domain.TaskInject)
	require.True(t, ok)
	assert.Equal(t, []string{"public/assets/css/**/*.css"}, inject.Inputs)

	var stylesRule domain.WatchRule
	for _, r := range project.Watches {
		if r.Name == "styles" {
			stylesRule = r
		}
	}
	assert.Equal(t, []string{domain.TaskStyles, domain.TaskInject}, stylesRule.Tasks,
		"without hot reload a stylesheet change injects")
}

func TestLoader_Load_Precedence(t *testing.T) {
	rootDir := t.TempDir()
	createFile(t, rootDir, domain.ConfigFileName, `
mode: production
hotReload: "on"
bundleStrategy: concatenate
`)

	tests := []struct {
		name      string
		env       map[string]string
		overrides domain.Overrides
		want      domain.Mode
		hot       bool
		bundle    domain.BundleStrategy
	}{
		{
			name:   "file over defaults",
			want:   domain.ModeProduction,
			hot:    true,
			bundle: domain.BundleConcatenate,
		},
		{
			name:   "environment over file",
			env:    map[string]string{config.EnvMode: "development", config.EnvHotReload: "off", config.EnvBundle: "bundle"},
			want:   domain.ModeDevelopment,
			bundle: domain.BundleModules,
		},
		{
			name:      "flag over environment",
			env:       map[string]string{config.EnvMode: "development"},
			overrides: domain.Overrides{Mode: "Production"},
			want:      domain.ModeProduction,
			hot:       true,
			bundle:    domain.BundleConcatenate,
		},
		{
			name:   "NODE_ENV when SITEPIPE_MODE is unset",
			env:    map[string]string{config.EnvNodeEnv: "development"},
			want:   domain.ModeDevelopment,
			hot:    true,
			bundle: domain.BundleConcatenate,
		},
		{
			name:   "SITEPIPE_MODE wins over NODE_ENV",
			env:    map[string]string{config.EnvMode: "production", config.EnvNodeEnv: "development"},
			want:   domain.ModeProduction,
			hot:    true,
			bundle: domain.BundleConcatenate,
		},
		{
			name:   "empty variables are unset",
			env:    map[string]string{config.EnvMode: "", config.EnvHotReload: ""},
			want:   domain.ModeProduction,
			hot:    true,
			bundle: domain.BundleConcatenate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project, err := newLoader(t, tt.env).Load(rootDir, tt.overrides)
			require.NoError(t, err)
			assert.Equal(t, tt.want, project.Config.Mode)
			assert.Equal(t, tt.hot, project.Config.HotReload)
			assert.Equal(t, tt.bundle, project.Config.BundleStrategy)
		})
	}
}

func TestLoader_Load_UnknownNodeEnvIsIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Warn("ignoring NODE_ENV=test, expected development or production").Times(1)

	loader := config.NewLoader(mockLogger)
	loader.LookupEnv = func(key string) (string, bool) {
		if key == config.EnvNodeEnv {
			return "test", true
		}
		return "", false
	}

	project, err := loader.Load(t.TempDir(), domain.Overrides{})
	require.NoError(t, err)
	assert.Equal(t, domain.ModeDevelopment, project.Config.Mode)
}

func TestLoader_Load_InvalidValues(t *testing.T) {
	tests := []struct {
		name      string
		sitefile  string
		env       map[string]string
		overrides domain.Overrides
		key       string
		source    string
	}{
		{name: "file mode", sitefile: "mode: staging", key: "mode", source: domain.ConfigFileName},
		{name: "file switch", sitefile: "reportSizes: sometimes", key: "reportSizes", source: domain.ConfigFileName},
		{name: "file debounce", sitefile: "debounce: soon", key: "debounce", source: domain.ConfigFileName},
		{name: "file port", sitefile: "server:\n  port: 70000", key: "server.port", source: domain.ConfigFileName},
		{name: "env switch", env: map[string]string{config.EnvFailOnLint: "maybe"}, key: "failOnLint", source: config.EnvFailOnLint},
		{name: "env bundle", env: map[string]string{config.EnvBundle: "webpack"}, key: "bundle", source: config.EnvBundle},
		{name: "flag mode", overrides: domain.Overrides{Mode: "debug"}, key: "mode", source: "flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rootDir := t.TempDir()
			if tt.sitefile != "" {
				createFile(t, rootDir, domain.ConfigFileName, tt.sitefile)
			}

			_, err := newLoader(t, tt.env).Load(rootDir, tt.overrides)
			require.Error(t, err)
			assert.ErrorContains(t, err, domain.ErrInvalidConfig.Error())
			meta := metadata(t, err)
			assert.Equal(t, tt.key, meta["key"])
			assert.Equal(t, tt.source, meta["source"])
		})
	}
}

func TestLoader_Load_DiscoversParentConfig(t *testing.T) {
	rootDir := t.TempDir()
	createFile(t, rootDir, domain.ConfigFileName, "name: nested")
	subDir := filepath.Join(rootDir, "src", "pug")
	require.NoError(t, os.MkdirAll(subDir, domain.DirPerm))

	project, err := newLoader(t, nil).Load(subDir, domain.Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "nested", project.Config.Name)
	assert.Equal(t, rootDir, project.Config.Root)
}

func TestLoader_Load_ConfiguredRoot(t *testing.T) {
	rootDir := t.TempDir()
	createFile(t, rootDir, domain.ConfigFileName, "root: site")

	project, err := newLoader(t, nil).Load(rootDir, domain.Overrides{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(rootDir, "site"), project.Config.Root)
}

func TestLoader_Load_ExplicitConfigFile(t *testing.T) {
	rootDir := t.TempDir()
	createFile(t, rootDir, "staging.yaml", "name: staging")

	project, err := newLoader(t, nil).Load(rootDir, domain.Overrides{ConfigFile: "staging.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "staging", project.Config.Name)

	_, err = newLoader(t, nil).Load(rootDir, domain.Overrides{ConfigFile: "missing.yaml"})
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrConfigNotFound.Error())
	assert.Equal(t, filepath.Join(rootDir, "missing.yaml"), metadata(t, err)["path"])
}

func TestLoader_Load_ParseError(t *testing.T) {
	rootDir := t.TempDir()
	createFile(t, rootDir, domain.ConfigFileName, "tasks: [unbalanced")

	_, err := newLoader(t, nil).Load(rootDir, domain.Overrides{})
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrConfigParseFailed.Error())
}

func TestLoader_Load_UnknownVersionWarns(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Warn(`unknown version "2" in sitepipe.yaml, reading it as version 1`).Times(1)

	rootDir := t.TempDir()
	createFile(t, rootDir, domain.ConfigFileName, `version: "2"`)

	loader := config.NewLoader(mockLogger)
	loader.LookupEnv = func(string) (string, bool) { return "", false }
	_, err := loader.Load(rootDir, domain.Overrides{})
	require.NoError(t, err)
}
