// Package config provides the configuration loader for sitepipe.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/sitepipe/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Environment variables read by the loader. They take precedence over the
// config file and are overridden by command line flags.
const (
	EnvMode        = "SITEPIPE_MODE"
	EnvNodeEnv     = "NODE_ENV"
	EnvHotReload   = "SITEPIPE_HOT_RELOAD"
	EnvBundle      = "SITEPIPE_BUNDLE"
	EnvReportSizes = "SITEPIPE_REPORT_SIZES"
	EnvFailOnLint  = "SITEPIPE_FAIL_ON_LINT"
)

// supportedVersion is the only config file version understood by the loader.
const supportedVersion = "1"

// Loader implements ports.ConfigLoader using a YAML file and the environment.
type Loader struct {
	Logger ports.Logger
	// LookupEnv reads an environment variable. It defaults to os.LookupEnv.
	LookupEnv func(key string) (string, bool)
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, LookupEnv: os.LookupEnv}
}

// Load resolves the build configuration for the project at cwd and builds the
// task graph, watch rules and pipelines from it.
func (l *Loader) Load(cwd string, overrides domain.Overrides) (*domain.Project, error) {
	configPath, err := l.findConfiguration(cwd, overrides.ConfigFile)
	if err != nil {
		return nil, err
	}

	var sitefile Sitefile
	root := filepath.Clean(cwd)
	if configPath != "" {
		if err := readAndUnmarshalYAML(configPath, &sitefile); err != nil {
			return nil, zerr.With(err, "path", configPath)
		}
		if sitefile.Version != "" && sitefile.Version != supportedVersion {
			l.Logger.Warn(fmt.Sprintf("unknown version %q in %s, reading it as version %s",
				sitefile.Version, domain.ConfigFileName, supportedVersion))
		}
		root = resolveRoot(configPath, sitefile.Root)
	}

	cfg := domain.DefaultBuildConfig(root)
	if err := applySitefile(&cfg, &sitefile); err != nil {
		return nil, err
	}
	if err := l.applyEnvironment(&cfg); err != nil {
		return nil, err
	}
	if overrides.Mode != "" {
		mode, err := domain.ParseMode(overrides.Mode)
		if err != nil {
			return nil, zerr.With(err, "source", "flag")
		}
		cfg.Mode = mode
	}

	return buildProject(cfg, &sitefile)
}

// findConfiguration returns the config file to read. An explicit file must
// exist. Otherwise the nearest sitepipe.yaml in cwd or one of its parents is
// used, and an empty path means the built-in defaults apply.
func (l *Loader) findConfiguration(cwd, explicit string) (string, error) {
	if explicit != "" {
		path := explicit
		if !filepath.IsAbs(path) {
			path = filepath.Join(cwd, path)
		}
		if _, err := os.Stat(path); err != nil {
			return "", zerr.With(domain.ErrConfigNotFound, "path", path)
		}
		return path, nil
	}

	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			return "", nil
		}
		currentDir = parentDir
	}
}

func applySitefile(cfg *domain.BuildConfig, f *Sitefile) error {
	setString(&cfg.Name, f.Name)

	if f.Mode != "" {
		mode, err := domain.ParseMode(f.Mode)
		if err != nil {
			return zerr.With(err, "source", domain.ConfigFileName)
		}
		cfg.Mode = mode
	}
	if f.BundleStrategy != "" {
		strategy, err := domain.ParseBundleStrategy(f.BundleStrategy)
		if err != nil {
			return zerr.With(err, "source", domain.ConfigFileName)
		}
		cfg.BundleStrategy = strategy
	}

	switches := []struct {
		key   string
		value string
		dst   *bool
	}{
		{"hotReload", f.HotReload, &cfg.HotReload},
		{"reportSizes", f.ReportSizes, &cfg.ReportSizes},
		{"failOnLint", f.FailOnLint, &cfg.FailOnLint},
		{"server.open", f.Server.Open, &cfg.Server.Open},
	}
	for _, s := range switches {
		if s.value == "" {
			continue
		}
		v, err := domain.ParseSwitch(s.key, s.value)
		if err != nil {
			return zerr.With(err, "source", domain.ConfigFileName)
		}
		*s.dst = v
	}

	if f.Debounce != "" {
		d, err := time.ParseDuration(f.Debounce)
		if err != nil || d < 0 {
			err = zerr.With(zerr.With(domain.ErrInvalidConfig, "key", "debounce"), "value", f.Debounce)
			return zerr.With(err, "source", domain.ConfigFileName)
		}
		cfg.Debounce = d
	}

	setString(&cfg.Server.Host, f.Server.Host)
	if f.Server.Port != 0 {
		if f.Server.Port < 0 || f.Server.Port > 65535 {
			err := zerr.With(zerr.With(domain.ErrInvalidConfig, "key", "server.port"), "value", f.Server.Port)
			return zerr.With(err, "source", domain.ConfigFileName)
		}
		cfg.Server.Port = f.Server.Port
	}

	applyPaths(&cfg.Paths, &f.Paths)

	setSlice(&cfg.Tools.Sass, f.Tools.Sass)
	setSlice(&cfg.Tools.Pug, f.Tools.Pug)
	setSlice(&cfg.Tools.ESLint, f.Tools.ESLint)
	setSlice(&cfg.Tools.Stylelint, f.Tools.Stylelint)
	return nil
}

func applyPaths(p *domain.Paths, dto *PathsDTO) {
	setString(&p.Source, dto.Source)
	setString(&p.Build, dto.Build)
	setString(&p.Reports, dto.Reports)
	setSlice(&p.Styles, dto.Styles)
	setSlice(&p.StyleExcludes, dto.StyleExcludes)
	setString(&p.StylesOut, dto.StylesOut)
	setSlice(&p.Templates, dto.Templates)
	setString(&p.TemplatesOut, dto.TemplatesOut)
	setSlice(&p.ScriptModules, dto.ScriptModules)
	setSlice(&p.ScriptVendor, dto.ScriptVendor)
	setString(&p.ScriptEntry, dto.ScriptEntry)
	setString(&p.ScriptsOut, dto.ScriptsOut)
	setString(&p.ScriptBundle, dto.ScriptBundle)
	setSlice(&p.Images, dto.Images)
	setString(&p.ImagesOut, dto.ImagesOut)
	setSlice(&p.Fonts, dto.Fonts)
	setString(&p.FontsOut, dto.FontsOut)
	setString(&p.Icons, dto.Icons)
	setString(&p.IconsOut, dto.IconsOut)
	setString(&p.LintRoot, dto.LintRoot)
}

// applyEnvironment overlays the SITEPIPE_* variables. NODE_ENV is only
// consulted when SITEPIPE_MODE is unset, and values other than a known mode are
// ignored since the variable is shared with other tools.
func (l *Loader) applyEnvironment(cfg *domain.BuildConfig) error {
	if v, ok := l.lookup(EnvMode); ok {
		mode, err := domain.ParseMode(v)
		if err != nil {
			return zerr.With(err, "source", EnvMode)
		}
		cfg.Mode = mode
	} else if v, ok := l.lookup(EnvNodeEnv); ok {
		if mode, err := domain.ParseMode(v); err == nil {
			cfg.Mode = mode
		} else {
			l.Logger.Warn(fmt.Sprintf("ignoring %s=%s, expected development or production", EnvNodeEnv, v))
		}
	}

	if v, ok := l.lookup(EnvBundle); ok {
		strategy, err := domain.ParseBundleStrategy(v)
		if err != nil {
			return zerr.With(err, "source", EnvBundle)
		}
		cfg.BundleStrategy = strategy
	}

	switches := []struct {
		env string
		key string
		dst *bool
	}{
		{EnvHotReload, "hotReload", &cfg.HotReload},
		{EnvReportSizes, "reportSizes", &cfg.ReportSizes},
		{EnvFailOnLint, "failOnLint", &cfg.FailOnLint},
	}
	for _, s := range switches {
		v, ok := l.lookup(s.env)
		if !ok {
			continue
		}
		b, err := domain.ParseSwitch(s.key, v)
		if err != nil {
			return zerr.With(err, "source", s.env)
		}
		*s.dst = b
	}
	return nil
}

// lookup treats empty variables as unset.
func (l *Loader) lookup(key string) (string, bool) {
	lookupEnv := l.LookupEnv
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	v, ok := lookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setSlice(dst *[]string, v []string) {
	if len(v) > 0 {
		*dst = v
	}
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	if filepath.IsAbs(configuredRoot) {
		return filepath.Clean(configuredRoot)
	}
	return filepath.Clean(filepath.Join(configDir, configuredRoot))
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is validated by caller
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}
	return nil
}
