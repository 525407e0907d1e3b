package domain

import (
	"fmt"
	"strings"
	"time"

	"go.trai.ch/zerr"
)

// Mode selects how much debugging aid the outputs carry.
type Mode string

const (
	// ModeDevelopment emits source maps.
	ModeDevelopment Mode = "development"
	// ModeProduction emits minified outputs only.
	ModeProduction Mode = "production"
)

// ParseMode parses a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDevelopment:
		return ModeDevelopment, nil
	case ModeProduction:
		return ModeProduction, nil
	default:
		return "", zerr.With(zerr.With(ErrInvalidConfig, "key", "mode"), "value", s)
	}
}

// BundleStrategy selects how script modules are joined.
type BundleStrategy string

const (
	// BundleModules runs the module entry point through the bundler.
	BundleModules BundleStrategy = "bundle"
	// BundleConcatenate concatenates module files in lexical order.
	BundleConcatenate BundleStrategy = "concatenate"
)

// ParseBundleStrategy parses a bundle strategy name case-insensitively.
func ParseBundleStrategy(s string) (BundleStrategy, error) {
	switch BundleStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case BundleModules:
		return BundleModules, nil
	case BundleConcatenate:
		return BundleConcatenate, nil
	default:
		return "", zerr.With(zerr.With(ErrInvalidConfig, "key", "bundle"), "value", s)
	}
}

// ParseSwitch parses on/off style booleans.
func ParseSwitch(key, s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	default:
		return false, zerr.With(zerr.With(ErrInvalidConfig, "key", key), "value", s)
	}
}

// ServerConfig describes the live-reload HTTP server.
type ServerConfig struct {
	Host string
	Port int
	// Open launches the system browser once the server listens.
	Open bool
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Paths holds the static source and output locations, relative to the project root.
type Paths struct {
	Source  string
	Build   string
	Reports string

	Styles        []string
	StyleExcludes []string
	StylesOut     string

	Templates    []string
	TemplatesOut string

	ScriptModules []string
	ScriptVendor  []string
	ScriptEntry   string
	ScriptsOut    string
	ScriptBundle  string

	Images    []string
	ImagesOut string

	Fonts    []string
	FontsOut string

	Icons    string
	IconsOut string

	LintRoot string
}

// Tools holds the argv prefixes of the external collaborators.
// An empty Stylelint disables the stylesheet lint report.
type Tools struct {
	Sass      []string
	Pug       []string
	ESLint    []string
	Stylelint []string
}

// BuildConfig is the process-wide configuration resolved once at startup.
// It is passed by value to every action constructor and never mutated.
type BuildConfig struct {
	Name           string
	Root           string
	Mode           Mode
	HotReload      bool
	BundleStrategy BundleStrategy
	ReportSizes    bool
	FailOnLint     bool
	Debounce       time.Duration
	Server         ServerConfig
	Paths          Paths
	Tools          Tools
}

// Development reports whether source maps should be emitted.
func (c BuildConfig) Development() bool {
	return c.Mode != ModeProduction
}

// RefreshType describes how a browser picks up stylesheet changes.
func (c BuildConfig) RefreshType() string {
	if c.HotReload {
		return "full reload"
	}
	return "style injection"
}

// Overrides are values given on the command line. Empty fields leave the
// loaded configuration untouched.
type Overrides struct {
	ConfigFile string
	Mode       string
}
