package domain

import (
	"path"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// WatchRule binds input globs to an ordered list of tasks re-run on change.
type WatchRule struct {
	Name     string
	Patterns []string
	Tasks    []string
}

// DefaultWatchRules returns the built-in watch rules derived from the
// configured source globs. A stylesheet change reloads the page when hot
// reload is on and injects styles otherwise.
func DefaultWatchRules(cfg BuildConfig) []WatchRule {
	styleNotify := TaskInject
	if cfg.HotReload {
		styleNotify = TaskReload
	}
	scripts := slices.Concat(cfg.Paths.ScriptModules, cfg.Paths.ScriptVendor, siblingScripts(cfg.Paths.ScriptEntry))
	return []WatchRule{
		{
			Name:     "scripts",
			Patterns: WatchPatterns(scripts...),
			Tasks:    []string{TaskScripts, TaskReload},
		},
		{
			Name:     "styles",
			Patterns: WatchPatterns(cfg.Paths.Styles...),
			Tasks:    []string{TaskStyles, styleNotify},
		},
		{
			Name:     "templates",
			Patterns: WatchPatterns(cfg.Paths.Templates...),
			Tasks:    []string{TaskHTML, TaskReload},
		},
		{
			Name:     "icons",
			Patterns: WatchPatterns(cfg.Paths.Icons + "/*.svg"),
			Tasks:    []string{TaskCleanSprites, TaskSprites, TaskReload},
		},
	}
}

// WatchPatterns widens source globs to every folder below their static base,
// so partials and includes next to the entry points trigger a rebuild too.
// "src/pug/*.pug" becomes "src/pug/**/*.pug". Patterns covered by a broader
// one are dropped.
func WatchPatterns(patterns ...string) []string {
	type watch struct{ base, name string }
	var watches []watch
	for _, p := range patterns {
		if p == "" {
			continue
		}
		base, rest := doublestar.SplitPattern(path.Clean(p))
		w := watch{base: base, name: path.Base(rest)}
		if !slices.Contains(watches, w) {
			watches = append(watches, w)
		}
	}

	out := make([]string, 0, len(watches))
	for _, w := range watches {
		covered := slices.ContainsFunc(watches, func(o watch) bool {
			return o != w && o.name == w.name && isBelow(w.base, o.base)
		})
		if !covered {
			out = append(out, path.Join(w.base, "**", w.name))
		}
	}
	return out
}

// siblingScripts globs the scripts next to the bundle entry point.
func siblingScripts(entry string) []string {
	if entry == "" {
		return nil
	}
	return []string{path.Join(path.Dir(entry), "*.js")}
}

// isBelow reports whether dir equals base or lies inside it.
func isBelow(dir, base string) bool {
	return base == "." || dir == base || strings.HasPrefix(dir, base+"/")
}
