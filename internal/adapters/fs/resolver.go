package fs

import (
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/sitepipe/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.InputResolver = (*Resolver)(nil)

// Resolver implements the InputResolver interface using doublestar globs.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// ResolveInputs expands patterns below root. Patterns prefixed with "!" are
// treated as excludes, like the entries of excludes. Each match carries its
// path below the static base of the pattern that produced it.
func (r *Resolver) ResolveInputs(patterns, excludes []string, root string) ([]domain.InputFile, error) {
	var includes []string
	excludes = normalizePatterns(excludes)
	for _, p := range patterns {
		if rest, ok := strings.CutPrefix(p, "!"); ok {
			excludes = append(excludes, normalizePattern(rest))
			continue
		}
		includes = append(includes, normalizePattern(p))
	}

	seen := make(map[string]bool)
	var files []domain.InputFile

	for _, pattern := range includes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, zerr.With(domain.ErrInputResolutionFailed, "pattern", pattern)
		}

		base, rest := doublestar.SplitPattern(pattern)
		baseDir := filepath.Join(root, filepath.FromSlash(base))
		if _, err := os.Stat(baseDir); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, zerr.With(zerr.Wrap(err, domain.ErrInputResolutionFailed.Error()), "pattern", pattern)
		}

		matches, err := doublestar.Glob(os.DirFS(baseDir), rest)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrInputResolutionFailed.Error()), "pattern", pattern)
		}

		for _, m := range matches {
			rootRel := path.Join(base, m)
			if seen[rootRel] || isExcluded(rootRel, excludes) {
				continue
			}
			full := filepath.Join(baseDir, filepath.FromSlash(m))
			if info, err := os.Stat(full); err != nil || info.IsDir() {
				continue
			}
			seen[rootRel] = true
			files = append(files, domain.InputFile{Path: full, Rel: m})
		}
	}

	slices.SortFunc(files, func(a, b domain.InputFile) int {
		return strings.Compare(a.Path, b.Path)
	})
	return files, nil
}

func isExcluded(rel string, excludes []string) bool {
	for _, ex := range excludes {
		if ok, _ := doublestar.Match(ex, rel); ok {
			return true
		}
	}
	return false
}

func normalizePatterns(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, normalizePattern(strings.TrimPrefix(p, "!")))
	}
	return out
}

// normalizePattern turns "./src//sass/" style patterns into "src/sass".
func normalizePattern(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	return path.Clean(p)
}
