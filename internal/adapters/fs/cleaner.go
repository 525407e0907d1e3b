package fs

import (
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/sitepipe/internal/core/ports"
)

// Cleaner removes generated output.
type Cleaner struct {
	resolver ports.InputResolver
	remove   func(path string) error
}

// NewCleaner creates a new Cleaner.
func NewCleaner(resolver ports.InputResolver) *Cleaner {
	return &Cleaner{resolver: resolver, remove: os.Remove}
}

// Clean empties each of dirs, relative to root, keeping the directories
// themselves. Every path that could not be removed is reported in a
// *domain.CleanError; removal continues past failures.
func (c *Cleaner) Clean(root string, dirs []string) error {
	var f failures
	for _, dir := range dirs {
		abs := filepath.Join(root, dir)
		entries, err := os.ReadDir(abs)
		if err != nil {
			if !os.IsNotExist(err) {
				f.add(root, abs, err)
			}
			continue
		}
		for _, e := range entries {
			c.removeTree(root, filepath.Join(abs, e.Name()), &f)
		}
	}
	return f.err()
}

// RemoveMatching deletes the files matched by patterns below root.
func (c *Cleaner) RemoveMatching(root string, patterns []string) error {
	files, err := c.resolver.ResolveInputs(patterns, nil, root)
	if err != nil {
		return err
	}
	var f failures
	for _, file := range files {
		if err := c.remove(file.Path); err != nil && !os.IsNotExist(err) {
			f.add(root, file.Path, err)
		}
	}
	return f.err()
}

// removeTree removes path bottom-up. It reports whether path is gone.
// A directory is only removed once all of its children are.
func (c *Cleaner) removeTree(root, path string, f *failures) bool {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true
		}
		f.add(root, path, err)
		return false
	}

	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			f.add(root, path, err)
			return false
		}
		clean := true
		for _, e := range entries {
			if !c.removeTree(root, filepath.Join(path, e.Name()), f) {
				clean = false
			}
		}
		if !clean {
			return false
		}
	}

	if err := c.remove(path); err != nil && !os.IsNotExist(err) {
		f.add(root, path, err)
		return false
	}
	return true
}

type failures struct {
	paths []string
	cause error
}

func (f *failures) add(root, path string, err error) {
	if rel, relErr := filepath.Rel(root, path); relErr == nil {
		path = filepath.ToSlash(rel)
	}
	f.paths = append(f.paths, path)
	if f.cause == nil {
		f.cause = err
	}
}

func (f *failures) err() error {
	if len(f.paths) == 0 {
		return nil
	}
	slices.Sort(f.paths)
	return domain.NewCleanError(f.paths, f.cause)
}
