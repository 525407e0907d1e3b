// Package composite runs tasks whose sub-units are discovered at run time.
package composite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Unit is one independently executed piece of a composite task.
type Unit struct {
	// Name identifies the unit. The root unit has an empty name.
	Name string
	// Dir is the directory the unit reads from.
	Dir string
	// Recursive is set when the unit covers Dir and all of its subdirectories.
	Recursive bool
}

// Outcome is the result of one unit.
type Outcome[R any] struct {
	Unit   Unit
	Result R
	Err    error
}

// Task is a task whose unit count is computed from directory contents.
type Task[R any] struct {
	// Discover lists the units. Returning no units makes the run a no-op success.
	Discover func() ([]Unit, error)
	// RunUnit executes one unit.
	RunUnit func(ctx context.Context, u Unit) (R, error)
	// Limit bounds the number of concurrent units. Zero means no bound.
	Limit int
}

// Run discovers the units and executes them concurrently. A failing unit does
// not cancel its siblings. done is called exactly once with every outcome, in
// discovery order, after all units finished; the joined unit errors are returned.
func (t *Task[R]) Run(ctx context.Context, done func([]Outcome[R])) error {
	units, err := t.Discover()
	if err != nil {
		if done != nil {
			done(nil)
		}
		return err
	}

	outcomes := make([]Outcome[R], len(units))
	var g errgroup.Group
	if t.Limit > 0 {
		g.SetLimit(t.Limit)
	}
	for i, u := range units {
		g.Go(func() error {
			res, err := t.RunUnit(ctx, u)
			outcomes[i] = Outcome[R]{Unit: u, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	if done != nil {
		done(outcomes)
	}

	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, zerr.With(o.Err, "unit", o.Unit.Label()))
		}
	}
	return errors.Join(errs...)
}

// Label names the unit in logs.
func (u Unit) Label() string {
	if u.Name == "" {
		return "root"
	}
	return u.Name
}

// FolderUnits returns a root unit over the top-level files of dir plus one
// recursive unit per subfolder. A dir with no subfolders yields no units at
// all, and so does a dir that does not exist.
func FolderUnits(dir string) func() ([]Unit, error) {
	return func() ([]Unit, error) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, zerr.With(zerr.Wrap(err, "failed to list folders"), "dir", dir)
		}

		var folders []string
		for _, e := range entries {
			if e.IsDir() {
				folders = append(folders, e.Name())
			}
		}
		if len(folders) == 0 {
			return nil, nil
		}
		slices.Sort(folders)

		units := make([]Unit, 0, len(folders)+1)
		units = append(units, Unit{Dir: dir})
		for _, f := range folders {
			units = append(units, Unit{Name: f, Dir: filepath.Join(dir, f), Recursive: true})
		}
		return units, nil
	}
}
