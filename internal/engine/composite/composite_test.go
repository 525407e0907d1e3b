package composite_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sitepipe/internal/engine/composite"
)

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o750))
	}
}

func TestFolderUnits(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, dir string)
		want  []composite.Unit
	}{
		{
			name:  "missing directory",
			setup: func(t *testing.T, dir string) { t.Helper(); require.NoError(t, os.RemoveAll(dir)) },
		},
		{
			name: "files only",
			setup: func(t *testing.T, dir string) {
				t.Helper()
				require.NoError(t, os.WriteFile(filepath.Join(dir, "home.svg"), []byte("<svg/>"), 0o600))
			},
		},
		{
			name:  "subfolders sorted after root",
			setup: func(t *testing.T, dir string) { t.Helper(); mkdirs(t, dir, "social", "arrows") },
			want: []composite.Unit{
				{Name: "", Recursive: false},
				{Name: "arrows", Recursive: true},
				{Name: "social", Recursive: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "icons")
			require.NoError(t, os.MkdirAll(dir, 0o750))
			tt.setup(t, dir)

			units, err := composite.FolderUnits(dir)()
			require.NoError(t, err)
			require.Len(t, units, len(tt.want))
			for i, u := range units {
				assert.Equal(t, tt.want[i].Name, u.Name)
				assert.Equal(t, tt.want[i].Recursive, u.Recursive)
			}
		})
	}
}

func TestTask_NoUnitsIsNoop(t *testing.T) {
	var got []composite.Outcome[int]
	doneCalls := 0
	task := &composite.Task[int]{
		Discover: func() ([]composite.Unit, error) { return nil, nil },
		RunUnit: func(context.Context, composite.Unit) (int, error) {
			t.Fatal("no unit should run")
			return 0, nil
		},
	}

	err := task.Run(context.Background(), func(o []composite.Outcome[int]) {
		doneCalls++
		got = o
	})
	require.NoError(t, err)
	assert.Equal(t, 1, doneCalls)
	assert.Empty(t, got)
}

func TestTask_UnitsRunConcurrentlyAndReportIndividually(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		units := []composite.Unit{{}, {Name: "a"}, {Name: "b"}}
		var barrier sync.WaitGroup
		barrier.Add(len(units))
		bad := errors.New("2 problems")

		task := &composite.Task[string]{
			Discover: func() ([]composite.Unit, error) { return units, nil },
			RunUnit: func(_ context.Context, u composite.Unit) (string, error) {
				barrier.Done()
				barrier.Wait()
				if u.Name == "b" {
					return "", bad
				}
				return "ok " + u.Label(), nil
			},
		}

		var outcomes []composite.Outcome[string]
		err := task.Run(context.Background(), func(o []composite.Outcome[string]) { outcomes = o })
		require.Error(t, err)
		assert.ErrorContains(t, err, "2 problems")

		require.Len(t, outcomes, 3)
		assert.Equal(t, "ok root", outcomes[0].Result)
		assert.Equal(t, "ok a", outcomes[1].Result)
		assert.Error(t, outcomes[2].Err)
	})
}

func TestTask_DiscoverError(t *testing.T) {
	called := false
	task := &composite.Task[int]{
		Discover: func() ([]composite.Unit, error) { return nil, errors.New("permission denied") },
		RunUnit:  func(context.Context, composite.Unit) (int, error) { return 0, nil },
	}
	err := task.Run(context.Background(), func([]composite.Outcome[int]) { called = true })
	require.Error(t, err)
	assert.True(t, called)
}
