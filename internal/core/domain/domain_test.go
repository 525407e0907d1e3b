package domain_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestGraph_AddTask_Duplicate(t *testing.T) {
	g := domain.NewGraph()
	task := &domain.Task{Name: "styles", Action: domain.ActionStyles}

	require.NoError(t, g.AddTask(task))

	err := g.AddTask(task)
	require.ErrorContains(t, err, domain.ErrDuplicateTask.Error())

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok, "expected *zerr.Error, got %T", err)
	assert.Equal(t, "styles", zErr.Metadata()["task_name"])
	assert.Equal(t, []string{"styles"}, g.Names())
}

func TestGraph_Validate(t *testing.T) {
	tests := []struct {
		name    string
		tasks   []domain.Task
		wantErr error
	}{
		{
			name:    "self cycle",
			tasks:   []domain.Task{{Name: "A", Dependencies: []string{"A"}}},
			wantErr: domain.ErrCycleDetected,
		},
		{
			name: "three node cycle",
			tasks: []domain.Task{
				{Name: "A", Dependencies: []string{"B"}},
				{Name: "B", Dependencies: []string{"C"}},
				{Name: "C", Dependencies: []string{"A"}},
			},
			wantErr: domain.ErrCycleDetected,
		},
		{
			name:    "missing dependency",
			tasks:   []domain.Task{{Name: "A", Dependencies: []string{"ghost"}}},
			wantErr: domain.ErrMissingDependency,
		},
		{
			name: "diamond",
			tasks: []domain.Task{
				{Name: "A", Dependencies: []string{"B", "C"}},
				{Name: "B", Dependencies: []string{"D"}},
				{Name: "C", Dependencies: []string{"D"}},
				{Name: "D"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := domain.NewGraph()
			for i := range tt.tasks {
				require.NoError(t, g.AddTask(&tt.tasks[i]))
			}

			err := g.Validate()
			if tt.wantErr != nil {
				require.ErrorContains(t, err, tt.wantErr.Error())
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestGraph_CycleMetadata(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(&domain.Task{Name: "a", Dependencies: []string{"b"}}))
	require.NoError(t, g.AddTask(&domain.Task{Name: "b", Dependencies: []string{"a"}}))

	err := g.Validate()
	require.Error(t, err)

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok)
	assert.Equal(t, "a -> b -> a", zErr.Metadata()["cycle"])
}

func TestGraph_Walk(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(&domain.Task{Name: "reload", Dependencies: []string{"js"}}))
	require.NoError(t, g.AddTask(&domain.Task{Name: "js", Dependencies: []string{"clean"}}))
	require.NoError(t, g.AddTask(&domain.Task{Name: "clean"}))
	require.NoError(t, g.Validate())

	var order []string
	for task := range g.Walk() {
		order = append(order, task.Name)
	}
	assert.Equal(t, []string{"clean", "js", "reload"}, order)
	assert.Equal(t, []string{"reload"}, g.Dependents("js"))
}

func TestGraph_WalkIsDeterministic(t *testing.T) {
	build := func() []string {
		g := domain.NewGraph()
		for _, name := range []string{"images", "fonts", "html", "styles", "js", "sprites"} {
			require.NoError(t, g.AddTask(&domain.Task{Name: name}))
		}
		require.NoError(t, g.Validate())
		var order []string
		for task := range g.Walk() {
			order = append(order, task.Name)
		}
		return order
	}

	first := build()
	assert.True(t, slices.IsSorted(first))
	for range 10 {
		assert.Equal(t, first, build())
	}
}

func TestCleanError(t *testing.T) {
	cause := errors.New("permission denied")
	err := domain.NewCleanError([]string{"dist/locked", "reports/lint/x.txt"}, cause)

	require.ErrorIs(t, err, domain.ErrCleanFailed)
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "dist/locked, reports/lint/x.txt")

	var cleanErr *domain.CleanError
	require.ErrorAs(t, errors.Join(errors.New("other"), err), &cleanErr)
	assert.Len(t, cleanErr.Paths, 2)
}

func TestParseConfigValues(t *testing.T) {
	mode, err := domain.ParseMode(" Production ")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeProduction, mode)

	_, err = domain.ParseMode("staging")
	require.ErrorContains(t, err, domain.ErrInvalidConfig.Error())

	strategy, err := domain.ParseBundleStrategy("CONCATENATE")
	require.NoError(t, err)
	assert.Equal(t, domain.BundleConcatenate, strategy)

	on, err := domain.ParseSwitch("hotReload", "off")
	require.NoError(t, err)
	assert.False(t, on)

	_, err = domain.ParseSwitch("hotReload", "maybe")
	require.ErrorContains(t, err, domain.ErrInvalidConfig.Error())
}

func TestDefaultWatchRules_StyleNotifier(t *testing.T) {
	cfg := domain.DefaultBuildConfig(".")
	hot := domain.DefaultWatchRules(cfg)
	assert.Equal(t, []string{domain.TaskStyles, domain.TaskReload}, hot[1].Tasks)

	cfg.HotReload = false
	cold := domain.DefaultWatchRules(cfg)
	assert.Equal(t, []string{domain.TaskStyles, domain.TaskInject}, cold[1].Tasks)
	assert.Equal(t, []string{"src/icons/**/*.svg"}, cold[3].Patterns)
}

func TestDefaultWatchRules_FollowConfiguredPaths(t *testing.T) {
	cfg := domain.DefaultBuildConfig(".")
	rules := domain.DefaultWatchRules(cfg)
	assert.Equal(t, []string{"src/js/vendor/**/*.js*", "src/js/bundle/**/*.js"}, rules[0].Patterns)
	assert.Equal(t, []string{"src/sass/**/*.scss"}, rules[1].Patterns)
	assert.Equal(t, []string{"src/pug/**/*.pug"}, rules[2].Patterns)

	cfg.Paths.Styles = []string{"assets/scss/*.scss", "assets/scss/themes/**/*.scss"}
	cfg.Paths.Templates = []string{"views/*.pug"}
	cfg.Paths.ScriptModules = []string{"web/modules/*.js"}
	cfg.Paths.ScriptVendor = nil
	cfg.Paths.ScriptEntry = "web/main.js"
	cfg.Paths.Icons = "assets/icons"
	rules = domain.DefaultWatchRules(cfg)
	assert.Equal(t, []string{"web/**/*.js"}, rules[0].Patterns)
	assert.Equal(t, []string{"assets/scss/**/*.scss"}, rules[1].Patterns)
	assert.Equal(t, []string{"views/**/*.pug"}, rules[2].Patterns)
	assert.Equal(t, []string{"assets/icons/**/*.svg"}, rules[3].Patterns)
}

func TestWatchPatterns(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{"entry glob widens", []string{"src/pug/*.pug"}, []string{"src/pug/**/*.pug"}},
		{"literal file", []string{"src/js/app.js"}, []string{"src/js/**/app.js"}},
		{"root glob", []string{"*.scss"}, []string{"**/*.scss"}},
		{"duplicates", []string{"a/*.js", "a/**/*.js"}, []string{"a/**/*.js"}},
		{"different names kept", []string{"a/*.js", "a/b/*.ts"}, []string{"a/**/*.js", "a/b/**/*.ts"}},
		{"empty skipped", []string{""}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.WatchPatterns(tt.patterns...))
		})
	}
}

func TestDefaultPipelines_SpritesCleanFirst(t *testing.T) {
	for _, p := range domain.DefaultPipelines() {
		if p.Name != domain.PipelineSprites {
			continue
		}
		assert.Equal(t, []domain.Stage{{domain.TaskCleanSprites}, {domain.TaskSprites}}, p.Stages)
		return
	}
	t.Fatal("sprites pipeline not registered")
}

func TestPipeline_Tasks(t *testing.T) {
	var build domain.Pipeline
	for _, p := range domain.DefaultPipelines() {
		if p.Name == domain.PipelineBuild {
			build = p
		}
	}
	require.Len(t, build.Stages, 2)
	assert.Equal(t, domain.TaskClean, build.Tasks()[0])
	assert.Len(t, build.Tasks(), 7)
	assert.False(t, build.Serve)
}

func TestSpriteName(t *testing.T) {
	assert.Equal(t, "sprite.svg", domain.SpriteName(""))
	assert.Equal(t, "sprite-social.svg", domain.SpriteName("social"))
}

func TestLintMessage_String(t *testing.T) {
	m := domain.LintMessage{
		File: "src/js/bundle/app.js", Line: 3, Column: 7,
		Severity: domain.SeverityError, Rule: "no-undef", Text: "'x' is not defined.",
	}
	assert.Equal(t, "src/js/bundle/app.js:3:7: 'x' is not defined. [error/no-undef]", m.String())
}
