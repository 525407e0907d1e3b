package config

import (
	"fmt"
	"maps"
	"path"
	"regexp"
	"slices"

	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/zerr"
)

var validTaskNameRegex = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// userActions are the action kinds a configured task may name.
var userActions = []domain.ActionKind{
	domain.ActionCopy,
	domain.ActionImages,
	domain.ActionStyles,
	domain.ActionHTML,
	domain.ActionScripts,
	domain.ActionSprites,
	domain.ActionLint,
	domain.ActionClean,
	domain.ActionCleanSprites,
	domain.ActionReload,
	domain.ActionInject,
	domain.ActionExec,
}

func buildProject(cfg domain.BuildConfig, f *Sitefile) (*domain.Project, error) {
	g := domain.NewGraph()

	for _, t := range DefaultTasks(cfg) {
		if err := g.AddTask(t); err != nil {
			return nil, err
		}
	}

	for _, name := range slices.Sorted(maps.Keys(f.Tasks)) {
		task, err := buildTask(name, f.Tasks[name])
		if err != nil {
			return nil, err
		}
		if err := g.AddTask(task); err != nil {
			return nil, err
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}

	watches, err := buildWatches(g, cfg, f.Watch)
	if err != nil {
		return nil, err
	}

	pipelines, err := buildPipelines(g, f.Pipelines)
	if err != nil {
		return nil, err
	}

	return &domain.Project{
		Config:    cfg,
		Graph:     g,
		Watches:   watches,
		Pipelines: pipelines,
	}, nil
}

// DefaultTasks returns the built-in tasks for the configured layout.
func DefaultTasks(cfg domain.BuildConfig) []*domain.Task {
	p := cfg.Paths
	return []*domain.Task{
		{
			Name:      domain.TaskImages,
			Action:    domain.ActionImages,
			Inputs:    p.Images,
			OutputDir: p.ImagesOut,
		},
		{
			Name:      domain.TaskSprites,
			Action:    domain.ActionSprites,
			Inputs:    []string{path.Join(p.Icons, "**/*.svg")},
			OutputDir: p.IconsOut,
			Options:   map[string]string{domain.OptionSource: p.Icons},
		},
		{
			Name:      domain.TaskFonts,
			Action:    domain.ActionCopy,
			Inputs:    p.Fonts,
			OutputDir: p.FontsOut,
		},
		{
			Name:      domain.TaskHTML,
			Action:    domain.ActionHTML,
			Inputs:    p.Templates,
			OutputDir: p.TemplatesOut,
		},
		{
			Name:      domain.TaskStyles,
			Action:    domain.ActionStyles,
			Inputs:    p.Styles,
			Excludes:  p.StyleExcludes,
			OutputDir: p.StylesOut,
			Options:   map[string]string{domain.OptionReport: domain.StyleLintReportName},
		},
		{
			Name:      domain.TaskScripts,
			Action:    domain.ActionScripts,
			Inputs:    p.ScriptModules,
			OutputDir: p.ScriptsOut,
			Options: map[string]string{
				domain.OptionEntry:  p.ScriptEntry,
				domain.OptionBundle: p.ScriptBundle,
			},
		},
		{
			Name:      domain.TaskLint,
			Action:    domain.ActionLint,
			Inputs:    []string{path.Join(p.LintRoot, "**/*.js")},
			OutputDir: p.Reports,
			Options: map[string]string{
				domain.OptionSource: p.LintRoot,
				domain.OptionReport: domain.JSLintReportName,
			},
		},
		{
			Name:   domain.TaskClean,
			Action: domain.ActionClean,
			Inputs: []string{p.Build, p.Reports},
		},
		{
			Name:   domain.TaskCleanSprites,
			Action: domain.ActionCleanSprites,
			Inputs: []string{path.Join(p.IconsOut, "*.svg")},
		},
		{
			Name:   domain.TaskReload,
			Action: domain.ActionReload,
		},
		{
			Name:      domain.TaskInject,
			Action:    domain.ActionInject,
			Inputs:    []string{path.Join(p.StylesOut, "**/*.css")},
			OutputDir: p.Build,
		},
	}
}

func buildTask(name string, dto *TaskDTO) (*domain.Task, error) {
	if !validTaskNameRegex.MatchString(name) {
		return nil, zerr.With(zerr.With(domain.ErrInvalidConfig, "key", "tasks"), "task_name", name)
	}
	if dto == nil {
		dto = &TaskDTO{}
	}

	action := domain.ActionExec
	if dto.Action != "" {
		action = domain.ActionKind(dto.Action)
		if !slices.Contains(userActions, action) {
			return nil, zerr.With(zerr.With(domain.ErrUnknownAction, "action", dto.Action), "task", name)
		}
	}
	if action == domain.ActionExec && len(dto.Cmd) == 0 {
		return nil, zerr.With(zerr.With(domain.ErrInvalidConfig, "key", "cmd"), "task", name)
	}

	options := maps.Clone(dto.Options)
	if dto.WorkingDir != "" {
		if options == nil {
			options = make(map[string]string)
		}
		options[domain.OptionWorkingDir] = dto.WorkingDir
	}

	return &domain.Task{
		Name:         name,
		Action:       action,
		Inputs:       dto.Input,
		Excludes:     dto.Exclude,
		OutputDir:    dto.Output,
		Dependencies: slices.Compact(slices.Sorted(slices.Values(dto.DependsOn))),
		Command:      dto.Cmd,
		Options:      options,
	}, nil
}

func buildWatches(g *domain.Graph, cfg domain.BuildConfig, extra []WatchDTO) ([]domain.WatchRule, error) {
	rules := domain.DefaultWatchRules(cfg)
	for i, dto := range extra {
		name := dto.Name
		if name == "" {
			name = fmt.Sprintf("watch-%d", i+1)
		}
		if len(dto.Patterns) == 0 || len(dto.Tasks) == 0 {
			return nil, zerr.With(zerr.With(domain.ErrInvalidConfig, "key", "watch"), "rule", name)
		}
		rules = append(rules, domain.WatchRule{Name: name, Patterns: dto.Patterns, Tasks: dto.Tasks})
	}

	for _, rule := range rules {
		for _, name := range rule.Tasks {
			if _, ok := g.GetTask(name); !ok {
				return nil, zerr.With(zerr.With(domain.ErrTaskNotFound, "task", name), "watch", rule.Name)
			}
		}
	}
	return rules, nil
}

func buildPipelines(g *domain.Graph, extra map[string]*PipelineDTO) ([]domain.Pipeline, error) {
	pipelines := domain.DefaultPipelines()
	for _, name := range slices.Sorted(maps.Keys(extra)) {
		dto := extra[name]
		if dto == nil || len(dto.Stages) == 0 {
			return nil, zerr.With(zerr.With(domain.ErrInvalidConfig, "key", "pipelines"), "pipeline", name)
		}
		pl := domain.Pipeline{Name: name, Description: dto.Description, Serve: dto.Serve}
		for _, stage := range dto.Stages {
			pl.Stages = append(pl.Stages, domain.Stage(stage))
		}

		if i := slices.IndexFunc(pipelines, func(p domain.Pipeline) bool { return p.Name == name }); i >= 0 {
			pipelines[i] = pl
		} else {
			pipelines = append(pipelines, pl)
		}
	}

	for _, pl := range pipelines {
		for _, name := range pl.Tasks() {
			if _, ok := g.GetTask(name); !ok {
				return nil, zerr.With(zerr.With(domain.ErrTaskNotFound, "task", name), "pipeline", pl.Name)
			}
		}
	}
	return pipelines, nil
}
