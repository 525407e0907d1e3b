package domain

import "slices"

const (
	// TaskImages is the default image compression task.
	TaskImages = "images"
	// TaskSprites is the default sprite generation task.
	TaskSprites = "sprites"
	// TaskFonts is the default font copy task.
	TaskFonts = "fonts"
	// TaskHTML is the default template rendering task.
	TaskHTML = "html"
	// TaskStyles is the default stylesheet task.
	TaskStyles = "styles"
	// TaskScripts is the default script bundle task.
	TaskScripts = "js"
	// TaskLint is the default script lint task.
	TaskLint = "jslint"
	// TaskClean is the default clean task.
	TaskClean = "clean"
	// TaskCleanSprites removes generated sprites.
	TaskCleanSprites = "clean-sprites"
	// TaskReload triggers a browser reload.
	TaskReload = "reload"
	// TaskInject triggers in-place stylesheet injection.
	TaskInject = "inject"
)

const (
	// PipelineDefault builds everything once and then serves.
	PipelineDefault = "default"
	// PipelineBuild cleans and builds everything once.
	PipelineBuild = "build"
	// PipelineClean removes the build output.
	PipelineClean = "clean"
	// PipelineSprites regenerates the sprites.
	PipelineSprites = "sprites"
	// PipelineLint lints the scripts.
	PipelineLint = "jslint"
)

// Stage is a set of task names that run in parallel.
type Stage []string

// Pipeline is a named composite entry point: stages run in series and the
// tasks of one stage run in parallel.
type Pipeline struct {
	Name        string
	Description string
	Stages      []Stage
	// Serve starts the live-reload server and the watch session after the last stage.
	Serve bool
}

// Tasks returns every task name referenced by the pipeline, in stage order.
func (p Pipeline) Tasks() []string {
	var names []string
	for _, stage := range p.Stages {
		for _, name := range stage {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	return names
}

// BuildStage lists the tasks that make up a full build.
func BuildStage() Stage {
	return Stage{TaskImages, TaskSprites, TaskFonts, TaskHTML, TaskStyles, TaskScripts}
}

// DefaultPipelines returns the built-in entry points.
func DefaultPipelines() []Pipeline {
	return []Pipeline{
		{
			Name:        PipelineDefault,
			Description: "Build everything once, then serve with live reload and watch sources",
			Stages:      []Stage{BuildStage()},
			Serve:       true,
		},
		{
			Name:        PipelineBuild,
			Description: "Clean, then build everything once",
			Stages:      []Stage{{TaskClean}, BuildStage()},
		},
		{
			Name:        PipelineClean,
			Description: "Remove the build output and lint reports",
			Stages:      []Stage{{TaskClean}},
		},
		{
			Name:        PipelineSprites,
			Description: "Remove stale sprites, then generate the icon sprites",
			Stages:      []Stage{{TaskCleanSprites}, {TaskSprites}},
		},
		{
			Name:        PipelineLint,
			Description: "Lint the scripts",
			Stages:      []Stage{{TaskLint}},
		},
	}
}
