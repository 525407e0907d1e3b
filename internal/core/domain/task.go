package domain

// ActionKind selects the action that executes a task.
type ActionKind string

const (
	// ActionCopy copies newer input files into the output directory.
	ActionCopy ActionKind = "copy"
	// ActionImages compresses newer images into the output directory.
	ActionImages ActionKind = "images"
	// ActionStyles compiles and minifies stylesheets.
	ActionStyles ActionKind = "styles"
	// ActionHTML renders and minifies markup templates.
	ActionHTML ActionKind = "html"
	// ActionScripts bundles or concatenates and minifies scripts.
	ActionScripts ActionKind = "scripts"
	// ActionSprites generates SVG symbol sprites, one per icon folder.
	ActionSprites ActionKind = "sprites"
	// ActionLint lints scripts, one unit per script folder.
	ActionLint ActionKind = "lint"
	// ActionClean removes the build output and report directories.
	ActionClean ActionKind = "clean"
	// ActionCleanSprites removes generated sprite files.
	ActionCleanSprites ActionKind = "clean-sprites"
	// ActionReload asks connected browsers to reload the page.
	ActionReload ActionKind = "reload"
	// ActionInject asks connected browsers to swap stylesheets in place.
	ActionInject ActionKind = "inject"
	// ActionExec runs an arbitrary configured command.
	ActionExec ActionKind = "exec"
)

// Option keys understood by the built-in actions.
const (
	// OptionSource is the directory a composite task discovers its units in.
	OptionSource = "source"
	// OptionEntry is the script entry point used by the bundle strategy.
	OptionEntry = "entry"
	// OptionBundle is the file name of the script bundle.
	OptionBundle = "bundle"
	// OptionReport is the file name a lint report is written to.
	OptionReport = "report"
	// OptionWorkingDir is the directory an exec task runs in, relative to the project root.
	OptionWorkingDir = "workingDir"
)

// Task represents a unit of work in the build pipeline.
type Task struct {
	Name   string
	Action ActionKind
	// Inputs are glob patterns relative to the project root.
	Inputs []string
	// Excludes are glob patterns removed from the input match set.
	Excludes []string
	// OutputDir is the directory the task owns, relative to the project root.
	OutputDir    string
	Dependencies []string
	// Command is the argv used by exec tasks.
	Command []string
	// Options carries action specific settings such as the script entry point.
	Options map[string]string
}

// Option returns the named option or fallback when it is unset.
func (t *Task) Option(key, fallback string) string {
	if v, ok := t.Options[key]; ok && v != "" {
		return v
	}
	return fallback
}

// InputFile is one concrete file matched by a task's input patterns.
type InputFile struct {
	// Path is the file path joined with the project root.
	Path string
	// Rel is the path relative to the static base of the pattern that matched it,
	// so "src/fonts/**/*.woff" matching "src/fonts/a/b.woff" yields "a/b.woff".
	Rel string
}
