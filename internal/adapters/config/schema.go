package config

// Sitefile represents the structure of the sitepipe.yaml configuration file.
// Every field is optional; unset fields keep their defaults.
type Sitefile struct {
	Version        string                  `yaml:"version"`
	Name           string                  `yaml:"name"`
	Root           string                  `yaml:"root"`
	Mode           string                  `yaml:"mode"`
	HotReload      string                  `yaml:"hotReload"`
	BundleStrategy string                  `yaml:"bundleStrategy"`
	ReportSizes    string                  `yaml:"reportSizes"`
	FailOnLint     string                  `yaml:"failOnLint"`
	Debounce       string                  `yaml:"debounce"`
	Server         ServerDTO               `yaml:"server"`
	Paths          PathsDTO                `yaml:"paths"`
	Tools          ToolsDTO                `yaml:"tools"`
	Tasks          map[string]*TaskDTO     `yaml:"tasks"`
	Watch          []WatchDTO              `yaml:"watch"`
	Pipelines      map[string]*PipelineDTO `yaml:"pipelines"`
}

// ServerDTO configures the live-reload server.
type ServerDTO struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Open string `yaml:"open"`
}

// PathsDTO overrides the source and output layout.
type PathsDTO struct {
	Source        string   `yaml:"source"`
	Build         string   `yaml:"build"`
	Reports       string   `yaml:"reports"`
	Styles        []string `yaml:"styles"`
	StyleExcludes []string `yaml:"styleExcludes"`
	StylesOut     string   `yaml:"stylesOut"`
	Templates     []string `yaml:"templates"`
	TemplatesOut  string   `yaml:"templatesOut"`
	ScriptModules []string `yaml:"scriptModules"`
	ScriptVendor  []string `yaml:"scriptVendor"`
	ScriptEntry   string   `yaml:"scriptEntry"`
	ScriptsOut    string   `yaml:"scriptsOut"`
	ScriptBundle  string   `yaml:"scriptBundle"`
	Images        []string `yaml:"images"`
	ImagesOut     string   `yaml:"imagesOut"`
	Fonts         []string `yaml:"fonts"`
	FontsOut      string   `yaml:"fontsOut"`
	Icons         string   `yaml:"icons"`
	IconsOut      string   `yaml:"iconsOut"`
	LintRoot      string   `yaml:"lintRoot"`
}

// ToolsDTO overrides the argv prefixes of the external tools.
type ToolsDTO struct {
	Sass      []string `yaml:"sass"`
	Pug       []string `yaml:"pug"`
	ESLint    []string `yaml:"eslint"`
	Stylelint []string `yaml:"stylelint"`
}

// TaskDTO represents a user task definition in the configuration.
type TaskDTO struct {
	Action     string            `yaml:"action"`
	Cmd        []string          `yaml:"cmd"`
	Input      []string          `yaml:"input"`
	Exclude    []string          `yaml:"exclude"`
	Output     string            `yaml:"output"`
	DependsOn  []string          `yaml:"dependsOn"`
	WorkingDir string            `yaml:"workingDir"`
	Options    map[string]string `yaml:"options"`
}

// WatchDTO represents an additional watch rule.
type WatchDTO struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
	Tasks    []string `yaml:"tasks"`
}

// PipelineDTO represents a user pipeline. A pipeline with a built-in name
// replaces the built-in one.
type PipelineDTO struct {
	Description string     `yaml:"description"`
	Stages      [][]string `yaml:"stages"`
	Serve       bool       `yaml:"serve"`
}
