package domain

import "time"

const (
	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "sitepipe.yaml"

	// DefaultProjectName is used when the configuration does not name the site.
	DefaultProjectName = "site"

	// DefaultDebounceWindow collapses bursts of file events into one rerun.
	DefaultDebounceWindow = 50 * time.Millisecond

	// DefaultServerHost is the live-reload listen host.
	DefaultServerHost = "localhost"

	// DefaultServerPort is the live-reload listen port.
	DefaultServerPort = 3000

	// EventsPath is the Server-Sent Events endpoint of the live-reload server.
	EventsPath = "/__sitepipe/events"

	// RootSpriteName is the sprite built from top-level icons.
	RootSpriteName = "sprite.svg"

	// JSLintReportName is the report file written by the lint task.
	JSLintReportName = "js-lint-report.txt"

	// StyleLintReportName is the report file written by the styles task.
	StyleLintReportName = "sass-lint-report.txt"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// SpriteName returns the sprite file name for an icon folder.
// The empty folder names the root sprite.
func SpriteName(folder string) string {
	if folder == "" {
		return RootSpriteName
	}
	return "sprite-" + folder + ".svg"
}

// DefaultPaths mirrors the conventional src/ and dist/ layout.
func DefaultPaths() Paths {
	return Paths{
		Source:  "src",
		Build:   "dist",
		Reports: "reports/lint",

		Styles:        []string{"src/sass/**/*.scss"},
		StyleExcludes: []string{"src/sass/vendor/*.scss"},
		StylesOut:     "dist/css",

		Templates:    []string{"src/pug/*.pug"},
		TemplatesOut: "dist",

		ScriptModules: []string{"src/js/bundle/modules/*.js"},
		ScriptVendor:  []string{"src/js/vendor/*.js*"},
		ScriptEntry:   "src/js/bundle/app.js",
		ScriptsOut:    "dist/js",
		ScriptBundle:  "bundle.min.js",

		Images:    []string{"src/images/**/*.{png,jpg,jpeg,svg}"},
		ImagesOut: "dist/images",

		Fonts:    []string{"src/fonts/**/*.{woff,woff2}"},
		FontsOut: "dist/fonts",

		Icons:    "src/icons",
		IconsOut: "dist/icons",

		LintRoot: "src/js/bundle",
	}
}

// DefaultTools returns the argv prefixes of the external collaborators.
func DefaultTools() Tools {
	return Tools{
		Sass:   []string{"sass"},
		Pug:    []string{"pug", "--silent"},
		ESLint: []string{"eslint", "--format", "unix"},
	}
}

// DefaultBuildConfig returns the configuration used when nothing overrides it.
func DefaultBuildConfig(root string) BuildConfig {
	return BuildConfig{
		Name:           DefaultProjectName,
		Root:           root,
		Mode:           ModeDevelopment,
		HotReload:      true,
		BundleStrategy: BundleModules,
		Debounce:       DefaultDebounceWindow,
		Server:         ServerConfig{Host: DefaultServerHost, Port: DefaultServerPort},
		Paths:          DefaultPaths(),
		Tools:          DefaultTools(),
	}
}
