package domain

import (
	"fmt"
	"strings"

	"go.trai.ch/zerr"
)

var (
	// ErrDuplicateTask is returned when a task is registered under a name that is already taken.
	ErrDuplicateTask = zerr.New("task already exists")

	// ErrMissingDependency is returned when a task references a dependency that doesn't exist in the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the task dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrTaskNotFound is returned when a requested task is not found in the graph.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrNoTargetsSpecified is returned when a run is requested without any task names.
	ErrNoTargetsSpecified = zerr.New("no targets specified")

	// ErrUnknownAction is returned when a task names an action kind with no implementation.
	ErrUnknownAction = zerr.New("unknown task action")

	// ErrPipelineNotFound is returned when a composite entry point is not defined.
	ErrPipelineNotFound = zerr.New("pipeline not found")

	// ErrTaskFailed wraps the error of a task that failed during a run.
	ErrTaskFailed = zerr.New("task execution failed")

	// ErrTransformFailed is returned when the external tool behind a task reports failure.
	ErrTransformFailed = zerr.New("transform failed")

	// ErrDependencyFailed marks a task that was skipped because an upstream task failed.
	ErrDependencyFailed = zerr.New("upstream task failed")

	// ErrCleanFailed is returned when some paths could not be removed during clean.
	ErrCleanFailed = zerr.New("failed to clean output")

	// ErrLintViolation is returned by the lint task when violations are configured to be fatal.
	ErrLintViolation = zerr.New("lint violations found")

	// ErrBuildExecutionFailed is returned when at least one task of a run failed.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrConfigNotFound is returned when an explicitly named config file does not exist.
	ErrConfigNotFound = zerr.New("config file not found")

	// ErrConfigReadFailed is returned when the config file exists but cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidConfig is returned when a configuration value is outside its allowed set.
	ErrInvalidConfig = zerr.New("invalid configuration value")

	// ErrInputResolutionFailed is returned when an input glob cannot be expanded.
	ErrInputResolutionFailed = zerr.New("failed to resolve inputs")

	// ErrOutputWriteFailed is returned when an output file cannot be written.
	ErrOutputWriteFailed = zerr.New("failed to write output file")

	// ErrFileOpenFailed is returned when a file cannot be opened.
	ErrFileOpenFailed = zerr.New("failed to open file")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrPathStatFailed is returned when stating a path fails.
	ErrPathStatFailed = zerr.New("failed to stat path")

	// ErrWatchFailed is returned when the file system watcher cannot be started.
	ErrWatchFailed = zerr.New("failed to start file watcher")

	// ErrServerFailed is returned when the live-reload server stops unexpectedly.
	ErrServerFailed = zerr.New("live-reload server failed")
)

// CleanError lists every path a clean could not remove.
type CleanError struct {
	Paths []string
	Cause error
}

// NewCleanError builds a CleanError for the given paths. The cause is the
// first removal error observed.
func NewCleanError(paths []string, cause error) *CleanError {
	return &CleanError{Paths: paths, Cause: cause}
}

func (e *CleanError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCleanFailed.Error(), strings.Join(e.Paths, ", "))
}

// Unwrap exposes both ErrCleanFailed and the underlying cause to errors.Is.
func (e *CleanError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrCleanFailed}
	}
	return []error{ErrCleanFailed, e.Cause}
}
