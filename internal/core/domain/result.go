package domain

import "time"

// TaskStatus is the outcome of one task run.
type TaskStatus string

const (
	// StatusSucceeded means the action completed, possibly with nothing to do.
	StatusSucceeded TaskStatus = "succeeded"
	// StatusFailed means the action returned an error.
	StatusFailed TaskStatus = "failed"
	// StatusSkipped means the task never started because an earlier task failed.
	StatusSkipped TaskStatus = "skipped"
)

// SizeReport records the byte size of a group of outputs before and after compression.
type SizeReport struct {
	Title  string
	Before int64
	After  int64
}

// Saved returns the number of bytes removed by compression.
func (s SizeReport) Saved() int64 {
	return s.Before - s.After
}

// RunResult is the per-task outcome of a run.
type RunResult struct {
	Task      string
	Status    TaskStatus
	Err       error
	Duration  time.Duration
	Processed int
	Skipped   int
	Sizes     []SizeReport
}

// OK reports whether the task succeeded.
func (r RunResult) OK() bool {
	return r.Status == StatusSucceeded
}
