// Package scheduler executes the tasks of a graph through their actions.
package scheduler

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/sitepipe/internal/core/ports"
	"go.trai.ch/zerr"
)

// Scheduler manages the execution of tasks in the dependency graph.
type Scheduler struct {
	graph       *domain.Graph
	actions     map[domain.ActionKind]ports.Action
	tracer      ports.Tracer
	parallelism int
}

// NewScheduler creates a new Scheduler over graph. Each task is executed by
// the action registered for its kind.
func NewScheduler(
	graph *domain.Graph,
	actions map[domain.ActionKind]ports.Action,
	tracer ports.Tracer,
) *Scheduler {
	return &Scheduler{
		graph:       graph,
		actions:     actions,
		tracer:      tracer,
		parallelism: runtime.NumCPU(),
	}
}

// WithParallelism bounds the number of tasks Run executes at once.
func (s *Scheduler) WithParallelism(n int) *Scheduler {
	if n > 0 {
		s.parallelism = n
	}
	return s
}

// RunParallel executes the named tasks concurrently and returns once every
// one of them has finished. A failure never cancels its siblings. Results are
// returned in the order of names.
func (s *Scheduler) RunParallel(ctx context.Context, names []string) ([]domain.RunResult, error) {
	tasks, err := s.lookup(names)
	if err != nil {
		return nil, err
	}

	s.tracer.EmitPlan(ctx, names, nil, names)

	results := make([]domain.RunResult, len(tasks))
	var wg sync.WaitGroup
	for i := range tasks {
		wg.Go(func() {
			results[i] = s.execute(ctx, &tasks[i])
		})
	}
	wg.Wait()

	return results, joinFailures(results)
}

// RunSeries executes the named tasks one after another. The first failure
// marks the remaining tasks skipped and is returned.
func (s *Scheduler) RunSeries(ctx context.Context, names []string) ([]domain.RunResult, error) {
	tasks, err := s.lookup(names)
	if err != nil {
		return nil, err
	}

	s.tracer.EmitPlan(ctx, names, seriesDeps(names), names)

	results := make([]domain.RunResult, 0, len(tasks))
	for i := range tasks {
		if ctx.Err() != nil {
			results = appendSkipped(results, names[i:])
			return results, errors.Join(joinFailures(results), ctx.Err())
		}

		res := s.execute(ctx, &tasks[i])
		results = append(results, res)
		if !res.OK() {
			results = appendSkipped(results, names[i+1:])
			break
		}
	}

	return results, joinFailures(results)
}

// RunPipeline executes the stages of p in series, the tasks of each stage in
// parallel. A failing stage skips every later stage.
func (s *Scheduler) RunPipeline(ctx context.Context, p domain.Pipeline) ([]domain.RunResult, error) {
	var all []domain.RunResult
	for i, stage := range p.Stages {
		if ctx.Err() != nil {
			return appendSkipped(all, stageNames(p.Stages[i:])), errors.Join(joinFailures(all), ctx.Err())
		}

		results, err := s.RunParallel(ctx, stage)
		all = append(all, results...)
		if err != nil {
			return appendSkipped(all, stageNames(p.Stages[i+1:])), err
		}
	}
	return all, nil
}

// Run executes the targets and their transitive dependencies in topological
// order. A task starts only after all of its dependencies succeeded; the
// dependents of a failed task are skipped while independent branches go on.
func (s *Scheduler) Run(ctx context.Context, targets []string) ([]domain.RunResult, error) {
	if err := s.graph.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.lookup(targets); err != nil {
		return nil, err
	}

	state := s.newRunState(ctx, s.collectDependencies(targets))

	deps := make(map[string][]string, len(state.plan))
	for _, name := range state.plan {
		deps[name] = state.tasks[name].Dependencies
	}
	s.tracer.EmitPlan(ctx, state.plan, deps, targets)

	state.runExecutionLoop()

	results := make([]domain.RunResult, 0, len(state.plan))
	for _, name := range state.plan {
		res, ok := state.results[name]
		if !ok {
			res = skipped(name)
		}
		results = append(results, res)
	}

	err := joinFailures(results)
	if ctx.Err() != nil {
		err = errors.Join(err, ctx.Err())
	}
	return results, err
}

func (s *Scheduler) lookup(names []string) ([]domain.Task, error) {
	if len(names) == 0 {
		return nil, domain.ErrNoTargetsSpecified
	}
	tasks := make([]domain.Task, 0, len(names))
	for _, name := range names {
		t, ok := s.graph.GetTask(name)
		if !ok {
			return nil, zerr.With(domain.ErrTaskNotFound, "task", name)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// collectDependencies returns the transitive closure of targets.
func (s *Scheduler) collectDependencies(targets []string) map[string]bool {
	set := make(map[string]bool)
	queue := append([]string(nil), targets...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if set[name] {
			continue
		}
		set[name] = true
		task, _ := s.graph.GetTask(name)
		queue = append(queue, task.Dependencies...)
	}
	return set
}

// execute runs one task inside its own span. The span is ended before the
// result is returned.
func (s *Scheduler) execute(ctx context.Context, t *domain.Task) domain.RunResult {
	ctx, span := s.tracer.Start(ctx, t.Name)
	defer span.End()

	start := time.Now()
	res, err := s.runAction(ctx, t, span)
	res.Task = t.Name
	res.Duration = time.Since(start)

	if err != nil {
		span.RecordError(err)
		res.Status = domain.StatusFailed
		res.Err = zerr.With(zerr.Wrap(err, domain.ErrTaskFailed.Error()), "task", t.Name)
		return res
	}

	res.Status = domain.StatusSucceeded
	span.SetAttribute(ports.AttrProcessed, res.Processed)
	span.SetAttribute(ports.AttrSkipped, res.Skipped)
	return res
}

func (s *Scheduler) runAction(ctx context.Context, t *domain.Task, span ports.Span) (domain.RunResult, error) {
	action, ok := s.actions[t.Action]
	if !ok {
		return domain.RunResult{}, zerr.With(domain.ErrUnknownAction, "action", string(t.Action))
	}
	return action.Run(ctx, t, span)
}

func skipped(name string) domain.RunResult {
	return domain.RunResult{
		Task:   name,
		Status: domain.StatusSkipped,
		Err:    domain.ErrDependencyFailed,
	}
}

func appendSkipped(results []domain.RunResult, names []string) []domain.RunResult {
	for _, name := range names {
		results = append(results, skipped(name))
	}
	return results
}

func stageNames(stages []domain.Stage) []string {
	var names []string
	for _, stage := range stages {
		names = append(names, stage...)
	}
	return names
}

// seriesDeps expresses a sequence as a chain for the renderer.
func seriesDeps(names []string) map[string][]string {
	deps := make(map[string][]string, len(names))
	for i, name := range names {
		if i > 0 {
			deps[name] = []string{names[i-1]}
		}
	}
	return deps
}

// joinFailures joins the errors of the failed results. Skipped results are
// a consequence of an earlier failure and add nothing.
func joinFailures(results []domain.RunResult) error {
	var errs error
	for _, res := range results {
		if res.Status == domain.StatusFailed {
			errs = errors.Join(errs, res.Err)
		}
	}
	return errs
}
