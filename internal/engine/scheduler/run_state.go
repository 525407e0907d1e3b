package scheduler

import (
	"context"

	"go.trai.ch/sitepipe/internal/core/domain"
)

type runState struct {
	s         *Scheduler
	ctx       context.Context
	plan      []string
	tasks     map[string]domain.Task
	inDegree  map[string]int
	ready     []string
	active    int
	resultsCh chan domain.RunResult
	results   map[string]domain.RunResult
}

func (s *Scheduler) newRunState(ctx context.Context, set map[string]bool) *runState {
	state := &runState{
		s:         s,
		ctx:       ctx,
		tasks:     make(map[string]domain.Task, len(set)),
		inDegree:  make(map[string]int, len(set)),
		resultsCh: make(chan domain.RunResult, s.parallelism),
		results:   make(map[string]domain.RunResult, len(set)),
	}

	// The graph's topological order keeps the ready queue deterministic.
	for task := range s.graph.Walk() {
		if !set[task.Name] {
			continue
		}
		state.plan = append(state.plan, task.Name)
		state.tasks[task.Name] = task

		degree := 0
		for _, dep := range task.Dependencies {
			if set[dep] {
				degree++
			}
		}
		state.inDegree[task.Name] = degree
		if degree == 0 {
			state.ready = append(state.ready, task.Name)
		}
	}
	return state
}

func (state *runState) runExecutionLoop() {
	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			return
		}

		if state.ctx.Err() != nil && state.active == 0 {
			return
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-state.ctx.Done():
			// Let in-flight tasks finish; nothing new is scheduled.
			if state.active > 0 {
				state.handleResult(<-state.resultsCh)
			}
		}
	}
}

func (state *runState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

func (state *runState) schedule() {
	for len(state.ready) > 0 && state.active < state.s.parallelism && state.ctx.Err() == nil {
		name := state.ready[0]
		state.ready = state.ready[1:]
		state.active++

		t := state.tasks[name]
		go func() {
			state.resultsCh <- state.s.execute(state.ctx, &t)
		}()
	}
}

func (state *runState) handleResult(res domain.RunResult) {
	state.active--
	state.results[res.Task] = res

	if !res.OK() {
		// Dependents never reach zero in-degree and are reported skipped.
		return
	}

	for _, dep := range state.s.graph.Dependents(res.Task) {
		if _, ok := state.tasks[dep]; !ok {
			continue
		}
		state.inDegree[dep]--
		if state.inDegree[dep] == 0 {
			state.ready = append(state.ready, dep)
		}
	}
}
