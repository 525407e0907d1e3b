// Package watch re-runs the task lists of watch rules when their inputs change.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/sitepipe/internal/core/ports"
	"go.trai.ch/zerr"
)

// Runner executes an ordered list of tasks.
type Runner interface {
	RunSeries(ctx context.Context, names []string) ([]domain.RunResult, error)
}

// Session binds watch rules to a watcher for the lifetime of a context.
//
// Reruns are serialized per rule: changes that arrive while a rule's task
// list is running collapse into exactly one rerun once it completes.
type Session struct {
	watcher ports.Watcher
	runner  Runner
	logger  ports.Logger
	root    string
	rules   []*rule

	mu     sync.Mutex
	closed bool
	loops  sync.WaitGroup
	runCtx context.Context
}

type rule struct {
	domain.WatchRule
	patterns  []string
	debouncer *Debouncer

	// Guarded by Session.mu.
	running bool
	pending bool
	changed []string
}

// NewSession creates a session over the given rules. Patterns are relative to root.
func NewSession(
	watcher ports.Watcher,
	runner Runner,
	logger ports.Logger,
	root string,
	window time.Duration,
	rules []domain.WatchRule,
) *Session {
	if window <= 0 {
		window = domain.DefaultDebounceWindow
	}
	s := &Session{
		watcher: watcher,
		runner:  runner,
		logger:  logger,
		root:    root,
	}
	for _, wr := range rules {
		r := &rule{WatchRule: wr}
		for _, p := range wr.Patterns {
			r.patterns = append(r.patterns, strings.TrimPrefix(filepath.ToSlash(p), "./"))
		}
		r.debouncer = NewDebouncer(window, func(paths []string) { s.trigger(r, paths) })
		s.rules = append(s.rules, r)
	}
	return s
}

// Run watches until ctx is cancelled. A run in flight when ctx is cancelled
// finishes before Run returns; no new run starts after cancellation.
func (s *Session) Run(ctx context.Context) error {
	// Reruns are not cancelled by shutdown; they are allowed to finish.
	s.runCtx = context.WithoutCancel(ctx)

	if err := s.watcher.Start(ctx, s.root); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrWatchFailed.Error()), "root", s.root)
	}

	for _, r := range s.rules {
		s.logger.Info(fmt.Sprintf("watching %s → %s", strings.Join(r.Patterns, ", "), strings.Join(r.Tasks, ", ")))
	}

	events := make(chan struct{})
	go func() {
		defer close(events)
		for ev := range s.watcher.Events() {
			s.dispatch(ev)
		}
	}()

	<-ctx.Done()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	for _, r := range s.rules {
		r.debouncer.Stop()
	}
	s.loops.Wait()

	err := s.watcher.Stop()
	<-events
	if err != nil {
		return zerr.Wrap(err, domain.ErrWatchFailed.Error())
	}
	return nil
}

// dispatch feeds a filesystem event to every rule whose patterns match it.
func (s *Session) dispatch(ev ports.WatchEvent) {
	rel, err := filepath.Rel(s.root, ev.Path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	rel = filepath.ToSlash(rel)

	for _, r := range s.rules {
		if r.matches(rel) {
			r.debouncer.Add(rel)
		}
	}
}

func (r *rule) matches(rel string) bool {
	for _, p := range r.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// trigger starts the rule's run loop, or marks a rerun pending when one is in flight.
func (s *Session) trigger(r *rule, paths []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	r.changed = append(r.changed, paths...)
	if r.running {
		r.pending = true
		return
	}
	r.running = true
	s.loops.Add(1)
	go s.loop(r)
}

func (s *Session) loop(r *rule) {
	defer s.loops.Done()

	for {
		s.mu.Lock()
		changed := r.changed
		r.changed = nil
		r.pending = false
		s.mu.Unlock()

		s.rerun(r, changed)

		s.mu.Lock()
		if !r.pending || s.closed {
			r.running = false
			r.pending = false
			r.changed = nil
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
	}
}

func (s *Session) rerun(r *rule, changed []string) {
	id := uuid.NewString()[:8]
	s.logger.Info(fmt.Sprintf("[%s] %s changed (%s), running %s",
		id, r.Name, strings.Join(changed, ", "), strings.Join(r.Tasks, " → ")))

	if _, err := s.runner.RunSeries(s.runCtx, r.Tasks); err != nil {
		s.logger.Error(zerr.With(err, "rule", r.Name))
		return
	}
	s.logger.Info(fmt.Sprintf("[%s] %s up to date", id, r.Name))
}
