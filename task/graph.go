package task

import (
	"context"
	"fmt"
	"github.com/saylorsolutions/tispbuild/assert"
	"github.com/saylorsolutions/tispbuild/contextx"
	"github.com/saylorsolutions/tispbuild/structures/set"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// Graph is a registry of [Task] definitions.
// Definitions are expected to be complete before the first call to [Graph.Run].
type Graph struct {
	tasks map[string]Task
	log   *slog.Logger
}

// NewGraph creates an empty [Graph].
// A nil logger discards task progress messages.
func NewGraph(log *slog.Logger) *Graph {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Graph{tasks: map[string]Task{}, log: log}
}

// Define registers a [Task].
// Dependencies don't need to be defined yet, but must be before [Graph.Run] is called.
func (g *Graph) Define(t Task) error {
	if len(t.Name) == 0 || strings.ContainsAny(t.Name, " \t\n") {
		return fmt.Errorf("%w: '%s'", ErrInvalidName, t.Name)
	}
	if _, ok := g.tasks[t.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, t.Name)
	}
	t.Deps = slices.Clone(t.Deps)
	g.tasks[t.Name] = t
	return nil
}

// Lookup returns the [Task] with the given name.
func (g *Graph) Lookup(name string) (Task, bool) {
	t, ok := g.tasks[name]
	return t, ok
}

// Tasks returns every defined [Task], sorted by name.
func (g *Graph) Tasks() []Task {
	tasks := make([]Task, 0, len(g.tasks))
	for _, t := range g.tasks {
		tasks = append(tasks, t)
	}
	slices.SortFunc(tasks, func(a, b Task) int {
		return strings.Compare(a.Name, b.Name)
	})
	return tasks
}

// Validate checks that every dependency is defined, and that there are no dependency cycles.
// All problems are reported together.
func (g *Graph) Validate() error {
	errs := assert.CollectErrors("; ").Prefix("invalid task graph")
	for _, t := range g.Tasks() {
		for _, dep := range t.Deps {
			errs.Check(g.has(dep), "%w '%s' required by '%s'", ErrUnknownTask, dep, t.Name)
		}
	}
	if errs.Len() > 0 {
		return errs.Result()
	}

	const (
		unvisited = iota
		visiting
		visited
	)
	state := map[string]int{}
	var visit func(name string, path []string)
	visit = func(name string, path []string) {
		switch state[name] {
		case visited:
			return
		case visiting:
			start := slices.Index(path, name)
			cycle := append(slices.Clone(path[start:]), name)
			errs.Addf("%w: %s", ErrCycle, strings.Join(cycle, " -> "))
			return
		}
		state[name] = visiting
		path = append(path, name)
		for _, dep := range g.tasks[name].Deps {
			visit(dep, path)
		}
		state[name] = visited
	}
	for _, t := range g.Tasks() {
		if state[t.Name] == unvisited {
			visit(t.Name, nil)
		}
	}
	return errs.Result()
}

func (g *Graph) has(name string) bool {
	_, ok := g.tasks[name]
	return ok
}

// Run runs the named tasks in order, sharing one set of completed tasks.
// A task that already ran during this call (including as a dependency of an earlier task) is skipped.
//
// Results are returned in execution order, including the failing task if there is one.
// The first failure stops the run and is returned as an [*Error].
// If ctx ends, no further actions are started.
func (g *Graph) Run(ctx context.Context, names ...string) ([]Result, error) {
	for _, name := range names {
		if !g.has(name) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTask, name)
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	r := &run{graph: g, done: set.New[string]()}
	for _, name := range names {
		if err := r.invoke(ctx, name); err != nil {
			return r.results, err
		}
	}
	return r.results, nil
}

// run carries the state of one call to [Graph.Run].
type run struct {
	graph   *Graph
	done    set.Set[string]
	results []Result
}

func (r *run) invoke(ctx context.Context, name string) error {
	if r.done.Has(name) {
		return nil
	}
	t := r.graph.tasks[name]
	for _, dep := range t.Deps {
		if err := r.invoke(ctx, dep); err != nil {
			return err
		}
	}
	if err := contextx.Err(ctx); err != nil {
		return &Error{Task: name, Err: err}
	}

	log := r.graph.log.With("task", name)
	if !t.IsGroup() {
		log.Info("Running task")
	}
	start := time.Now()
	var err error
	if !t.IsGroup() {
		err = t.Action(ctx)
	}
	result := Result{Task: name, Group: t.IsGroup(), Duration: time.Since(start), Err: err}
	r.results = append(r.results, result)
	if err != nil {
		log.Error("Task failed", "duration", result.Duration, "error", err)
		return &Error{Task: name, Err: err}
	}
	r.done = r.done.Add(name)
	if !t.IsGroup() {
		log.Info("Task finished", "duration", result.Duration)
	}
	return nil
}
