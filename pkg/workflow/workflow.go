package workflow

import (
	"context"
	"io"
	"log"
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/telatin/Koverage/internal/store"
	"github.com/telatin/Koverage/pkg/workflow/model"
)

// Task is one node of the workflow: a descriptor plus the action that
// realises it.
type Task struct {
	Desc   *model.TaskDescriptor
	Action func(ctx context.Context) error
}

type status int

const (
	statusPending status = iota
	statusRunning
	statusDone
	statusFailed
)

// Workflow is a DAG of tasks derived from their declared input/output paths.
type Workflow struct {
	tasks        map[string]*Task
	store        *store.TaskStore[*Task]
	graph        graph.Graph[string, *Task]
	threadBudget int
	logger       *log.Logger
	built        bool
}

// Option configures a workflow.
type Option func(w *Workflow)

// WithThreadBudget caps the summed thread requests of concurrently running
// tasks. A task requesting more threads than the whole budget still runs,
// alone, with the budget clamped.
func WithThreadBudget(threads int) Option {
	return func(w *Workflow) {
		if threads > 0 {
			w.threadBudget = threads
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *log.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

// New creates an empty workflow.
func New(opts ...Option) *Workflow {
	w := &Workflow{
		tasks:        make(map[string]*Task),
		threadBudget: 1,
		logger:       log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Add registers a task. Descriptor names are unique within a workflow.
func (w *Workflow) Add(desc *model.TaskDescriptor, action func(ctx context.Context) error) error {
	if w.built {
		return errors.New("workflow already built")
	}
	if _, ok := w.tasks[desc.Name]; ok {
		return errors.Wrap(ErrTaskExists, desc.Name)
	}

	w.tasks[desc.Name] = &Task{Desc: desc, Action: action}

	return nil
}

// Build derives the dependency graph from the declared paths. Two tasks
// declaring the same output path is an error: per-task output namespaces
// must stay disjoint for concurrent instances to be independent.
func (w *Workflow) Build() error {
	if len(w.tasks) == 0 {
		return ErrNoTasks
	}

	w.store = store.New[*Task]()
	w.graph = graph.NewWithStore(func(t *Task) string { return t.Desc.Name }, w.store, graph.Directed(), graph.PreventCycles())

	producers := make(map[string]string)
	for _, name := range w.TaskNames() {
		task := w.tasks[name]
		err := w.graph.AddVertex(task)
		if err != nil {
			return errors.Wrapf(err, "unable to add task %s", name)
		}

		for _, output := range task.Desc.Outputs {
			if owner, ok := producers[output]; ok {
				return errors.Wrapf(ErrDuplicateOutput, "%s declared by %s and %s", output, owner, name)
			}
			producers[output] = name
		}
	}

	for _, name := range w.TaskNames() {
		task := w.tasks[name]
		for _, input := range task.Desc.Inputs {
			producer, ok := producers[input]
			if !ok || producer == name {
				continue
			}

			err := w.graph.AddEdge(producer, name)
			if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return errors.Wrapf(err, "unable to add edge %s -> %s", producer, name)
			}
		}
	}

	w.built = true

	return nil
}

// TaskNames returns all task names, sorted.
func (w *Workflow) TaskNames() []string {
	names := make([]string, 0, len(w.tasks))
	for name := range w.tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Dependencies returns the sorted names of the direct dependencies of a task.
func (w *Workflow) Dependencies(name string) []string {
	if w.store == nil {
		return nil
	}

	return w.store.Predecessors(name)
}

// Task returns a registered task descriptor.
func (w *Workflow) Task(name string) (*model.TaskDescriptor, bool) {
	task, ok := w.tasks[name]
	if !ok {
		return nil, false
	}

	return task.Desc, true
}

// ready returns the sorted names of pending tasks whose dependencies have all
// completed. Pure with respect to the graph; deterministic given state.
func (w *Workflow) ready(state map[string]status) []string {
	var ready []string
	for name, st := range state {
		if st != statusPending {
			continue
		}

		ok := true
		for _, dep := range w.store.Predecessors(name) {
			if state[dep] != statusDone {
				ok = false

				break
			}
		}
		if ok {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	return ready
}

type result struct {
	name string
	err  error
}

// Run executes the workflow and blocks until every task finished or the
// first failure cancelled the rest. The returned error is the first task
// failure, wrapped with the task name.
func (w *Workflow) Run(ctx context.Context) error {
	if !w.built {
		return ErrNotBuilt
	}

	dCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	state := make(map[string]status, len(w.tasks))
	for name := range w.tasks {
		state[name] = statusPending
	}

	reserved := make(map[string]int)
	used := 0
	running := 0
	done := make(chan result)

	var firstErr error

	launch := func(name string) {
		task := w.tasks[name]
		need := task.Desc.Resources.Threads
		if need > w.threadBudget {
			need = w.threadBudget
		}

		state[name] = statusRunning
		reserved[name] = need
		used += need
		running++

		w.logger.Printf("task %s: started (threads=%d)", name, need)

		go func() {
			var err error
			if task.Action != nil {
				err = task.Action(dCtx)
			}
			done <- result{name: name, err: err}
		}()
	}

	for {
		if firstErr == nil {
			for _, name := range w.ready(state) {
				need := w.tasks[name].Desc.Resources.Threads
				if need > w.threadBudget {
					need = w.threadBudget
				}
				if used+need > w.threadBudget {
					continue
				}
				launch(name)
			}
		}

		if running == 0 {
			break
		}

		res := <-done
		used -= reserved[res.name]
		delete(reserved, res.name)
		running--

		if res.err != nil {
			state[res.name] = statusFailed
			w.logger.Printf("task %s: failed: %v", res.name, res.err)
			if firstErr == nil {
				firstErr = errors.Wrap(res.err, res.name)
				cancel()
			}

			continue
		}

		state[res.name] = statusDone
		w.logger.Printf("task %s: done", res.name)
	}

	if firstErr != nil {
		return firstErr
	}

	for name, st := range state {
		if st != statusDone {
			return errors.Wrap(ErrStalled, name)
		}
	}

	return nil
}
