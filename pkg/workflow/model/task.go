package model

import "github.com/pkg/errors"

var ErrTaskName = errors.New("task name must be set")

// TaskDescriptor binds the inputs, outputs, resource request and parameters
// of one unit of delegated work. Descriptors are immutable once constructed
// and are keyed uniquely by name within a workflow.
type TaskDescriptor struct {
	Name      string
	Sample    string
	Inputs    []string
	Outputs   []string
	Resources Resources
	Params    MapParams
	Log       string
	Benchmark string
}

// TaskOption configures optional descriptor fields.
type TaskOption func(t *TaskDescriptor)

// TaskSample records the sample a descriptor belongs to.
func TaskSample(sample string) TaskOption {
	return func(t *TaskDescriptor) {
		t.Sample = sample
	}
}

// TaskParams sets the scalar mapping parameters.
func TaskParams(params MapParams) TaskOption {
	return func(t *TaskDescriptor) {
		t.Params = params
	}
}

// TaskLog sets the diagnostic log path.
func TaskLog(path string) TaskOption {
	return func(t *TaskDescriptor) {
		t.Log = path
	}
}

// TaskBenchmark sets the timing-record path.
func TaskBenchmark(path string) TaskOption {
	return func(t *TaskDescriptor) {
		t.Benchmark = path
	}
}

// NewTaskDescriptor validates and builds an immutable task descriptor.
// The input and output slices are copied so later mutation by the caller
// cannot change the descriptor.
func NewTaskDescriptor(name string, inputs, outputs []string, res Resources, opts ...TaskOption) (*TaskDescriptor, error) {
	if name == "" {
		return nil, ErrTaskName
	}

	err := res.Validate()
	if err != nil {
		return nil, errors.Wrapf(err, "task %s", name)
	}

	task := &TaskDescriptor{
		Name:      name,
		Inputs:    append([]string(nil), inputs...),
		Outputs:   append([]string(nil), outputs...),
		Resources: res,
	}
	for _, opt := range opts {
		opt(task)
	}

	return task, nil
}
