package workflow

import "github.com/pkg/errors"

var (
	ErrTaskExists      = errors.New("task already exists")
	ErrDuplicateOutput = errors.New("output path declared by two tasks")
	ErrNoTasks         = errors.New("workflow has no tasks")
	ErrNotBuilt        = errors.New("workflow graph has not been built")
	ErrStalled         = errors.New("workflow stalled with pending tasks")
)
