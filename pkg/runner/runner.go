// Package runner executes the delegated per-sample mapping work: it invokes
// an external aligner, streams its alignment records through the coverage
// counters, and materialises the declared output files atomically.
package runner

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/telatin/Koverage/pkg/workflow/model"
)

// MapTask carries everything one mapping invocation needs: the shared
// read-only reference, the sample reads, the scalar parameters and the
// sample-keyed output paths.
type MapTask struct {
	Name    string
	Sample  string
	Threads int

	Reference   string
	R1          string
	R2          string
	LengthsFile string

	Params model.MapParams

	LibFile       string
	CountsFile    string
	VarianceFile  string
	AlignmentFile string

	LogFile   string
	BenchFile string
}

// Runner is the narrow interface behind which the aligner lives. Swapping
// aligners means swapping Runner implementations; the workflow logic never
// sees the difference.
type Runner interface {
	Run(ctx context.Context, task *MapTask) error
}

// Preflight verifies every input of a map task is readable. It runs before
// the external tool is spawned so a missing reference or read file fails the
// task without any side effects.
func Preflight(task *MapTask) error {
	for _, path := range []string{task.Reference, task.R1, task.R2, task.LengthsFile} {
		info, err := os.Stat(path)
		if err != nil {
			return errors.Wrapf(err, "task %s: input not readable", task.Name)
		}
		if info.IsDir() {
			return errors.Errorf("task %s: input %s is a directory", task.Name, path)
		}
	}

	return nil
}
