package model

import "github.com/pkg/errors"

var (
	ErrThreads = errors.New("threads must be greater than 0")
	ErrMemMB   = errors.New("mem_mb must not be negative")
	ErrTimeMin = errors.New("time_min must not be negative")
)

// Resources is the static resource request of one task. The workflow uses it
// to bound parallelism; enforcement of the ceilings is left to whatever runs
// the external tools.
type Resources struct {
	// Threads the task may use. Must be at least 1.
	Threads int `yaml:"threads"`
	// MemMB is the memory ceiling in megabytes.
	MemMB int `yaml:"mem_mb"`
	// TimeMin is the wall-time ceiling in minutes.
	TimeMin int `yaml:"time_min"`
}

// Validate checks the resource request is an honest upper bound the scheduler
// can work with.
func (r Resources) Validate() error {
	if r.Threads < 1 {
		return ErrThreads
	}
	if r.MemMB < 0 {
		return ErrMemMB
	}
	if r.TimeMin < 0 {
		return ErrTimeMin
	}

	return nil
}
