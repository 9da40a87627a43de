// Package workflow models a run as a graph of immutable task descriptors.
//
// Each task declares its input and output file paths, a resource request and
// the action that realises it. The dependency graph is not declared by hand:
// an edge from task A to task B exists exactly when an output path of A is an
// input path of B. This keeps the graph honest with respect to what the tasks
// actually read and write, and makes adding a task a purely local change.
//
// Running a workflow schedules ready tasks concurrently, bounded by a global
// thread budget that tasks draw from according to their declared thread
// request. Tasks are atomic from the scheduler's point of view: the first
// failing task cancels everything still running and fails the run.
package workflow
