// Package app assembles the coverage workflow from the run configuration:
// one reference-lengths task, a mapping and a coverage-statistics task per
// sample, and a final aggregation task.
package app

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/telatin/Koverage/internal/config"
	"github.com/telatin/Koverage/internal/samples"
	"github.com/telatin/Koverage/pkg/coverage"
	"github.com/telatin/Koverage/pkg/fasta"
	"github.com/telatin/Koverage/pkg/runner"
	"github.com/telatin/Koverage/pkg/workflow"
	"github.com/telatin/Koverage/pkg/workflow/model"
)

// App wires configuration, samples and the aligner runner into a workflow.
type App struct {
	cfg    config.Config
	layout model.Layout
	runner runner.Runner
	logger *log.Logger
}

// New creates an App. logger may be nil.
func New(cfg config.Config, run runner.Runner, logger *log.Logger) *App {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &App{
		cfg:    cfg,
		layout: model.Layout{OutDir: cfg.Output},
		runner: run,
		logger: logger,
	}
}

// BuildWorkflow declares every task of the run for the given samples. The
// dependency edges are not declared anywhere here: they all fall out of the
// input/output paths.
func (a *App) BuildWorkflow(sampleList []model.Sample) (*workflow.Workflow, error) {
	if len(sampleList) == 0 {
		return nil, errors.New("no samples to process")
	}

	w := workflow.New(
		workflow.WithThreadBudget(a.cfg.Threads),
		workflow.WithLogger(a.logger),
	)

	err := a.addLengthsTask(w)
	if err != nil {
		return nil, err
	}

	covFiles := make([]string, 0, len(sampleList))
	for _, sample := range sampleList {
		sample := sample
		err := a.addSampleTasks(w, sample)
		if err != nil {
			return nil, err
		}
		covFiles = append(covFiles, a.layout.CoverageFile(sample.Name))
	}

	err = a.addCombineTask(w, covFiles)
	if err != nil {
		return nil, err
	}

	err = w.Build()
	if err != nil {
		return nil, errors.Wrap(err, "unable to build workflow graph")
	}

	return w, nil
}

func (a *App) addLengthsTask(w *workflow.Workflow) error {
	desc, err := model.NewTaskDescriptor(
		"reference.lengths",
		[]string{a.cfg.Reference},
		[]string{a.layout.LengthsFile()},
		model.Resources{Threads: 1},
	)
	if err != nil {
		return err
	}

	reference := a.cfg.Reference
	target := a.layout.LengthsFile()

	return w.Add(desc, func(ctx context.Context) error {
		contigs, err := fasta.ContigLengths(reference)
		if err != nil {
			return err
		}

		return writeFileAtomic(target, func(wr io.Writer) error {
			return coverage.WriteLengths(wr, contigs)
		})
	})
}

func (a *App) addSampleTasks(w *workflow.Workflow, sample model.Sample) error {
	err := a.addMapTask(w, sample)
	if err != nil {
		return err
	}

	return a.addCoverageTask(w, sample)
}

func (a *App) addMapTask(w *workflow.Workflow, sample model.Sample) error {
	outputs := []string{
		a.layout.LibFile(sample.Name),
		a.layout.VarianceFile(sample.Name),
		a.layout.CountsFile(sample.Name),
	}
	if a.cfg.Map.KeepAlignments {
		outputs = append(outputs, a.layout.AlignmentFile(sample.Name))
	}

	err := a.cfg.Map.Validate()
	if err != nil {
		return err
	}

	desc, err := model.NewTaskDescriptor(
		"map."+sample.Name,
		[]string{a.cfg.Reference, sample.R1, sample.R2, a.layout.LengthsFile()},
		outputs,
		a.cfg.Resources,
		model.TaskSample(sample.Name),
		model.TaskParams(a.cfg.Map),
		model.TaskLog(a.layout.MapLogFile(sample.Name)),
		model.TaskBenchmark(a.layout.MapBenchFile(sample.Name)),
	)
	if err != nil {
		return err
	}

	task := &runner.MapTask{
		Name:          desc.Name,
		Sample:        sample.Name,
		Threads:       desc.Resources.Threads,
		Reference:     a.cfg.Reference,
		R1:            sample.R1,
		R2:            sample.R2,
		LengthsFile:   a.layout.LengthsFile(),
		Params:        desc.Params,
		LibFile:       a.layout.LibFile(sample.Name),
		CountsFile:    a.layout.CountsFile(sample.Name),
		VarianceFile:  a.layout.VarianceFile(sample.Name),
		AlignmentFile: a.layout.AlignmentFile(sample.Name),
		LogFile:       desc.Log,
		BenchFile:     desc.Benchmark,
	}

	return w.Add(desc, func(ctx context.Context) error {
		return a.runner.Run(ctx, task)
	})
}

func (a *App) addCoverageTask(w *workflow.Workflow, sample model.Sample) error {
	libFile := a.layout.LibFile(sample.Name)
	countsFile := a.layout.CountsFile(sample.Name)
	varianceFile := a.layout.VarianceFile(sample.Name)
	target := a.layout.CoverageFile(sample.Name)

	desc, err := model.NewTaskDescriptor(
		"coverage."+sample.Name,
		[]string{libFile, countsFile, varianceFile},
		[]string{target},
		model.Resources{Threads: 1},
		model.TaskSample(sample.Name),
	)
	if err != nil {
		return err
	}

	name := sample.Name

	return w.Add(desc, func(ctx context.Context) error {
		libSize, err := coverage.ReadLib(libFile)
		if err != nil {
			return err
		}
		counts, err := coverage.ReadCounts(countsFile)
		if err != nil {
			return err
		}
		variances, err := coverage.ReadVariances(varianceFile)
		if err != nil {
			return err
		}

		rows := coverage.SampleCoverage(name, libSize, counts, variances)

		return writeFileAtomic(target, func(wr io.Writer) error {
			return coverage.WriteRows(wr, rows)
		})
	})
}

func (a *App) addCombineTask(w *workflow.Workflow, covFiles []string) error {
	target := a.layout.CombinedFile()

	desc, err := model.NewTaskDescriptor(
		"combine",
		covFiles,
		[]string{target},
		model.Resources{Threads: 1},
	)
	if err != nil {
		return err
	}

	inputs := append([]string(nil), covFiles...)

	return w.Add(desc, func(ctx context.Context) error {
		return writeFileAtomic(target, func(wr io.Writer) error {
			return coverage.Combine(inputs, wr)
		})
	})
}

// Run scans the reads directory, builds the workflow and executes it. On
// success the transient temp directory is removed unless the configuration
// keeps it. Every run gets a unique ID so interleaved log lines of repeated
// runs over the same output directory can be told apart.
func (a *App) Run(ctx context.Context) error {
	err := a.cfg.Validate()
	if err != nil {
		return err
	}

	runID := uuid.NewString()

	sampleList, err := samples.Scan(a.cfg.Reads)
	if err != nil {
		return err
	}
	a.logger.Printf("run %s: found %d samples in %s", runID, len(sampleList), a.cfg.Reads)

	w, err := a.BuildWorkflow(sampleList)
	if err != nil {
		return err
	}

	err = w.Run(ctx)
	if err != nil {
		return err
	}

	if !a.cfg.KeepTemp {
		err = os.RemoveAll(filepath.Join(a.cfg.Output, "temp"))
		if err != nil {
			return errors.Wrap(err, "unable to remove temp directory")
		}
	}

	a.logger.Printf("run %s: combined coverage written to %s", runID, a.layout.CombinedFile())

	return nil
}

// writeFileAtomic writes to a dot-prefixed sibling first and renames it into
// place, so a consumer never sees a half-written file.
func writeFileAtomic(path string, fn func(w io.Writer) error) error {
	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return errors.Wrapf(err, "unable to create directory for %s", path)
	}

	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	fh, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", tmp)
	}

	err = fn(fh)
	if cerr := fh.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)

		return errors.Wrapf(err, "unable to write %s", path)
	}

	err = os.Rename(tmp, path)
	if err != nil {
		_ = os.Remove(tmp)

		return errors.Wrapf(err, "unable to commit %s", path)
	}

	return nil
}
