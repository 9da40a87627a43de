package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/telatin/Koverage/pkg/coverage"
	"github.com/telatin/Koverage/pkg/fasta"
	"github.com/telatin/Koverage/pkg/workflow/bench"
)

// Minimap2 runs minimap2 against a sample's read pair and derives the four
// declared outputs from its PAF stream. All outputs are written into a
// staging directory first and renamed into place only after the aligner
// exited cleanly: a failed task leaves none of its outputs behind.
type Minimap2 struct {
	// Path is the minimap2 executable, resolved through $PATH when bare.
	Path string
	// Preset is the minimap2 preset (-x), defaults to short reads.
	Preset string
	// Recorder, when set, collects the timing record of every invocation.
	Recorder *bench.Recorder
}

// Minimap2Option configures the runner.
type Minimap2Option func(m *Minimap2)

// WithPreset overrides the minimap2 preset.
func WithPreset(preset string) Minimap2Option {
	return func(m *Minimap2) {
		m.Preset = preset
	}
}

// WithRecorder attaches a benchmark recorder.
func WithRecorder(recorder *bench.Recorder) Minimap2Option {
	return func(m *Minimap2) {
		m.Recorder = recorder
	}
}

// NewMinimap2 creates a minimap2 runner. path defaults to "minimap2".
func NewMinimap2(path string, opts ...Minimap2Option) *Minimap2 {
	m := &Minimap2{Path: path, Preset: "sr"}
	if m.Path == "" {
		m.Path = "minimap2"
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Run executes one mapping task.
func (m *Minimap2) Run(ctx context.Context, task *MapTask) (err error) {
	start := time.Now()

	err = Preflight(task)
	if err != nil {
		return err
	}

	logger, closeLog, err := openLog(task.LogFile, task.Sample)
	if err != nil {
		return err
	}
	defer closeLog()

	contigs, err := coverage.ReadLengths(task.LengthsFile)
	if err != nil {
		return errors.Wrapf(err, "task %s", task.Name)
	}

	counter, err := coverage.NewCounter(contigs, task.Params)
	if err != nil {
		return errors.Wrapf(err, "task %s", task.Name)
	}

	libSize, err := librarySize(task.R1, task.R2)
	if err != nil {
		return errors.Wrapf(err, "task %s", task.Name)
	}
	logger.Printf("library size: %d reads", libSize)

	err = os.MkdirAll(filepath.Dir(task.LibFile), 0o755)
	if err != nil {
		return errors.Wrapf(err, "task %s: unable to create output directory", task.Name)
	}
	staging, err := os.MkdirTemp(filepath.Dir(task.LibFile), ".staging-")
	if err != nil {
		return errors.Wrapf(err, "task %s: unable to create staging directory", task.Name)
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(staging)
		}
	}()

	records, cpu, maxRSSKB, err := m.align(ctx, task, counter, staging, logger)
	if err != nil {
		return err
	}
	logger.Printf("aligned %d records", records)

	err = writeTables(task, counter, libSize, staging)
	if err != nil {
		return err
	}

	err = commit(task, staging)
	if err != nil {
		return err
	}
	_ = os.RemoveAll(staging)

	record := bench.Record{Task: task.Name, Wall: time.Since(start), CPU: cpu, MaxRSSKB: maxRSSKB}
	if m.Recorder != nil {
		m.Recorder.Add(record)
	}
	// The declared outputs are committed at this point: a benchmark-write
	// failure must not mark the task failed.
	if task.BenchFile != "" {
		benchErr := os.MkdirAll(filepath.Dir(task.BenchFile), 0o755)
		if benchErr == nil {
			benchErr = record.WriteFile(task.BenchFile)
		}
		if benchErr != nil {
			logger.Printf("warning: unable to write benchmark file: %v", benchErr)
		}
	}

	logger.Printf("finished in %s", time.Since(start).Round(time.Millisecond))

	return nil
}

// align spawns the aligner and consumes its PAF stream. The whole process
// group is killed when ctx is cancelled so helper threads do not linger.
func (m *Minimap2) align(ctx context.Context, task *MapTask, counter *coverage.Counter, staging string, logger *log.Logger) (records int64, cpu time.Duration, maxRSSKB int64, err error) {
	maxRSSKB = -1

	args := []string{"-t", strconv.Itoa(task.Threads), "-x", m.Preset, "--secondary=no", task.Reference, task.R1, task.R2}
	logger.Printf("running: %s %v", m.Path, args)

	cmd := exec.Command(m.Path, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stderr = logger.Writer()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, 0, maxRSSKB, errors.Wrapf(err, "task %s: unable to open stdout pipe", task.Name)
	}

	err = cmd.Start()
	if err != nil {
		return 0, 0, maxRSSKB, errors.Wrapf(err, "task %s: unable to start %s", task.Name, m.Path)
	}

	killed := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		case <-killed:
		}
	}()
	defer close(killed)

	var paf io.WriteCloser
	if task.Params.KeepAlignments {
		fh, err := os.Create(filepath.Join(staging, filepath.Base(task.AlignmentFile)))
		if err != nil {
			return 0, 0, maxRSSKB, errors.Wrapf(err, "task %s: unable to create alignment stream", task.Name)
		}
		defer fh.Close()

		zw, err := zstd.NewWriter(fh)
		if err != nil {
			return 0, 0, maxRSSKB, errors.Wrapf(err, "task %s: unable to create zstd writer", task.Name)
		}
		paf = zw
	}

	scanErr := consumePAF(stdout, counter, paf, &records)
	if scanErr != nil {
		// The aligner may be blocked writing into the full stdout pipe;
		// kill the group and drain so Wait can return.
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		_, _ = io.Copy(io.Discard, stdout)
	}

	waitErr := cmd.Wait()
	if state := cmd.ProcessState; state != nil {
		cpu = state.UserTime() + state.SystemTime()
		if usage, ok := state.SysUsage().(*syscall.Rusage); ok {
			maxRSSKB = usage.Maxrss
		}
	}

	if ctx.Err() != nil {
		return records, cpu, maxRSSKB, errors.Wrapf(ctx.Err(), "task %s: cancelled", task.Name)
	}
	if scanErr != nil {
		return records, cpu, maxRSSKB, errors.Wrapf(scanErr, "task %s", task.Name)
	}
	if waitErr != nil {
		return records, cpu, maxRSSKB, errors.Wrapf(waitErr, "task %s: %s failed", task.Name, m.Path)
	}

	if paf != nil {
		err = paf.Close()
		if err != nil {
			return records, cpu, maxRSSKB, errors.Wrapf(err, "task %s: unable to close alignment stream", task.Name)
		}
	}

	return records, cpu, maxRSSKB, nil
}

func consumePAF(r io.Reader, counter *coverage.Counter, paf io.Writer, records *int64) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		rec, err := coverage.ParsePAF(line)
		if err != nil {
			return err
		}
		err = counter.Add(rec)
		if err != nil {
			return err
		}
		*records++

		if paf != nil {
			_, err = io.WriteString(paf, line+"\n")
			if err != nil {
				return errors.Wrap(err, "unable to write alignment stream")
			}
		}
	}

	return errors.Wrap(scanner.Err(), "unable to scan alignment stream")
}

func writeTables(task *MapTask, counter *coverage.Counter, libSize int64, staging string) error {
	variances, err := counter.Variances()
	if err != nil {
		return errors.Wrapf(err, "task %s", task.Name)
	}

	writers := []struct {
		target string
		fn     func(w io.Writer) error
	}{
		{task.LibFile, func(w io.Writer) error { return coverage.WriteLib(w, libSize) }},
		{task.CountsFile, func(w io.Writer) error { return coverage.WriteCounts(w, counter.Counts()) }},
		{task.VarianceFile, func(w io.Writer) error { return coverage.WriteVariances(w, variances) }},
	}
	for _, writer := range writers {
		fh, err := os.Create(filepath.Join(staging, filepath.Base(writer.target)))
		if err != nil {
			return errors.Wrapf(err, "task %s", task.Name)
		}

		err = writer.fn(fh)
		if cerr := fh.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			return errors.Wrapf(err, "task %s", task.Name)
		}
	}

	return nil
}

// commit renames every staged output to its declared path.
func commit(task *MapTask, staging string) error {
	targets := []string{task.LibFile, task.CountsFile, task.VarianceFile}
	if task.Params.KeepAlignments {
		targets = append(targets, task.AlignmentFile)
	}

	for _, target := range targets {
		err := os.MkdirAll(filepath.Dir(target), 0o755)
		if err != nil {
			return errors.Wrapf(err, "task %s", task.Name)
		}

		err = os.Rename(filepath.Join(staging, filepath.Base(target)), target)
		if err != nil {
			return errors.Wrapf(err, "task %s: unable to commit output", task.Name)
		}
	}

	return nil
}

// librarySize counts the reads of both mates. The two files are independent
// gzip streams, so they are counted concurrently.
func librarySize(r1, r2 string) (int64, error) {
	var n1, n2 int64

	grp := errgroup.Group{}
	grp.Go(func() (err error) {
		n1, err = fasta.CountFastqReads(r1)

		return err
	})
	grp.Go(func() (err error) {
		n2, err = fasta.CountFastqReads(r2)

		return err
	})

	err := grp.Wait()
	if err != nil {
		return 0, err
	}

	return n1 + n2, nil
}

func openLog(path, sample string) (*log.Logger, func(), error) {
	if path == "" {
		return log.New(io.Discard, "", 0), func() {}, nil
	}

	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "unable to create log directory for %s", path)
	}

	fh, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "unable to create log file %s", path)
	}

	logger := log.New(fh, fmt.Sprintf("[%s] ", sample), log.LstdFlags)

	return logger, func() { _ = fh.Close() }, nil
}
