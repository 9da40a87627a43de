package app_test

import (
	"bufio"
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telatin/Koverage/internal/app"
	"github.com/telatin/Koverage/internal/config"
	"github.com/telatin/Koverage/pkg/coverage"
	"github.com/telatin/Koverage/pkg/runner"
	"github.com/telatin/Koverage/pkg/workflow/model"
)

// fakeRunner records invocations and writes the three transient outputs so
// downstream tasks have something to read.
type fakeRunner struct {
	tasks []*runner.MapTask
}

func (f *fakeRunner) Run(_ context.Context, task *runner.MapTask) error {
	f.tasks = append(f.tasks, task)

	for path, content := range map[string]string{
		task.LibFile:      "1000\n",
		task.CountsFile:   "ctg1\t500\t10\n",
		task.VarianceFile: "ctg1\t0.5\t1.5\n",
	} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}

	return nil
}

func testConfig(t *testing.T, dir string) config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Reference = filepath.Join(dir, "asm.fasta")
	cfg.Reads = filepath.Join(dir, "reads")
	cfg.Output = filepath.Join(dir, "results")
	cfg.Threads = 4
	cfg.Resources.Threads = 2

	require.NoError(t, os.MkdirAll(cfg.Reads, 0o755))
	require.NoError(t, os.WriteFile(cfg.Reference, []byte(">ctg1\n"+strings.Repeat("A", 500)+"\n"), 0o644))

	fastq := "@r1\nACGT\n+\nIIII\n"
	for _, name := range []string{"S1_R1.fastq", "S1_R2.fastq", "S2_R1.fastq", "S2_R2.fastq"} {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.Reads, name), []byte(fastq), 0o644))
	}

	return cfg
}

func TestBuildWorkflowGraph(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, t.TempDir())
	a := app.New(cfg, &fakeRunner{}, nil)

	samples := []model.Sample{
		{Name: "S1", R1: "S1_R1.fastq", R2: "S1_R2.fastq"},
		{Name: "S2", R1: "S2_R1.fastq", R2: "S2_R2.fastq"},
	}

	w, err := a.BuildWorkflow(samples)
	require.NoError(t, err)

	assert.Equal(t, []string{"combine", "coverage.S1", "coverage.S2", "map.S1", "map.S2", "reference.lengths"}, w.TaskNames())
	assert.Equal(t, []string{"reference.lengths"}, w.Dependencies("map.S1"))
	assert.Equal(t, []string{"map.S1"}, w.Dependencies("coverage.S1"))
	assert.Equal(t, []string{"coverage.S1", "coverage.S2"}, w.Dependencies("combine"))
}

func TestBuildWorkflowNoSamples(t *testing.T) {
	t.Parallel()

	a := app.New(testConfig(t, t.TempDir()), &fakeRunner{}, nil)
	_, err := a.BuildWorkflow(nil)
	assert.Error(t, err)
}

const e2ePAF = "read1\t100\t0\t100\t+\tctg1\t500\t0\t100\t98\t100\t60\n" +
	"read2\t100\t0\t100\t+\tctg1\t500\t250\t350\t97\t100\t60\n"

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := testConfig(t, dir)
	cfg.Map.BinWidth = 100
	cfg.KeepTemp = false

	aligner := filepath.Join(dir, "fake-minimap2")
	script := "#!/bin/sh\nprintf '%s' '" + e2ePAF + "'\n"
	require.NoError(t, os.WriteFile(aligner, []byte(script), 0o755))
	cfg.Minimap.Path = aligner

	var logBuf bytes.Buffer
	logger := log.New(&logBuf, "", 0)

	mm := runner.NewMinimap2(cfg.Minimap.Path, runner.WithPreset(cfg.Minimap.Preset))
	a := app.New(cfg, mm, logger)
	require.NoError(t, a.Run(context.Background()))

	// Every log line of the run carries its unique run ID.
	assert.Regexp(t, `run [0-9a-f-]{36}: found 2 samples`, logBuf.String())

	// Persisted artifacts survive, transient ones are gone.
	assert.FileExists(t, filepath.Join(cfg.Output, "bam", "S1.paf.zst"))
	assert.FileExists(t, filepath.Join(cfg.Output, "bam", "S2.paf.zst"))
	assert.FileExists(t, filepath.Join(cfg.Output, "logs", "S1.map.log"))
	assert.FileExists(t, filepath.Join(cfg.Output, "benchmarks", "S2.map.txt"))
	assert.NoDirExists(t, filepath.Join(cfg.Output, "temp"))

	fh, err := os.Open(filepath.Join(cfg.Output, "all_coverage.tsv.gz"))
	require.NoError(t, err)
	defer fh.Close()

	gr, err := gzip.NewReader(fh)
	require.NoError(t, err)

	var lines []string
	scanner := bufio.NewScanner(gr)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())

	require.Len(t, lines, 2)
	assert.Equal(t, "Contig\tCount\tRPM\tRPKM\tRPK\tTPM\tHitrate\tVariance", lines[0])
	fields := strings.Split(lines[1], "\t")
	assert.Equal(t, "ctg1", fields[0])
	// Two samples, two alignments each.
	assert.Equal(t, "4", fields[1])
}

func TestRunKeepTemp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := testConfig(t, dir)
	cfg.Map.BinWidth = 100
	cfg.KeepTemp = true

	aligner := filepath.Join(dir, "fake-minimap2")
	script := "#!/bin/sh\nprintf '%s' '" + e2ePAF + "'\n"
	require.NoError(t, os.WriteFile(aligner, []byte(script), 0o755))

	a := app.New(cfg, runner.NewMinimap2(aligner), nil)
	require.NoError(t, a.Run(context.Background()))

	covPath := filepath.Join(cfg.Output, "temp", "S1.cov.tsv")
	require.FileExists(t, covPath)

	fh, err := os.Open(covPath)
	require.NoError(t, err)
	defer fh.Close()

	rows, err := coverage.ReadRows(fh)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "S1", rows[0].Sample)
	assert.Equal(t, int64(2), rows[0].Count)
	// Bins 0, 2 and 3 of five are hit.
	assert.InDelta(t, 0.6, rows[0].Hitrate, 1e-9)
}

func TestRunInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, t.TempDir())
	cfg.Reference = ""

	a := app.New(cfg, &fakeRunner{}, nil)
	assert.Error(t, a.Run(context.Background()))
}

func TestRunMissingReference(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, t.TempDir())
	require.NoError(t, os.Remove(cfg.Reference))

	a := app.New(cfg, &fakeRunner{}, nil)
	err := a.Run(context.Background())
	require.Error(t, err)

	// The lengths task fails before any mapping side effects.
	assert.NoDirExists(t, filepath.Join(cfg.Output, "bam"))
}
