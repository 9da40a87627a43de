package samples_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telatin/Koverage/internal/samples"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()

	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("@r\nA\n+\nI\n"), 0o644))
	}
}

func TestScan(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir, "S2_R1.fastq", "S2_R2.fastq", "S1_R1.fastq.gz", "S1_R2.fastq.gz", "README.txt")

	got, err := samples.Scan(dir)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "S1", got[0].Name)
	assert.Equal(t, filepath.Join(dir, "S1_R1.fastq.gz"), got[0].R1)
	assert.Equal(t, filepath.Join(dir, "S1_R2.fastq.gz"), got[0].R2)
	assert.Equal(t, "S2", got[1].Name)
}

func TestScanUnderscoreConvention(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir, "sampleA_1.fq", "sampleA_2.fq")

	got, err := samples.Scan(dir)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sampleA", got[0].Name)
}

func TestScanMissingMate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir, "S1_R1.fastq")

	_, err := samples.Scan(dir)
	assert.Error(t, err)
}

func TestScanEmptyDir(t *testing.T) {
	t.Parallel()

	_, err := samples.Scan(t.TempDir())
	assert.ErrorIs(t, err, samples.ErrNoSamples)
}

func TestScanDuplicateMate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir, "S1_R1.fastq", "S1_1.fq", "S1_R2.fastq")

	_, err := samples.Scan(dir)
	assert.Error(t, err)
}
