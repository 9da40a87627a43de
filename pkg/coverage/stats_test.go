package coverage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telatin/Koverage/pkg/coverage"
)

func TestSampleCoverage(t *testing.T) {
	t.Parallel()

	counts := []coverage.ContigCount{
		{Contig: "ctg1", Length: 2000, Count: 100},
		{Contig: "ctg2", Length: 1000, Count: 0},
	}
	variances := []coverage.ContigVariance{
		{Contig: "ctg1", Hitrate: 0.5, Variance: 1.25},
	}

	rows := coverage.SampleCoverage("S1", 1_000_000, counts, variances)
	require.Len(t, rows, 2)

	ctg1 := rows[0]
	assert.Equal(t, "S1", ctg1.Sample)
	assert.Equal(t, int64(100), ctg1.Count)
	// libSize 1e6 -> rpmScale 1 -> RPM == count.
	assert.InDelta(t, 100.0, ctg1.RPM, 1e-9)
	// RPKM = RPM / 2kb = 50; RPK = 100 / 2 = 50.
	assert.InDelta(t, 50.0, ctg1.RPKM, 1e-9)
	assert.InDelta(t, 50.0, ctg1.RPK, 1e-9)
	// Only ctg1 has RPK, so its TPM is the whole million.
	assert.InDelta(t, 1e6, ctg1.TPM, 1e-6)
	assert.InDelta(t, 0.5, ctg1.Hitrate, 1e-9)
	assert.InDelta(t, 1.25, ctg1.Variance, 1e-9)

	ctg2 := rows[1]
	assert.Zero(t, ctg2.RPM)
	assert.Zero(t, ctg2.TPM)
	assert.Zero(t, ctg2.Hitrate)
}

func TestSampleCoverageZeroLibrary(t *testing.T) {
	t.Parallel()

	counts := []coverage.ContigCount{{Contig: "ctg1", Length: 1000, Count: 0}}

	rows := coverage.SampleCoverage("S1", 0, counts, nil)
	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].RPM)
	assert.Zero(t, rows[0].RPKM)
	assert.Zero(t, rows[0].TPM)
}
