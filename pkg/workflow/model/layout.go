package model

import "path/filepath"

// Layout derives every output path of a run from the output root and a sample
// name. Path derivation is a pure function: deriving the same layout twice
// yields identical path sets, and two distinct sample names can never map to
// the same path.
type Layout struct {
	OutDir string
}

// LibFile is the transient library-statistics file of a sample.
func (l Layout) LibFile(sample string) string {
	return filepath.Join(l.OutDir, "temp", sample+".lib")
}

// VarianceFile is the transient hitrate/variance table of a sample.
func (l Layout) VarianceFile(sample string) string {
	return filepath.Join(l.OutDir, "temp", sample+".variance.tsv")
}

// CountsFile is the transient raw-count table of a sample.
func (l Layout) CountsFile(sample string) string {
	return filepath.Join(l.OutDir, "temp", sample+".counts.tsv")
}

// AlignmentFile is the persisted compressed alignment stream of a sample.
func (l Layout) AlignmentFile(sample string) string {
	return filepath.Join(l.OutDir, "bam", sample+".paf.zst")
}

// CoverageFile is the per-sample coverage statistics table.
func (l Layout) CoverageFile(sample string) string {
	return filepath.Join(l.OutDir, "temp", sample+".cov.tsv")
}

// MapLogFile is the diagnostic log of a sample mapping task.
func (l Layout) MapLogFile(sample string) string {
	return filepath.Join(l.OutDir, "logs", sample+".map.log")
}

// MapBenchFile is the timing record of a sample mapping task.
func (l Layout) MapBenchFile(sample string) string {
	return filepath.Join(l.OutDir, "benchmarks", sample+".map.txt")
}

// LengthsFile is the contig name/length table derived from the reference.
func (l Layout) LengthsFile() string {
	return filepath.Join(l.OutDir, "temp", "reference.lengths.tsv")
}

// CombinedFile is the aggregated all-samples coverage table.
func (l Layout) CombinedFile() string {
	return filepath.Join(l.OutDir, "all_coverage.tsv.gz")
}

// MapOutputs returns the four declared outputs of a sample mapping task.
func (l Layout) MapOutputs(sample string) []string {
	return []string{
		l.LibFile(sample),
		l.VarianceFile(sample),
		l.CountsFile(sample),
		l.AlignmentFile(sample),
	}
}
