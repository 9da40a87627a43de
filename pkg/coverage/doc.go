// Package coverage computes per-contig coverage statistics from the alignment
// records emitted by the mapping tasks: raw read counts, binned depth
// variance and hitrate per contig, normalised per-sample statistics (RPM,
// RPKM, RPK, TPM), and the combined all-samples table.
package coverage
