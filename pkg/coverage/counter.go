package coverage

import (
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"github.com/telatin/Koverage/pkg/fasta"
	"github.com/telatin/Koverage/pkg/workflow/model"
)

// ContigCount is one row of the raw-count table: contig, contig length and
// the number of alignment records hitting it.
type ContigCount struct {
	Contig string
	Length int
	Count  int64
}

// ContigVariance is one row of the variance table: contig, fraction of bins
// with at least one hit, and the variance of the per-bin depths.
type ContigVariance struct {
	Contig   string
	Hitrate  float64
	Variance float64
}

type contigState struct {
	length int
	count  int64
	bins   []int
}

// Counter accumulates alignment records into per-contig counts and binned
// depths. It is initialised with the full contig set of the reference so
// contigs without a single hit still appear in the output tables.
//
// Depth per bin is capped at the max-depth cutoff: a handful of pathological
// repeat regions would otherwise dominate the variance estimate.
type Counter struct {
	binWidth int
	maxDepth int
	contigs  map[string]*contigState
}

// NewCounter builds a counter over the given contigs.
func NewCounter(contigs []fasta.Contig, params model.MapParams) (*Counter, error) {
	err := params.Validate()
	if err != nil {
		return nil, err
	}

	states := make(map[string]*contigState, len(contigs))
	for _, contig := range contigs {
		bins := contig.Length / params.BinWidth
		if contig.Length%params.BinWidth != 0 {
			bins++
		}
		states[contig.Name] = &contigState{
			length: contig.Length,
			bins:   make([]int, bins),
		}
	}

	return &Counter{
		binWidth: params.BinWidth,
		maxDepth: params.MaxDepth,
		contigs:  states,
	}, nil
}

// Add accumulates one alignment record.
func (c *Counter) Add(rec PAFRecord) error {
	state, ok := c.contigs[rec.Target]
	if !ok {
		return errors.Errorf("alignment targets unknown contig %s", rec.Target)
	}

	state.count++

	start := rec.TargetStart / c.binWidth
	end := (rec.TargetEnd - 1) / c.binWidth
	if rec.TargetEnd <= rec.TargetStart {
		end = start
	}
	for bin := start; bin <= end && bin < len(state.bins); bin++ {
		if state.bins[bin] < c.maxDepth {
			state.bins[bin]++
		}
	}

	return nil
}

func (c *Counter) sortedNames() []string {
	names := make([]string, 0, len(c.contigs))
	for name := range c.contigs {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Counts returns the raw-count rows, sorted by contig name.
func (c *Counter) Counts() []ContigCount {
	rows := make([]ContigCount, 0, len(c.contigs))
	for _, name := range c.sortedNames() {
		state := c.contigs[name]
		rows = append(rows, ContigCount{Contig: name, Length: state.length, Count: state.count})
	}

	return rows
}

// Variances returns the hitrate/variance rows, sorted by contig name.
func (c *Counter) Variances() ([]ContigVariance, error) {
	rows := make([]ContigVariance, 0, len(c.contigs))
	for _, name := range c.sortedNames() {
		state := c.contigs[name]
		row := ContigVariance{Contig: name}

		if len(state.bins) > 0 {
			depths := make(stats.Float64Data, len(state.bins))
			hits := 0
			for i, depth := range state.bins {
				depths[i] = float64(depth)
				if depth > 0 {
					hits++
				}
			}

			variance, err := stats.PopulationVariance(depths)
			if err != nil {
				return nil, errors.Wrapf(err, "unable to compute variance for %s", name)
			}
			row.Hitrate = float64(hits) / float64(len(state.bins))
			row.Variance = variance
		}

		rows = append(rows, row)
	}

	return rows, nil
}
