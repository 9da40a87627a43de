package coverage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

const combineBatchLines = 1000

type combined struct {
	count    int64
	rpm      float64
	rpkm     float64
	rpk      float64
	tpm      float64
	hitrate  float64
	variance float64
	samples  int
}

// Combine aggregates the per-sample coverage tables into one gzipped
// all-samples table. Counts and the normalised statistics are summed over
// samples; hitrate and variance are averaged. Contigs are sorted and floats
// are printed with four significant digits.
func Combine(samplePaths []string, w io.Writer) error {
	all := make(map[string]*combined)

	for _, path := range samplePaths {
		fh, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "unable to open %s", path)
		}

		rows, err := ReadRows(fh)
		_ = fh.Close()
		if err != nil {
			return errors.Wrapf(err, "unable to read %s", path)
		}

		for _, row := range rows {
			agg := all[row.Contig]
			if agg == nil {
				agg = &combined{}
				all[row.Contig] = agg
			}
			agg.count += row.Count
			agg.rpm += row.RPM
			agg.rpkm += row.RPKM
			agg.rpk += row.RPK
			agg.tpm += row.TPM
			agg.hitrate += row.Hitrate
			agg.variance += row.Variance
			agg.samples++
		}
	}

	contigs := make([]string, 0, len(all))
	for contig := range all {
		contigs = append(contigs, contig)
	}
	sort.Strings(contigs)

	gw, err := gzip.NewWriterLevel(w, gzip.BestSpeed)
	if err != nil {
		return errors.Wrap(err, "unable to create gzip writer")
	}
	bw := bufio.NewWriter(gw)

	batch := []string{"Contig\tCount\tRPM\tRPKM\tRPK\tTPM\tHitrate\tVariance"}
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := bw.WriteString(strings.Join(batch, "\n") + "\n")
		batch = batch[:0]

		return errors.Wrap(err, "unable to write combined batch")
	}

	for _, contig := range contigs {
		agg := all[contig]
		n := float64(agg.samples)
		batch = append(batch, fmt.Sprintf("%s\t%d\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g",
			contig, agg.count, agg.rpm, agg.rpkm, agg.rpk, agg.tpm, agg.hitrate/n, agg.variance/n))
		if len(batch) >= combineBatchLines {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "unable to flush combined table")
	}

	return errors.Wrap(gw.Close(), "unable to close gzip writer")
}
