package coverage

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"github.com/telatin/Koverage/pkg/fasta"
)

// WriteLib writes the library-statistics file: a single line holding the
// number of reads in the sample.
func WriteLib(w io.Writer, libSize int64) error {
	_, err := fmt.Fprintf(w, "%d\n", libSize)

	return errors.Wrap(err, "unable to write library size")
}

// ReadLib reads a library-statistics file.
func ReadLib(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to read %s", path)
	}

	libSize, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid library size in %s", path)
	}

	return libSize, nil
}

// WriteCounts writes the raw-count table (contig, length, count).
func WriteCounts(w io.Writer, rows []ContigCount) error {
	bw := bufio.NewWriter(w)
	for _, row := range rows {
		_, err := fmt.Fprintf(bw, "%s\t%d\t%d\n", row.Contig, row.Length, row.Count)
		if err != nil {
			return errors.Wrap(err, "unable to write count row")
		}
	}

	return errors.Wrap(bw.Flush(), "unable to flush counts")
}

// ReadCounts reads a raw-count table.
func ReadCounts(path string) ([]ContigCount, error) {
	var rows []ContigCount

	err := readTSV(path, 3, func(fields []string) error {
		length, err := strconv.Atoi(fields[1])
		if err != nil {
			return errors.Wrapf(err, "invalid length %q", fields[1])
		}
		count, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid count %q", fields[2])
		}
		rows = append(rows, ContigCount{Contig: fields[0], Length: length, Count: count})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// WriteVariances writes the variance table (contig, hitrate, variance).
func WriteVariances(w io.Writer, rows []ContigVariance) error {
	bw := bufio.NewWriter(w)
	for _, row := range rows {
		_, err := fmt.Fprintf(bw, "%s\t%g\t%g\n", row.Contig, row.Hitrate, row.Variance)
		if err != nil {
			return errors.Wrap(err, "unable to write variance row")
		}
	}

	return errors.Wrap(bw.Flush(), "unable to flush variances")
}

// ReadVariances reads a variance table.
func ReadVariances(path string) ([]ContigVariance, error) {
	var rows []ContigVariance

	err := readTSV(path, 3, func(fields []string) error {
		hitrate, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return errors.Wrapf(err, "invalid hitrate %q", fields[1])
		}
		variance, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return errors.Wrapf(err, "invalid variance %q", fields[2])
		}
		rows = append(rows, ContigVariance{Contig: fields[0], Hitrate: hitrate, Variance: variance})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// WriteLengths writes the contig name/length table of the reference.
func WriteLengths(w io.Writer, contigs []fasta.Contig) error {
	bw := bufio.NewWriter(w)
	for _, contig := range contigs {
		_, err := fmt.Fprintf(bw, "%s\t%d\n", contig.Name, contig.Length)
		if err != nil {
			return errors.Wrap(err, "unable to write length row")
		}
	}

	return errors.Wrap(bw.Flush(), "unable to flush lengths")
}

// ReadLengths reads a contig name/length table.
func ReadLengths(path string) ([]fasta.Contig, error) {
	var contigs []fasta.Contig

	err := readTSV(path, 2, func(fields []string) error {
		length, err := strconv.Atoi(fields[1])
		if err != nil {
			return errors.Wrapf(err, "invalid length %q", fields[1])
		}
		contigs = append(contigs, fasta.Contig{Name: fields[0], Length: length})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return contigs, nil
}

func readTSV(path string, columns int, fn func(fields []string) error) error {
	fh, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "unable to open %s", path)
	}
	defer fh.Close()

	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\n")
		if text == "" {
			continue
		}

		fields := strings.Split(text, "\t")
		if len(fields) < columns {
			return errors.Errorf("%s:%d: %d columns, want %d", path, line, len(fields), columns)
		}
		err := fn(fields)
		if err != nil {
			return errors.Wrapf(err, "%s:%d", path, line)
		}
	}

	return errors.Wrapf(scanner.Err(), "unable to scan %s", path)
}

// WriteRows writes the per-sample coverage table with a header line.
func WriteRows(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	err := gocsv.MarshalCSV(&rows, gocsv.NewSafeCSVWriter(cw))

	return errors.Wrap(err, "unable to marshal coverage rows")
}

// ReadRows reads a per-sample coverage table written by WriteRows.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'

	var rows []Row

	err := gocsv.UnmarshalCSV(cr, &rows)
	if err != nil {
		return nil, errors.Wrap(err, "unable to unmarshal coverage rows")
	}

	return rows, nil
}
