// Package fasta provides minimal streaming access to FASTA and FASTQ files,
// enough to derive contig lengths from a reference assembly and library sizes
// from read files. Gzipped inputs are handled transparently.
package fasta

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Contig is one sequence record of the reference assembly.
type Contig struct {
	Name   string
	Length int
}

type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}

	return err
}

// openReader opens path, unwrapping gzip when the file carries the gzip magic
// number or a .gz suffix.
func openReader(path string) (io.ReadCloser, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", path)
	}

	var sig [2]byte
	n, _ := fh.Read(sig[:])
	_, _ = fh.Seek(0, io.SeekStart)

	if (n == 2 && sig[0] == 0x1f && sig[1] == 0x8b) || strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(fh)
		if err != nil {
			_ = fh.Close()

			return nil, errors.Wrapf(err, "unable to read gzip header of %s", path)
		}

		return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, fh}}, nil
	}

	return fh, nil
}

// ContigLengths scans a FASTA file and returns the name and length of every
// record, sorted by name. Only the first whitespace-delimited token of the
// header line is kept as the contig name.
func ContigLengths(path string) ([]Contig, error) {
	rc, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var (
		contigs []Contig
		current *Contig
	)

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			fields := bytes.Fields(line[1:])
			if len(fields) == 0 {
				return nil, errors.Errorf("%s: malformed FASTA header without a name", path)
			}
			contigs = append(contigs, Contig{Name: string(fields[0])})
			current = &contigs[len(contigs)-1]

			continue
		}
		if current == nil {
			return nil, errors.Errorf("%s: sequence data before first header", path)
		}
		current.Length += len(bytes.TrimSpace(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "unable to scan %s", path)
	}
	if len(contigs) == 0 {
		return nil, errors.Errorf("%s: no FASTA records", path)
	}

	sort.Slice(contigs, func(i, j int) bool { return contigs[i].Name < contigs[j].Name })

	return contigs, nil
}

// CountFastqReads returns the number of records in a FASTQ file.
func CountFastqReads(path string) (int64, error) {
	rc, err := openReader(path)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	var lines int64

	reader := bufio.NewReaderSize(rc, 256*1024)
	for {
		_, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, errors.Wrapf(err, "unable to read %s", path)
		}
		if isPrefix {
			// Long line continued; only count it once.
			for isPrefix {
				_, isPrefix, err = reader.ReadLine()
				if err != nil {
					return 0, errors.Wrapf(err, "unable to read %s", path)
				}
			}
		}
		lines++
	}
	if lines%4 != 0 {
		return 0, errors.Errorf("%s: truncated FASTQ, %d lines", path, lines)
	}

	return lines / 4, nil
}
