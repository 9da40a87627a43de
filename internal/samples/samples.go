// Package samples enumerates paired-end samples from a reads directory.
//
// A sample is recognised by the usual Illumina-style naming convention:
// <name>_R1.fastq / <name>_R2.fastq, or <name>_1.fastq / <name>_2.fastq,
// optionally gzipped. Enumeration happens once, before the workflow graph is
// built, and its result is immutable.
package samples

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/telatin/Koverage/pkg/workflow/model"
)

var ErrNoSamples = errors.New("no paired read files found")

var suffixes = []string{".fastq.gz", ".fq.gz", ".fastq", ".fq"}

var pairTags = [][2]string{
	{"_R1", "_R2"},
	{"_1", "_2"},
}

// splitRead returns the sample name and pair index (1 or 2) encoded in a read
// file name, or ok=false when the file does not look like a paired read.
func splitRead(filename string) (name string, pair int, ok bool) {
	base := filename
	trimmed := false
	for _, suffix := range suffixes {
		if strings.HasSuffix(base, suffix) {
			base = strings.TrimSuffix(base, suffix)
			trimmed = true

			break
		}
	}
	if !trimmed {
		return "", 0, false
	}

	for _, tags := range pairTags {
		if strings.HasSuffix(base, tags[0]) {
			return strings.TrimSuffix(base, tags[0]), 1, true
		}
		if strings.HasSuffix(base, tags[1]) {
			return strings.TrimSuffix(base, tags[1]), 2, true
		}
	}

	return "", 0, false
}

// Scan reads dir once and pairs its read files into samples, sorted by name.
// A read file whose mate is missing, or two files claiming the same mate,
// make the whole scan fail: silently dropping reads would skew every
// downstream statistic.
func Scan(dir string) ([]model.Sample, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read directory %s", dir)
	}

	pairs := make(map[string]*model.Sample)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name, pair, ok := splitRead(entry.Name())
		if !ok {
			continue
		}

		sample := pairs[name]
		if sample == nil {
			sample = &model.Sample{Name: name}
			pairs[name] = sample
		}

		path := filepath.Join(dir, entry.Name())
		switch pair {
		case 1:
			if sample.R1 != "" {
				return nil, errors.Errorf("sample %s: both %s and %s look like R1", name, sample.R1, path)
			}
			sample.R1 = path
		case 2:
			if sample.R2 != "" {
				return nil, errors.Errorf("sample %s: both %s and %s look like R2", name, sample.R2, path)
			}
			sample.R2 = path
		}
	}

	if len(pairs) == 0 {
		return nil, errors.Wrap(ErrNoSamples, dir)
	}

	names := make([]string, 0, len(pairs))
	for name := range pairs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]model.Sample, 0, len(names))
	for _, name := range names {
		sample := pairs[name]
		if sample.R1 == "" || sample.R2 == "" {
			return nil, errors.Errorf("sample %s: missing mate file (R1=%q, R2=%q)", name, sample.R1, sample.R2)
		}
		out = append(out, *sample)
	}

	return out, nil
}
